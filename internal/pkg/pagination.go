package pkg

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/authportal/internal/domain"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
	defaultSort     = "id:desc"
)

var reservedParams = map[string]bool{
	"page":      true,
	"page_size": true,
	"sort":      true,
}

// filterOps maps a filter key suffix to its SQL operator. A key without a
// known suffix is an exact match.
var filterOps = []struct {
	suffix string
	op     string
}{
	{"__like", "LIKE"},
	{"__gte", ">="},
	{"__lte", "<="},
}

var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParsePageRequest reads page, page_size and sort from the query string.
// Every other non-empty parameter becomes a filter entry; scopes decide
// which of them apply.
func ParsePageRequest(c *gin.Context) domain.PageRequest {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = defaultPage
	}

	pageSize, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)

	filter := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] || len(values) == 0 || values[0] == "" {
			continue
		}
		filter[key] = values[0]
	}

	return domain.PageRequest{
		Page:     page,
		PageSize: pageSize,
		Sort:     c.DefaultQuery("sort", defaultSort),
		Filter:   filter,
	}
}

// Paginate applies LIMIT and OFFSET.
func Paginate(req domain.PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((req.Page - 1) * req.PageSize).Limit(req.PageSize)
	}
}

// Sort applies ORDER BY for a "field:asc|desc" sort key. Fields outside
// allowed, malformed keys and unknown directions are ignored.
func Sort(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field, direction, ok := strings.Cut(req.Sort, ":")
		if !ok {
			return db
		}
		field = strings.TrimSpace(field)
		direction = strings.ToLower(strings.TrimSpace(direction))

		if direction != "asc" && direction != "desc" {
			return db
		}
		if !isAllowed(field, allowed) {
			return db
		}
		return db.Order(field + " " + direction)
	}
}

// Filter applies WHERE conditions for filter keys naming an allowed field.
// Suffixes select the operator: "__like" (substring), "__gte", "__lte";
// a bare field name is an exact match.
func Filter(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		keys := make([]string, 0, len(req.Filter))
		for key := range req.Filter {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		for _, key := range keys {
			field, op := splitFilterKey(key)
			if !isAllowed(field, allowed) {
				continue
			}
			value := req.Filter[key]
			if op == "LIKE" {
				value = "%" + value + "%"
			}
			db = db.Where(field+" "+op+" ?", value)
		}
		return db
	}
}

func splitFilterKey(key string) (field, op string) {
	for _, f := range filterOps {
		if name, ok := strings.CutSuffix(key, f.suffix); ok {
			return name, f.op
		}
	}
	return key, "="
}

// NewPageResult wraps one page of items with its pagination metadata.
func NewPageResult[T any](items []T, total int64, req domain.PageRequest) *domain.PageResult[T] {
	totalPages := 0
	if req.PageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	}
	if items == nil {
		items = []T{}
	}
	return &domain.PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}
}

func isAllowed(field string, allowed []string) bool {
	return validFieldName.MatchString(field) && slices.Contains(allowed, field)
}
