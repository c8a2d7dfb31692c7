package auth

import "github.com/gin-gonic/gin"

// AuthModule implements the app.Module interface for the login and
// registration pages.
type AuthModule struct {
	handler *AuthHandler
}

// NewModule creates a new AuthModule with the given handler.
// Panics if h is nil.
func NewModule(h *AuthHandler) *AuthModule {
	if h == nil {
		panic("auth.NewModule: handler must not be nil")
	}
	return &AuthModule{handler: h}
}

// RegisterRoutes registers the auth pages. The module has no API routes.
func (m *AuthModule) RegisterRoutes(_ *gin.RouterGroup, pages *gin.RouterGroup) {
	pages.GET("/login", m.handler.LoginPage)
	pages.POST("/login", m.handler.Login)
	pages.GET("/cadastro", m.handler.RegisterPage)
	pages.POST("/cadastro", m.handler.Register)
}
