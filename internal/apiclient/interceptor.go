package apiclient

import "strings"

// DefaultAPIPrefix is the path segment prepended to root-relative targets.
const DefaultAPIPrefix = "/api"

// Interceptor rewrites an outgoing request target before it is resolved
// against the backend base URL.
type Interceptor func(target string) string

// NewPrefixInterceptor returns an Interceptor that prepends prefix to
// root-relative targets and leaves absolute URLs unchanged.
func NewPrefixInterceptor(prefix string) Interceptor {
	prefix = strings.TrimSuffix(prefix, "/")
	return func(target string) string {
		if strings.HasPrefix(target, "/") {
			return prefix + target
		}
		return target
	}
}

// PrefixAPI rewrites root-relative targets to live under DefaultAPIPrefix.
//
//	PrefixAPI("/ola")                   == "/api/ola"
//	PrefixAPI("https://example.com/x")  == "https://example.com/x"
func PrefixAPI(target string) string {
	if strings.HasPrefix(target, "/") {
		return DefaultAPIPrefix + target
	}
	return target
}
