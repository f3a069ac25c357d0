// Package middleware contains HTTP middleware for the Wayfind application.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with Stack.
package middleware

import "net/http"

// Middleware is a standard http.Handler wrapper.
type Middleware func(http.Handler) http.Handler

// Stack composes middlewares so the first argument is the outermost wrapper.
//
//	Stack(a, b, c)(h) == a(b(c(h)))
func Stack(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
