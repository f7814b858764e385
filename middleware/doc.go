// Package middleware adapts authcore session validation to net/http.
//
// RequireSession reads the Authorization header, validates the bearer token
// against the session store, and injects the authenticated identity into the
// request context. It translates HTTP semantics into Service calls and makes
// no authentication decisions of its own.
package middleware
