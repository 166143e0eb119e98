// Package auth identifies who is calling the catalog API.
//
// Two modes are supported, selected by AUTH_MODE:
//
//	AUTH_MODE=none   # every request acts as LocalUser (admin role)
//	AUTH_MODE=local  # users log in with a password or a bearer token
//
// In local mode the Middleware resolves a bearer token first and the session
// cookie second, then stores the *entities.User in the gin context where
// CurrentUser finds it. RequireCapability turns the access policy into a 403.
//
// Sessions are kept by scs. Besides the login keys the session carries the
// num_visits counter shown on the index page, so sessions are loaded in both
// modes.
package auth
