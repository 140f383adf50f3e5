// Package common contains shared constants and sentinel errors used across
// gatekeeper components.
package common

// AuthorizationHeaderName is the request header carrying Basic credentials.
const AuthorizationHeaderName = "Authorization"

// DefaultSessionCookieName is the cookie used by the session strategies when
// no other name is configured.
const DefaultSessionCookieName = "_my_session_id"

// ServiceSessionCookieName is the cookie set by the /sessions login flow.
const ServiceSessionCookieName = "session_id"
