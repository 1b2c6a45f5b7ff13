package model

import "strings"

// AuthContext carries the caller's bearer token into every authenticated
// upstream call. It is read from the incoming request, never from shared state.
type AuthContext struct {
	Token string
}

// AuthFromHeader builds an AuthContext from an Authorization header value.
// A missing "Bearer " prefix is tolerated.
func AuthFromHeader(header string) AuthContext {
	token := strings.TrimSpace(header)
	if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "bearer") {
		token = strings.TrimSpace(rest)
	} else if strings.EqualFold(token, "bearer") {
		token = ""
	}
	return AuthContext{Token: token}
}

// Authenticated reports whether a token is present.
func (a AuthContext) Authenticated() bool {
	return a.Token != ""
}

// Header returns the Authorization header value to send upstream.
func (a AuthContext) Header() string {
	return "Bearer " + a.Token
}
