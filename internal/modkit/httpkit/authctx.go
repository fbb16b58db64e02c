package httpkit

import (
	"net/http"

	perrs "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
	pnet "github.com/Scotts-Thoughts/fury-cutter/internal/platform/net"
)

// User returns the authenticated principal id from the request context
func User(r *http.Request) (string, error) {
	uid := pnet.UserID(r.Context())
	if uid == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return uid, nil
}

// MustUser returns the authenticated principal id or panics
// only use on routes behind the auth middleware
func MustUser(r *http.Request) string {
	uid, err := User(r)
	if err != nil {
		panic(err)
	}
	return uid
}
