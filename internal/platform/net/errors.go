package net

import (
	"net/http"

	perr "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
)

// HTTPStatus maps a project error to http status
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return perr.HTTPStatus(err)
}
