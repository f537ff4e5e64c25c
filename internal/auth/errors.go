package auth

import "errors"

var (
	errAuthDisabled = errors.New("auth: token verification is disabled")
	errBadHeader    = errors.New("auth: Authorization header must use the Bearer scheme")
	errUnknownUser  = errors.New("auth: token subject is not a current user")
)
