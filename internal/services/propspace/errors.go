package propspace

import "errors"

var (
	// ErrAuth means the credential exchange itself failed. No further provider
	// calls can succeed until credentials are fixed.
	ErrAuth = errors.New("propspace: authentication failed")

	// ErrNotFound is returned when the provider reports 404 for a resource.
	ErrNotFound = errors.New("propspace: not found")
)
