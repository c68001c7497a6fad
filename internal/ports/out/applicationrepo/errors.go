package applicationrepo

import "errors"

var (
	// ErrNotFound indicates the requested application does not exist.
	ErrNotFound = errors.New("application not found")

	// ErrMemberNotFound indicates a linked member row is missing.
	ErrMemberNotFound = errors.New("member not found")

	// ErrAlreadyExists indicates an application already exists with the provided ID.
	ErrAlreadyExists = errors.New("application already exists")
)
