package repository

import "errors"

var (
	ErrAttemptExists     = errors.New("checkout attempt already exists")
	ErrInvalidTransition = errors.New("checkout attempt is not in the expected state")
)
