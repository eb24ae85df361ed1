// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrBadRequest indicates malformed caller input. No state was changed.
var ErrBadRequest = errors.New("bad request")

// ErrAlreadyExecuted indicates an execution attempt for a proposal that
// already has a successful on-chain execution recorded.
var ErrAlreadyExecuted = errors.New("proposal already executed")
