package usecase

import "errors"

// ErrPersistence indicates an infrastructure/repository failure inside a use case.
// It is surfaced to callers as a generic failure and never exposes store internals.
var ErrPersistence = errors.New("presence use case persistence error")

// ErrUnauthenticated indicates the caller has no resolvable identity.
var ErrUnauthenticated = errors.New("presence: unauthenticated")

// ErrForbidden indicates an authenticated caller asked for a channel it may not join.
var ErrForbidden = errors.New("presence: forbidden channel")
