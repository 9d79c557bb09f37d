package domain

import "fmt"

// The error taxonomy mirrors the failure surfaces of the two remote
// services. All store and client operations return one of these (or wrap
// one); callers branch with errors.As.

// AuthError covers bad credentials, session resolution failure and a
// missing credential in a login response. Message is user-facing.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Message, e.Err)
	}
	return "auth: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError is a registration rejected by the auth service.
// Message carries the service-provided reason verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return "validation: " + e.Message }

// CatalogError is a catalog list/create/delete failure.
type CatalogError struct {
	Op  string
	Err error
}

func (e *CatalogError) Error() string { return fmt.Sprintf("catalog %s: %v", e.Op, e.Err) }

func (e *CatalogError) Unwrap() error { return e.Err }

// EnrollmentError is a write or list failure against the enrollment service.
type EnrollmentError struct {
	Op  string
	Err error
}

func (e *EnrollmentError) Error() string { return fmt.Sprintf("enrollment %s: %v", e.Op, e.Err) }

func (e *EnrollmentError) Unwrap() error { return e.Err }

// NetworkError is a transport-level failure, distinct from a non-success
// response the service actually produced.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network: %v", e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }
