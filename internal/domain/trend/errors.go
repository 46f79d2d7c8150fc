// internal/domain/trend/errors.go

package trend

import (
	"errors"
	"fmt"
)

// VendorErrorKind classifies a failure reported by the social-data vendor
type VendorErrorKind int

const (
	// VendorTransient is a temporary failure worth retrying
	VendorTransient VendorErrorKind = iota

	// VendorRateLimited means the vendor throttled the call; retryable
	// after backoff
	VendorRateLimited

	// VendorNotFound means the requested profile or content does not
	// exist or is private; terminal for the call
	VendorNotFound

	// VendorForbidden means access was denied; terminal for the call
	VendorForbidden
)

// String returns the kind's wire name
func (k VendorErrorKind) String() string {
	switch k {
	case VendorRateLimited:
		return "rate_limited"
	case VendorNotFound:
		return "not_found"
	case VendorForbidden:
		return "forbidden"
	default:
		return "transient"
	}
}

// VendorError is a classified failure from the social-data vendor
type VendorError struct {
	Kind VendorErrorKind
	Op   string
	Err  error
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("vendor %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *VendorError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth retrying with backoff
func (e *VendorError) Retryable() bool {
	return e.Kind == VendorTransient || e.Kind == VendorRateLimited
}

// NewVendorError wraps err as a vendor failure of the given kind
func NewVendorError(kind VendorErrorKind, op string, err error) *VendorError {
	return &VendorError{Kind: kind, Op: op, Err: err}
}

// IsVendorKind reports whether err is a VendorError of the given kind
func IsVendorKind(err error, kind VendorErrorKind) bool {
	var ve *VendorError
	return errors.As(err, &ve) && ve.Kind == kind
}

// ClassifierError is a failure of one of the AI collaborators. Every
// call site has a deterministic fallback, so the pipeline never fails
// solely because of one.
type ClassifierError struct {
	Classifier string
	Err        error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("%s classifier: %v", e.Classifier, e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

// InsufficientDataError is the only condition that terminates the
// pipeline with a user-facing failure: no posts, or zero candidates
// after the last-resort filter tier and the backup-hashtag attempt.
type InsufficientDataError struct {
	Handle string
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for @%s: %s", e.Handle, e.Reason)
}

// ErrBusy signals that another computation holds the profile's lock and
// no cached result appeared within the wait window. Callers should
// retry shortly.
var ErrBusy = errors.New("analysis already in progress, retry shortly")
