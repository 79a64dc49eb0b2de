package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ValidationError reports a missing or malformed required field. It never
// reaches the issuance log.
type ValidationError struct {
	Field string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input"
	}
	return fmt.Sprintf("%s is required", e.Field)
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

var ErrInvalidInput = ValidationError{}

// IssuanceError reports a hashing, persistence, or timeout failure during
// a log append. A failed issuance commits nothing; the caller may retry
// and will receive a fresh identifier.
type IssuanceError struct {
	Reason string
}

func (e IssuanceError) Error() string {
	if e.Reason == "" {
		return "issuance failed"
	}
	return fmt.Sprintf("issuance failed: %s", e.Reason)
}

func (e IssuanceError) Is(target error) bool {
	_, ok := target.(IssuanceError)
	if ok {
		return true
	}
	_, ok = target.(*IssuanceError)
	return ok
}

var ErrIssuance = IssuanceError{}

// EncodingError reports a credential payload that does not fit the QR
// scheme. The underlying identity record still exists; callers should
// re-encode, not re-issue.
type EncodingError struct {
	Reason string
}

func (e EncodingError) Error() string {
	if e.Reason == "" {
		return "credential encoding failed"
	}
	return fmt.Sprintf("credential encoding failed: %s", e.Reason)
}

func (e EncodingError) Is(target error) bool {
	_, ok := target.(EncodingError)
	if ok {
		return true
	}
	_, ok = target.(*EncodingError)
	return ok
}

var ErrEncoding = EncodingError{}
