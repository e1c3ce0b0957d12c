package agent

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProviderUnavailable is wrapped by every error a FindingProvider
// returns when it cannot answer within its retry budget.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ErrNoDataset is recorded for the data role when no dataset was supplied
// and the demo fallback is disabled.
var ErrNoDataset = errors.New("no dataset supplied")

var errNoProvider = errors.New("no provider configured")

// ProviderUnavailable wraps cause so that it matches ErrProviderUnavailable.
func ProviderUnavailable(role Role, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrProviderUnavailable, role.DisplayName())
	}
	return fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, role.DisplayName(), cause)
}

// SchemaError reports a dataset that cannot be summarized: required columns
// are missing, or too many rows carry unparseable values.
type SchemaError struct {
	Missing     []string
	Unparseable int
	Rows        int
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required columns: "+strings.Join(e.Missing, ", "))
	}
	if e.Unparseable > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d rows unparseable", e.Unparseable, e.Rows))
	}
	if len(parts) == 0 {
		return "schema error"
	}
	return "schema error: " + strings.Join(parts, "; ")
}

// FailureKind classifies a recorded failure.
type FailureKind string

const (
	KindProviderUnavailable FailureKind = "provider_unavailable"
	KindSchema              FailureKind = "schema_error"
	KindNoDataset           FailureKind = "no_dataset"
	KindUnknown             FailureKind = "unknown"
)

// Failure is the error descriptor carried by a Result.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string { return f.Message }

// NewFailure classifies err. It returns nil for a nil error.
func NewFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	kind := KindUnknown
	var se *SchemaError
	switch {
	case errors.Is(err, ErrProviderUnavailable):
		kind = KindProviderUnavailable
	case errors.As(err, &se):
		kind = KindSchema
	case errors.Is(err, ErrNoDataset):
		kind = KindNoDataset
	}
	return &Failure{Kind: kind, Message: err.Error()}
}
