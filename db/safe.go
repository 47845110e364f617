package db

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Outcome string

const (
	OK       Outcome = "ok"
	Degraded Outcome = "degraded"
	Failed   Outcome = "failed"
)

// Reasons attached to a degraded or failed Result.
const (
	ReasonQuota            = "quota"
	ReasonPermissionDenied = "permission-denied"
	ReasonUnavailable      = "unavailable"
	ReasonNotFound         = "not-found"
	ReasonUnknown          = "unknown"
)

// Result carries the data of a guarded store call together with how it
// was obtained. Data is the fallback unless Outcome is OK.
type Result[T any] struct {
	Data    T
	Outcome Outcome
	Reason  string
	Err     error
}

func (r Result[T]) OK() bool { return r.Outcome == OK }

func (r Result[T]) Degraded() bool { return r.Outcome == Degraded }

// Unwrap returns Data and, for a failed call, the underlying error.
func (r Result[T]) Unwrap() (T, error) {
	if r.Outcome == Failed {
		return r.Data, r.Err
	}
	return r.Data, nil
}

// Safe runs fn and never lets its error escape unclassified. Recognized
// backend conditions yield Degraded with fallback; anything else yields
// Failed with fallback and the error.
func Safe[T any](ctx context.Context, name string, fallback T, fn func(context.Context) (T, error)) Result[T] {
	data, err := fn(ctx)
	if err == nil {
		return Result[T]{Data: data, Outcome: OK}
	}

	reason := Classify(err)
	entry := log.WithFields(log.Fields{
		"operation": name,
		"reason":    reason,
	}).WithError(err)

	if reason == ReasonUnknown {
		entry.Error("Store operation failed")
		return Result[T]{Data: fallback, Outcome: Failed, Reason: reason, Err: err}
	}
	entry.Warn("Store operation degraded, using fallback")
	return Result[T]{Data: fallback, Outcome: Degraded, Reason: reason, Err: err}
}

// Classify maps a store error onto one of the Reason constants.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotFound) {
		return ReasonNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonUnavailable
	}

	switch status.Code(errors.Cause(err)) {
	case codes.ResourceExhausted:
		return ReasonQuota
	case codes.PermissionDenied, codes.Unauthenticated:
		return ReasonPermissionDenied
	case codes.Unavailable, codes.DeadlineExceeded:
		return ReasonUnavailable
	case codes.NotFound:
		return ReasonNotFound
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"), strings.Contains(msg, "resource-exhausted"):
		return ReasonQuota
	case strings.Contains(msg, "permission-denied"):
		return ReasonPermissionDenied
	case strings.Contains(msg, "unavailable"):
		return ReasonUnavailable
	}
	return ReasonUnknown
}
