package api

import (
	"errors"
	"net/http"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/turnover/internal/adapters/csvtable"
	"github.com/okian/turnover/internal/adapters/inference"
	"github.com/okian/turnover/internal/adapters/repository"
	service "github.com/okian/turnover/internal/app"
	"github.com/okian/turnover/internal/domain/features"
	"github.com/okian/turnover/internal/domain/fusion"
	"github.com/okian/turnover/internal/validation"
)

// Sentinel kinds for API errors. Each maps to one status code.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrUnprocessable   = errors.New("unprocessable entity")
	ErrTooManyRequests = errors.New("too many requests")
	ErrUnavailable     = errors.New("service unavailable")
	ErrInternal        = errors.New("internal error")
)

var (
	errMissingAPIKey = errors.New("the X-API-Key header is required")
	errInvalidAPIKey = errors.New("invalid API key")
)

var kinds = []struct {
	kind   error
	status int
	code   string
}{
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrUnprocessable, http.StatusUnprocessableEntity, "validation_error"},
	{ErrTooManyRequests, http.StatusTooManyRequests, "rate_limited"},
	{ErrUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	{ErrInternal, http.StatusInternalServerError, "internal_error"},
}

// KindError ties a failure to the operation that hit it and an API kind.
type KindError struct {
	Op      string
	Kind    error
	Err     error
	Details any
}

// NewKind returns an error of kind without a cause.
func NewKind(op string, kind error) *KindError {
	return &KindError{Op: op, Kind: kind}
}

// WrapKind returns an error of kind caused by err.
func WrapKind(op string, kind, err error) *KindError {
	return &KindError{Op: op, Kind: kind, Err: err}
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *KindError) Is(target error) bool { return target == e.Kind }

func (e *KindError) Unwrap() error { return e.Err }

// message is what the client sees. Internal causes stay in the logs.
func (e *KindError) message() string {
	if e.Err == nil || e.Kind == ErrInternal {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

// Wrap classifies a domain error into an API kind.
func Wrap(op string, err error) *KindError {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke
	}
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		return &KindError{Op: op, Kind: ErrUnprocessable, Err: err, Details: ve.Fields}
	case errors.Is(err, features.ErrUnknownCategory):
		return WrapKind(op, ErrUnprocessable, err)
	case errors.Is(err, fusion.ErrEmptyInput),
		errors.Is(err, fusion.ErrMissingColumn),
		errors.Is(err, fusion.ErrInvalidValue),
		errors.Is(err, features.ErrMissingColumn),
		errors.Is(err, csvtable.ErrMalformed),
		errors.Is(err, repository.ErrInvalidLimit):
		return WrapKind(op, ErrBadRequest, err)
	case errors.Is(err, repository.ErrNotFound):
		return WrapKind(op, ErrNotFound, err)
	case errors.Is(err, inference.ErrModelUnavailable),
		errors.Is(err, service.ErrNotStarted),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return WrapKind(op, ErrUnavailable, err)
	default:
		return WrapKind(op, ErrInternal, err)
	}
}

func statusOf(kind error) (int, string) {
	for _, k := range kinds {
		if k.kind == kind {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}
