package integration

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
)

// APIError carries the HTTP status of a failed Gemini call so callers can classify it.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

// grpcStatusCodes maps gRPC status names onto the HTTP codes the REST API would return.
var grpcStatusCodes = map[string]int{
	"ResourceExhausted": http.StatusTooManyRequests,
	"Unavailable":       http.StatusServiceUnavailable,
	"Internal":          http.StatusInternalServerError,
	"DeadlineExceeded":  http.StatusGatewayTimeout,
	"InvalidArgument":   http.StatusBadRequest,
	"PermissionDenied":  http.StatusForbidden,
	"Unauthenticated":   http.StatusUnauthorized,
	"NotFound":          http.StatusNotFound,
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		msg := gErr.Message
		if msg == "" {
			msg = http.StatusText(gErr.Code)
		}
		return &APIError{StatusCode: gErr.Code, Message: msg, Err: err}
	}

	var aErr *apierror.APIError
	if errors.As(err, &aErr) {
		if code := aErr.HTTPCode(); code > 0 {
			return &APIError{StatusCode: code, Message: aErr.Error(), Err: err}
		}
		if st := aErr.GRPCStatus(); st != nil {
			if code, ok := grpcStatusCodes[st.Code().String()]; ok {
				return &APIError{StatusCode: code, Message: st.Message(), Err: err}
			}
		}
	}

	return err
}
