package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// Standard workspace error types callers can match with errors.Is.
var (
	// ErrPermissionDenied indicates the token lacks access to the resource.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound indicates the job or path does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited indicates the workspace is throttling requests.
	ErrRateLimited = errors.New("rate limited")
)

// APIError carries the structured error body the workspace API returns.
type APIError struct {
	Op         string `json:"op"`
	StatusCode int    `json:"status_code"`
	Code       string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: workspace API returned %d (%s): %s", e.Op, e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.StatusCode == http.StatusForbidden || e.Code == "PERMISSION_DENIED"
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || e.Code == "RESOURCE_DOES_NOT_EXIST"
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// IsNotFound checks if an error indicates a missing job or path.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPermissionDenied checks if an error indicates insufficient access.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

func apiError(op string, resp *resty.Response) *APIError {
	apiErr := &APIError{
		Op:         op,
		StatusCode: resp.StatusCode(),
		Message:    resp.Status(),
	}

	var body struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}

	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		if body.ErrorCode != "" {
			apiErr.Code = body.ErrorCode
		}

		if body.Message != "" {
			apiErr.Message = body.Message
		}
	}

	return apiErr
}
