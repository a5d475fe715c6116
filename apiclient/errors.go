package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

// Error codes carried by APIError.Code.
const (
	CodeNetwork     = "ERR_NETWORK"
	CodeTimeout     = "ECONNABORTED"
	CodeBadResponse = "ERR_BAD_RESPONSE"
	CodeBadRequest  = "ERR_BAD_REQUEST"
	CodeValidation  = "ERR_VALIDATION"
)

const defaultErrorMessage = "An error occurred"

// ErrRenewalFailed is wrapped by every error produced by a failed token
// renewal. A renewal failure ends the session.
var ErrRenewalFailed = fmt.Errorf("token renewal failed: %w", autherrors.ErrSessionExpired)

// APIError is the uniform shape every failed request is reported in.
type APIError struct {
	Message string `json:"message" yaml:"message"`
	Status  int    `json:"status,omitempty" yaml:"status,omitempty"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
	Details any    `json:"details,omitempty" yaml:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

// Is maps HTTP statuses onto the shared sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case autherrors.ErrInvalidCredentials:
		return e.Status == http.StatusUnauthorized
	case autherrors.ErrNotFound:
		return e.Status == http.StatusNotFound
	case autherrors.ErrUserExists:
		return e.Status == http.StatusConflict
	case autherrors.ErrInvalidRequest:
		return e.Code == CodeValidation || e.Status == http.StatusBadRequest
	}
	return false
}

// renewalError wraps the cause of a failed renewal.
type renewalError struct {
	cause error
}

func (e *renewalError) Error() string {
	return ErrRenewalFailed.Error() + ": " + e.cause.Error()
}

func (e *renewalError) Unwrap() []error {
	return []error{ErrRenewalFailed, e.cause}
}

func newRenewalError(cause error) error {
	if cause == nil {
		cause = autherrors.ErrInternal
	}
	return &renewalError{cause: cause}
}

// errorFromResponse builds an APIError from a non-2xx response and closes its body.
func errorFromResponse(resp *http.Response) *APIError {
	defer resp.Body.Close()

	apiErr := &APIError{
		Status: resp.StatusCode,
		Code:   CodeBadRequest,
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		apiErr.Code = CodeBadResponse
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var details any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &details); err != nil {
			details = strings.TrimSpace(string(body))
		}
	}
	apiErr.Details = details

	if m, ok := details.(map[string]any); ok {
		if msg, ok := m["message"].(string); ok && msg != "" {
			apiErr.Message = msg
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("Request failed with status code %d", resp.StatusCode)
	}
	return apiErr
}

// normalize turns a transport error into an APIError. Renewal failures and
// APIErrors are returned as they are.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	if autherrors.Is(err, ErrRenewalFailed) {
		var urlErr *url.Error
		if autherrors.As(err, &urlErr) {
			return urlErr.Err
		}
		return err
	}

	var apiErr *APIError
	if autherrors.As(err, &apiErr) {
		return apiErr
	}

	var validationErrs validator.ValidationErrors
	if autherrors.As(err, &validationErrs) {
		return validationError(validationErrs)
	}

	apiErr = &APIError{
		Message: err.Error(),
		Code:    CodeNetwork,
	}
	var urlErr *url.Error
	if autherrors.As(err, &urlErr) && urlErr.Timeout() || autherrors.Is(err, context.DeadlineExceeded) {
		apiErr.Code = CodeTimeout
	}
	if apiErr.Message == "" {
		apiErr.Message = defaultErrorMessage
	}
	return apiErr
}

func validationError(errs validator.ValidationErrors) *APIError {
	fields := make(map[string]string, len(errs))
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fe.Tag()
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' check", fe.Field(), fe.Tag()))
	}
	return &APIError{
		Message: strings.Join(msgs, "; "),
		Code:    CodeValidation,
		Details: fields,
	}
}
