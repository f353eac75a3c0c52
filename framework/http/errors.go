package http

import (
	"errors"
	"fmt"
)

// Feishu codes reporting an invalid or expired access token.
const (
	CodeTenantTokenInvalid = 99991663
	CodeAppTokenInvalid    = 99991664
	CodeAccessTokenInvalid = 99991668
	CodeTokenMissing       = 99991661
)

// APIError is returned when the API answers with a non-zero code, or with an
// HTTP error status and a body that is not a Feishu envelope.
type APIError struct {
	Code       int
	Msg        string
	HTTPStatus int
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("feishu: http status %d: %s", e.HTTPStatus, e.Msg)
	}
	return fmt.Sprintf("feishu: code=%d msg=%s", e.Code, e.Msg)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// IsTokenInvalid reports whether err means the access token must be refreshed.
func IsTokenInvalid(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case CodeTenantTokenInvalid, CodeAppTokenInvalid, CodeAccessTokenInvalid, CodeTokenMissing:
		return true
	}
	return false
}
