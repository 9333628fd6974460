package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/electroshop/pkg/errors"
)

// ResponseError describes a non-2xx response from a downstream API.
type ResponseError struct {
	Service    string
	StatusCode int
	Code       string
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s returned %d (%s): %s", e.Service, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the shared sentinel errors so callers can
// use errors.Is(err, apperrors.ErrNotFound) and friends.
func (e *ResponseError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.StatusCode == http.StatusBadRequest:
		return apperrors.ErrInvalidInput
	case e.StatusCode == http.StatusConflict:
		return apperrors.ErrConflict
	case e.StatusCode == http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case e.StatusCode == http.StatusServiceUnavailable:
		return apperrors.ErrServiceUnavail
	case e.StatusCode >= http.StatusInternalServerError:
		return apperrors.ErrInternal
	default:
		return nil
	}
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// returns a *ResponseError. Both the enveloped {"error":{"code","message"}}
// form and the flat {"error":"message"} form are understood; anything else is
// kept verbatim as the message.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	re := &ResponseError{Service: service, StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		re.Message = fmt.Sprintf("read body: %v", err)
		return re
	}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && len(envelope.Error) > 0 {
		var flat string
		var nested struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		switch {
		case json.Unmarshal(envelope.Error, &flat) == nil:
			re.Message = flat
			return re
		case json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "":
			re.Code = nested.Code
			re.Message = nested.Message
			return re
		}
	}

	re.Message = strings.TrimSpace(string(body))
	if re.Message == "" {
		re.Message = http.StatusText(resp.StatusCode)
	}
	return re
}

// IsSuccess reports whether status is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
