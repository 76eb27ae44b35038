package backendsvc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
)

// CodeMarksAlreadyExist is the error code of a marks creation rejected because the student already has marks.
const CodeMarksAlreadyExist = "MARKS_ALREADY_EXIST"

// APIError is a non-2xx answer of the marks service.
type APIError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, http.StatusText(e.Status), e.Message)
}

func (e *APIError) UserMessage() string {
	return e.Message
}

// alreadyExists reports whether a marks creation was rejected because a record already exists.
func (e *APIError) alreadyExists() bool {
	if e.Code != "" {
		return e.Code == CodeMarksAlreadyExist
	}
	return strings.Contains(strings.ToLower(e.Message), "already exist")
}

// NetworkError is a failure to reach the marks service.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) UserMessage() string {
	return "Unable to reach the marks service"
}

// envelope is the error body of the marks service. Bodies that are not JSON are plain text messages.
type envelope struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func newAPIError(op string, res *rest.Response, fallback string) *APIError {
	apiErr := &APIError{Op: op, Status: res.StatusCode}

	body := strings.TrimSpace(res.Body)
	if json.Valid([]byte(body)) {
		var env envelope
		if err := json.Unmarshal([]byte(body), &env); err == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
		}
	} else {
		apiErr.Message = body
	}
	if apiErr.Message == "" {
		apiErr.Message = fallback
	}
	return apiErr
}
