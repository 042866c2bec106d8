package service

import (
	"fmt"
	"runtime"
)

type ProcessingError struct {
	Identifier string
	IsFatal    bool
	Message    string
	Source     string
}

// NewProcessingError returns a new ProcessingError. Param identifier is
// the storage key or catalog record identifier being processed when the
// error occurred. Param isFatal describes whether the error is fatal.
// Fatal errors are those which will recur if the same item is
// reprocessed, such as a record that fails validation. Transient errors,
// mostly network failures, are likely to succeed on a later attempt, so
// batch operations collect them and move on to the next item.
func NewProcessingError(identifier, message string, isFatal bool) *ProcessingError {
	_, filename, line, ok := runtime.Caller(1)
	source := "unknown:0"
	if ok {
		source = fmt.Sprintf("%s:%d", filename, line)
	}
	return &ProcessingError{
		Identifier: identifier,
		IsFatal:    isFatal,
		Message:    message,
		Source:     source,
	}
}

func (e *ProcessingError) Error() string {
	severity := "non-fatal"
	if e.IsFatal {
		severity = "fatal"
	}
	return fmt.Sprintf("(message: %s) (severity: %s) (identifier: %s) (source: %s)",
		e.Message, severity, e.Identifier, e.Source)
}

// HttpError captures details of error responses from the catalog API.
type HttpError struct {
	Err        error
	Message    string
	Method     string
	StatusCode int
	URL        string
}

func NewHttpError(message string, err error, method, url string, statusCode int) *HttpError {
	return &HttpError{
		Err:        err,
		Message:    message,
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
	}
}

func (e *HttpError) Unwrap() error {
	return e.Err
}

func (e *HttpError) Error() string {
	return e.Message
}

func (e *HttpError) Detail() string {
	underlyingError := ""
	if e.Err != nil {
		underlyingError = fmt.Sprintf("(Underlying error: %s)", e.Err.Error())
	}
	return fmt.Sprintf(
		"%s: %s returned status %d. Message: %s %s",
		e.Method, e.URL, e.StatusCode, e.Message, underlyingError)
}
