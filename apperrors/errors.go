package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an error with the HTTP status it should be reported with
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code and message, so wrapped copies of
// the canned errors below compare equal to them.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Message == e.Message
}

// Wrap returns a copy of e carrying err
func (e *Error) Wrap(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized       = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrNotFound           = New(http.StatusNotFound, "Not found", nil)
	ErrTooManyRequests    = New(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "Service unavailable", nil)
)

// Import request errors
var (
	ErrNoFile          = New(http.StatusBadRequest, "No file uploaded", nil)
	ErrUnsupportedFile = New(http.StatusBadRequest, "Unsupported file type. Upload an .xlsx, .xls or .csv file", nil)
	ErrFileTooLarge    = New(http.StatusBadRequest, "File too large", nil)
	ErrUnreadableFile  = New(http.StatusBadRequest, "Unable to parse file", nil)
	ErrNoData          = New(http.StatusBadRequest, "No data found in file", nil)
)

// Envelope is the body of every API response
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes err as a failed envelope. Errors that are not *Error are
// reported as 500 without exposing their text.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternalServer.Wrap(err)
	}
	msg := appErr.Message
	if appErr.Code < http.StatusInternalServerError && appErr.Err != nil {
		msg = appErr.Error()
	}
	c.AbortWithStatusJSON(appErr.Code, Envelope{Success: false, Message: msg})
}

// ErrorMiddleware renders the last error attached with c.Error, if the
// handler did not already write a response.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		Respond(c, c.Errors.Last().Err)
	}
}
