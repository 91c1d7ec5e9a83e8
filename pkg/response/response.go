package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/streamtube-backend/pkg/apperr"
)

// APIResponse is the uniform JSON envelope for every endpoint.
type APIResponse[T any] struct {
	StatusCode int       `json:"statusCode"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Data       T         `json:"data,omitempty"`
	Errors     []string  `json:"errors,omitempty"`
}

// Success writes a success envelope to the response.
func Success[T any](ctx *gin.Context, status int, data T, message string) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, APIResponse[T]{
		StatusCode: status,
		Timestamp:  time.Now(),
		RequestID:  ctx.GetString("request_id"),
		Success:    true,
		Message:    message,
		Data:       data,
	})
}

// Fail writes an error envelope with an explicit status and detail list.
func Fail(ctx *gin.Context, status int, message string, details []string) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	if details == nil {
		details = []string{}
	}
	ctx.JSON(status, APIResponse[any]{
		StatusCode: status,
		Timestamp:  time.Now(),
		RequestID:  ctx.GetString("request_id"),
		Success:    false,
		Message:    message,
		Errors:     details,
	})
}

// FromError maps a use-case failure to the error envelope. Typed failures keep
// their status and message; anything else becomes an opaque 500.
func FromError(ctx *gin.Context, err error) {
	Fail(ctx, apperr.StatusOf(err), apperr.MessageOf(err), nil)
}

// AbortUnauthorized writes a 401 envelope and stops the handler chain.
func AbortUnauthorized(ctx *gin.Context, message string) {
	Fail(ctx, http.StatusUnauthorized, message, nil)
	ctx.Abort()
}
