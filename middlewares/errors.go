package middlewares

import (
	"fmt"
	"net/http"

	"MediCore/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// errorBody is the envelope of every failed response.
type errorBody struct {
	Success    bool               `json:"success"`
	StatusCode int                `json:"statusCode"`
	Kind       utils.ErrorKind    `json:"kind"`
	Message    string             `json:"message"`
	Errors     []utils.FieldError `json:"errors"`
	Stack      string             `json:"stack,omitempty"`
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last error attached to the context. Handlers only
// call c.Error; nothing below this middleware writes error bodies.
func ErrorHandler(log zerolog.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		apiErr := utils.AsAPIError(c.Errors.Last().Err)
		writeError(c, log, apiErr, production)
	}
}

func writeError(c *gin.Context, log zerolog.Logger, apiErr *utils.APIError, production bool) {
	body := errorBody{
		Success:    false,
		StatusCode: apiErr.StatusCode,
		Kind:       apiErr.Kind,
		Message:    apiErr.Message,
		Errors:     apiErr.Errors,
	}
	if body.Errors == nil {
		body.Errors = []utils.FieldError{}
	}
	if cause := apiErr.Unwrap(); cause != nil && !production {
		body.Stack = fmt.Sprintf("%+v", cause)
	}

	if apiErr.StatusCode >= http.StatusInternalServerError {
		log.Error().Err(apiErr.Unwrap()).Str("request_id", RequestID(c)).
			Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.AbortWithStatusJSON(apiErr.StatusCode, body)
}

// Recovery converts panics into the internal error envelope.
func Recovery(log zerolog.Logger, production bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		writeError(c, log, utils.Internal(fmt.Errorf("panic: %v", recovered)), production)
	})
}

// NoRoute answers unknown paths with a NOT_FOUND envelope.
func NoRoute(log zerolog.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeError(c, log, utils.NotFound(fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path)), production)
	}
}
