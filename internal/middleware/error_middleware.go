package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campuschat/internal/transport/httpdto"
	"campuschat/pkg/apperrors"
	"campuschat/pkg/logger"
)

// ErrorHandler maps domain errors attached by handlers onto HTTP responses.
// Handlers call c.Error(err) and return; the mapping lives here in one
// place.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, code := classify(err)

		var rateErr *apperrors.RateLimitError
		if errors.As(err, &rateErr) {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rateErr.RetryAfter.Seconds()))))
		}

		if status >= http.StatusInternalServerError && l != nil {
			l.Errorf("request failed: %v", err)
		}

		message := err.Error()
		if status == http.StatusInternalServerError {
			message = "internal error"
		}
		c.JSON(status, httpdto.NewErrorResponse(message, code))
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCursor):
		return http.StatusBadRequest, "INVALID_CURSOR"
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_FAILED"
	case errors.Is(err, apperrors.ErrAuthentication):
		return http.StatusUnauthorized, "UNAUTHENTICATED"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrAlreadyExists):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
