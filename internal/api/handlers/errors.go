package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		schemaErr *domain.SchemaError
		noData    *domain.NoDataError
		rangeErr  *domain.CalendarRangeError
	)
	switch {
	case errors.As(err, &noData):
		return http.StatusNotFound
	case errors.As(err, &rangeErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &schemaErr),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrUnsupportedExport),
		errors.Is(err, domain.ErrUnknownPartition),
		errors.Is(err, domain.ErrInvalidYearRange),
		errors.Is(err, domain.ErrEmptyBatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes {"error", "details"} for err. Server errors are logged;
// client errors are not.
func respondError(c *gin.Context, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message, "details": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
