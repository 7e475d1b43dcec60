package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vkazmir/flightdesk/internal/domain"
)

// writeError maps the domain error taxonomy onto HTTP statuses. Conflict is
// normally retried inside the booking engine; it only reaches here when the
// retry budget ran out.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrSeatTaken),
		errors.Is(err, domain.ErrSeatsUnavailable),
		errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
