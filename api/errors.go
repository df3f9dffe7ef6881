package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strandline/ferrybooking/internal/domain"
)

// respondError maps the domain error taxonomy onto HTTP. Not-found is 404,
// capacity conflicts are 409 with a machine-readable code, state conflicts and
// ineligible operations are 400 with the current status for diagnostics.
func respondError(c *gin.Context, err error) {
	var capErr *domain.CapacityError
	var stateErr *domain.StateConflictError
	var inelErr *domain.IneligibleError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.As(err, &capErr):
		c.JSON(http.StatusConflict, gin.H{"error": capErr.Error(), "code": "capacity_conflict"})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": stateErr.Error(), "code": "state_conflict", "current": stateErr.Current, "requested": stateErr.Requested})
	case errors.As(err, &inelErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": inelErr.Error(), "code": "ineligible", "status": string(inelErr.Status)})
	case errors.Is(err, domain.ErrNoPendingRefund):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "no_pending_refund"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
