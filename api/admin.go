package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strandline/ferrybooking/internal/service/booking"
)

// AdminHandler exposes the sweeper entry point for manual/administrative runs;
// the worker invokes the same service call on its ticker.
type AdminHandler struct {
	service booking.BookingUseCase
}

func NewAdminHandler(service booking.BookingUseCase) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/reviews/sweep", h.sweep)
}

func (h *AdminHandler) sweep(c *gin.Context) {
	processed, err := h.service.SweepOverdueReviews(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"processed": processed})
}
