package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strandline/ferrybooking/internal/domain"
	"github.com/strandline/ferrybooking/internal/service/sailings"
)

type SailingHandler struct {
	service sailings.SailingUseCase
}

func NewSailingHandler(service sailings.SailingUseCase) *SailingHandler {
	return &SailingHandler{service: service}
}

type sailingResponse struct {
	ID                  int64  `json:"id"`
	RouteFrom           string `json:"route_from"`
	RouteTo             string `json:"route_to"`
	DepartureTime       string `json:"departure_time"`
	ArrivalTime         string `json:"arrival_time"`
	Status              string `json:"status"`
	AvailableVehicles   int    `json:"available_vehicles"`
	AvailablePassengers int    `json:"available_passengers"`
	BookingDeadline     string `json:"booking_deadline"`
}

func toSailingResponse(s domain.Sailing) sailingResponse {
	return sailingResponse{
		ID:                  s.ID,
		RouteFrom:           s.RouteFrom,
		RouteTo:             s.RouteTo,
		DepartureTime:       s.DepartureTime.Format(time.RFC3339),
		ArrivalTime:         s.ArrivalTime.Format(time.RFC3339),
		Status:              string(s.Status),
		AvailableVehicles:   s.AvailableVehicles,
		AvailablePassengers: s.AvailablePassengers,
		BookingDeadline:     s.BookingDeadline.Format(time.RFC3339),
	}
}

func (h *SailingHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/capacity", h.capacity)
}

func (h *SailingHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]sailingResponse, 0, len(list))
	for _, s := range list {
		resp = append(resp, toSailingResponse(s))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SailingHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sailing id"})
		return
	}
	s, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSailingResponse(*s))
}

func (h *SailingHandler) capacity(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sailing id"})
		return
	}
	info, err := h.service.GetCapacityInfo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
