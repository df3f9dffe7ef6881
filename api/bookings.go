package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strandline/ferrybooking/internal/auth"
	"github.com/strandline/ferrybooking/internal/domain"
	"github.com/strandline/ferrybooking/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

type createBookingRequest struct {
	CustomerID  int64   `json:"customer_id"`
	SailingID   int64   `json:"sailing_id"`
	VehicleIDs  []int64 `json:"vehicle_ids"`
	Passengers  int     `json:"passengers"`
	AmountCents int64   `json:"amount_cents"`
	Note        string  `json:"note"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type refundDecisionRequest struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"notes"`
}

type addVehicleRequest struct {
	VehicleID int64 `json:"vehicle_id"`
}

type approvalResponse struct {
	Status         string `json:"status"`
	ReviewDeadline string `json:"review_deadline,omitempty"`
	ApprovedBy     string `json:"approved_by,omitempty"`
	RejectedBy     string `json:"rejected_by,omitempty"`
	ReviewNotes    string `json:"review_notes,omitempty"`
}

type bookingResponse struct {
	Code            string            `json:"code"`
	CustomerID      int64             `json:"customer_id"`
	SailingID       int64             `json:"sailing_id"`
	Passengers      int               `json:"passengers"`
	VehicleIDs      []int64           `json:"vehicle_ids"`
	AmountCents     int64             `json:"amount_cents"`
	Status          string            `json:"status"`
	Note            string            `json:"note,omitempty"`
	RefundRequested bool              `json:"refund_requested"`
	Approval        *approvalResponse `json:"approval,omitempty"`
	CreatedAt       string            `json:"created_at"`
	UpdatedAt       string            `json:"updated_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		Code:            b.Code,
		CustomerID:      b.CustomerID,
		SailingID:       b.SailingID,
		Passengers:      b.Passengers,
		AmountCents:     b.AmountCents,
		Status:          string(b.Status),
		Note:            b.Note,
		RefundRequested: b.RefundRequested,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       b.UpdatedAt.Format(time.RFC3339),
	}
	for _, v := range b.Vehicles {
		resp.VehicleIDs = append(resp.VehicleIDs, v.VehicleID)
	}
	if a := b.Approval; a != nil {
		ar := &approvalResponse{
			Status:      string(a.Status),
			ApprovedBy:  a.ApprovedBy,
			RejectedBy:  a.RejectedBy,
			ReviewNotes: a.ReviewNotes,
		}
		if !a.ReviewDeadline.IsZero() {
			ar.ReviewDeadline = a.ReviewDeadline.Format(time.RFC3339)
		}
		resp.Approval = ar
	}
	return resp
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:code", h.get)
	router.POST("/:code/approve", auth.RequireRole(domain.RoleAccountant), h.approve)
	router.POST("/:code/reject", auth.RequireRole(domain.RoleAccountant), h.reject)
	router.POST("/:code/pay", auth.RequireRole(domain.RoleAccountant), h.markPaid)
	router.POST("/:code/review/approve", auth.RequireRole(domain.RolePlanner), h.approveReview)
	router.POST("/:code/arrival", h.confirmArrival)
	router.POST("/:code/complete", h.complete)
	router.POST("/:code/cancel", h.cancel)
	router.POST("/:code/refund", h.requestRefund)
	router.POST("/:code/refund/decision", auth.RequireRole(domain.RoleAccountant), h.decideRefund)
	router.POST("/:code/vehicles", h.addVehicle)
	router.DELETE("/:code/vehicles/:vehicleID", h.removeVehicle)
}

func (h *BookingHandler) create(c *gin.Context) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Customers book for themselves; staff may book on a customer's behalf.
	customerID := actor.ID
	if actor.IsStaff() && req.CustomerID != 0 {
		customerID = req.CustomerID
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		CustomerID:  customerID,
		SailingID:   req.SailingID,
		VehicleIDs:  req.VehicleIDs,
		Passengers:  req.Passengers,
		AmountCents: req.AmountCents,
		Note:        req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) get(c *gin.Context) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("code"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) approve(c *gin.Context) {
	h.transition(c, func(actor domain.Actor) (*domain.Booking, error) {
		var req notesRequest
		_ = c.ShouldBindJSON(&req)
		return h.service.Approve(c.Request.Context(), c.Param("code"), actor, req.Notes)
	})
}

func (h *BookingHandler) reject(c *gin.Context) {
	h.transition(c, func(actor domain.Actor) (*domain.Booking, error) {
		var req reasonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return h.service.Reject(c.Request.Context(), c.Param("code"), actor, req.Reason)
	})
}

func (h *BookingHandler) markPaid(c *gin.Context) {
	h.transition(c, func(actor domain.Actor) (*domain.Booking, error) {
		return h.service.MarkPaid(c.Request.Context(), c.Param("code"), actor)
	})
}

func (h *BookingHandler) approveReview(c *gin.Context) {
	h.transition(c, func(actor domain.Actor) (*domain.Booking, error) {
		var req notesRequest
		_ = c.ShouldBindJSON(&req)
		return h.service.ApproveReview(c.Request.Context(), c.Param("code"), actor, req.Notes)
	})
}

func (h *BookingHandler) confirmArrival(c *gin.Context) {
	h.transition(c, func(actor domain.Actor) (*domain.Booking, error) {
		return h.service.ConfirmArrival(c.Request.Context(), c.Param("code"), actor)
	})
}

func (h *BookingHandler) complete(c *gin.Context) {
	h.transition(c, func(actor domain.Actor) (*domain.Booking, error) {
		return h.service.Complete(c.Request.Context(), c.Param("code"), actor)
	})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	h.transition(c, func(actor domain.Actor) (*domain.Booking, error) {
		var req reasonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return h.service.Cancel(c.Request.Context(), c.Param("code"), actor, req.Reason)
	})
}

func (h *BookingHandler) requestRefund(c *gin.Context) {
	h.transition(c, func(actor domain.Actor) (*domain.Booking, error) {
		var req reasonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return h.service.RequestRefund(c.Request.Context(), c.Param("code"), actor, req.Reason)
	})
}

func (h *BookingHandler) decideRefund(c *gin.Context) {
	h.transition(c, func(actor domain.Actor) (*domain.Booking, error) {
		var req refundDecisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return h.service.DecideRefund(c.Request.Context(), c.Param("code"), actor, req.Approved, req.Notes)
	})
}

func (h *BookingHandler) addVehicle(c *gin.Context) {
	h.transition(c, func(actor domain.Actor) (*domain.Booking, error) {
		var req addVehicleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return h.service.AddVehicle(c.Request.Context(), c.Param("code"), actor, req.VehicleID)
	})
}

func (h *BookingHandler) removeVehicle(c *gin.Context) {
	h.transition(c, func(actor domain.Actor) (*domain.Booking, error) {
		vehicleID, err := strconv.ParseInt(c.Param("vehicleID"), 10, 64)
		if err != nil {
			return nil, err
		}
		return h.service.RemoveVehicle(c.Request.Context(), c.Param("code"), actor, vehicleID)
	})
}

func (h *BookingHandler) transition(c *gin.Context, run func(domain.Actor) (*domain.Booking, error)) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	b, err := run(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}
