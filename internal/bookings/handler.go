package bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mindspace-backend/internal/shared/server/middleware"
	"mindspace-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches visitor booking routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.create)
	rg.GET("/bookings/:id", h.get)
}

// RegisterAdminRoutes attaches staff routes. The group must require staff claims.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings", h.list)
	rg.GET("/bookings/:id", h.adminGet)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	b, err := h.Svc.Create(ctx, middleware.VisitorIDFromContext(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Set(middleware.BookingIDKey, b.ID)
	respond.Created(c, h.toResponse(b))
}

// Visitors only see their own bookings; anything else is reported as missing.
func (h *Handler) get(c *gin.Context) {
	b, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	visitorID := middleware.VisitorIDFromContext(c)
	if b.VisitorID == "" || b.VisitorID != visitorID {
		h.writeError(c, ErrNotFound)
		return
	}
	c.Set(middleware.BookingIDKey, b.ID)
	respond.OK(c, h.toResponse(b))
}

func (h *Handler) adminGet(c *gin.Context) {
	b, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set(middleware.BookingIDKey, b.ID)
	respond.OK(c, h.toResponse(b))
}

func (h *Handler) list(c *gin.Context) {
	limit, err := parseNonNegative(c.Query("limit"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "limit must be a non-negative integer", nil)
		return
	}
	offset, err := parseNonNegative(c.Query("offset"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "offset must be a non-negative integer", nil)
		return
	}

	filter := ListFilter{Status: c.Query("status"), Limit: limit, Offset: offset}.Normalize()
	items, err := h.Svc.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]bookingResponse, 0, len(items))
	for _, b := range items {
		out = append(out, h.toResponse(b))
	}
	respond.OK(c, listResponse{Items: out, Limit: filter.Limit, Offset: filter.Offset})
}

func parseNonNegative(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("invalid")
	}
	return v, nil
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "booking request is invalid", gin.H{"fields": verr.Fields})
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "booking not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to process booking", nil)
	}
}
