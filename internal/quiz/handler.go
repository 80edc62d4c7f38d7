package quiz

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mindspace-backend/internal/quiz/catalog"
	"mindspace-backend/internal/quiz/recommendation"
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

// RegisterRoutes attaches quiz routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/quiz", h.catalog)
	rg.POST("/quiz/preview", h.preview)
	rg.POST("/quiz/submissions", h.submit)
	rg.GET("/quiz/submissions", h.history)
	rg.GET("/quiz/submissions/:id", h.get)
	rg.GET("/quiz/submissions/:id/handoff", h.handoff)
}

func (h *Handler) catalog(c *gin.Context) {
	cat := h.Svc.Catalog
	respond.OK(c, catalogResponse{
		Version:   cat.Version(),
		Questions: cat.Steps(),
		Services:  cat.Services(),
	})
}

func (h *Handler) preview(c *gin.Context) {
	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}

	preview, err := h.Svc.Preview(c.Request.Context(), recommendation.AnswerSet(req.Answers))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := previewResponse{
		Scores:   preview.Scores,
		Total:    preview.Scores.Total(),
		Complete: preview.Complete,
	}
	if preview.Result != nil {
		view := toResultView(h.Svc.Catalog, *preview.Result)
		resp.Result = &view
	}
	respond.OK(c, resp)
}

func (h *Handler) submit(c *gin.Context) {
	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}

	sub, err := h.Svc.Submit(c.Request.Context(), middleware.VisitorIDFromContext(c), recommendation.AnswerSet(req.Answers))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Set(middleware.SubmissionIDKey, sub.ID)
	c.Set(middleware.CategoryKey, string(sub.Result.Category))
	respond.Created(c, toSubmissionResponse(h.Svc.Catalog, sub))
}

func (h *Handler) history(c *gin.Context) {
	visitorID := middleware.VisitorIDFromContext(c)
	if visitorID == "" {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "X-Visitor-Id header is required", nil)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "limit must be a non-negative integer", nil)
			return
		}
		limit = parsed
	}

	subs, err := h.Svc.History(c.Request.Context(), visitorID, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	items := make([]submissionResponse, 0, len(subs))
	for _, sub := range subs {
		items = append(items, toSubmissionResponse(h.Svc.Catalog, sub))
	}
	respond.OK(c, historyResponse{Items: items})
}

func (h *Handler) get(c *gin.Context) {
	sub, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set(middleware.SubmissionIDKey, sub.ID)
	respond.OK(c, toSubmissionResponse(h.Svc.Catalog, sub))
}

func (h *Handler) handoff(c *gin.Context) {
	handoff, err := h.Svc.Handoff(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set(middleware.SubmissionIDKey, handoff.SubmissionID)
	respond.OK(c, handoff)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var incomplete *catalog.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "answers are incomplete", gin.H{"problems": incomplete.Problems})
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "submission not found", nil)
	case errors.Is(err, recommendation.ErrInvalidState):
		respond.Error(c, http.StatusUnprocessableEntity, respond.CodeInvalidState, "no answers contributed to the score", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to process quiz", nil)
	}
}
