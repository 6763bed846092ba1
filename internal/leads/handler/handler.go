package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crm_portal_backend/internal/leads/board"
	"crm_portal_backend/internal/leads/service"
	"crm_portal_backend/internal/leads/transport"
	"crm_portal_backend/internal/scope"
	"crm_portal_backend/platform/httpkit"
	"crm_portal_backend/platform/validator"
)

// Handler handles HTTP requests for leads and the kanban board.
type Handler struct {
	svc   *service.Service
	board *board.Service
	val   *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid lead ID"
)

// New creates a new leads handler.
func New(svc *service.Service, boardSvc *board.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, board: boardSvc, val: val}
}

// Capture stores a new lead with its dynamic fields.
// POST /api/v1/leads
func (h *Handler) Capture(c *gin.Context) {
	var req transport.CaptureLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Capture(c.Request.Context(), scope.FromIdentity(identity), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// List retrieves leads visible to the caller, newest first.
// GET /api/v1/leads?tenantId=&page=&pageSize=
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	requestedTenant, ok := optionalTenantID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))

	result, err := h.svc.List(c.Request.Context(), scope.FromIdentity(identity), requestedTenant, page, pageSize)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get retrieves a lead with its fields.
// GET /api/v1/leads/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), scope.FromIdentity(identity), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateFields replaces a lead's dynamic fields.
// PUT /api/v1/leads/:id/fields
func (h *Handler) UpdateFields(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.UpdateFields(c.Request.Context(), scope.FromIdentity(identity), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a lead and its dependent records.
// DELETE /api/v1/leads/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err = h.svc.Delete(c.Request.Context(), scope.FromIdentity(identity), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// Move transitions a lead to a new pipeline stage.
// POST /api/v1/leads/:id/move
func (h *Handler) Move(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.MoveLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Move(c.Request.Context(), scope.FromIdentity(identity), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// StageHistory retrieves a lead's stage assignments, most recent first.
// GET /api/v1/leads/:id/stage-history
func (h *Handler) StageHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.StageHistory(c.Request.Context(), scope.FromIdentity(identity), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetBoard builds the paginated kanban view of one pipeline.
// GET /api/v1/board?pipelineId=&stageId=&includeUnassigned=&page=&pageSize=
func (h *Handler) GetBoard(c *gin.Context) {
	var req transport.BoardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.board.GetBoard(c.Request.Context(), scope.FromIdentity(identity), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetCardConfig retrieves the tenant's card projection config.
// GET /api/v1/board/card-config?tenantId=
func (h *Handler) GetCardConfig(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	requestedTenant, ok := optionalTenantID(c)
	if !ok {
		return
	}

	result, err := h.board.GetCardConfig(c.Request.Context(), scope.FromIdentity(identity), requestedTenant)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateCardConfig replaces the tenant's card projection config.
// PUT /api/v1/board/card-config?tenantId=
func (h *Handler) UpdateCardConfig(c *gin.Context) {
	var req transport.UpdateCardConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	requestedTenant, ok := optionalTenantID(c)
	if !ok {
		return
	}

	result, err := h.board.UpdateCardConfig(c.Request.Context(), scope.FromIdentity(identity), requestedTenant, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteCardConfig removes the tenant's card projection config.
// DELETE /api/v1/board/card-config?tenantId=
func (h *Handler) DeleteCardConfig(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	requestedTenant, ok := optionalTenantID(c)
	if !ok {
		return
	}

	err := h.board.DeleteCardConfig(c.Request.Context(), scope.FromIdentity(identity), requestedTenant)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// optionalTenantID parses the tenantId query parameter when present.
// The second return is false when the value is present but malformed,
// in which case a 400 has already been written.
func optionalTenantID(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("tenantId")
	if raw == "" {
		return nil, true
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid tenant ID", nil)
		return nil, false
	}
	return &parsed, true
}
