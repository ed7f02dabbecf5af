package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/models"
	"github.com/pactorhq/pactor/internal/workflow"
)

// WorkflowHandler serves the approval workflow action endpoints.
type WorkflowHandler struct {
	svc WorkflowService
	log *logrus.Logger
}

// NewWorkflowHandler creates a WorkflowHandler with the given service and logger.
func NewWorkflowHandler(svc WorkflowService, log *logrus.Logger) *WorkflowHandler {
	return &WorkflowHandler{svc: svc, log: log}
}

// commentRequest is the optional payload for review actions.
type commentRequest struct {
	Comment *string `json:"comment,omitempty"`
}

// escalateRequest is the payload for peer escalation.
type escalateRequest struct {
	EscalatedTo string `json:"escalated_to"`
}

// escalateLegalHeadRequest is the payload for escalation to the legal head.
type escalateLegalHeadRequest struct {
	LegalHeadUserID string  `json:"legal_head_user_id"`
	Reason          *string `json:"reason,omitempty"`
}

// actionResponse pairs the contract after a transition with the approval
// record the transition touched, when there is one.
type actionResponse struct {
	Contract *models.Contract       `json:"contract"`
	Approval *models.ApprovalRecord `json:"approval,omitempty"`
}

// workflowInputs bundles the per-request values every action needs.
func (h *WorkflowHandler) workflowInputs(c *gin.Context) (orgID, contractID, actorID string, perms workflow.PermissionSet, ok bool) {
	contractID = c.Param("id")
	if err := validatePathID(contractID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return "", "", "", nil, false
	}

	orgID = getOrgID(c)
	if orgID == "" {
		return "", "", "", nil, false
	}

	return orgID, contractID, getActorID(c), getPermissions(c), true
}

// bindOptionalComment parses an optional JSON comment body. An empty body is allowed.
func bindOptionalComment(c *gin.Context) (*string, bool) {
	if c.Request.ContentLength == 0 {
		return nil, true
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return nil, false
	}

	return req.Comment, true
}

// respondAction writes the standard transition response or maps the error.
func (h *WorkflowHandler) respondAction(c *gin.Context, action string, contract *models.Contract, approval *models.ApprovalRecord, err error) {
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "contract." + action, "org_id": c.GetString("org_id"),
		"contract_id": contract.ID, "status": contract.Status,
	}).Info("audit")

	c.JSON(http.StatusOK, actionResponse{Contract: contract, Approval: approval})
}

// Submit handles POST /api/v1/contracts/:id/submit.
func (h *WorkflowHandler) Submit(c *gin.Context) {
	orgID, contractID, actorID, perms, ok := h.workflowInputs(c)
	if !ok {
		return
	}

	contract, approval, err := h.svc.Submit(c.Request.Context(), orgID, contractID, actorID, perms)
	h.respondAction(c, "submit", contract, approval, err)
}

// Approve handles POST /api/v1/contracts/:id/approve.
func (h *WorkflowHandler) Approve(c *gin.Context) {
	h.reviewAction(c, "approve", h.svc.Approve)
}

// Reject handles POST /api/v1/contracts/:id/reject.
func (h *WorkflowHandler) Reject(c *gin.Context) {
	h.reviewAction(c, "reject", h.svc.Reject)
}

// RequestRevision handles POST /api/v1/contracts/:id/request-revision.
func (h *WorkflowHandler) RequestRevision(c *gin.Context) {
	h.reviewAction(c, "request_revision", h.svc.RequestRevision)
}

// ReturnToManager handles POST /api/v1/contracts/:id/return.
func (h *WorkflowHandler) ReturnToManager(c *gin.Context) {
	h.reviewAction(c, "return_to_manager", h.svc.ReturnToManager)
}

type reviewFn func(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet, comment *string) (*models.Contract, *models.ApprovalRecord, error)

// reviewAction is the shared shape of approve/reject/request-revision/return:
// an optional comment body and a transition that touches the open approval record.
func (h *WorkflowHandler) reviewAction(c *gin.Context, action string, fn reviewFn) {
	orgID, contractID, actorID, perms, ok := h.workflowInputs(c)
	if !ok {
		return
	}

	comment, ok := bindOptionalComment(c)
	if !ok {
		return
	}

	contract, approval, err := fn(c.Request.Context(), orgID, contractID, actorID, perms, comment)
	h.respondAction(c, action, contract, approval, err)
}

// Escalate handles POST /api/v1/contracts/:id/escalate.
func (h *WorkflowHandler) Escalate(c *gin.Context) {
	orgID, contractID, actorID, perms, ok := h.workflowInputs(c)
	if !ok {
		return
	}

	var req escalateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.EscalatedTo == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "escalated_to is required")

		return
	}

	contract, err := h.svc.Escalate(c.Request.Context(), orgID, contractID, actorID, req.EscalatedTo, perms)
	h.respondAction(c, "escalate", contract, nil, err)
}

// EscalateToLegalHead handles POST /api/v1/contracts/:id/escalate-legal-head.
func (h *WorkflowHandler) EscalateToLegalHead(c *gin.Context) {
	orgID, contractID, actorID, perms, ok := h.workflowInputs(c)
	if !ok {
		return
	}

	var req escalateLegalHeadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LegalHeadUserID == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "legal_head_user_id is required")

		return
	}

	contract, err := h.svc.EscalateToLegalHead(c.Request.Context(), orgID, contractID, actorID, req.LegalHeadUserID, perms, req.Reason)
	h.respondAction(c, "escalate_to_legal_head", contract, nil, err)
}

// Send handles POST /api/v1/contracts/:id/send.
func (h *WorkflowHandler) Send(c *gin.Context) {
	h.contractAction(c, "send", h.svc.Send)
}

// UploadSigned handles POST /api/v1/contracts/:id/upload-signed.
func (h *WorkflowHandler) UploadSigned(c *gin.Context) {
	h.contractAction(c, "upload_signed", h.svc.UploadSigned)
}

// Activate handles POST /api/v1/contracts/:id/activate.
func (h *WorkflowHandler) Activate(c *gin.Context) {
	h.contractAction(c, "activate", h.svc.Activate)
}

// Terminate handles POST /api/v1/contracts/:id/terminate.
func (h *WorkflowHandler) Terminate(c *gin.Context) {
	h.contractAction(c, "terminate", h.svc.Terminate)
}

// Expire handles POST /api/v1/contracts/:id/expire.
func (h *WorkflowHandler) Expire(c *gin.Context) {
	h.contractAction(c, "expire", h.svc.Expire)
}

type contractActionFn func(ctx context.Context, orgID, contractID, actorID string, perms workflow.PermissionSet) (*models.Contract, error)

// contractAction is the shared shape of actions that move the contract
// without touching an approval record.
func (h *WorkflowHandler) contractAction(c *gin.Context, action string, fn contractActionFn) {
	orgID, contractID, actorID, perms, ok := h.workflowInputs(c)
	if !ok {
		return
	}

	contract, err := fn(c.Request.Context(), orgID, contractID, actorID, perms)
	h.respondAction(c, action, contract, nil, err)
}

// ListApprovals handles GET /api/v1/contracts/:id/approvals.
func (h *WorkflowHandler) ListApprovals(c *gin.Context) {
	contractID := c.Param("id")
	if err := validatePathID(contractID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	orgID := getOrgID(c)
	if orgID == "" {
		return
	}

	approvals, err := h.svc.ListApprovals(c.Request.Context(), orgID, contractID)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"approvals": approvals})
}
