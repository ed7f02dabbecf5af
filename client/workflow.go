package client

import (
	"context"
	"net/url"
)

// WorkflowService drives the contract approval workflow.
type WorkflowService struct {
	c *Client
}

func (s *WorkflowService) action(ctx context.Context, id, action string, body any) (*ActionResponse, error) {
	var resp ActionResponse
	path := "/api/v1/contracts/" + url.PathEscape(id) + "/" + action
	if err := s.c.post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// commentBody is the optional payload for review actions.
type commentBody struct {
	Comment *string `json:"comment,omitempty"`
}

// Submit moves a draft into legal review.
func (s *WorkflowService) Submit(ctx context.Context, id string) (*ActionResponse, error) {
	return s.action(ctx, id, "submit", nil)
}

// Approve approves the open approval record for the contract's current phase.
func (s *WorkflowService) Approve(ctx context.Context, id string, comment *string) (*ActionResponse, error) {
	return s.action(ctx, id, "approve", commentBody{Comment: comment})
}

// Reject rejects the contract, closing the workflow.
func (s *WorkflowService) Reject(ctx context.Context, id string, comment *string) (*ActionResponse, error) {
	return s.action(ctx, id, "reject", commentBody{Comment: comment})
}

// RequestRevision sends the contract back to draft for rework.
func (s *WorkflowService) RequestRevision(ctx context.Context, id string, comment *string) (*ActionResponse, error) {
	return s.action(ctx, id, "request-revision", commentBody{Comment: comment})
}

// Escalate hands the open approval to another reviewer without moving the contract.
func (s *WorkflowService) Escalate(ctx context.Context, id, escalatedTo string) (*ActionResponse, error) {
	body := map[string]string{"escalated_to": escalatedTo}
	return s.action(ctx, id, "escalate", body)
}

// EscalateToLegalHead escalates the open legal approval to the legal head.
func (s *WorkflowService) EscalateToLegalHead(ctx context.Context, id, legalHeadUserID string, reason *string) (*ActionResponse, error) {
	body := map[string]any{"legal_head_user_id": legalHeadUserID}
	if reason != nil {
		body["reason"] = *reason
	}
	return s.action(ctx, id, "escalate-legal-head", body)
}

// ReturnToManager hands an escalated approval back to the original reviewer.
func (s *WorkflowService) ReturnToManager(ctx context.Context, id string, comment *string) (*ActionResponse, error) {
	return s.action(ctx, id, "return", commentBody{Comment: comment})
}

// Send marks the approved contract as sent to the counterparty.
func (s *WorkflowService) Send(ctx context.Context, id string) (*ActionResponse, error) {
	return s.action(ctx, id, "send", nil)
}

// UploadSigned records receipt of the countersigned document.
func (s *WorkflowService) UploadSigned(ctx context.Context, id string) (*ActionResponse, error) {
	return s.action(ctx, id, "upload-signed", nil)
}

// Activate puts the countersigned contract into force.
func (s *WorkflowService) Activate(ctx context.Context, id string) (*ActionResponse, error) {
	return s.action(ctx, id, "activate", nil)
}

// Terminate ends an active contract early.
func (s *WorkflowService) Terminate(ctx context.Context, id string) (*ActionResponse, error) {
	return s.action(ctx, id, "terminate", nil)
}

// Expire marks an active contract as past its end date.
func (s *WorkflowService) Expire(ctx context.Context, id string) (*ActionResponse, error) {
	return s.action(ctx, id, "expire", nil)
}

// ListApprovals returns the approval history for a contract.
func (s *WorkflowService) ListApprovals(ctx context.Context, id string) ([]ApprovalRecord, error) {
	var resp struct {
		Approvals []ApprovalRecord `json:"approvals"`
	}
	if err := s.c.get(ctx, "/api/v1/contracts/"+url.PathEscape(id)+"/approvals", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Approvals, nil
}
