package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/models"
	"github.com/pactorhq/pactor/internal/store"
	"github.com/pactorhq/pactor/internal/workflow"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func draftContract(id string) *models.Contract {
	return &models.Contract{ID: id, Status: models.StatusDraft, FinanceRequired: true, CurrentSequence: 1}
}

func pendingLegalContract(id string, financeRequired bool) *models.Contract {
	return &models.Contract{ID: id, Status: models.StatusPendingLegal, FinanceRequired: financeRequired, CurrentSequence: 1}
}

// passthroughTransition returns an ApplyTransition mock that echoes the
// write back as a result, so tests can inspect what the service built.
func passthroughTransition(captured *store.TransitionWrite) func(context.Context, string, store.TransitionWrite) (*store.TransitionResult, error) {
	return func(_ context.Context, _ string, w store.TransitionWrite) (*store.TransitionResult, error) {
		*captured = w

		result := &store.TransitionResult{
			Contract: &models.Contract{ID: w.ContractID, Status: w.ToStatus},
		}
		if w.RecordID != "" {
			result.Acted = &models.ApprovalRecord{ID: w.RecordID, Status: w.RecordTo}
		}
		if w.OpenPhase != "" {
			result.NewPending = &models.ApprovalRecord{ID: "ap-new", Type: w.OpenPhase, Status: models.ApprovalPending}
		}
		return result, nil
	}
}

func TestWorkflowService_Submit(t *testing.T) {
	var got store.TransitionWrite
	contracts := &mockContractStore{
		get: func(_ context.Context, _, id string) (*models.Contract, error) {
			return draftContract(id), nil
		},
		applyTransition: passthroughTransition(&got),
	}
	approvals := &mockApprovalStore{}
	enq := &mockEnqueuer{}

	svc := NewWorkflowService(contracts, approvals, enq, testLogger())

	c, pending, err := svc.Submit(context.Background(), "org1", "c1", "u1",
		workflow.NewPermissionSet(workflow.PermContractSubmit))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != models.StatusPendingLegal {
		t.Errorf("contract status = %q, want %q", c.Status, models.StatusPendingLegal)
	}
	if pending == nil || pending.Type != models.ApprovalLegal || pending.Status != models.ApprovalPending {
		t.Errorf("expected open legal approval, got %+v", pending)
	}
	if got.FromStatus != models.StatusDraft || got.ToStatus != models.StatusPendingLegal {
		t.Errorf("transition wrote %q -> %q", got.FromStatus, got.ToStatus)
	}
	if got.RecordID != "" {
		t.Errorf("submit must not act on an approval record, got record %q", got.RecordID)
	}
	if len(approvals.calls) != 0 {
		t.Errorf("submit must not look up approvals, got %v", approvals.calls)
	}
	if actions := enq.actions(); len(actions) != 1 || actions[0] != "contract.submit" {
		t.Errorf("audit actions = %v", actions)
	}
}

func TestWorkflowService_Approve_Legal(t *testing.T) {
	tests := []struct {
		name            string
		financeRequired bool
		wantStatus      models.Status
		wantOpenPhase   models.ApprovalType
	}{
		{name: "finance required", financeRequired: true, wantStatus: models.StatusPendingFinance, wantOpenPhase: models.ApprovalFinance},
		{name: "finance skipped", financeRequired: false, wantStatus: models.StatusApproved, wantOpenPhase: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got store.TransitionWrite
			contracts := &mockContractStore{
				get: func(_ context.Context, _, id string) (*models.Contract, error) {
					return pendingLegalContract(id, tc.financeRequired), nil
				},
				applyTransition: passthroughTransition(&got),
			}
			approvals := &mockApprovalStore{
				getOpen: func(_ context.Context, _, _ string, typ models.ApprovalType) (*models.ApprovalRecord, error) {
					if typ != models.ApprovalLegal {
						t.Errorf("looked up %q approval, want legal", typ)
					}
					return &models.ApprovalRecord{ID: "ap1", Type: typ, Status: models.ApprovalPending}, nil
				},
			}

			svc := NewWorkflowService(contracts, approvals, &mockEnqueuer{}, testLogger())

			comment := "looks fine"
			c, acted, err := svc.Approve(context.Background(), "org1", "c1", "legal1",
				workflow.NewPermissionSet(workflow.PermLegalAct), &comment)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Status != tc.wantStatus {
				t.Errorf("contract status = %q, want %q", c.Status, tc.wantStatus)
			}
			if acted == nil || acted.Status != models.ApprovalApproved {
				t.Errorf("acted record = %+v, want approved", acted)
			}
			if got.RecordID != "ap1" || got.RecordFrom != models.ApprovalPending || got.RecordTo != models.ApprovalApproved {
				t.Errorf("record write = %q %q -> %q", got.RecordID, got.RecordFrom, got.RecordTo)
			}
			if !got.SetActed {
				t.Error("approve must stamp acted_by")
			}
			if got.OpenPhase != tc.wantOpenPhase {
				t.Errorf("opened phase %q, want %q", got.OpenPhase, tc.wantOpenPhase)
			}
			if got.Comment == nil || *got.Comment != comment {
				t.Errorf("comment not threaded through: %v", got.Comment)
			}
		})
	}
}

func TestWorkflowService_Approve_NoOpenRecord(t *testing.T) {
	contracts := &mockContractStore{
		get: func(_ context.Context, _, id string) (*models.Contract, error) {
			return pendingLegalContract(id, true), nil
		},
	}
	approvals := &mockApprovalStore{
		getOpen: func(_ context.Context, _, _ string, _ models.ApprovalType) (*models.ApprovalRecord, error) {
			return nil, nil
		},
	}

	svc := NewWorkflowService(contracts, approvals, &mockEnqueuer{}, testLogger())

	_, _, err := svc.Approve(context.Background(), "org1", "c1", "legal1",
		workflow.NewPermissionSet(workflow.PermLegalAct), nil)
	if !errors.Is(err, models.ErrNoPendingApproval) {
		t.Fatalf("err = %v, want ErrNoPendingApproval", err)
	}
	for _, call := range contracts.calls {
		if call == "ApplyTransition" {
			t.Fatal("ApplyTransition must not run without an open record")
		}
	}
}

func TestWorkflowService_Forbidden(t *testing.T) {
	contracts := &mockContractStore{
		get: func(_ context.Context, _, id string) (*models.Contract, error) {
			return draftContract(id), nil
		},
	}

	svc := NewWorkflowService(contracts, &mockApprovalStore{}, &mockEnqueuer{}, testLogger())

	_, _, err := svc.Submit(context.Background(), "org1", "c1", "u1", workflow.NewPermissionSet())
	if !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	for _, call := range contracts.calls {
		if call == "ApplyTransition" {
			t.Fatal("ApplyTransition must not run for a forbidden action")
		}
	}
}

func TestWorkflowService_InvalidTransition(t *testing.T) {
	contracts := &mockContractStore{
		get: func(_ context.Context, _, id string) (*models.Contract, error) {
			return draftContract(id), nil
		},
	}

	svc := NewWorkflowService(contracts, &mockApprovalStore{}, &mockEnqueuer{}, testLogger())

	_, err := svc.Send(context.Background(), "org1", "c1", "u1",
		workflow.NewPermissionSet(workflow.PermContractSend))

	var ite *models.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if ite.Status != models.StatusDraft || ite.Action != "send" {
		t.Errorf("invalid transition detail = %+v", ite)
	}
}

func TestWorkflowService_Escalate(t *testing.T) {
	var got store.TransitionWrite
	contracts := &mockContractStore{
		get: func(_ context.Context, _, id string) (*models.Contract, error) {
			return pendingLegalContract(id, true), nil
		},
		applyTransition: passthroughTransition(&got),
	}
	approvals := &mockApprovalStore{
		getOpen: func(_ context.Context, _, _ string, typ models.ApprovalType) (*models.ApprovalRecord, error) {
			return &models.ApprovalRecord{ID: "ap1", Type: typ, Status: models.ApprovalPending}, nil
		},
	}

	svc := NewWorkflowService(contracts, approvals, &mockEnqueuer{}, testLogger())

	c, err := svc.Escalate(context.Background(), "org1", "c1", "legal1", "senior1",
		workflow.NewPermissionSet(workflow.PermLegalEscalate))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != models.StatusPendingLegal {
		t.Errorf("escalation changed contract status to %q", c.Status)
	}
	if got.FromStatus != got.ToStatus {
		t.Errorf("escalation wrote a status change %q -> %q", got.FromStatus, got.ToStatus)
	}
	if got.RecordTo != models.ApprovalEscalated {
		t.Errorf("record status = %q, want escalated", got.RecordTo)
	}
	if got.EscalatedTo == nil || *got.EscalatedTo != "senior1" {
		t.Errorf("escalated_to = %v, want senior1", got.EscalatedTo)
	}
}

func TestWorkflowService_ReturnToManager(t *testing.T) {
	var got store.TransitionWrite
	contracts := &mockContractStore{
		get: func(_ context.Context, _, id string) (*models.Contract, error) {
			return pendingLegalContract(id, true), nil
		},
		applyTransition: passthroughTransition(&got),
	}
	approvals := &mockApprovalStore{
		getOpen: func(_ context.Context, _, _ string, typ models.ApprovalType) (*models.ApprovalRecord, error) {
			escalatee := "senior1"
			return &models.ApprovalRecord{ID: "ap1", Type: typ, Status: models.ApprovalEscalated, EscalatedToUserID: &escalatee}, nil
		},
	}

	svc := NewWorkflowService(contracts, approvals, &mockEnqueuer{}, testLogger())

	comment := "handled upstream, back to you"
	_, acted, err := svc.ReturnToManager(context.Background(), "org1", "c1", "senior1",
		workflow.NewPermissionSet(workflow.PermLegalAct), &comment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acted == nil || acted.Status != models.ApprovalPending {
		t.Errorf("record = %+v, want back to pending", acted)
	}
	if !got.ClearEscalatee {
		t.Error("return must clear the escalatee")
	}
	// The comment lands on the reopened record, not just in the audit trail.
	if !got.SetComment || got.Comment == nil || *got.Comment != comment {
		t.Errorf("comment write = (%v, %v), want %q persisted", got.SetComment, got.Comment, comment)
	}
}

// Two concurrent approvals of the same record: the store CAS lets exactly
// one commit, the loser sees ErrNoPendingApproval.
func TestWorkflowService_ConcurrentApprove(t *testing.T) {
	var mu sync.Mutex
	committed := false

	contracts := &mockContractStore{
		get: func(_ context.Context, _, id string) (*models.Contract, error) {
			return pendingLegalContract(id, false), nil
		},
		applyTransition: func(_ context.Context, _ string, w store.TransitionWrite) (*store.TransitionResult, error) {
			mu.Lock()
			defer mu.Unlock()
			if committed {
				return nil, models.ErrNoPendingApproval
			}
			committed = true
			return &store.TransitionResult{
				Contract: &models.Contract{ID: w.ContractID, Status: w.ToStatus},
				Acted:    &models.ApprovalRecord{ID: w.RecordID, Status: w.RecordTo},
			}, nil
		},
	}
	approvals := &mockApprovalStore{
		getOpen: func(_ context.Context, _, _ string, typ models.ApprovalType) (*models.ApprovalRecord, error) {
			return &models.ApprovalRecord{ID: "ap1", Type: typ, Status: models.ApprovalPending}, nil
		},
	}

	svc := NewWorkflowService(contracts, approvals, &mockEnqueuer{}, testLogger())
	perms := workflow.NewPermissionSet(workflow.PermLegalAct)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Approve(context.Background(), "org1", "c1", "legal1", perms, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, lost int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrNoPendingApproval):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || lost != 1 {
		t.Fatalf("got %d successes and %d losers, want exactly 1 and 1", succeeded, lost)
	}
}

func TestWorkflowService_ListApprovals(t *testing.T) {
	approvals := &mockApprovalStore{
		listByContract: func(_ context.Context, _, _ string) ([]models.ApprovalRecord, error) {
			return []models.ApprovalRecord{{ID: "ap1"}, {ID: "ap2"}}, nil
		},
	}

	svc := NewWorkflowService(&mockContractStore{}, approvals, &mockEnqueuer{}, testLogger())

	records, err := svc.ListApprovals(context.Background(), "org1", "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}
