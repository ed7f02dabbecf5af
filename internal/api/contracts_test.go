package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/pactorhq/pactor/internal/api"
	"github.com/pactorhq/pactor/internal/models"
)

func TestContractHandler_Create(t *testing.T) {
	svc := &mockContractService{
		createFn: func(_ context.Context, orgID string, req models.CreateContractRequest, actorID string) (*models.Contract, error) {
			if orgID != testOrgID {
				t.Errorf("orgID = %q, want %q", orgID, testOrgID)
			}
			if actorID != "user-1" {
				t.Errorf("actorID = %q, want user-1", actorID)
			}
			return &models.Contract{
				ID:              req.ID,
				Reference:       req.Reference,
				Title:           req.Title,
				Status:          models.StatusDraft,
				CurrentSequence: 1,
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewContractHandler(svc, testLogger())
	r.POST("/contracts", h.Create)

	w := doRequest(r, http.MethodPost, "/contracts",
		`{"reference":"CTR-001","title":"MSA","counterparty_name":"Acme"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var got models.Contract
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.Reference != "CTR-001" || got.Status != models.StatusDraft {
		t.Errorf("unexpected contract: %+v", got)
	}
}

func TestContractHandler_Create_Validation(t *testing.T) {
	svc := &mockContractService{}

	tests := []struct {
		name string
		body string
	}{
		{"missing reference", `{"title":"MSA","counterparty_name":"Acme"}`},
		{"missing title", `{"reference":"CTR-001","counterparty_name":"Acme"}`},
		{"missing counterparty", `{"reference":"CTR-001","title":"MSA"}`},
		{"malformed json", `{"reference":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter()
			h := api.NewContractHandler(svc, testLogger())
			r.POST("/contracts", h.Create)

			w := doRequest(r, http.MethodPost, "/contracts", tt.body)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestContractHandler_Get_NotFound(t *testing.T) {
	svc := &mockContractService{
		getFn: func(_ context.Context, _, _ string) (*models.Contract, error) {
			return nil, models.ErrContractNotFound
		},
	}

	r := newTestRouter()
	h := api.NewContractHandler(svc, testLogger())
	r.GET("/contracts/:id", h.Get)

	w := doRequest(r, http.MethodGet, "/contracts/c-404", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestContractHandler_Update_Conflict(t *testing.T) {
	svc := &mockContractService{
		updateFn: func(_ context.Context, _, _ string, _ models.UpdateContractRequest, _ string) (*models.Contract, error) {
			return nil, models.ErrVersionConflict
		},
	}

	r := newTestRouter()
	h := api.NewContractHandler(svc, testLogger())
	r.PUT("/contracts/:id", h.Update)

	w := doRequest(r, http.MethodPut, "/contracts/c-1",
		`{"annexure_data":"new body","expected_sequence":3}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", w.Code, w.Body.String())
	}
}

func TestContractHandler_Update_NotDraft(t *testing.T) {
	svc := &mockContractService{
		updateFn: func(_ context.Context, _, _ string, _ models.UpdateContractRequest, _ string) (*models.Contract, error) {
			return nil, &models.InvalidTransitionError{
				Status: models.StatusPendingLegal, Action: "update",
			}
		},
	}

	r := newTestRouter()
	h := api.NewContractHandler(svc, testLogger())
	r.PUT("/contracts/:id", h.Update)

	w := doRequest(r, http.MethodPut, "/contracts/c-1", `{"title":"Renamed"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestContractHandler_List(t *testing.T) {
	var gotFilter models.ContractFilter
	svc := &mockContractService{
		listFn: func(_ context.Context, _ string, filter models.ContractFilter) ([]models.Contract, bool, error) {
			gotFilter = filter
			return []models.Contract{{ID: "c-1"}, {ID: "c-2"}}, true, nil
		},
	}

	r := newTestRouter()
	h := api.NewContractHandler(svc, testLogger())
	r.GET("/contracts", h.List)

	w := doRequest(r, http.MethodGet, "/contracts?status=draft&counterparty=acme&limit=2", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotFilter.Status != models.StatusDraft || gotFilter.Counterparty != "acme" || gotFilter.Limit != 2 {
		t.Errorf("unexpected filter: %+v", gotFilter)
	}

	var resp struct {
		Contracts []models.Contract `json:"contracts"`
		HasMore   bool              `json:"has_more"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Contracts) != 2 || !resp.HasMore {
		t.Errorf("unexpected response: %+v", resp)
	}
}
