package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pactorhq/pactor/client"
)

// newTestServer returns a test server and a client pointed at it.
func newTestServer(t *testing.T, handler http.HandlerFunc) *client.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return client.New(srv.URL, client.WithAPIKey("test-key"))
}

func TestClient_AuthHeader(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestContracts_Create(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/contracts" {
			t.Errorf("%s %s, want POST /api/v1/contracts", r.Method, r.URL.Path)
		}

		var req client.CreateContractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Reference != "CTR-001" {
			t.Errorf("reference = %q, want CTR-001", req.Reference)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(client.Contract{
			ID: "c-1", Reference: req.Reference, Status: "draft", CurrentSequence: 1,
		})
	})

	contract, err := c.Contracts.Create(context.Background(), &client.CreateContractRequest{
		Reference:        "CTR-001",
		Title:            "MSA",
		CounterpartyName: "Acme",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if contract.ID != "c-1" || contract.CurrentSequence != 1 {
		t.Errorf("unexpected contract: %+v", contract)
	}
}

func TestContracts_List_Params(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != "draft" || q.Get("limit") != "10" {
			t.Errorf("unexpected query: %v", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"contracts": []client.Contract{{ID: "c-1"}},
			"has_more":  true,
		})
	})

	contracts, hasMore, err := c.Contracts.List(context.Background(), &client.ContractListOptions{
		Status: "draft",
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(contracts) != 1 || !hasMore {
		t.Errorf("got %d contracts, hasMore=%v", len(contracts), hasMore)
	}
}

func TestWorkflow_Submit(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/contracts/c-1/submit" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(client.ActionResponse{
			Contract: &client.Contract{ID: "c-1", Status: "pending_legal"},
			Approval: &client.ApprovalRecord{ContractID: "c-1", Type: "legal", Status: "pending"},
		})
	})

	resp, err := c.Workflow.Submit(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.Contract.Status != "pending_legal" {
		t.Errorf("status = %q, want pending_legal", resp.Contract.Status)
	}
	if resp.Approval == nil || resp.Approval.Type != "legal" {
		t.Errorf("unexpected approval: %+v", resp.Approval)
	}
}

func TestWorkflow_Approve_Comment(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Comment *string `json:"comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Comment == nil || *body.Comment != "fine" {
			t.Errorf("comment = %v, want fine", body.Comment)
		}
		json.NewEncoder(w).Encode(client.ActionResponse{
			Contract: &client.Contract{ID: "c-1", Status: "approved"},
		})
	})

	comment := "fine"
	resp, err := c.Workflow.Approve(context.Background(), "c-1", &comment)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if resp.Contract.Status != "approved" {
		t.Errorf("status = %q, want approved", resp.Contract.Status)
	}
}

func TestVersions_Compare(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/contracts/c-1/compare" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("from") != "1" || q.Get("to") != "3" {
			t.Errorf("unexpected query: %v", q)
		}
		from := 1
		json.NewEncoder(w).Encode(client.ChangeLogEntry{
			ContractID: "c-1", FromSequence: &from, ToSequence: 3,
			FieldChanges: []client.FieldChange{{Field: "amount", ChangeType: "modified"}},
		})
	})

	entry, err := c.Versions.Compare(context.Background(), "c-1", 1, 3)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if entry.ToSequence != 3 || len(entry.FieldChanges) != 1 {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestAudit_Query(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("target_id") != "c-1" {
			t.Errorf("target_id = %q", r.URL.Query().Get("target_id"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data":     []client.AuditEntry{{Action: "contract.submit", TargetID: "c-1"}},
			"has_more": false,
		})
	})

	entries, _, err := c.Audit.Query(context.Background(), &client.AuditQueryOptions{TargetID: "c-1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "contract.submit" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, `{"code":"not_found","message":"contract not found"}`, client.IsNotFound},
		{"conflict", http.StatusConflict, `{"code":"conflict","message":"version conflict"}`, client.IsConflict},
		{"rate limited", http.StatusTooManyRequests, `{"code":"rate_limited","message":"slow down"}`, client.IsRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Contracts.Get(context.Background(), "c-404")
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("error predicate failed for %v", err)
			}
		})
	}
}

func TestClient_ErrorFallback(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("plain text failure"))
	})

	_, err := c.Contracts.Get(context.Background(), "c-1")
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr, ok := err.(*client.APIError)
	if !ok {
		t.Fatalf("expected *client.APIError, got %T", err)
	}
	if apiErr.Code != "unknown" || apiErr.Message != "plain text failure" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}
