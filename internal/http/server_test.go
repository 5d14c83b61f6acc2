package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tabungan/internal/core"
	"tabungan/internal/services"
)

type stubGoalAPI struct {
	createGoal           func(ctx context.Context, in services.CreateGoalInput) (*core.SavingsGoal, error)
	getGoal              func(ctx context.Context, ownerID, id string) (*core.SavingsGoal, int, error)
	listGoals            func(ctx context.Context, ownerID string) ([]core.SavingsGoal, services.GoalSummary, error)
	updateGoal           func(ctx context.Context, ownerID, id string, patch services.GoalPatch) (*core.SavingsGoal, error)
	deleteGoal           func(ctx context.Context, ownerID, id string) error
	contribute           func(ctx context.Context, ownerID, goalID string, amount core.Money, note string) (*core.SavingsGoal, *core.Contribution, error)
	toggleAutoContribute func(ctx context.Context, ownerID, goalID string, enabled bool, amount core.Money, frequency core.Frequency) (*core.SavingsGoal, error)
	contributionHistory  func(ctx context.Context, ownerID, goalID string) (*core.SavingsGoal, []core.Contribution, error)
}

func (s *stubGoalAPI) CreateGoal(ctx context.Context, in services.CreateGoalInput) (*core.SavingsGoal, error) {
	return s.createGoal(ctx, in)
}

func (s *stubGoalAPI) GetGoal(ctx context.Context, ownerID, id string) (*core.SavingsGoal, int, error) {
	return s.getGoal(ctx, ownerID, id)
}

func (s *stubGoalAPI) ListGoals(ctx context.Context, ownerID string) ([]core.SavingsGoal, services.GoalSummary, error) {
	return s.listGoals(ctx, ownerID)
}

func (s *stubGoalAPI) UpdateGoal(ctx context.Context, ownerID, id string, patch services.GoalPatch) (*core.SavingsGoal, error) {
	return s.updateGoal(ctx, ownerID, id, patch)
}

func (s *stubGoalAPI) DeleteGoal(ctx context.Context, ownerID, id string) error {
	return s.deleteGoal(ctx, ownerID, id)
}

func (s *stubGoalAPI) Contribute(ctx context.Context, ownerID, goalID string, amount core.Money, note string) (*core.SavingsGoal, *core.Contribution, error) {
	return s.contribute(ctx, ownerID, goalID, amount, note)
}

func (s *stubGoalAPI) ToggleAutoContribute(ctx context.Context, ownerID, goalID string, enabled bool, amount core.Money, frequency core.Frequency) (*core.SavingsGoal, error) {
	return s.toggleAutoContribute(ctx, ownerID, goalID, enabled, amount, frequency)
}

func (s *stubGoalAPI) ContributionHistory(ctx context.Context, ownerID, goalID string) (*core.SavingsGoal, []core.Contribution, error) {
	return s.contributionHistory(ctx, ownerID, goalID)
}

type stubTransactionAPI struct {
	addTransaction    func(ctx context.Context, t core.Transaction) (*core.Transaction, error)
	listTransactions  func(ctx context.Context, ownerID string, kind core.TransactionKind) ([]core.Transaction, error)
	deleteTransaction func(ctx context.Context, ownerID, id string) error
	dashboard         func(ctx context.Context, ownerID string) (*services.Dashboard, error)
}

func (s *stubTransactionAPI) AddTransaction(ctx context.Context, t core.Transaction) (*core.Transaction, error) {
	return s.addTransaction(ctx, t)
}

func (s *stubTransactionAPI) ListTransactions(ctx context.Context, ownerID string, kind core.TransactionKind) ([]core.Transaction, error) {
	return s.listTransactions(ctx, ownerID, kind)
}

func (s *stubTransactionAPI) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	return s.deleteTransaction(ctx, ownerID, id)
}

func (s *stubTransactionAPI) Dashboard(ctx context.Context, ownerID string) (*services.Dashboard, error) {
	return s.dashboard(ctx, ownerID)
}

func sampleGoal() *core.SavingsGoal {
	return &core.SavingsGoal{
		ID:            "goal-1",
		OwnerID:       "owner-1",
		GoalName:      "Vacation",
		Icon:          "💰",
		Category:      core.CategoryVacation,
		TargetAmount:  core.Money{Cents: 100000},
		CurrentAmount: core.Money{Cents: 40000},
		Status:        core.StatusActive,
		CreatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestServer(goals GoalAPI, transactions TransactionAPI) *Server {
	srv := NewServer(":0", goals, transactions)
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, owner, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestMissingOwnerHeaderIsUnauthorized(t *testing.T) {
	srv := newTestServer(&stubGoalAPI{}, &stubTransactionAPI{})
	defer srv.rateLimiter.stop()

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/savings", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&stubGoalAPI{}, &stubTransactionAPI{})
	defer srv.rateLimiter.stop()

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, srv, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestCreateGoal(t *testing.T) {
	var captured services.CreateGoalInput
	goals := &stubGoalAPI{
		createGoal: func(_ context.Context, in services.CreateGoalInput) (*core.SavingsGoal, error) {
			captured = in
			return sampleGoal(), nil
		},
	}
	srv := newTestServer(goals, &stubTransactionAPI{})
	defer srv.rateLimiter.stop()

	body := `{"goal_name":"Vacation","category":"vacation","target_cents":100000,"auto_contribute":true,"auto_cents":5000,"frequency":"weekly"}`
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/savings", "owner-1", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}
	if captured.OwnerID != "owner-1" {
		t.Errorf("owner = %q, want owner-1", captured.OwnerID)
	}
	if captured.Frequency != core.Weekly || captured.AutoAmount.Cents != 5000 {
		t.Errorf("auto config = %+v", captured)
	}

	var resp goalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "goal-1" || resp.ProgressPercent != 40 {
		t.Errorf("response = %+v", resp)
	}
}

func TestCreateGoalValidationErrorIs400(t *testing.T) {
	goals := &stubGoalAPI{
		createGoal: func(_ context.Context, _ services.CreateGoalInput) (*core.SavingsGoal, error) {
			return nil, core.ErrInvalidAmount
		},
	}
	srv := newTestServer(goals, &stubTransactionAPI{})
	defer srv.rateLimiter.stop()

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/savings", "owner-1", `{"goal_name":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestContributeNegativeAmountIs400(t *testing.T) {
	goals := &stubGoalAPI{
		contribute: func(_ context.Context, _, _ string, amount core.Money, _ string) (*core.SavingsGoal, *core.Contribution, error) {
			if err := amount.Validate(); err != nil {
				return nil, nil, err
			}
			t.Fatal("negative amount reached the service unchecked")
			return nil, nil, nil
		},
	}
	srv := newTestServer(goals, &stubTransactionAPI{})
	defer srv.rateLimiter.stop()

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/savings/goal-1/contribute", "owner-1", `{"amount_cents":-5}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body: %s", rec.Code, rec.Body.String())
	}
}

func TestGetGoalNotFoundIs404(t *testing.T) {
	goals := &stubGoalAPI{
		getGoal: func(_ context.Context, _, _ string) (*core.SavingsGoal, int, error) {
			return nil, 0, core.ErrNotFound
		},
	}
	srv := newTestServer(goals, &stubTransactionAPI{})
	defer srv.rateLimiter.stop()

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/savings/missing", "owner-1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestVersionConflictIs409(t *testing.T) {
	goals := &stubGoalAPI{
		contribute: func(_ context.Context, _, _ string, _ core.Money, _ string) (*core.SavingsGoal, *core.Contribution, error) {
			return nil, nil, core.ErrVersionConflict
		},
	}
	srv := newTestServer(goals, &stubTransactionAPI{})
	defer srv.rateLimiter.stop()

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/savings/goal-1/contribute", "owner-1", `{"amount_cents":100}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestUpdateGoalTargetBelowSavedIs400(t *testing.T) {
	goals := &stubGoalAPI{
		updateGoal: func(_ context.Context, _, _ string, _ services.GoalPatch) (*core.SavingsGoal, error) {
			return nil, core.ErrTargetBelowSaved
		},
	}
	srv := newTestServer(goals, &stubTransactionAPI{})
	defer srv.rateLimiter.stop()

	rec := doRequest(t, srv, http.MethodPut, "/api/v1/savings/goal-1", "owner-1", `{"target_cents":30000}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestZeroDatesSerializeAsNull(t *testing.T) {
	goals := &stubGoalAPI{
		getGoal: func(_ context.Context, _, _ string) (*core.SavingsGoal, int, error) {
			return sampleGoal(), 40, nil // zero target and schedule dates
		},
	}
	srv := newTestServer(goals, &stubTransactionAPI{})
	defer srv.rateLimiter.stop()

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/savings/goal-1", "owner-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got := string(raw["target_date"]); got != "null" {
		t.Errorf("target_date = %s, want null", got)
	}
}

func TestToggleAutoContribute(t *testing.T) {
	var gotEnabled bool
	var gotFreq core.Frequency
	goals := &stubGoalAPI{
		toggleAutoContribute: func(_ context.Context, _, _ string, enabled bool, _ core.Money, freq core.Frequency) (*core.SavingsGoal, error) {
			gotEnabled = enabled
			gotFreq = freq
			g := sampleGoal()
			g.AutoContribute = core.AutoContribute{Enabled: enabled, Amount: core.Money{Cents: 5000}, Frequency: freq}
			return g, nil
		},
	}
	srv := newTestServer(goals, &stubTransactionAPI{})
	defer srv.rateLimiter.stop()

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/savings/goal-1/auto-contribute", "owner-1",
		`{"enabled":true,"amount_cents":5000,"frequency":"weekly"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !gotEnabled || gotFreq != core.Weekly {
		t.Errorf("toggle args = %v/%s", gotEnabled, gotFreq)
	}
}

func TestAddIncome(t *testing.T) {
	transactions := &stubTransactionAPI{
		addTransaction: func(_ context.Context, tx core.Transaction) (*core.Transaction, error) {
			if tx.Kind != core.TransactionIncome {
				t.Errorf("kind = %s, want income", tx.Kind)
			}
			tx.ID = "tx-1"
			return &tx, nil
		},
	}
	srv := newTestServer(&stubGoalAPI{}, transactions)
	defer srv.rateLimiter.stop()

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/income", "owner-1",
		`{"source":"Salary","amount_cents":500000,"date":"2024-03-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}

	var resp transactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "tx-1" || resp.Kind != "income" {
		t.Errorf("response = %+v", resp)
	}
}

func TestDashboard(t *testing.T) {
	transactions := &stubTransactionAPI{
		dashboard: func(_ context.Context, _ string) (*services.Dashboard, error) {
			return &services.Dashboard{
				TotalBalance: core.Money{Cents: 42500},
				TotalIncome:  core.Money{Cents: 50000},
				TotalExpense: core.Money{Cents: 7500},
			}, nil
		},
	}
	srv := newTestServer(&stubGoalAPI{}, transactions)
	defer srv.rateLimiter.stop()

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/dashboard", "owner-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalBalanceCents != 42500 {
		t.Errorf("TotalBalanceCents = %d, want 42500", resp.TotalBalanceCents)
	}
}

func TestMalformedBodyIs400(t *testing.T) {
	srv := newTestServer(&stubGoalAPI{}, &stubTransactionAPI{})
	defer srv.rateLimiter.stop()

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/savings", "owner-1", `{"goal_name":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRateLimitOnMutatingRequests(t *testing.T) {
	goals := &stubGoalAPI{
		deleteGoal: func(_ context.Context, _, _ string) error { return nil },
	}
	srv := newTestServer(goals, &stubTransactionAPI{})
	defer srv.rateLimiter.stop()

	var last int
	for i := 0; i < requestsPerMinute+1; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/savings/goal-1", nil)
		req.Header.Set("X-User-ID", "owner-1")
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		last = rec.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("final status = %d, want 429", last)
	}
}
