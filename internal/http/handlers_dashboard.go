package http

import (
	"net/http"

	"tabungan/internal/services"
)

type windowResponse struct {
	TotalCents   int64                 `json:"total_cents"`
	Transactions []transactionResponse `json:"transactions"`
}

type dashboardResponse struct {
	TotalBalanceCents  int64                 `json:"total_balance_cents"`
	TotalIncomeCents   int64                 `json:"total_income_cents"`
	TotalExpenseCents  int64                 `json:"total_expense_cents"`
	Last7DaysIncome    windowResponse        `json:"last_7_days_income"`
	Last7DaysExpense   windowResponse        `json:"last_7_days_expense"`
	Last30DaysIncome   windowResponse        `json:"last_30_days_income"`
	Last30DaysExpense  windowResponse        `json:"last_30_days_expense"`
	RecentTransactions []transactionResponse `json:"recent_transactions"`
}

func toWindowResponse(w services.WindowSummary) windowResponse {
	out := windowResponse{TotalCents: w.Total.Cents, Transactions: make([]transactionResponse, 0, len(w.Transactions))}
	for _, t := range w.Transactions {
		out.Transactions = append(out.Transactions, toTransactionResponse(t))
	}
	return out
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	d, err := s.transactions.Dashboard(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	recent := make([]transactionResponse, 0, len(d.RecentTransactions))
	for _, t := range d.RecentTransactions {
		recent = append(recent, toTransactionResponse(t))
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		TotalBalanceCents:  d.TotalBalance.Cents,
		TotalIncomeCents:   d.TotalIncome.Cents,
		TotalExpenseCents:  d.TotalExpense.Cents,
		Last7DaysIncome:    toWindowResponse(d.Last7DaysIncome),
		Last7DaysExpense:   toWindowResponse(d.Last7DaysExpense),
		Last30DaysIncome:   toWindowResponse(d.Last30DaysIncome),
		Last30DaysExpense:  toWindowResponse(d.Last30DaysExpense),
		RecentTransactions: recent,
	})
}
