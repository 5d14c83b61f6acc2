package http

import (
	"net/http"
	"time"

	"tabungan/internal/core"
)

type transactionRequest struct {
	Icon        string  `json:"icon"`
	Source      string  `json:"source"`
	AmountCents int64   `json:"amount_cents"`
	Date        apiDate `json:"date"`
}

type transactionResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Icon        string    `json:"icon,omitempty"`
	Source      string    `json:"source"`
	AmountCents int64     `json:"amount_cents"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Kind:        string(t.Kind),
		Icon:        t.Icon,
		Source:      t.Source,
		AmountCents: t.Amount.Cents,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
	}
}

func (s *Server) addTransaction(w http.ResponseWriter, r *http.Request, kind core.TransactionKind) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	tx, err := s.transactions.AddTransaction(r.Context(), core.Transaction{
		OwnerID: owner,
		Kind:    kind,
		Icon:    req.Icon,
		Source:  req.Source,
		Amount:  core.Money{Cents: req.AmountCents},
		Date:    req.Date.Time,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(*tx))
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request, kind core.TransactionKind) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	transactions, err := s.transactions.ListTransactions(r.Context(), owner, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := s.transactions.DeleteTransaction(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	s.addTransaction(w, r, core.TransactionIncome)
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, core.TransactionIncome)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	s.deleteTransaction(w, r)
}
