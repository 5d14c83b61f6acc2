package http

import (
	"net/http"

	"tabungan/internal/core"
)

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	s.addTransaction(w, r, core.TransactionExpense)
}

func (s *Server) handleListExpense(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, core.TransactionExpense)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.deleteTransaction(w, r)
}
