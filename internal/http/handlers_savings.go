package http

import (
	"net/http"
	"time"

	"tabungan/internal/core"
	"tabungan/internal/services"
)

type goalResponse struct {
	ID              string                 `json:"id"`
	GoalName        string                 `json:"goal_name"`
	Description     string                 `json:"description,omitempty"`
	Icon            string                 `json:"icon"`
	Category        string                 `json:"category"`
	TargetCents     int64                  `json:"target_cents"`
	CurrentCents    int64                  `json:"current_cents"`
	ProgressPercent int                    `json:"progress_percent"`
	Status          string                 `json:"status"`
	TargetDate      apiDate                `json:"target_date"`
	AutoContribute  autoContributeResponse `json:"auto_contribute"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type autoContributeResponse struct {
	Enabled              bool    `json:"enabled"`
	AmountCents          int64   `json:"amount_cents,omitempty"`
	Frequency            string  `json:"frequency,omitempty"`
	LastContributionDate apiDate `json:"last_contribution_date"`
	NextContributionDate apiDate `json:"next_contribution_date"`
}

type contributionResponse struct {
	ID          int64     `json:"id"`
	AmountCents int64     `json:"amount_cents"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
	Note        string    `json:"note,omitempty"`
}

func toGoalResponse(g *core.SavingsGoal) goalResponse {
	return goalResponse{
		ID:              g.ID,
		GoalName:        g.GoalName,
		Description:     g.Description,
		Icon:            g.Icon,
		Category:        string(g.Category),
		TargetCents:     g.TargetAmount.Cents,
		CurrentCents:    g.CurrentAmount.Cents,
		ProgressPercent: g.Progress(),
		Status:          string(g.Status),
		TargetDate:      apiDate{g.TargetDate},
		AutoContribute: autoContributeResponse{
			Enabled:              g.AutoContribute.Enabled,
			AmountCents:          g.AutoContribute.Amount.Cents,
			Frequency:            string(g.AutoContribute.Frequency),
			LastContributionDate: apiDate{g.AutoContribute.LastContributionDate},
			NextContributionDate: apiDate{g.AutoContribute.NextContributionDate},
		},
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func toContributionResponse(c core.Contribution) contributionResponse {
	return contributionResponse{
		ID:          c.ID,
		AmountCents: c.Amount.Cents,
		Type:        string(c.Type),
		Date:        c.Date,
		Note:        c.Note,
	}
}

type createGoalRequest struct {
	GoalName       string  `json:"goal_name"`
	Description    string  `json:"description"`
	Icon           string  `json:"icon"`
	Category       string  `json:"category"`
	TargetCents    int64   `json:"target_cents"`
	TargetDate     apiDate `json:"target_date"`
	AutoContribute bool    `json:"auto_contribute"`
	AutoCents      int64   `json:"auto_cents"`
	Frequency      string  `json:"frequency"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req createGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	goal, err := s.goals.CreateGoal(r.Context(), services.CreateGoalInput{
		OwnerID:        owner,
		GoalName:       req.GoalName,
		Description:    req.Description,
		Icon:           req.Icon,
		Category:       core.GoalCategory(req.Category),
		TargetAmount:   core.Money{Cents: req.TargetCents},
		TargetDate:     req.TargetDate.Time,
		AutoContribute: req.AutoContribute,
		AutoAmount:     core.Money{Cents: req.AutoCents},
		Frequency:      core.Frequency(req.Frequency),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toGoalResponse(goal))
}

type goalSummaryResponse struct {
	TotalGoals     int   `json:"total_goals"`
	TotalTarget    int64 `json:"total_target_cents"`
	TotalSaved     int64 `json:"total_saved_cents"`
	CompletedGoals int   `json:"completed_goals"`
}

type listGoalsResponse struct {
	Goals   []goalResponse      `json:"goals"`
	Summary goalSummaryResponse `json:"summary"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	goals, summary, err := s.goals.ListGoals(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]goalResponse, 0, len(goals))
	for i := range goals {
		out = append(out, toGoalResponse(&goals[i]))
	}

	writeJSON(w, http.StatusOK, listGoalsResponse{
		Goals: out,
		Summary: goalSummaryResponse{
			TotalGoals:     summary.TotalGoals,
			TotalTarget:    summary.TotalTarget.Cents,
			TotalSaved:     summary.TotalSaved.Cents,
			CompletedGoals: summary.CompletedGoals,
		},
	})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	goal, _, err := s.goals.GetGoal(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toGoalResponse(goal))
}

type updateGoalRequest struct {
	GoalName    *string  `json:"goal_name"`
	Description *string  `json:"description"`
	Icon        *string  `json:"icon"`
	Category    *string  `json:"category"`
	TargetCents *int64   `json:"target_cents"`
	TargetDate  *apiDate `json:"target_date"`
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req updateGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	patch := services.GoalPatch{
		GoalName:    req.GoalName,
		Description: req.Description,
		Icon:        req.Icon,
	}
	if req.Category != nil {
		category := core.GoalCategory(*req.Category)
		patch.Category = &category
	}
	if req.TargetCents != nil {
		target := core.Money{Cents: *req.TargetCents}
		patch.TargetAmount = &target
	}
	if req.TargetDate != nil {
		patch.TargetDate = &req.TargetDate.Time
	}

	goal, err := s.goals.UpdateGoal(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toGoalResponse(goal))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := s.goals.DeleteGoal(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

type contributeRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Note        string `json:"note"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req contributeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	goal, entry, err := s.goals.Contribute(r.Context(), owner, r.PathValue("id"), core.Money{Cents: req.AmountCents}, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Goal         goalResponse         `json:"goal"`
		Contribution contributionResponse `json:"contribution"`
	}{
		Goal:         toGoalResponse(goal),
		Contribution: toContributionResponse(*entry),
	})
}

type toggleAutoContributeRequest struct {
	Enabled     bool   `json:"enabled"`
	AmountCents int64  `json:"amount_cents"`
	Frequency   string `json:"frequency"`
}

func (s *Server) handleToggleAutoContribute(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req toggleAutoContributeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	goal, err := s.goals.ToggleAutoContribute(r.Context(), owner, r.PathValue("id"),
		req.Enabled, core.Money{Cents: req.AmountCents}, core.Frequency(req.Frequency))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toGoalResponse(goal))
}

func (s *Server) handleContributionHistory(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	goal, entries, err := s.goals.ContributionHistory(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]contributionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toContributionResponse(e))
	}

	writeJSON(w, http.StatusOK, struct {
		GoalID        string                 `json:"goal_id"`
		GoalName      string                 `json:"goal_name"`
		Contributions []contributionResponse `json:"contributions"`
	}{
		GoalID:        goal.ID,
		GoalName:      goal.GoalName,
		Contributions: out,
	})
}
