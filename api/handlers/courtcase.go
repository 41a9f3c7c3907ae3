package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-case-api/api"
	"github.com/linesmerrill/court-case-api/cases"
	"github.com/linesmerrill/court-case-api/config"
	"github.com/linesmerrill/court-case-api/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CaseService is the case lifecycle the handlers drive
type CaseService interface {
	Register(ctx context.Context, p models.Principal, in cases.RegisterInput) (*models.CourtCase, error)
	Get(ctx context.Context, p models.Principal, caseID string) (*models.CourtCase, error)
	List(ctx context.Context, p models.Principal, o cases.ListOptions) (*cases.CaseList, error)
	DashboardStats(ctx context.Context, p models.Principal) (*models.DashboardStats, error)
	Export(ctx context.Context, p models.Principal, o cases.ListOptions) (*bytes.Buffer, error)
	AssignJudge(ctx context.Context, p models.Principal, caseID string, in cases.AssignJudgeInput) (*models.CourtCase, error)
	ScheduleHearing(ctx context.Context, p models.Principal, caseID string, in cases.HearingInput) (*models.Hearing, error)
	AddOrder(ctx context.Context, p models.Principal, caseID string, in cases.OrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, p models.Principal, caseID string, in cases.StatusInput) (*models.CourtCase, error)
}

// CourtCase exported for testing purposes
type CourtCase struct {
	Cases CaseService
}

// RegisterCaseHandler registers a new case
func (c CourtCase) RegisterCaseHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in cases.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	created, err := c.Cases.Register(ctx, p, in)
	if err != nil {
		caseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// CasesHandler returns one page of the cases visible to the caller
func (c CourtCase) CasesHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		config.ErrorStatus("invalid query parameters", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	list, err := c.Cases.List(ctx, p, opts)
	if err != nil {
		caseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DashboardStatsHandler returns per-status counts of the caller's cases
func (c CourtCase) DashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	stats, err := c.Cases.DashboardStats(ctx, p)
	if err != nil {
		caseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ExportCasesHandler streams the caller's filtered cases as a spreadsheet
func (c CourtCase) ExportCasesHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		config.ErrorStatus("invalid query parameters", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	buf, err := c.Cases.Export(ctx, p, opts)
	if err != nil {
		caseError(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="cases.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		zap.S().Warnw("failed to stream export", "error", err)
	}
}

// CaseByIDHandler returns a single case
func (c CourtCase) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID := mux.Vars(r)["case_id"]
	zap.S().Debugf("case_id: %v", caseID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	found, err := c.Cases.Get(ctx, p, caseID)
	if err != nil {
		caseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// AssignJudgeHandler assigns a judge to the case
func (c CourtCase) AssignJudgeHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in cases.AssignJudgeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Cases.AssignJudge(ctx, p, mux.Vars(r)["case_id"], in)
	if err != nil {
		caseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ScheduleHearingHandler schedules a hearing on the case
func (c CourtCase) ScheduleHearingHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in cases.HearingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	hearing, err := c.Cases.ScheduleHearing(ctx, p, mux.Vars(r)["case_id"], in)
	if err != nil {
		caseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hearing)
}

// AddOrderHandler records a judicial order on the case
func (c CourtCase) AddOrderHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in cases.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	order, err := c.Cases.AddOrder(ctx, p, mux.Vars(r)["case_id"], in)
	if err != nil {
		caseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// UpdateStatusHandler moves the case to a new status
func (c CourtCase) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in cases.StatusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Cases.UpdateStatus(ctx, p, mux.Vars(r)["case_id"], in)
	if err != nil {
		caseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// listOptions reads the list query string; values are checked by the service
func listOptions(r *http.Request) (cases.ListOptions, error) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"))
	if err != nil {
		return cases.ListOptions{}, fmt.Errorf("page: %w", err)
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		return cases.ListOptions{}, fmt.Errorf("limit: %w", err)
	}
	return cases.ListOptions{
		Page:      page,
		Limit:     limit,
		Status:    models.CaseStatus(q.Get("status")),
		CaseType:  models.CaseType(q.Get("caseType")),
		Priority:  models.Priority(q.Get("priority")),
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
