package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/court-case-api/api"
	"github.com/linesmerrill/court-case-api/api/handlers"
	"github.com/linesmerrill/court-case-api/cases"
	"github.com/linesmerrill/court-case-api/models"
)

type mockCaseService struct {
	mock.Mock
}

func (m *mockCaseService) Register(ctx context.Context, p models.Principal, in cases.RegisterInput) (*models.CourtCase, error) {
	ret := m.Called(ctx, p, in)
	c, _ := ret.Get(0).(*models.CourtCase)
	return c, ret.Error(1)
}

func (m *mockCaseService) Get(ctx context.Context, p models.Principal, caseID string) (*models.CourtCase, error) {
	ret := m.Called(ctx, p, caseID)
	c, _ := ret.Get(0).(*models.CourtCase)
	return c, ret.Error(1)
}

func (m *mockCaseService) List(ctx context.Context, p models.Principal, o cases.ListOptions) (*cases.CaseList, error) {
	ret := m.Called(ctx, p, o)
	l, _ := ret.Get(0).(*cases.CaseList)
	return l, ret.Error(1)
}

func (m *mockCaseService) DashboardStats(ctx context.Context, p models.Principal) (*models.DashboardStats, error) {
	ret := m.Called(ctx, p)
	s, _ := ret.Get(0).(*models.DashboardStats)
	return s, ret.Error(1)
}

func (m *mockCaseService) Export(ctx context.Context, p models.Principal, o cases.ListOptions) (*bytes.Buffer, error) {
	ret := m.Called(ctx, p, o)
	b, _ := ret.Get(0).(*bytes.Buffer)
	return b, ret.Error(1)
}

func (m *mockCaseService) AssignJudge(ctx context.Context, p models.Principal, caseID string, in cases.AssignJudgeInput) (*models.CourtCase, error) {
	ret := m.Called(ctx, p, caseID, in)
	c, _ := ret.Get(0).(*models.CourtCase)
	return c, ret.Error(1)
}

func (m *mockCaseService) ScheduleHearing(ctx context.Context, p models.Principal, caseID string, in cases.HearingInput) (*models.Hearing, error) {
	ret := m.Called(ctx, p, caseID, in)
	h, _ := ret.Get(0).(*models.Hearing)
	return h, ret.Error(1)
}

func (m *mockCaseService) AddOrder(ctx context.Context, p models.Principal, caseID string, in cases.OrderInput) (*models.Order, error) {
	ret := m.Called(ctx, p, caseID, in)
	o, _ := ret.Get(0).(*models.Order)
	return o, ret.Error(1)
}

func (m *mockCaseService) UpdateStatus(ctx context.Context, p models.Principal, caseID string, in cases.StatusInput) (*models.CourtCase, error) {
	ret := m.Called(ctx, p, caseID, in)
	c, _ := ret.Get(0).(*models.CourtCase)
	return c, ret.Error(1)
}

var (
	registrarPrincipal = models.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleRegistrar, Name: "Grace Hopper"}
	judgePrincipal     = models.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleJudge, Name: "Ada Okafor"}
)

// serve runs the request through a router so path variables resolve
func serve(pattern string, h http.HandlerFunc, p *models.Principal, req *http.Request) *httptest.ResponseRecorder {
	if p != nil {
		req = req.WithContext(api.WithPrincipal(req.Context(), *p))
	}
	r := mux.NewRouter()
	r.HandleFunc(pattern, h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) models.MessageError {
	var body models.ErrorMessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Response
}

func TestCourtCase_RegisterCaseHandler(t *testing.T) {
	svc := &mockCaseService{}
	c := handlers.CourtCase{Cases: svc}
	in := cases.RegisterInput{
		Title:     "Okafor v. Mensah",
		CaseType:  models.CaseCivil,
		CourtType: models.CourtDistrict,
		Parties: []models.Party{
			{UserID: primitive.NewObjectID().Hex(), Role: models.PartyPetitioner, IsMainParty: true},
			{UserID: primitive.NewObjectID().Hex(), Role: models.PartyRespondent, IsMainParty: true},
		},
	}
	created := &models.CourtCase{ID: primitive.NewObjectID(), Details: models.CourtCaseDetails{CaseNumber: "DC/2026/0001", Title: in.Title}}
	svc.On("Register", mock.Anything, registrarPrincipal, in).Return(created, nil)

	body, _ := json.Marshal(in)
	rr := serve("/api/v1/cases", c.RegisterCaseHandler, &registrarPrincipal, httptest.NewRequest("POST", "/api/v1/cases", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"caseNumber":"DC/2026/0001"`)
	svc.AssertExpectations(t)
}

func TestCourtCase_RegisterCaseHandlerBadBody(t *testing.T) {
	c := handlers.CourtCase{Cases: &mockCaseService{}}
	rr := serve("/api/v1/cases", c.RegisterCaseHandler, &registrarPrincipal, httptest.NewRequest("POST", "/api/v1/cases", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "failed to decode request", errorBody(t, rr).Message)
}

func TestCourtCase_NoPrincipal(t *testing.T) {
	svc := &mockCaseService{}
	c := handlers.CourtCase{Cases: svc}
	rr := serve("/api/v1/cases", c.CasesHandler, nil, httptest.NewRequest("GET", "/api/v1/cases", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestCourtCase_ErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", cases.New(cases.KindValidation, "invalid hearing date"), http.StatusBadRequest, "invalid hearing date"},
		{"role mismatch", cases.New(cases.KindRoleMismatch, "user is not a judge"), http.StatusBadRequest, "user is not a judge"},
		{"not found", cases.New(cases.KindNotFound, "case not found"), http.StatusNotFound, "case not found"},
		{"forbidden", cases.New(cases.KindForbidden, "access denied"), http.StatusForbidden, "access denied"},
		{"server", cases.Wrap(errors.New("connection reset"), cases.KindServer, "failed to load case"), http.StatusInternalServerError, "failed to load case"},
		{"foreign", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCaseService{}
			svc.On("Get", mock.Anything, judgePrincipal, "abc").Return(nil, tt.err)
			c := handlers.CourtCase{Cases: svc}

			rr := serve("/api/v1/cases/{case_id}", c.CaseByIDHandler, &judgePrincipal, httptest.NewRequest("GET", "/api/v1/cases/abc", nil))

			assert.Equal(t, tt.status, rr.Code)
			got := errorBody(t, rr)
			assert.Equal(t, tt.message, got.Message)
			assert.NotContains(t, got.Error, "connection reset")
		})
	}
}

func TestCourtCase_CasesHandlerParsesQuery(t *testing.T) {
	svc := &mockCaseService{}
	want := cases.ListOptions{
		Page:      2,
		Limit:     25,
		Status:    models.StatusPending,
		CaseType:  models.CaseFamily,
		Priority:  models.PriorityHigh,
		Search:    "okafor",
		SortBy:    "registrationDate",
		SortOrder: "asc",
	}
	list := &cases.CaseList{Cases: []models.CourtCase{}, Pagination: cases.NewPagination(2, 25, 30)}
	svc.On("List", mock.Anything, judgePrincipal, want).Return(list, nil)
	c := handlers.CourtCase{Cases: svc}

	url := "/api/v1/cases?page=2&limit=25&status=pending&caseType=family&priority=high&search=okafor&sortBy=registrationDate&sortOrder=asc"
	rr := serve("/api/v1/cases", c.CasesHandler, &judgePrincipal, httptest.NewRequest("GET", url, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got cases.CaseList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Pagination.CurrentPage)
	assert.True(t, got.Pagination.HasPrevPage)
	svc.AssertExpectations(t)
}

func TestCourtCase_CasesHandlerBadPage(t *testing.T) {
	svc := &mockCaseService{}
	c := handlers.CourtCase{Cases: svc}
	rr := serve("/api/v1/cases", c.CasesHandler, &judgePrincipal, httptest.NewRequest("GET", "/api/v1/cases?page=two", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid query parameters", errorBody(t, rr).Message)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestCourtCase_DashboardStatsHandler(t *testing.T) {
	svc := &mockCaseService{}
	svc.On("DashboardStats", mock.Anything, judgePrincipal).Return(&models.DashboardStats{Registered: 2, Pending: 1, Total: 3}, nil)
	c := handlers.CourtCase{Cases: svc}

	rr := serve("/api/v1/cases/dashboard-stats", c.DashboardStatsHandler, &judgePrincipal, httptest.NewRequest("GET", "/api/v1/cases/dashboard-stats", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"registered":2,"pending":1,"inProgress":0,"disposed":0,"total":3}`, rr.Body.String())
}

func TestCourtCase_ExportCasesHandler(t *testing.T) {
	svc := &mockCaseService{}
	svc.On("Export", mock.Anything, registrarPrincipal, cases.ListOptions{Status: models.StatusDisposed}).
		Return(bytes.NewBufferString("PK-sheet"), nil)
	c := handlers.CourtCase{Cases: svc}

	rr := serve("/api/v1/cases/export", c.ExportCasesHandler, &registrarPrincipal, httptest.NewRequest("GET", "/api/v1/cases/export?status=disposed", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="cases.xlsx"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK-sheet", rr.Body.String())
}

func TestCourtCase_AssignJudgeHandler(t *testing.T) {
	svc := &mockCaseService{}
	in := cases.AssignJudgeInput{JudgeID: judgePrincipal.ID, CourtNumber: "7"}
	updated := &models.CourtCase{Details: models.CourtCaseDetails{Status: models.StatusAdmitted}}
	svc.On("AssignJudge", mock.Anything, registrarPrincipal, "case-1", in).Return(updated, nil)
	c := handlers.CourtCase{Cases: svc}

	body, _ := json.Marshal(in)
	rr := serve("/api/v1/cases/{case_id}/assign-judge", c.AssignJudgeHandler, &registrarPrincipal,
		httptest.NewRequest("PUT", "/api/v1/cases/case-1/assign-judge", bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"admitted"`)
	svc.AssertExpectations(t)
}

func TestCourtCase_ScheduleHearingHandler(t *testing.T) {
	svc := &mockCaseService{}
	in := cases.HearingInput{HearingDate: "2026-03-02", HearingTime: "10:30", HearingType: models.HearingFirst, CourtRoom: "4"}
	svc.On("ScheduleHearing", mock.Anything, judgePrincipal, "case-1", in).Return(&models.Hearing{HearingTime: "10:30"}, nil)
	c := handlers.CourtCase{Cases: svc}

	body, _ := json.Marshal(in)
	rr := serve("/api/v1/cases/{case_id}/hearings", c.ScheduleHearingHandler, &judgePrincipal,
		httptest.NewRequest("POST", "/api/v1/cases/case-1/hearings", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"hearingTime":"10:30"`)
}

func TestCourtCase_AddOrderHandler(t *testing.T) {
	svc := &mockCaseService{}
	in := cases.OrderInput{OrderType: models.OrderInterim, OrderText: "Status quo to be maintained"}
	svc.On("AddOrder", mock.Anything, judgePrincipal, "case-1", in).
		Return(nil, cases.New(cases.KindForbidden, "only the assigned judge can pass orders"))
	c := handlers.CourtCase{Cases: svc}

	body, _ := json.Marshal(in)
	rr := serve("/api/v1/cases/{case_id}/orders", c.AddOrderHandler, &judgePrincipal,
		httptest.NewRequest("POST", "/api/v1/cases/case-1/orders", bytes.NewReader(body)))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "only the assigned judge can pass orders", errorBody(t, rr).Message)
}

func TestCourtCase_UpdateStatusHandler(t *testing.T) {
	svc := &mockCaseService{}
	in := cases.StatusInput{Status: models.StatusDisposed, Remarks: "decree drawn"}
	svc.On("UpdateStatus", mock.Anything, judgePrincipal, "case-1", in).
		Return(&models.CourtCase{Details: models.CourtCaseDetails{Status: models.StatusDisposed}}, nil)
	c := handlers.CourtCase{Cases: svc}

	body, _ := json.Marshal(in)
	rr := serve("/api/v1/cases/{case_id}/status", c.UpdateStatusHandler, &judgePrincipal,
		httptest.NewRequest("PUT", "/api/v1/cases/case-1/status", bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"disposed"`)
}
