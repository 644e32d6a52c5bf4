package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dealsuite/synergy-tracker/internal/application/port"
	"github.com/dealsuite/synergy-tracker/internal/application/service"
	appwf "github.com/dealsuite/synergy-tracker/internal/application/workflow"
	"github.com/dealsuite/synergy-tracker/internal/domain/entity"
	"github.com/dealsuite/synergy-tracker/internal/domain/workflow"
	"github.com/dealsuite/synergy-tracker/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSynergyService struct {
	synergies map[int64]*entity.Synergy
	metrics   map[int64][]*entity.SynergyMetric

	createErr error
	updateErr error
}

func newMockSynergyService() *mockSynergyService {
	return &mockSynergyService{
		synergies: make(map[int64]*entity.Synergy),
		metrics:   make(map[int64][]*entity.SynergyMetric),
	}
}

func (m *mockSynergyService) Create(_ context.Context, input service.SynergyInput) (*entity.Synergy, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	s := &entity.Synergy{
		ID:          int64(len(m.synergies) + 1),
		Company1ID:  input.Company1ID,
		Company2ID:  input.Company2ID,
		SynergyType: input.SynergyType,
		Description: input.Description,
		Status:      workflow.InitialState,
	}
	m.synergies[s.ID] = s
	return s, nil
}

func (m *mockSynergyService) Get(_ context.Context, id int64) (*entity.Synergy, error) {
	s, ok := m.synergies[id]
	if !ok {
		return nil, fmt.Errorf("%w: synergy %d", workflow.ErrNotFound, id)
	}
	return s, nil
}

func (m *mockSynergyService) List(_ context.Context, _ port.SynergyFilter) ([]*entity.Synergy, error) {
	out := make([]*entity.Synergy, 0, len(m.synergies))
	for _, s := range m.synergies {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockSynergyService) Update(_ context.Context, id int64, input service.SynergyInput) (*entity.Synergy, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	s, ok := m.synergies[id]
	if !ok {
		return nil, fmt.Errorf("%w: synergy %d", workflow.ErrNotFound, id)
	}
	s.Description = input.Description
	return s, nil
}

func (m *mockSynergyService) Delete(_ context.Context, id int64) error {
	if _, ok := m.synergies[id]; !ok {
		return fmt.Errorf("%w: synergy %d", workflow.ErrNotFound, id)
	}
	delete(m.synergies, id)
	return nil
}

func (m *mockSynergyService) Metrics(_ context.Context, synergyID int64) ([]*entity.SynergyMetric, error) {
	return m.metrics[synergyID], nil
}

func (m *mockSynergyService) AddMetric(_ context.Context, metric *entity.SynergyMetric) error {
	if _, ok := m.synergies[metric.SynergyID]; !ok {
		return fmt.Errorf("%w: synergy %d", workflow.ErrNotFound, metric.SynergyID)
	}
	metric.ID = int64(len(m.metrics[metric.SynergyID]) + 1)
	m.metrics[metric.SynergyID] = append(m.metrics[metric.SynergyID], metric)
	return nil
}

func (m *mockSynergyService) GenerateForDeal(_ context.Context, input service.GenerateInput) ([]*entity.Synergy, error) {
	s := &entity.Synergy{
		ID:          int64(len(m.synergies) + 1),
		Company1ID:  input.Acquirer.ID,
		Company2ID:  input.Target.ID,
		SynergyType: "revenue",
		Status:      workflow.InitialState,
	}
	m.synergies[s.ID] = s
	return []*entity.Synergy{s}, nil
}

type mockEngine struct {
	applyErr   error
	applied    []appwf.ApplyRequest
	state      workflow.State
	history    []*entity.WorkflowTransition
	historyErr error
}

func (m *mockEngine) Apply(_ context.Context, req appwf.ApplyRequest) (*entity.WorkflowTransition, error) {
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	m.applied = append(m.applied, req)
	next, ok := workflow.NextState(m.state, req.Action)
	if !ok {
		return nil, fmt.Errorf("%w: cannot %s from %s", workflow.ErrInvalidTransition, req.Action, m.state)
	}
	t := &entity.WorkflowTransition{
		SynergyID: req.SynergyID,
		FromState: m.state,
		ToState:   next,
		Action:    req.Action,
		ActorID:   req.ActorID,
		Sequence:  int64(len(m.history) + 1),
		CreatedAt: time.Now(),
	}
	m.state = next
	m.history = append(m.history, t)
	return t, nil
}

func (m *mockEngine) CurrentState(_ context.Context, _ int64) (workflow.State, error) {
	return m.state, nil
}

func (m *mockEngine) History(_ context.Context, _ int64) ([]*entity.WorkflowTransition, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history, nil
}

func setupRouter(svc service.SynergyService, engine appwf.Engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler(svc, engine, report.NewAuditExporter(zap.NewNop()), zap.NewNop())
	h.RegisterRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seededService() *mockSynergyService {
	svc := newMockSynergyService()
	svc.synergies[1] = &entity.Synergy{
		ID:          1,
		Company1ID:  10,
		Company2ID:  20,
		SynergyType: "cost",
		Description: "Shared procurement",
		Status:      workflow.StateDraft,
	}
	return svc
}

func TestCreateSynergy(t *testing.T) {
	router := setupRouter(newMockSynergyService(), &mockEngine{state: workflow.StateDraft})

	w := doRequest(router, http.MethodPost, "/api/synergies", service.SynergyInput{
		Company1ID:  10,
		Company2ID:  20,
		SynergyType: "cost",
		Description: "Shared procurement",
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)

	var created entity.Synergy
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, workflow.StateDraft, created.Status)
}

func TestCreateSynergy_InvalidInput(t *testing.T) {
	svc := newMockSynergyService()
	svc.createErr = fmt.Errorf("%w: company1_id and company2_id must differ", service.ErrInvalidInput)
	router := setupRouter(svc, &mockEngine{state: workflow.StateDraft})

	w := doRequest(router, http.MethodPost, "/api/synergies", service.SynergyInput{
		Company1ID: 10,
		Company2ID: 10,
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSynergy_NotFound(t *testing.T) {
	router := setupRouter(newMockSynergyService(), &mockEngine{state: workflow.StateDraft})

	w := doRequest(router, http.MethodGet, "/api/synergies/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSynergy_InvalidID(t *testing.T) {
	router := setupRouter(newMockSynergyService(), &mockEngine{state: workflow.StateDraft})

	w := doRequest(router, http.MethodGet, "/api/synergies/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSynergies_InvalidStatusFilter(t *testing.T) {
	router := setupRouter(seededService(), &mockEngine{state: workflow.StateDraft})

	w := doRequest(router, http.MethodGet, "/api/synergies?status=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSynergy(t *testing.T) {
	svc := seededService()
	router := setupRouter(svc, &mockEngine{state: workflow.StateDraft})

	w := doRequest(router, http.MethodDelete, "/api/synergies/1", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, svc.synergies)
}

func TestApplyWorkflowAction(t *testing.T) {
	engine := &mockEngine{state: workflow.StateDraft}
	router := setupRouter(seededService(), engine)

	w := doRequest(router, http.MethodPost, "/api/synergies/1/workflow",
		map[string]string{"action": "submit", "comment": "ready"},
		map[string]string{"X-User-ID": "u-1", "X-User-Email": "analyst@example.com"})

	require.Equal(t, http.StatusCreated, w.Code)

	var transition entity.WorkflowTransition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &transition))
	assert.Equal(t, workflow.StateReview, transition.ToState)

	require.Len(t, engine.applied, 1)
	assert.Equal(t, "u-1", engine.applied[0].ActorID)
	assert.Equal(t, "analyst@example.com", engine.applied[0].ActorLabel)
	assert.Equal(t, "ready", engine.applied[0].Comment)
}

func TestApplyWorkflowAction_MissingActor(t *testing.T) {
	engine := &mockEngine{state: workflow.StateDraft}
	router := setupRouter(seededService(), engine)

	w := doRequest(router, http.MethodPost, "/api/synergies/1/workflow",
		map[string]string{"action": "submit"}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, engine.applied)
}

func TestApplyWorkflowAction_InvalidTransition(t *testing.T) {
	engine := &mockEngine{state: workflow.StateDraft}
	router := setupRouter(seededService(), engine)

	w := doRequest(router, http.MethodPost, "/api/synergies/1/workflow",
		map[string]string{"action": "approve"},
		map[string]string{"X-User-ID": "u-1"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestApplyWorkflowAction_ConcurrentModification(t *testing.T) {
	engine := &mockEngine{
		state:    workflow.StateReview,
		applyErr: fmt.Errorf("%w", workflow.ErrConcurrentModification),
	}
	router := setupRouter(seededService(), engine)

	w := doRequest(router, http.MethodPost, "/api/synergies/1/workflow",
		map[string]string{"action": "approve", "expected_state": "review"},
		map[string]string{"X-User-ID": "u-2"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestApplyWorkflowAction_SynergyNotFound(t *testing.T) {
	engine := &mockEngine{state: workflow.StateDraft}
	router := setupRouter(newMockSynergyService(), engine)

	w := doRequest(router, http.MethodPost, "/api/synergies/7/workflow",
		map[string]string{"action": "submit"},
		map[string]string{"X-User-ID": "u-1"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, engine.applied)
}

func TestGetWorkflowHistory(t *testing.T) {
	engine := &mockEngine{state: workflow.StateReview, history: []*entity.WorkflowTransition{
		{SynergyID: 1, FromState: workflow.StateDraft, ToState: workflow.StateReview, Action: workflow.ActionSubmit, Sequence: 1},
	}}
	router := setupRouter(seededService(), engine)

	w := doRequest(router, http.MethodGet, "/api/synergies/1/workflow", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history []*entity.WorkflowTransition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, workflow.StateReview, history[0].ToState)
}

func TestGetWorkflowHistory_EmptyIsArray(t *testing.T) {
	router := setupRouter(seededService(), &mockEngine{state: workflow.StateDraft})

	w := doRequest(router, http.MethodGet, "/api/synergies/1/workflow", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestGetStages(t *testing.T) {
	router := setupRouter(seededService(), &mockEngine{state: workflow.StateApproved})

	w := doRequest(router, http.MethodGet, "/api/synergies/1/stages", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		CurrentState workflow.State                         `json:"current_state"`
		Stages       map[workflow.State]workflow.StageStatus `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, workflow.StateApproved, resp.CurrentState)
	assert.Equal(t, workflow.StageComplete, resp.Stages[workflow.StateDraft])
	assert.Equal(t, workflow.StageActive, resp.Stages[workflow.StateApproved])
	assert.Equal(t, workflow.StagePending, resp.Stages[workflow.StateRealized])
}

func TestGetStages_Rejected(t *testing.T) {
	router := setupRouter(seededService(), &mockEngine{state: workflow.StateRejected})

	w := doRequest(router, http.MethodGet, "/api/synergies/1/stages", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Stages map[workflow.State]workflow.StageStatus `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, workflow.StageComplete, resp.Stages[workflow.StateDraft])
	assert.Equal(t, workflow.StageRejected, resp.Stages[workflow.StateReview])
}

func TestExportWorkflowHistory(t *testing.T) {
	engine := &mockEngine{state: workflow.StateReview, history: []*entity.WorkflowTransition{
		{SynergyID: 1, FromState: workflow.StateDraft, ToState: workflow.StateReview, Action: workflow.ActionSubmit, ActorID: "u-1", Sequence: 1, CreatedAt: time.Now()},
	}}
	router := setupRouter(seededService(), engine)

	w := doRequest(router, http.MethodGet, "/api/synergies/1/workflow/export", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "synergy-1-audit.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestGetMetrics(t *testing.T) {
	svc := seededService()
	svc.metrics[1] = []*entity.SynergyMetric{
		{ID: 1, SynergyID: 1, Category: "cost_reduction", LineItem: "Procurement", Value: 250000, Unit: "USD/year"},
	}
	router := setupRouter(svc, &mockEngine{state: workflow.StateDraft})

	w := doRequest(router, http.MethodGet, "/api/synergies/1/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		SynergyID int64                   `json:"synergy_id"`
		Metrics   []*entity.SynergyMetric `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.SynergyID)
	require.Len(t, resp.Metrics, 1)
	assert.Equal(t, "Procurement", resp.Metrics[0].LineItem)
}

func TestAddMetric(t *testing.T) {
	svc := seededService()
	router := setupRouter(svc, &mockEngine{state: workflow.StateDraft})

	w := doRequest(router, http.MethodPost, "/api/synergies/1/metrics", entity.SynergyMetric{
		Category: "cost_reduction",
		LineItem: "Facilities",
		Value:    120000,
		Unit:     "USD/year",
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, svc.metrics[1], 1)
	assert.Equal(t, int64(1), svc.metrics[1][0].SynergyID)
}

func TestGenerateSynergies(t *testing.T) {
	svc := newMockSynergyService()
	router := setupRouter(svc, &mockEngine{state: workflow.StateDraft})

	w := doRequest(router, http.MethodPost, "/api/synergies/generate", map[string]any{
		"deal_id":  1,
		"acquirer": map[string]any{"id": 10, "name": "Acme"},
		"target":   map[string]any{"id": 20, "name": "Globex"},
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, svc.synergies, 1)
}

func TestStoreUnavailableMapsTo503(t *testing.T) {
	engine := &mockEngine{
		state:      workflow.StateDraft,
		historyErr: fmt.Errorf("%w: query failed", workflow.ErrStoreUnavailable),
	}
	router := setupRouter(seededService(), engine)

	w := doRequest(router, http.MethodGet, "/api/synergies/1/workflow", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
