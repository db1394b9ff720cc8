package handlers

import (
	"context"
	"dispatch-route-service/internal/api/dto"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
	"dispatch-route-service/internal/services"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	vehicles []domain.Vehicle
	items    []domain.Item
	err      error
}

func (c *fakeCatalog) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return c.vehicles, c.err
}

func (c *fakeCatalog) ListItems(ctx context.Context) ([]domain.Item, error) {
	return c.items, c.err
}

type fakePlanner struct {
	got services.PlanRequest
	res *domain.PlanResult
	err error
	// block holds Plan until the context is done.
	block bool
}

func (p *fakePlanner) Plan(ctx context.Context, req services.PlanRequest) (*domain.PlanResult, error) {
	p.got = req
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return p.res, p.err
}

type fakeTimeline struct{ events int }

func (f *fakeTimeline) RenderTimeline(w io.Writer, events []domain.ScheduleEvent) error {
	f.events = len(events)
	_, err := w.Write([]byte("\x89PNG"))
	return err
}

type fakePicking struct{ plans int }

func (f *fakePicking) WritePickingList(w io.Writer, plans []domain.VehiclePlan) error {
	f.plans = len(plans)
	_, err := w.Write([]byte("PK"))
	return err
}

func testFleet() []domain.Vehicle {
	return []domain.Vehicle{
		{Plate: "AAA1A11", Model: "Daily", Category: "VAN", VolumeLiters: 4500, WeightCapacityTons: 1.5, CostPerKm: 2, RentalValue: 1800, SlotCapacity: 10, ReturnsToDepot: true},
		{Plate: "BBB2B22", Model: "Hilux", Category: "CAMINHONETE", VolumeLiters: 1000, WeightCapacityTons: 1, CostPerKm: 1.5, RentalValue: 1200, ReturnsToDepot: true},
	}
}

func testResult() *domain.PlanResult {
	start := time.Date(2026, 1, 7, 7, 30, 0, 0, time.UTC)
	return &domain.PlanResult{
		RunID:          "run-1",
		Status:         domain.StatusOptimal,
		Solver:         "highs",
		Runtime:        1500 * time.Millisecond,
		Objective:      114.5,
		OperationStart: start,
		Costs:          domain.CostBreakdown{Fixed: 42.5, Variable: 72, Total: 114.5},
		Vehicles: []domain.VehiclePlan{{
			Plate:          "AAA1A11",
			Label:          "AAA1A11 (Daily)",
			ReturnsToDepot: true,
			TotalHours:     4.25,
			Trips: []domain.Trip{{
				Index:    1,
				Path:     "CD -> A -> CD",
				Closed:   true,
				DepartAt: start,
				Stops: []domain.Stop{
					{Node: 1, Location: "A", DistanceKm: 10, ArriveAt: start.Add(15 * time.Minute), DepartAt: start.Add(75 * time.Minute),
						Services: []domain.ServiceRecord{{Item: "Box", Kind: domain.Delivery, Quantity: 4, Description: "Delivery of 4.0 unit(s) of 'Box'"}}},
					{Node: 0, Location: "CD", DistanceKm: 10, ArriveAt: start.Add(90 * time.Minute), DepartAt: start.Add(90 * time.Minute)},
				},
			}},
		}},
		Events: []domain.ScheduleEvent{
			{Vehicle: "AAA1A11 (Daily)", Location: "CD -> A", Kind: domain.EventTravel, Start: start, Duration: 15 * time.Minute},
			{Vehicle: "AAA1A11 (Daily)", Location: "A", Kind: domain.EventService, Start: start.Add(15 * time.Minute), Duration: time.Hour},
		},
	}
}

const planBody = `{
	"plates": ["AAA1A11"],
	"tasks": [
		{"location": "A", "lat": -19.9, "lon": -44.0, "operation": "entrega", "item": "Box", "quantity": 4, "priority": 0}
	],
	"now": "2026-01-07T06:00:00Z"
}`

func newPlanHandler(p *fakePlanner) (*PlanHandler, *fakeTimeline, *fakePicking) {
	tl, pk := &fakeTimeline{}, &fakePicking{}
	return &PlanHandler{
		Catalog:          &fakeCatalog{vehicles: testFleet(), items: []domain.Item{{Name: "Box"}}},
		Planner:          p,
		TimelineRenderer: tl,
		Picking:          pk,
	}, tl, pk
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestVehicleList(t *testing.T) {
	h := &VehicleHandler{Repo: &fakeCatalog{vehicles: testFleet()}, Config: config.Default()}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/vehicles", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.ListVehiclesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Vehicles, 2)
	assert.Equal(t, "AAA1A11", res.Vehicles[0].Plate)
	assert.Equal(t, 10, res.Vehicles[0].SlotCapacity)
	assert.True(t, res.Vehicles[1].ReturnsToDepot)
}

func TestVehicleListRepoError(t *testing.T) {
	h := &VehicleHandler{Repo: &fakeCatalog{err: errors.New("db down")}, Config: config.Default()}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/vehicles", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestFleetPreview(t *testing.T) {
	h := &VehicleHandler{Repo: &fakeCatalog{vehicles: testFleet()}, Config: config.Default()}

	rec := post(h.Preview, `{"plates":["BBB2B22"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.FleetPreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Vehicles, 1)
	assert.Equal(t, "BBB2B22", res.Vehicles[0].Plate)
	assert.Greater(t, res.Vehicles[0].SolverSlots, 0)
	assert.GreaterOrEqual(t, res.Vehicles[0].SolverSlots, res.Vehicles[0].PreviewSlots)

	rec = post(h.Preview, `{"plates":["ZZZ9Z99"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ZZZ9Z99")
}

func TestPlanReturnsRoutes(t *testing.T) {
	p := &fakePlanner{res: testResult()}
	h, _, _ := newPlanHandler(p)

	rec := post(h.Plan, planBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, p.got.Vehicles, 1)
	assert.Equal(t, "AAA1A11", p.got.Vehicles[0].Plate)
	require.Len(t, p.got.Tasks, 1)
	assert.Equal(t, domain.Delivery, p.got.Tasks[0].Operation)
	assert.Len(t, p.got.Items, 1)
	assert.Equal(t, time.Date(2026, 1, 7, 6, 0, 0, 0, time.UTC), p.got.Now.UTC())

	var res dto.PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "optimal", res.Status)
	assert.InDelta(t, 114.5, res.Objective, 1e-9)
	assert.InDelta(t, 1.5, res.RuntimeSeconds, 1e-9)
	require.Len(t, res.Vehicles, 1)
	require.Len(t, res.Vehicles[0].Trips, 1)
	trip := res.Vehicles[0].Trips[0]
	assert.Equal(t, "CD -> A -> CD", trip.Path)
	assert.InDelta(t, 20, trip.DistanceKm, 1e-9)
	assert.Equal(t, "delivery", trip.Stops[0].Services[0].Operation)
	require.Len(t, res.Events, 2)
	assert.InDelta(t, 60, res.Events[1].DurationMinutes, 1e-9)
	assert.NotNil(t, res.Violations)
}

func TestPlanRejectsBadRequests(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"tasks":`, http.StatusBadRequest},
		{"unknown field", `{"hub":"x"}`, http.StatusBadRequest},
		{"two objects", `{} {}`, http.StatusBadRequest},
		{"bad operation", `{"tasks":[{"location":"A","operation":"teleport","item":"Box","quantity":1}]}`, http.StatusBadRequest},
		{"unknown plate", `{"plates":["ZZZ9Z99"],"tasks":[]}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _, _ := newPlanHandler(&fakePlanner{res: testResult()})
			rec := post(h.Plan, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestPlanMethodNotAllowed(t *testing.T) {
	h, _, _ := newPlanHandler(&fakePlanner{res: testResult()})
	rec := httptest.NewRecorder()
	h.Plan(rec, httptest.NewRequest(http.MethodGet, "/plans", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestPlanErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("plan: %w: quantity", domain.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("plan: %w", domain.ErrNoDemand), http.StatusBadRequest},
		{fmt.Errorf("vehicle X: %w", domain.ErrMissingFinalDestination), http.StatusUnprocessableEntity},
		{fmt.Errorf("vehicle X: %w", domain.ErrUnknownFinalDestination), http.StatusUnprocessableEntity},
		{fmt.Errorf("plan: %w: Pipe", domain.ErrIncompatibleItem), http.StatusUnprocessableEntity},
		{fmt.Errorf("solve: %w", ports.ErrSolverUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("solve: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h, _, _ := newPlanHandler(&fakePlanner{err: tc.err})
			rec := post(h.Plan, planBody)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestPlanClientCancelWritesNothing(t *testing.T) {
	h, _, _ := newPlanHandler(&fakePlanner{block: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(planBody)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Plan(rec, req)

	assert.Empty(t, rec.Body.String())
}

func TestTimelineAndPickingList(t *testing.T) {
	h, tl, pk := newPlanHandler(&fakePlanner{res: testResult()})

	rec := post(h.Timeline, planBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, 2, tl.events)

	rec = post(h.PickingList, planBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "picking-list.xlsx")
	assert.Equal(t, 1, pk.plans)
}

func TestTimelineWithoutScheduleIs422(t *testing.T) {
	res := &domain.PlanResult{RunID: "run-2", Status: domain.StatusInfeasible}
	h, tl, _ := newPlanHandler(&fakePlanner{res: res})

	rec := post(h.Timeline, planBody)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "infeasible")
	assert.Zero(t, tl.events)
}

func TestInfeasiblePlanIsStillOK(t *testing.T) {
	res := &domain.PlanResult{RunID: "run-3", Status: domain.StatusInfeasible}
	h, _, _ := newPlanHandler(&fakePlanner{res: res})

	rec := post(h.Plan, planBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var out dto.PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "infeasible", out.Status)
	assert.Empty(t, out.Vehicles)
}

func TestSelectVehiclesKeepsRequestOrder(t *testing.T) {
	fleet := testFleet()

	all, missing := selectVehicles(fleet, nil)
	assert.Len(t, all, 2)
	assert.Empty(t, missing)

	got, missing := selectVehicles(fleet, []string{" BBB2B22 ", "AAA1A11", "NOPE"})
	require.Len(t, got, 2)
	assert.Equal(t, "BBB2B22", got[0].Plate)
	assert.Equal(t, []string{"NOPE"}, missing)
}
