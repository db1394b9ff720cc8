package handlers

import (
	"bytes"
	"context"
	"dispatch-route-service/internal/api/dto"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
	"dispatch-route-service/internal/services"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Planner runs one optimization. *services.Planner satisfies it.
type Planner interface {
	Plan(ctx context.Context, req services.PlanRequest) (*domain.PlanResult, error)
}

type PlanHandler struct {
	Catalog          ports.CatalogRepository
	Planner          Planner
	TimelineRenderer ports.TimelineRenderer
	Picking          ports.PickingListWriter
}

// Plan optimizes the requested tasks and returns routes, costs and the
// calendar schedule as JSON.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewPlanResponse(res))
}

// Timeline optimizes the requested tasks and returns the schedule as a PNG chart.
func (h *PlanHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	if !res.HasSchedule() {
		writeError(w, r, http.StatusUnprocessableEntity, fmt.Sprintf("no schedule: solver status %s", res.Status))
		return
	}

	var buf bytes.Buffer
	if err := h.TimelineRenderer.RenderTimeline(&buf, res.Events); err != nil {
		zap.L().Error("render timeline failed", zap.String("run_id", res.RunID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	writeBytes(w, "image/png", buf.Bytes())
}

// PickingList optimizes the requested tasks and returns the warehouse picking
// list as an XLSX workbook.
func (h *PlanHandler) PickingList(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	if !res.HasSchedule() {
		writeError(w, r, http.StatusUnprocessableEntity, fmt.Sprintf("no routes: solver status %s", res.Status))
		return
	}

	var buf bytes.Buffer
	if err := h.Picking.WritePickingList(&buf, res.Vehicles); err != nil {
		zap.L().Error("write picking list failed", zap.String("run_id", res.RunID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="picking-list.xlsx"`)
	writeBytes(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func writeBytes(w http.ResponseWriter, contentType string, b []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// run decodes the request, resolves the fleet from the catalog and executes the
// planner. On failure it has already written the response.
func (h *PlanHandler) run(w http.ResponseWriter, r *http.Request) (*domain.PlanResult, bool) {
	if !allowMethod(w, r, http.MethodPost) {
		return nil, false
	}

	var req dto.PlanRequest
	if !decodeBody(w, r, &req) {
		return nil, false
	}

	tasks, err := dto.ToTasks(req.Tasks)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}

	ctx := r.Context()
	all, err := h.Catalog.ListVehicles(ctx)
	if err != nil {
		zap.L().Error("list vehicles failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	vehicles, missing := selectVehicles(all, req.Plates)
	if len(missing) > 0 {
		writeError(w, r, http.StatusBadRequest, "unknown plates: "+strings.Join(missing, ", "))
		return nil, false
	}
	if len(vehicles) == 0 {
		writeError(w, r, http.StatusBadRequest, "no vehicles available")
		return nil, false
	}

	items, err := h.Catalog.ListItems(ctx)
	if err != nil {
		zap.L().Error("list items failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return nil, false
	}

	svcReq := services.PlanRequest{
		Vehicles:          vehicles,
		Items:             items,
		Tasks:             tasks,
		FinalDestinations: req.FinalDestinations,
	}
	if req.Now != nil {
		svcReq.Now = *req.Now
	}

	res, err := h.plan(ctx, svcReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client went away; nobody is listening for a response.
			return nil, false
		}
		status, msg := planErrorStatus(err)
		if status == http.StatusInternalServerError {
			zap.L().Error("plan failed", zap.Error(err))
		}
		writeError(w, r, status, msg)
		return nil, false
	}
	return res, true
}

type planOutcome struct {
	res *domain.PlanResult
	err error
}

// plan runs the optimization on its own goroutine so a disconnecting client
// releases the handler right away. The solver process is stopped through ctx.
func (h *PlanHandler) plan(ctx context.Context, req services.PlanRequest) (*domain.PlanResult, error) {
	done := make(chan planOutcome, 1)
	go func() {
		res, err := h.Planner.Plan(ctx, req)
		done <- planOutcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func planErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNoDemand):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrMissingFinalDestination),
		errors.Is(err, domain.ErrUnknownFinalDestination),
		errors.Is(err, domain.ErrIncompatibleItem):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, ports.ErrSolverUnavailable):
		return http.StatusServiceUnavailable, "no milp solver available"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "planning timed out"
	}
	return http.StatusInternalServerError, "internal server error"
}
