package handlers

import (
	"dispatch-route-service/internal/api/dto"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
	"dispatch-route-service/internal/services"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// VehicleHandler exposes read-only fleet endpoints.
type VehicleHandler struct {
	Repo   ports.VehicleRepository
	Config config.Config
}

func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	vehicles, err := h.Repo.ListVehicles(r.Context())
	if err != nil {
		zap.L().Error("list vehicles failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListVehiclesResponse{
		Vehicles: make([]dto.VehicleResponse, 0, len(vehicles)),
	}
	for _, v := range vehicles {
		res.Vehicles = append(res.Vehicles, dto.VehicleResponse{
			Plate:              v.Plate,
			Model:              v.Model,
			Category:           v.Category,
			Interior:           dto.DimensionsResponse{Length: v.Interior.Length, Width: v.Interior.Width, Height: v.Interior.Height},
			VolumeLiters:       v.VolumeLiters,
			WeightCapacityTons: v.WeightCapacityTons,
			CostPerKm:          v.CostPerKm,
			SlotCapacity:       v.SlotCapacity,
			ReturnsToDepot:     v.ReturnsToDepot,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Preview reports the slot capacity and hourly cost the planner would use for
// the selected vehicles.
func (h *VehicleHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.FleetPreviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	all, err := h.Repo.ListVehicles(r.Context())
	if err != nil {
		zap.L().Error("list vehicles failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	vehicles, missing := selectVehicles(all, req.Plates)
	if len(missing) > 0 {
		writeError(w, r, http.StatusBadRequest, "unknown plates: "+strings.Join(missing, ", "))
		return
	}

	preview := services.PreviewFleet(h.Config, vehicles)
	res := dto.FleetPreviewResponse{Vehicles: make([]dto.FleetPreviewEntry, 0, len(preview))}
	for _, p := range preview {
		res.Vehicles = append(res.Vehicles, dto.FleetPreviewEntry{
			Plate:          p.Plate,
			Label:          p.Label,
			Category:       p.Category,
			ReturnsToDepot: p.ReturnsToDepot,
			SolverSlots:    p.SolverSlots,
			PreviewSlots:   p.PreviewSlots,
			HourlyCost:     p.HourlyCost,
			CostPerKm:      p.CostPerKm,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// selectVehicles keeps the vehicles named by plates, in request order.
// An empty selection keeps the whole fleet.
func selectVehicles(all []domain.Vehicle, plates []string) ([]domain.Vehicle, []string) {
	if len(plates) == 0 {
		return all, nil
	}

	byPlate := make(map[string]domain.Vehicle, len(all))
	for _, v := range all {
		byPlate[v.Plate] = v
	}

	var out []domain.Vehicle
	var missing []string
	for _, p := range plates {
		v, ok := byPlate[strings.TrimSpace(p)]
		if !ok {
			missing = append(missing, p)
			continue
		}
		out = append(out, v)
	}
	return out, missing
}
