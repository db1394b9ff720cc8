package dto

import (
	"dispatch-route-service/internal/domain"
	"fmt"
	"strings"
	"time"
)

type TaskRequest struct {
	Location     string  `json:"location"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Operation    string  `json:"operation"`
	Item         string  `json:"item"`
	Quantity     int     `json:"quantity"`
	UnitWeightKg float64 `json:"unit_weight_kg"`
	Priority     int     `json:"priority"`
	Code         string  `json:"code"`
}

type PlanRequest struct {
	// Plates selects catalog vehicles; empty means the whole fleet.
	Plates            []string          `json:"plates"`
	Tasks             []TaskRequest     `json:"tasks"`
	FinalDestinations map[string]string `json:"final_destinations"`
	Now               *time.Time        `json:"now"`
}

type CostsResponse struct {
	Fixed           float64 `json:"fixed"`
	Variable        float64 `json:"variable"`
	DeliveryPenalty float64 `json:"delivery_penalty"`
	PickupPenalty   float64 `json:"pickup_penalty"`
	Total           float64 `json:"total"`
}

type ServiceResponse struct {
	Item        string  `json:"item"`
	Code        string  `json:"code"`
	Operation   string  `json:"operation"`
	Quantity    float64 `json:"quantity"`
	Description string  `json:"description"`
	DelayHours  float64 `json:"delay_hours"`
}

type StopResponse struct {
	Location   string            `json:"location"`
	DistanceKm float64           `json:"distance_km"`
	ArriveAt   time.Time         `json:"arrive_at"`
	DepartAt   time.Time         `json:"depart_at"`
	Services   []ServiceResponse `json:"services"`
}

type TripResponse struct {
	Index      int            `json:"index"`
	Path       string         `json:"path"`
	DepartAt   time.Time      `json:"depart_at"`
	DistanceKm float64        `json:"distance_km"`
	Stops      []StopResponse `json:"stops"`
}

type VehiclePlanResponse struct {
	Plate          string         `json:"plate"`
	Label          string         `json:"label"`
	ReturnsToDepot bool           `json:"returns_to_depot"`
	TotalHours     float64        `json:"total_hours"`
	Trips          []TripResponse `json:"trips"`
}

type EventResponse struct {
	Vehicle         string    `json:"vehicle"`
	Location        string    `json:"location"`
	Kind            string    `json:"kind"`
	Start           time.Time `json:"start"`
	DurationMinutes float64   `json:"duration_minutes"`
}

type PlanResponse struct {
	RunID          string                `json:"run_id"`
	Status         string                `json:"status"`
	Solver         string                `json:"solver"`
	RuntimeSeconds float64               `json:"runtime_seconds"`
	Objective      float64               `json:"objective"`
	OperationStart time.Time             `json:"operation_start"`
	Costs          CostsResponse         `json:"costs"`
	Vehicles       []VehiclePlanResponse `json:"vehicles"`
	Events         []EventResponse       `json:"events"`
	Violations     []string              `json:"violations"`
}

// ToTasks converts request tasks, rejecting unknown operations.
func ToTasks(in []TaskRequest) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0, len(in))
	for i, t := range in {
		op, err := domain.ParseOperation(t.Operation)
		if err != nil {
			return nil, fmt.Errorf("tasks[%d]: unknown operation %q", i, t.Operation)
		}
		tasks = append(tasks, domain.Task{
			Location:     strings.TrimSpace(t.Location),
			Coordinates:  domain.Coordinates{Lat: t.Lat, Lon: t.Lon},
			Operation:    op,
			Item:         strings.TrimSpace(t.Item),
			Quantity:     t.Quantity,
			UnitWeightKg: t.UnitWeightKg,
			Priority:     domain.Priority(t.Priority),
			Code:         t.Code,
		})
	}
	return tasks, nil
}

// NewPlanResponse flattens a plan result for JSON output.
func NewPlanResponse(res *domain.PlanResult) PlanResponse {
	out := PlanResponse{
		RunID:          res.RunID,
		Status:         string(res.Status),
		Solver:         res.Solver,
		RuntimeSeconds: res.Runtime.Seconds(),
		Objective:      res.Objective,
		OperationStart: res.OperationStart,
		Costs: CostsResponse{
			Fixed:           res.Costs.Fixed,
			Variable:        res.Costs.Variable,
			DeliveryPenalty: res.Costs.DeliveryPenalty,
			PickupPenalty:   res.Costs.PickupPenalty,
			Total:           res.Costs.Total,
		},
		Vehicles:   make([]VehiclePlanResponse, 0, len(res.Vehicles)),
		Events:     make([]EventResponse, 0, len(res.Events)),
		Violations: res.Violations,
	}
	if out.Violations == nil {
		out.Violations = []string{}
	}

	for _, v := range res.Vehicles {
		vp := VehiclePlanResponse{
			Plate:          v.Plate,
			Label:          v.Label,
			ReturnsToDepot: v.ReturnsToDepot,
			TotalHours:     v.TotalHours,
			Trips:          make([]TripResponse, 0, len(v.Trips)),
		}
		for _, t := range v.Trips {
			tr := TripResponse{
				Index:      t.Index,
				Path:       t.Path,
				DepartAt:   t.DepartAt,
				DistanceKm: t.DistanceKm(),
				Stops:      make([]StopResponse, 0, len(t.Stops)),
			}
			for _, s := range t.Stops {
				sr := StopResponse{
					Location:   s.Location,
					DistanceKm: s.DistanceKm,
					ArriveAt:   s.ArriveAt,
					DepartAt:   s.DepartAt,
					Services:   make([]ServiceResponse, 0, len(s.Services)),
				}
				for _, sv := range s.Services {
					sr.Services = append(sr.Services, ServiceResponse{
						Item:        sv.Item,
						Code:        sv.Code,
						Operation:   string(sv.Kind),
						Quantity:    sv.Quantity,
						Description: sv.Description,
						DelayHours:  sv.DelayHours,
					})
				}
				tr.Stops = append(tr.Stops, sr)
			}
			vp.Trips = append(vp.Trips, tr)
		}
		out.Vehicles = append(out.Vehicles, vp)
	}

	for _, e := range res.Events {
		out.Events = append(out.Events, EventResponse{
			Vehicle:         e.Vehicle,
			Location:        e.Location,
			Kind:            string(e.Kind),
			Start:           e.Start,
			DurationMinutes: e.Duration.Round(time.Second).Minutes(),
		})
	}
	return out
}
