package services

import (
	"context"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
	"fmt"
	"math"
	"strings"
	"sync"
)

type NormalizeInput struct {
	Vehicles []domain.Vehicle
	Tasks    []domain.Task
	Catalog  *domain.Catalog
	// FinalDestinations maps a non-returning vehicle plate to a task location.
	FinalDestinations map[string]string
}

// Normalize turns raw vehicles and tasks into a Problem: depot-first node list,
// travel matrices, aggregated demand, compatibility, trip bound and Big-M values.
func Normalize(ctx context.Context, cfg config.Config, in NormalizeInput, provider ports.DistanceProvider) (*Problem, error) {
	if len(in.Vehicles) == 0 {
		return nil, fmt.Errorf("normalize: %w: no vehicles selected", domain.ErrInvalidInput)
	}
	if in.Catalog == nil {
		in.Catalog = domain.NewCatalog(nil, nil)
	}

	depot := cfg.DepotLocation()
	p := &Problem{
		Nodes:         []domain.Location{depot},
		LongItemCap:   cfg.Fleet.LongItemCap,
		ResupplyHours: cfg.Model.ResupplyHours,
	}

	nodeIdx := map[string]int{}
	serviceIdx := map[string]int{}
	hasPickup := map[int]bool{}
	basis := cfg.SlotBasis()
	longItems := make(map[string]bool, len(cfg.Fleet.LongItems))
	for _, name := range cfg.Fleet.LongItems {
		longItems[strings.TrimSpace(name)] = true
	}

	type key struct{ s, n int }
	agg := map[key]*domain.DemandEntry{}
	signed := map[key]int{}
	var order []key

	for i, t := range in.Tasks {
		loc := strings.TrimSpace(t.Location)
		if loc == "" {
			return nil, fmt.Errorf("normalize: %w: task %d has empty location", domain.ErrInvalidInput, i+1)
		}
		if loc == depot.Name {
			return nil, fmt.Errorf("normalize: %w: task %d is located at the depot", domain.ErrInvalidInput, i+1)
		}

		n, ok := nodeIdx[loc]
		if !ok {
			n = len(p.Nodes)
			nodeIdx[loc] = n
			p.Nodes = append(p.Nodes, domain.Location{Name: loc, Coordinates: t.Coordinates})
		}

		name := strings.TrimSpace(t.Item)
		s, ok := serviceIdx[name]
		if !ok {
			s = len(p.Services)
			serviceIdx[name] = s
			p.Services = append(p.Services, newServiceParams(cfg, basis, in.Catalog, name, t, longItems[name]))
		}

		if t.Operation == domain.Pickup {
			hasPickup[n] = true
		}
		p.TotalSlots += p.Services[s].Slots * t.Quantity

		k := key{s, n}
		deadline := cfg.DeadlineTable().For(t.Priority)
		e, ok := agg[k]
		if !ok {
			e = &domain.DemandEntry{Service: s, Node: n, DeadlineHours: deadline, Code: t.Code}
			agg[k] = e
			order = append(order, k)
		}
		signed[k] += t.SignedQuantity()
		e.DeadlineHours = math.Min(e.DeadlineHours, deadline)
		if e.Code == "" {
			e.Code = t.Code
		}
	}

	for _, k := range order {
		e := agg[k]
		e.Demand = domain.DemandFromSigned(signed[k])
		if e.Demand.IsZero() {
			continue
		}
		p.Demands = append(p.Demands, *e)
	}
	p.indexDemands()

	p.ServiceHours = make([]float64, len(p.Nodes))
	for n := 1; n < len(p.Nodes); n++ {
		p.ServiceHours[n] = cfg.Service.DeliveryHours
		if hasPickup[n] {
			p.ServiceHours[n] = cfg.Service.PickupHours
		}
	}

	if err := p.buildVehicles(cfg, basis, in, nodeIdx); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	p.buildCompatibility(cfg)
	p.MaxTrips = maxTrips(p.TotalSlots, p.Vehicles, cfg.Model.FallbackMaxTrips)

	if err := p.buildMatrices(ctx, provider); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	p.BigM = ComputeBigM(p, cfg.Model.TimeMargin, cfg.Model.DurationMargin)
	return p, nil
}

func newServiceParams(cfg config.Config, basis domain.SlotBasis, cat *domain.Catalog, name string, t domain.Task, long bool) ServiceParams {
	item, known := cat.Resolve(name)
	if !known {
		item = domain.Item{Name: name, Code: t.Code}
	}
	// The weight recorded on the task wins over the catalog weight.
	if t.UnitWeightKg > 0 {
		item.UnitWeightKg = t.UnitWeightKg
	}

	return ServiceParams{
		Item:            item,
		Known:           known,
		Slots:           basis.ItemSlots(item.VolumeM3(), item.UnitWeightKg),
		Long:            long,
		DeliveryPenalty: cfg.Costs.DeliveryPenalty,
		PickupPenalty:   cfg.Costs.PickupPenalty,
	}
}

func (p *Problem) buildVehicles(cfg config.Config, basis domain.SlotBasis, in NormalizeInput, nodeIdx map[string]int) error {
	p.Vehicles = make([]VehicleParams, 0, len(in.Vehicles))
	for _, v := range in.Vehicles {
		vp := VehicleParams{
			Vehicle:    v,
			Capacity:   basis.VehicleSlots(v, cfg.Slots.VehicleWeightBufferKg),
			HourlyCost: v.HourlyFixedCost(cfg.Costs.MonthlyHours),
			FinalNode:  -1,
		}

		if !v.ReturnsToDepot {
			dest := strings.TrimSpace(in.FinalDestinations[v.Plate])
			if dest == "" {
				return fmt.Errorf("vehicle %s: %w", v.Plate, domain.ErrMissingFinalDestination)
			}
			n, ok := nodeIdx[dest]
			if !ok {
				return fmt.Errorf("vehicle %s: %q: %w", v.Plate, dest, domain.ErrUnknownFinalDestination)
			}
			vp.FinalNode = n
		}

		p.Vehicles = append(p.Vehicles, vp)
	}
	return nil
}

// An item is compatible when it fits the interior in some orientation, or when
// an open-bed vehicle carries it and its weight times volume is small.
func (p *Problem) buildCompatibility(cfg config.Config) {
	p.Compatible = make([][]bool, len(p.Vehicles))
	for k, vp := range p.Vehicles {
		row := make([]bool, len(p.Services))
		openBed := vp.Vehicle.InCategory(cfg.Fleet.OpenBedCategories)
		for s, sp := range p.Services {
			if !sp.Known {
				continue
			}
			fits := sp.Item.Dimensions.FitsWithin(vp.Vehicle.Interior)
			light := openBed && sp.Item.UnitWeightKg*sp.Item.VolumeM3() < cfg.Fleet.OpenBedThreshold
			row[s] = fits || light
		}
		p.Compatible[k] = row
	}
}

func maxTrips(totalSlots int, vehicles []VehicleParams, fallback int) int {
	minCap := 0
	for _, v := range vehicles {
		if v.Capacity > 0 && (minCap == 0 || v.Capacity < minCap) {
			minCap = v.Capacity
		}
	}
	if minCap == 0 {
		return fallback
	}
	return int(math.Ceil(float64(totalSlots)/float64(minCap))) + 1
}

type matrixRow struct {
	origin int
	row    []ports.DistanceResult
	err    error
}

func (p *Problem) buildMatrices(ctx context.Context, provider ports.DistanceProvider) error {
	n := len(p.Nodes)
	var results [][]ports.DistanceResult

	// Prefer a single batched lookup when supported.
	if mp, ok := provider.(ports.DistanceMatrixProvider); ok {
		m, err := mp.GetMatrix(ctx, p.Nodes)
		if err != nil {
			return fmt.Errorf("get distance matrix: %w", err)
		}
		if len(m) != n {
			return fmt.Errorf("get distance matrix: got %d rows, want %d", len(m), n)
		}
		results = m
	} else {
		m, err := pairwiseMatrix(ctx, provider, p.Nodes)
		if err != nil {
			return err
		}
		results = m
	}

	p.DistanceKm = make([][]float64, n)
	p.TravelHours = make([][]float64, n)
	for i := 0; i < n; i++ {
		if len(results[i]) != n {
			return fmt.Errorf("distance row %d has %d entries, want %d", i, len(results[i]), n)
		}
		p.DistanceKm[i] = make([]float64, n)
		p.TravelHours[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			p.DistanceKm[i][j] = results[i][j].DistanceKm
			p.TravelHours[i][j] = results[i][j].DurationHours
		}
	}
	return nil
}

// pairwiseMatrix queries every ordered pair, one worker per origin with at most
// five in flight, cancelling the rest on the first failure.
func pairwiseMatrix(ctx context.Context, provider ports.DistanceProvider, nodes []domain.Location) ([][]ports.DistanceResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, 5)
	resultsCh := make(chan matrixRow, len(nodes))
	var wg sync.WaitGroup

	for i := range nodes {
		wg.Add(1)
		go func(orig int) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			row := make([]ports.DistanceResult, len(nodes))
			for j := range nodes {
				if j == orig {
					continue
				}
				r, err := provider.GetDistance(ctx, nodes[orig], nodes[j])
				if err != nil {
					resultsCh <- matrixRow{origin: orig, err: fmt.Errorf("get distance %q -> %q: %w", nodes[orig].Name, nodes[j].Name, err)}
					cancel()
					return
				}
				row[j] = r
			}
			resultsCh <- matrixRow{origin: orig, row: row}
		}(i)
	}

	wg.Wait()
	close(resultsCh)

	out := make([][]ports.DistanceResult, len(nodes))
	var firstErr error
	for res := range resultsCh {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		out[res.origin] = res.row
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
