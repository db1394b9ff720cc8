package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dispatch-route-service/internal/domain"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Depot       DepotConfig        `yaml:"depot"`
	Routing     RoutingConfig      `yaml:"routing"`
	Slots       SlotConfig         `yaml:"slots"`
	Costs       CostConfig         `yaml:"costs"`
	Service     ServiceConfig      `yaml:"service"`
	Deadlines   DeadlineConfig     `yaml:"deadlines"`
	Fleet       FleetConfig        `yaml:"fleet"`
	Model       ModelConfig        `yaml:"model"`
	Calendar    CalendarConfig     `yaml:"calendar"`
	Solver      SolverConfig       `yaml:"solver"`
	PickupKinds []PickupKindConfig `yaml:"pickup_kinds"`
	Server      ServerConfig       `yaml:"server"`
}

type DepotConfig struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// Provider selects the travel model: "geodesic" scales great-circle distance
// by DetourFactor at AverageSpeedKmh, "ors" asks OpenRouteService for road
// distances.
type RoutingConfig struct {
	Provider        string  `yaml:"provider"`
	DetourFactor    float64 `yaml:"detour_factor"`
	AverageSpeedKmh float64 `yaml:"average_speed_kmh"`
	ORSBaseURL      string  `yaml:"ors_base_url"`
	ORSProfile      string  `yaml:"ors_profile"`
	// ORSAPIKey comes from ORS_API_KEY only.
	ORSAPIKey string `yaml:"-"`
}

// Slot conversion constants. The two weight buffers come from two places in
// the dispatch workflow (solver input and the fleet preview) and are kept
// apart until the business confirms a single value.
type SlotConfig struct {
	VolumeM3              float64 `yaml:"volume_m3"`
	WeightKg              float64 `yaml:"weight_kg"`
	VehicleWeightBufferKg float64 `yaml:"vehicle_weight_buffer_kg"`
	PreviewWeightBufferKg float64 `yaml:"preview_weight_buffer_kg"`
}

type CostConfig struct {
	MonthlyHours    float64 `yaml:"monthly_hours"`
	DeliveryPenalty float64 `yaml:"delivery_penalty"`
	PickupPenalty   float64 `yaml:"pickup_penalty"`
}

type ServiceConfig struct {
	DeliveryHours float64 `yaml:"delivery_hours"`
	PickupHours   float64 `yaml:"pickup_hours"`
}

type DeadlineConfig struct {
	Immediate float64 `yaml:"immediate"`
	Normal    float64 `yaml:"normal"`
	Spaced    float64 `yaml:"spaced"`
	Default   float64 `yaml:"default"`
}

type FleetConfig struct {
	OpenBedCategories []string `yaml:"open_bed_categories"`
	OpenBedThreshold  float64  `yaml:"open_bed_threshold"`
	LongItems         []string `yaml:"long_items"`
	LongItemCap       int      `yaml:"long_item_cap"`
}

type ModelConfig struct {
	FallbackMaxTrips int     `yaml:"fallback_max_trips"`
	ResupplyHours    float64 `yaml:"resupply_hours"`
	TimeMargin       float64 `yaml:"time_margin"`
	DurationMargin   float64 `yaml:"duration_margin"`
}

type CalendarConfig struct {
	DayStart     string `yaml:"day_start"`
	DayEnd       string `yaml:"day_end"`
	LunchStart   string `yaml:"lunch_start"`
	LunchEnd     string `yaml:"lunch_end"`
	SkipWeekends bool   `yaml:"skip_weekends"`
	Timezone     string `yaml:"timezone"`
}

type SolverConfig struct {
	Primary   string        `yaml:"primary"`
	Fallback  string        `yaml:"fallback"`
	TimeLimit time.Duration `yaml:"time_limit"`
	HighsPath string        `yaml:"highs_path"`
	CbcPath   string        `yaml:"cbc_path"`
	WorkDir   string        `yaml:"work_dir"`
}

type PickupKindConfig struct {
	Name          string  `yaml:"name"`
	BaseItem      string  `yaml:"base_item"`
	ExtraWeightKg float64 `yaml:"extra_weight_kg"`
}

type ServerConfig struct {
	Port              string  `yaml:"port"`
	DatabaseURL       string  `yaml:"database_url"`
	CatalogPath       string  `yaml:"catalog_path"`
	PlanRatePerMinute float64 `yaml:"plan_rate_per_minute"`
	PlanBurst         int     `yaml:"plan_burst"`
}

const (
	testemunhoBox = "CAIXA PLÁSTICA DE TESTEMUNHO HQ/HWL – GERAÇÃO I"
	denisonBox    = "CAIXA DE MADEIRA PARA TRANSPORTE DE AMOSTRA DENISON 1,22X0,50X0,14"
)

// Return the configuration used by the dispatch team in production.
func Default() Config {
	return Config{
		Depot:   DepotConfig{Name: "CD", Lat: -19.940308, Lon: -44.012487},
		Routing: RoutingConfig{Provider: "geodesic", DetourFactor: 1.5, AverageSpeedKmh: 55},
		Slots: SlotConfig{
			VolumeM3:              0.07625644788,
			WeightKg:              13,
			VehicleWeightBufferKg: 100,
			PreviewWeightBufferKg: 150,
		},
		Costs:     CostConfig{MonthlyHours: 180, DeliveryPenalty: 1334.72, PickupPenalty: 1334.72},
		Service:   ServiceConfig{DeliveryHours: 1, PickupHours: 2},
		Deadlines: DeadlineConfig{Immediate: 8, Normal: 48, Spaced: 168, Default: 48},
		Fleet: FleetConfig{
			OpenBedCategories: []string{"CAMINHONETE", "PICKUP"},
			OpenBedThreshold:  2.068,
			LongItems:         []string{"HASTE AW COM NIPLE - 3,0M", "HASTE HQ 3,0M", "HASTE NQ - 3M"},
			LongItemCap:       4,
		},
		Model: ModelConfig{FallbackMaxTrips: 5, ResupplyHours: 1, TimeMargin: 5, DurationMargin: 5},
		Calendar: CalendarConfig{
			DayStart:     "05:30",
			DayEnd:       "17:30",
			LunchStart:   "12:00",
			LunchEnd:     "13:00",
			SkipWeekends: true,
			Timezone:     "America/Sao_Paulo",
		},
		Solver: SolverConfig{
			Primary:   "highs",
			Fallback:  "cbc",
			TimeLimit: 10 * time.Minute,
			HighsPath: "highs",
			CbcPath:   "cbc",
		},
		PickupKinds: []PickupKindConfig{
			{Name: "Coleta de Testemunho", BaseItem: testemunhoBox, ExtraWeightKg: 3},
			{Name: "Coleta de Amostra Denison", BaseItem: denisonBox, ExtraWeightKg: 6},
			{Name: "Coleta de Bloco", BaseItem: denisonBox, ExtraWeightKg: 6},
			{Name: "Coleta de Trado", BaseItem: denisonBox, ExtraWeightKg: 6},
			{Name: "Coleta de Shelbi", BaseItem: denisonBox, ExtraWeightKg: 6},
		},
		Server: ServerConfig{
			Port:              "8080",
			CatalogPath:       "data/seeds/catalog.json",
			PlanRatePerMinute: 6,
			PlanBurst:         2,
		},
	}
}

// LoadDotEnv loads .env files into the process environment.
// It reports whether any file was read.
func LoadDotEnv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

// Load builds the configuration from defaults, the optional YAML file at path
// and environment overrides, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config: parse %q: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// Get returns the environment value for key, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) applyEnv() error {
	c.Server.Port = Get("PORT", c.Server.Port)
	c.Server.DatabaseURL = Get("DATABASE_URL", c.Server.DatabaseURL)
	c.Server.CatalogPath = Get("CATALOG_PATH", c.Server.CatalogPath)
	c.Solver.Primary = Get("SOLVER_PRIMARY", c.Solver.Primary)
	c.Solver.Fallback = Get("SOLVER_FALLBACK", c.Solver.Fallback)
	c.Solver.HighsPath = Get("HIGHS_PATH", c.Solver.HighsPath)
	c.Solver.CbcPath = Get("CBC_PATH", c.Solver.CbcPath)
	c.Solver.WorkDir = Get("SOLVER_WORK_DIR", c.Solver.WorkDir)
	c.Calendar.Timezone = Get("CALENDAR_TZ", c.Calendar.Timezone)
	c.Routing.Provider = Get("ROUTING_PROVIDER", c.Routing.Provider)
	c.Routing.ORSAPIKey = Get("ORS_API_KEY", c.Routing.ORSAPIKey)

	if v := os.Getenv("SOLVER_TIME_LIMIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SOLVER_TIME_LIMIT: %w", err)
		}
		c.Solver.TimeLimit = d
	}
	if v := os.Getenv("SKIP_WEEKENDS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SKIP_WEEKENDS: %w", err)
		}
		c.Calendar.SkipWeekends = b
	}

	return nil
}

var knownSolvers = map[string]bool{"highs": true, "cbc": true}

// Validate rejects settings that would make the model or the calendar meaningless.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Depot.Name) == "" {
		errs = append(errs, errors.New("depot.name is required"))
	}
	if c.Routing.DetourFactor <= 0 || c.Routing.AverageSpeedKmh <= 0 {
		errs = append(errs, errors.New("routing factors must be positive"))
	}
	switch c.Routing.Provider {
	case "geodesic":
	case "ors":
		if strings.TrimSpace(c.Routing.ORSAPIKey) == "" {
			errs = append(errs, errors.New("routing.provider ors needs ORS_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("routing.provider %q is not supported", c.Routing.Provider))
	}
	if c.Slots.VolumeM3 <= 0 || c.Slots.WeightKg <= 0 {
		errs = append(errs, errors.New("slot basis must be positive"))
	}
	if c.Costs.MonthlyHours <= 0 {
		errs = append(errs, errors.New("costs.monthly_hours must be positive"))
	}
	if c.Fleet.LongItemCap < 0 {
		errs = append(errs, errors.New("fleet.long_item_cap must not be negative"))
	}
	if c.Model.FallbackMaxTrips < 1 {
		errs = append(errs, errors.New("model.fallback_max_trips must be at least 1"))
	}
	if c.Solver.TimeLimit <= 0 {
		errs = append(errs, errors.New("solver.time_limit must be positive"))
	}
	if !knownSolvers[c.Solver.Primary] {
		errs = append(errs, fmt.Errorf("solver.primary %q is not supported", c.Solver.Primary))
	}
	if c.Solver.Fallback != "" && !knownSolvers[c.Solver.Fallback] {
		errs = append(errs, fmt.Errorf("solver.fallback %q is not supported", c.Solver.Fallback))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Return the slot basis used by the solver.
func (c Config) SlotBasis() domain.SlotBasis {
	return domain.SlotBasis{VolumeM3: c.Slots.VolumeM3, WeightKg: c.Slots.WeightKg}
}

// Binary returns the executable configured for the named backend.
func (s SolverConfig) Binary(name string) string {
	if name == "cbc" {
		return s.CbcPath
	}
	return s.HighsPath
}

func (c Config) DeadlineTable() domain.DeadlineTable {
	return domain.DeadlineTable{
		Immediate: c.Deadlines.Immediate,
		Normal:    c.Deadlines.Normal,
		Spaced:    c.Deadlines.Spaced,
		Default:   c.Deadlines.Default,
	}
}

func (c Config) DepotLocation() domain.Location {
	return domain.Location{
		Name:        c.Depot.Name,
		Coordinates: domain.Coordinates{Lat: c.Depot.Lat, Lon: c.Depot.Lon},
	}
}

func (c Config) PickupKindList() []domain.PickupKind {
	kinds := make([]domain.PickupKind, 0, len(c.PickupKinds))
	for _, k := range c.PickupKinds {
		kinds = append(kinds, domain.PickupKind{Name: k.Name, BaseItem: k.BaseItem, ExtraWeightKg: k.ExtraWeightKg})
	}
	return kinds
}
