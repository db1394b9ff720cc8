package repositories

import (
	"context"
	"dispatch-route-service/internal/platform/db"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedFile = "../../../data/seeds/catalog.json"

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestJSONCatalogRepositoryLoadsSeed(t *testing.T) {
	repo, err := NewJSONCatalogRepository(seedFile)
	require.NoError(t, err)

	vehicles, err := repo.ListVehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, vehicles, 3)
	assert.Equal(t, "RTA4B21", vehicles[0].Plate)
	assert.Equal(t, 1.38, vehicles[0].Interior.Width)
	assert.True(t, vehicles[0].ReturnsToDepot)
	assert.False(t, vehicles[2].ReturnsToDepot)
	assert.Equal(t, 180, vehicles[2].SlotCapacity)

	items, err := repo.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "HS-HQ-30", items[2].Code)
}

func TestJSONCatalogRepositoryReturnsCopies(t *testing.T) {
	repo := NewCatalogFromSeed(CatalogSeed{Vehicles: []VehicleSeed{{Plate: " X1 "}}})

	first, _ := repo.ListVehicles(context.Background())
	first[0].Plate = "changed"

	second, _ := repo.ListVehicles(context.Background())
	assert.Equal(t, "X1", second[0].Plate)
	assert.True(t, second[0].ReturnsToDepot, "missing flag defaults to returning")
}

func TestLoadCatalogSeedRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"broken json", `{"vehicles": [`, "parse json"},
		{"empty plate", `{"vehicles": [{"plate": " "}]}`, "plate cannot be empty"},
		{"duplicate plate", `{"vehicles": [{"plate": "A"}, {"plate": "A"}]}`, "duplicate plate"},
		{"empty item", `{"items": [{"code": "X"}]}`, "name cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalogSeed(writeSeed(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := NewJSONCatalogRepository(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// Runs against a real database when TEST_DATABASE_URL is set.
func TestPostgresCatalogRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	conn, err := db.Open(url)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, InitSchema(ctx, conn))
	require.NoError(t, SeedFromJSON(ctx, conn, seedFile))
	// seeding twice upserts
	require.NoError(t, SeedFromJSON(ctx, conn, seedFile))

	repo := NewPostgresCatalogRepository(conn, nil)
	vehicles, err := repo.ListVehicles(ctx)
	require.NoError(t, err)
	plates := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		plates = append(plates, v.Plate)
	}
	assert.Subset(t, plates, []string{"PVE2D63", "QXP7C09", "RTA4B21"})

	items, err := repo.ListItems(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(items), 5)
}

func TestPostgresCatalogRepositoryNeedsDB(t *testing.T) {
	repo := NewPostgresCatalogRepository(nil, nil)
	_, err := repo.ListVehicles(context.Background())
	assert.Error(t, err)
	_, err = repo.ListItems(context.Background())
	assert.Error(t, err)
}
