package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emissions-platform/internal/config"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_MemoryBackendIngestsLocalFiles(t *testing.T) {
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.StorageMemory
	cfg.Datasets.EntityURI = writeFile(t, dir, "emission_data.json",
		`[{"sno": 1, "mine_name": "Kusmunda", "fuel_emission": 700000, "electricity_emission": 300000, "methane_emission": 5}]`)
	cfg.Datasets.YearURI = "file://" + writeFile(t, dir, "yearly_emission.json",
		`{"2022": {"fuel emission": 1, "electricity emission": 2, "total emission": 3, "methane emission (m3)": 4}}`)
	cfg.Datasets.PredictedYearURI = ""

	ctx := context.Background()
	a, err := New(ctx, cfg, logging.NewNopLogger(), metrics.NewCollector("test", prometheus.NewRegistry()))
	require.NoError(t, err)
	defer a.Close()

	result, err := a.Ingest(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	summary := a.Summary.Summary(ctx)
	assert.Equal(t, 1000000.0, summary.TotalCarbonEmissions)
	assert.Equal(t, 1.0, summary.Millions().Carbon)

	view, err := a.Summary.YearlySeries(ctx, "methane_emission")
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, view.Values)

	names, err := a.Summary.EntityNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kusmunda"}, names)
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = "sqlite"

	_, err := New(context.Background(), cfg, logging.NewNopLogger(), metrics.NewCollector("test", prometheus.NewRegistry()))
	assert.Error(t, err)
}
