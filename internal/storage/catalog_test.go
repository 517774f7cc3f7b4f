package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := OpenCatalog(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOpenCatalogRequiresPath(t *testing.T) {
	_, err := OpenCatalog("  ")
	assert.Error(t, err)
}

func TestCatalogPutList(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Put(RunMetadata{
		ID: "twostep_1", Model: "twostep", Integrator: "rk4", Dt: 0.1, Duration: 24, Steps: 240,
		Metrics: map[string]float64{"final_biomass": 9.9},
	}, "/runs/twostep_1"))
	require.NoError(t, c.Put(RunMetadata{
		ID: "genlogistic_2", Model: "genlogistic", Integrator: "rk45", Dt: 0.1, Duration: 30, Steps: 31,
	}, "/runs/genlogistic_2"))

	all, err := c.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	only, err := c.List(ctx, "twostep")
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "twostep_1", only[0].ID)
	assert.Equal(t, 240, only[0].Steps)
	assert.True(t, only[0].FinalBiomass.Valid)
	assert.InDelta(t, 9.9, only[0].FinalBiomass.Float64, 1e-12)
	assert.Equal(t, "/runs/twostep_1", only[0].Dir)

	gl, err := c.List(ctx, "genlogistic")
	require.NoError(t, err)
	require.Len(t, gl, 1)
	assert.False(t, gl[0].FinalBiomass.Valid)
}

func TestCatalogPutReplaces(t *testing.T) {
	c := openTestCatalog(t)

	meta := RunMetadata{ID: "run", Model: "twostep", Integrator: "rk4", Steps: 1}
	require.NoError(t, c.Put(meta, "a"))
	meta.Steps = 2
	require.NoError(t, c.Put(meta, "b"))

	entries, err := c.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Steps)
	assert.Equal(t, "b", entries[0].Dir)
}

func TestCatalogPutRequiresID(t *testing.T) {
	c := openTestCatalog(t)
	assert.Error(t, c.Put(RunMetadata{Model: "twostep"}, "x"))
}

func TestStoreWithCatalog(t *testing.T) {
	c := openTestCatalog(t)
	st := New(t.TempDir()).WithCatalog(c)

	runID, err := st.Save(RunMetadata{Model: "twostep", Integrator: "rk4", Dt: 0.1, Duration: 0.2}, twoStepResult())
	require.NoError(t, err)

	entries, err := c.List(context.Background(), "twostep")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, runID, entries[0].ID)
	assert.Equal(t, filepath.Join(st.Dir(), runID), entries[0].Dir)
	assert.InDelta(t, 1.0105, entries[0].FinalBiomass.Float64, 1e-12)
}
