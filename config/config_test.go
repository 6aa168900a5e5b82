package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 4, cfg.NodeCount)
	assert.Equal(t, 60*time.Second, cfg.FormationTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)
	assert.Equal(t, "local", cfg.NodeProvider)
	assert.Equal(t, "smalldata/gaussian_regression.csv", cfg.RegressionDataset)
	assert.Equal(t, "smalldata/titanic_alt.csv", cfg.ClassificationDataset)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("NODE_COUNT", "8")
	t.Setenv("FORMATION_TIMEOUT", "2m")
	t.Setenv("NODE_PROVIDER", "aws")

	cfg := Load()
	assert.Equal(t, 8, cfg.NodeCount)
	assert.Equal(t, 2*time.Minute, cfg.FormationTimeout)
	assert.Equal(t, "aws", cfg.NodeProvider)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("NODE_COUNT", "plenty")
	t.Setenv("JOB_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, 4, cfg.NodeCount)
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)
}
