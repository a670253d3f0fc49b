package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{PeriodName: "1_month"}
	cfg.ApplyDefaults()

	assert.Equal(t, "local", cfg.RunID)
	assert.Equal(t, 30, cfg.DaysToSimulate, "days derived from the period preset")
	assert.Equal(t, 1, cfg.SnapshotIntervalDays, "short runs snapshot daily")
	assert.Equal(t, DefaultMaxSampleSize, cfg.MaxSampleSize)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 5.0, cfg.MRRFloorPerUser)
	assert.Equal(t, DefaultSimStartDate, cfg.SimStartDate)
}

func TestConfigApplyDefaultsLongHorizonInterval(t *testing.T) {
	cfg := Config{PeriodName: "10_years"}
	cfg.ApplyDefaults()
	assert.Equal(t, 3650, cfg.DaysToSimulate)
	assert.Equal(t, 10, cfg.SnapshotIntervalDays, "one snapshot per year-equivalent")

	cfg = Config{PeriodName: "50_years"}
	cfg.ApplyDefaults()
	assert.Equal(t, 18250, cfg.DaysToSimulate)
	assert.Equal(t, 50, cfg.SnapshotIntervalDays)
}

func TestConfigApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		RunID:                "run_7",
		PeriodName:           "1_year",
		SnapshotIntervalDays: 7,
		MaxSampleSize:        100,
		BatchSize:            25,
		MRRFloorPerUser:      12,
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "run_7", cfg.RunID)
	assert.Equal(t, 365, cfg.DaysToSimulate)
	assert.Equal(t, 7, cfg.SnapshotIntervalDays)
	assert.Equal(t, 100, cfg.MaxSampleSize)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 12.0, cfg.MRRFloorPerUser)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{PeriodName: "1_month"}
	valid.ApplyDefaults()
	require.NoError(t, valid.Validate())

	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"unknown period", func(c *Config) { c.PeriodName = "eleventy_years" }},
		{"days inconsistent with period", func(c *Config) { c.DaysToSimulate = 31 }},
		{"non-positive days", func(c *Config) { c.PeriodName = ""; c.DaysToSimulate = 0 }},
		{"negative users", func(c *Config) { c.InitialUsers = -1 }},
		{"negative releases", func(c *Config) { c.InitialReleases = -1 }},
		{"negative seed money", func(c *Config) { c.SeedMoney = -0.01 }},
		{"snapshot interval below one", func(c *Config) { c.SnapshotIntervalDays = 0 }},
		{"sample cap below one", func(c *Config) { c.MaxSampleSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mut(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfigInvalid)
		})
	}
}

func TestConfigZeroUsersIsValid(t *testing.T) {
	cfg := Config{PeriodName: "1_month", InitialUsers: 0, InitialReleases: 0}
	cfg.ApplyDefaults()
	assert.NoError(t, cfg.Validate(), "bootstrap-from-nothing configs are allowed")
}
