package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 200, cfg.Linking.ProximityWindow)
	assert.Less(t, cfg.Linking.ProximityWindow, 300, "window must not reach 300 bytes")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative window", func(c *Config) { c.Linking.ProximityWindow = -1 }, "proximity_window"},
		{"zero high threshold", func(c *Config) { c.Risk.High = 0 }, "risk.high"},
		{"inverted thresholds", func(c *Config) { c.Risk.VeryHigh = 2 }, "risk.very_high"},
		{"negative workers", func(c *Config) { c.Concurrency.Workers = -2 }, "workers"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"client limit without client", func(c *Config) {
			c.Server.ClientLimits = []ClientLimit{{RateLimitRPS: 1}}
		}, "client_limits[0].client"},
		{"negative client rate", func(c *Config) {
			c.Server.ClientLimits = []ClientLimit{{Client: "10.0.0.1", RateLimitRPS: -1}}
		}, "client_limits[0].rate_limit_rps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValueType_UnmarshalRejectsUnknown(t *testing.T) {
	var v ClinicalValue
	err := json.Unmarshal([]byte(`{"id":"cv-001","type":"allergy","name":"x","value":"y"}`), &v)
	require.Error(t, err)

	err = json.Unmarshal([]byte(`{"id":"cv-001","type":"risk_factor","name":"Smoking","value":"Smoking"}`), &v)
	require.NoError(t, err)
	assert.Equal(t, ValueRiskFactor, v.Type)
}

func TestCategory_ValueType(t *testing.T) {
	assert.Equal(t, ValueDiagnosis, CategoryDiagnosis.ValueType())
	assert.Equal(t, ValueProcedure, CategoryProcedure.ValueType())
	assert.Equal(t, ValueMedication, CategoryMedication.ValueType())
	assert.Equal(t, ValueFinding, CategoryFinding.ValueType())
	assert.Equal(t, ValueRiskFactor, CategoryRiskFactor.ValueType())
	assert.Equal(t, "Risk Factors", CategoryRiskFactor.Label())
}

func TestSourceAnchor_LocatableText(t *testing.T) {
	assert.Equal(t, "seg", SourceAnchor{SegmentText: "seg", SourceExcerpt: "ex"}.LocatableText())
	assert.Equal(t, "ex", SourceAnchor{SourceExcerpt: "ex"}.LocatableText())
	assert.Equal(t, "", SourceAnchor{}.LocatableText())
}
