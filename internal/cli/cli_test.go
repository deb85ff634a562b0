package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/cliniprov/internal/model"
)

// resetViper gives each test a clean global viper with defaults and env binding
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	require.NoError(t, setDefaults(viper.GetViper()))
	viper.SetEnvPrefix("CLINIPROV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("CLINIPROV_LINKING_PROXIMITY_WINDOW", "120")
	t.Setenv("CLINIPROV_CACHE_MEMORY_TTL", "2m")
	t.Setenv("CLINIPROV_SERVER_PORT", "9000")
	t.Setenv("CLINIPROV_LOG_FORMAT", "console")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Linking.ProximityWindow)
	assert.Equal(t, 2*time.Minute, cfg.Cache.MemoryTTL)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, float64(6), cfg.Risk.VeryHigh)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("linking:\n  proximity_window: 80\nrisk:\n  high: 2\n  very_high: 5\n"), 0644))
	t.Setenv("CLINIPROV_RISK_HIGH", "2.5")

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Linking.ProximityWindow)
	assert.Equal(t, 2.5, cfg.Risk.High)
	assert.Equal(t, float64(5), cfg.Risk.VeryHigh)
	assert.True(t, cfg.Cache.Enabled, "keys absent from the file keep their defaults")
}

func TestLoadConfig_ClientLimitsFromFile(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "server:\n  client_limits:\n    - client: 10.0.0.5\n      rate_limit_rps: 0\n    - client: 10.0.0.6\n      rate_limit_rps: 2\n      rate_limit_burst: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := loadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []model.ClientLimit{
		{Client: "10.0.0.5"},
		{Client: "10.0.0.6", RateLimitRPS: 2, RateLimitBurst: 4},
	}, cfg.Server.ClientLimits)
	assert.Equal(t, 8085, cfg.Server.Port)
}

func TestWriteDefaultConfig(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, writeDefaultConfig(path))

	// The written file reads back as the defaults
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)

	// A second init refuses to overwrite
	err = writeDefaultConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestNewPipeline_RejectsInvalidConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Risk.VeryHigh = 1

	_, _, err := newPipeline(cfg)
	assert.Error(t, err)
}

func TestNewPipeline_BadTaxonomyPath(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Taxonomy.Path = filepath.Join(t.TempDir(), "missing.yaml")

	_, _, err := newPipeline(cfg)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"L-100", "L-100"},
		{"clinic/2025/letter 7", "clinic_2025_letter-7"},
		{"a:b*c?d", "a_b_c_d"},
		{"..", "letter"},
		{"", "letter"},
		{"  spaced  ", "spaced"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), "input %q", tt.in)
	}

	assert.Len(t, sanitizeFilename(strings.Repeat("x", 300)), 100)
}

func TestUniqueSlug(t *testing.T) {
	used := make(map[string]int)

	assert.Equal(t, "letter", uniqueSlug("letter", used))
	assert.Equal(t, "letter-2", uniqueSlug("letter", used))
	assert.Equal(t, "other", uniqueSlug("other", used))
	assert.Equal(t, "letter-3", uniqueSlug("letter", used))
}
