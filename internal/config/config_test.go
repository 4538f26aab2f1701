package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raykavin/bullseye/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "5y", config.Period)
	assert.Equal(t, ProviderYahoo, config.Provider)
	assert.Equal(t, 30*time.Second, config.Yahoo.Timeout)
	assert.Zero(t, config.Cache.TTL)
	assert.Empty(t, config.Model.Path)

	settings, err := config.Settings()
	require.NoError(t, err)
	assert.Equal(t, core.DefaultFeatureSet(), settings.Features)
	assert.True(t, settings.FieldLines)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bullseye.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
tickers: [aapl, tsla]
windows: [10, 60]
fields: [close]
field_lines: false
provider: csv
cache:
  ttl: 1d
yahoo:
  symbols:
    dow: ^DJI
model:
  path: model.json
  scaler_path: scaler.json
`), 0o600))

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Port)
	assert.Equal(t, []string{"aapl", "tsla"}, config.Tickers)
	assert.Equal(t, ProviderCSV, config.Provider)
	assert.Equal(t, 24*time.Hour, config.Cache.TTL)
	assert.Equal(t, "^DJI", config.Yahoo.Symbols["dow"])
	assert.Equal(t, "scaler.json", config.Model.ScalerPath)

	settings, err := config.Settings()
	require.NoError(t, err)
	assert.Equal(t, []core.Field{core.FieldClose}, settings.Features.Fields)
	assert.Equal(t, []int{10, 60}, settings.Features.Windows)
	assert.False(t, settings.FieldLines)
}

func TestLoad_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BULLSEYE_TICKERS", "NVDA, AMD")
	t.Setenv("BULLSEYE_WINDOWS", "3,7")
	t.Setenv("BULLSEYE_CACHE_TTL", "12h")
	t.Setenv("BULLSEYE_PORT", "7070")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"NVDA", "AMD"}, config.Tickers)
	assert.Equal(t, []int{3, 7}, config.Windows)
	assert.Equal(t, 12*time.Hour, config.Cache.TTL)
	assert.Equal(t, 7070, config.Port)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	chdir(t, t.TempDir())
	t.Setenv("BULLSEYE_PROVIDER", "bloomberg")
	_, err = Load("")
	require.Error(t, err)
}

func TestSettings_InvalidFeatures(t *testing.T) {
	config := &AppConfig{Fields: []string{"Close"}, Windows: []int{0}}
	_, err := config.Settings()
	require.ErrorIs(t, err, core.ErrInvalidWindow)

	config = &AppConfig{Fields: []string{"Median"}, Windows: []int{5}}
	_, err = config.Settings()
	require.ErrorIs(t, err, core.ErrUnknownField)
}

func chdir(t *testing.T, dir string) {
	t.Helper()

	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(previous) })
}
