package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_DefaultsAndFlags(t *testing.T) {
	c, err := Load([]string{"-jwt-key", "k", "-driver", "sqlite", "-dsn", ":memory:"}, "", envMap(nil))
	require.NoError(t, err)
	require.Equal(t, ":8080", c.HTTPAddr)
	require.Equal(t, ":8443", c.GRPCAddr)
	require.Equal(t, 120, c.HTTPRate)
	require.Equal(t, "sqlite", c.Driver)
	require.Equal(t, 15*time.Minute, c.AccessTTL)
	require.Equal(t, "BRL", c.DefaultCurrency)
	require.Equal(t, 500, c.MaxNotesLen)
	require.Equal(t, 5, c.LimiterMaxFails)
	require.Equal(t, "http://localhost:5173", c.PublicURL)
}

func TestLoad_EnvFallbackAndFlagWins(t *testing.T) {
	env := envMap(map[string]string{
		"GS_JWT_KEY":    "from-env",
		"GS_ACCESS_TTL": "1h",
		"GS_DEV":        "true",
		"GS_MAX_NOTES":  "42",
		"GS_HTTP_ADDR":  ":9000",
	})
	c, err := Load([]string{"-http-addr", ":7000"}, "", env)
	require.NoError(t, err)
	require.Equal(t, "from-env", c.JWTKey)
	require.Equal(t, time.Hour, c.AccessTTL)
	require.True(t, c.Dev)
	require.Equal(t, 42, c.MaxNotesLen)
	require.Equal(t, ":7000", c.HTTPAddr)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(nil, "", envMap(nil))
	require.ErrorContains(t, err, "jwt")

	_, err = Load([]string{"-jwt-key", "k", "-driver", "mongo"}, "", envMap(nil))
	require.ErrorContains(t, err, "driver")

	_, err = Load([]string{"-jwt-key", "k"}, "", envMap(map[string]string{"GS_ACCESS_TTL": "soon"}))
	require.ErrorContains(t, err, "GS_ACCESS_TTL")

	_, err = Load([]string{"-jwt-key", "k", "-tls-cert", "c.pem"}, "", envMap(nil))
	require.ErrorContains(t, err, "tls")

	_, err = Load([]string{"-jwt-key", "k", "-public-url", "garage.example"}, "", envMap(nil))
	require.ErrorContains(t, err, "public-url")

	c, err := Load([]string{"-jwt-key", "k"}, "", envMap(map[string]string{"GS_PUBLIC_URL": "https://garage.example"}))
	require.NoError(t, err)
	require.Equal(t, "https://garage.example", c.PublicURL)

	_, err = Load([]string{"-unknown"}, "", envMap(nil))
	require.Error(t, err)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GS_TEST_DOTENV_KEY=dotenv-secret\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("GS_TEST_DOTENV_KEY") })

	get := func(k string) string {
		if k == "GS_JWT_KEY" {
			return os.Getenv("GS_TEST_DOTENV_KEY")
		}
		return ""
	}
	c, err := Load(nil, path, get)
	require.NoError(t, err)
	require.Equal(t, "dotenv-secret", c.JWTKey)

	// a missing file is fine
	_, err = Load([]string{"-jwt-key", "k"}, filepath.Join(dir, "absent.env"), envMap(nil))
	require.NoError(t, err)
}
