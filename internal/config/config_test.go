package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/config"
)

// clearEnv blanks every variable the loader reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"ENVIRONMENT", "APP_NAME", "APP_VERSION", "DEBUG", "AWS_REGION", "AWS_DEFAULT_REGION",
		"AWS_ENDPOINT_URL_DYNAMODB", "TABLE_NAME_BRIGHT_UID", "TABLE_NAME_ACCOUNT_ID",
		"ALLOWED_READ_CATEGORIES", "ALLOWED_WRITE_CATEGORIES", "LOG_LEVEL", "LOG_FILE", "NATS_URL",
		"FEATURESTORE_ENVIRONMENT", "FEATURESTORE_AWS_REGION", "FEATURESTORE_TABLE_BRIGHT_UID",
		"FEATURESTORE_NOTIFY_BACKEND", "FEATURESTORE_RECORD_TTL", "FEATURESTORE_TIMEOUT",
	} {
		t.Setenv(name, "")
	}
}

func load(t *testing.T) (config.Settings, error) {
	t.Helper()
	v := viper.New()
	require.NoError(t, config.Bind(v))
	return config.Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	s, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "development", s.Environment)
	assert.Equal(t, "us-west-2", s.AWSRegion)
	assert.Equal(t, "features_bright_uid", s.PrimaryTable)
	assert.Equal(t, "features_account_id", s.SecondaryTable)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, 3, s.AWSMaxAttempts)
	assert.Equal(t, ":8000", s.Listen)
	assert.Equal(t, "prediction_service", s.WriteSource)
	assert.Equal(t, config.NotifyNone, s.NotifyBackend)
	assert.Equal(t, []string{"*"}, s.CORSOrigins)
	assert.Empty(t, s.ReadCategories)
	assert.True(t, s.IsDevelopment())
	assert.False(t, s.IsProduction())
}

func TestLoad_LegacyEnvironmentNames(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("TABLE_NAME_BRIGHT_UID", "fs_users")
	t.Setenv("TABLE_NAME_ACCOUNT_ID", "fs_accounts")
	t.Setenv("ALLOWED_READ_CATEGORIES", "cat1, cat2,,cat3 ")
	t.Setenv("ALLOWED_WRITE_CATEGORIES", "cat1")
	t.Setenv("LOG_LEVEL", "DEBUG")

	s, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "production", s.Environment)
	assert.True(t, s.IsProduction())
	assert.Equal(t, "eu-central-1", s.AWSRegion)
	assert.Equal(t, "fs_users", s.PrimaryTable)
	assert.Equal(t, "fs_accounts", s.SecondaryTable)
	assert.Equal(t, []string{"cat1", "cat2", "cat3"}, s.ReadCategories)
	assert.Equal(t, []string{"cat1"}, s.WriteCategories)
	assert.Equal(t, "DEBUG", s.LogLevel)
	assert.Empty(t, s.CORSOrigins, "production gets no wildcard origin")

	policy := s.Policy()
	assert.True(t, policy.CanRead("cat2"))
	assert.False(t, policy.CanWrite("cat2"))
}

func TestLoad_PrefixedNameWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("TABLE_NAME_BRIGHT_UID", "legacy")
	t.Setenv("FEATURESTORE_TABLE_BRIGHT_UID", "prefixed")

	s, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "prefixed", s.PrimaryTable)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("TABLE_NAME_ACCOUNT_ID", "from_env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--table-account-id=from_flag", "--record-ttl=24h"}))

	v := viper.New()
	require.NoError(t, config.Bind(v))
	require.NoError(t, v.BindPFlags(fs))

	s, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from_flag", s.SecondaryTable)
	assert.Equal(t, 24*time.Hour, s.RecordTTL)
	assert.Equal(t, "features_bright_uid", s.PrimaryTable, "unset flags fall through to defaults")

	cfg := s.FeatureConfig()
	assert.Equal(t, "from_flag", cfg.SecondaryTable)
	assert.Equal(t, 24*time.Hour, cfg.RecordTTL)
	assert.True(t, cfg.ConsistentRead)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown notify backend", map[string]string{"FEATURESTORE_NOTIFY_BACKEND": "kafka"}},
		{"negative ttl", map[string]string{"FEATURESTORE_RECORD_TTL": "-1h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(t)
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFiles_EnvironmentFileWins(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.staging"),
		[]byte("TABLE_NAME_BRIGHT_UID=staging_users\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("TABLE_NAME_BRIGHT_UID=base_users\nTABLE_NAME_ACCOUNT_ID=base_accounts\n"), 0o600))
	t.Setenv("ENVIRONMENT", "staging")
	// godotenv only fills variables that are unset, blank ones included.
	require.NoError(t, os.Unsetenv("TABLE_NAME_BRIGHT_UID"))
	require.NoError(t, os.Unsetenv("TABLE_NAME_ACCOUNT_ID"))
	t.Cleanup(func() {
		os.Unsetenv("TABLE_NAME_BRIGHT_UID")
		os.Unsetenv("TABLE_NAME_ACCOUNT_ID")
	})

	config.LoadEnvFiles(dir)

	s, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "staging", s.Environment)
	assert.Equal(t, "staging_users", s.PrimaryTable)
	assert.Equal(t, "base_accounts", s.SecondaryTable)
}
