package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars blanks every variable Load reads for the duration of the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		"APP_ENV", "LOG_LEVEL", "DATABASE_URL", "CHOREBOARD_SQLITE_PATH",
		"BOARD_STORAGE", "AZURE_TABLES_CONNECTION_STRING", "AZURE_BOARD_TABLE",
		"REDIS_URL", "BOARD_CACHE_TTL", "RABBITMQ_URL",
		"AZURE_QUEUE_CONNECTION_STRING", "AZURE_BOARD_QUEUE",
		"HTTP_ADDR", "WORKER_HEALTH_ADDR", "MCP_ADDR", "MCP_AUTH_TOKEN",
		"CHOREBOARD_TIMEZONE", "CHOREBOARD_HOUSEHOLDS", "CHOREBOARD_HOUSEHOLDS_FILE",
		"CHOREBOARD_NAME", "CHOREBOARD_MEMBERS", "CHOREBOARD_CHORES", "CHOREBOARD_TIMEZONE",
		"CHOREBOARD_REFRESH_WEEKDAY", "CHOREBOARD_REFRESH_HOUR", "CHOREBOARD_REFRESH_MINUTE",
		"CHOREBOARD_CLEANUP_HOUR", "CHOREBOARD_CLEANUP_MINUTE",
		"CHOREBOARD_HOME_NAME", "CHOREBOARD_HOME_MEMBERS", "CHOREBOARD_CABIN_NAME",
		"CHOREBOARD_CABIN_CHORES", "CHOREBOARD_CABIN_REFRESH_WEEKDAY",
		"CHOREBOARD_LAKE_HOUSE_MEMBERS",
	}
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.UsesSQLite())

	assert.Equal(t, StorageSQL, cfg.BoardStorage)
	assert.Equal(t, "choreboards", cfg.AzureBoardTable)
	assert.Equal(t, 10*time.Minute, cfg.BoardCacheTTL)
	assert.Equal(t, "board-updates", cfg.AzureBoardQueue)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.RabbitMQURL)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, "0.0.0.0:8081", cfg.WorkerHealthAddr)
	assert.Equal(t, "0.0.0.0:8082", cfg.MCPAddr)

	require.Len(t, cfg.Households, 1)
	home := cfg.Households[0]
	assert.Equal(t, "home", home.ID)
	assert.Equal(t, "home", home.Name)
	assert.Equal(t, DefaultMembers, home.Members)
	assert.Equal(t, DefaultChores, home.Chores)
	assert.Equal(t, time.Sunday, home.RefreshWeekday)
	assert.Equal(t, 0, home.RefreshHour)
	assert.Equal(t, 30, home.RefreshMinute)
	assert.Equal(t, 3, home.CleanupHour)
	assert.Equal(t, 0, home.CleanupMinute)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost/choreboard")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("BOARD_CACHE_TTL", "90s")
	t.Setenv("HTTP_ADDR", ":9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.UsesSQLite())
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
	assert.Equal(t, 90*time.Second, cfg.BoardCacheTTL)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("BOARD_CACHE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.BoardCacheTTL)
}

func TestLoad_PerHouseholdOverrides(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("CHOREBOARD_HOUSEHOLDS", "home, cabin ,,lake-house")
	t.Setenv("CHOREBOARD_MEMBERS", "Robin, Kim")
	t.Setenv("CHOREBOARD_HOME_NAME", "Apartment")
	t.Setenv("CHOREBOARD_HOME_MEMBERS", " , ")
	t.Setenv("CHOREBOARD_CABIN_CHORES", "Chop wood,, Sweep porch")
	t.Setenv("CHOREBOARD_CABIN_REFRESH_WEEKDAY", "0")
	t.Setenv("CHOREBOARD_REFRESH_HOUR", "later")
	t.Setenv("CHOREBOARD_LAKE_HOUSE_MEMBERS", "Jo")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Households, 3)

	home, cabin, lake := cfg.Households[0], cfg.Households[1], cfg.Households[2]

	assert.Equal(t, "Apartment", home.Name)
	assert.Equal(t, []string{"Robin", "Kim"}, home.Members)
	assert.Equal(t, DefaultChores, home.Chores)
	assert.Equal(t, 0, home.RefreshHour)

	assert.Equal(t, "cabin", cabin.Name)
	assert.Equal(t, []string{"Chop wood", "Sweep porch"}, cabin.Chores)
	assert.Equal(t, time.Monday, cabin.RefreshWeekday)

	assert.Equal(t, "lake-house", lake.ID)
	assert.Equal(t, []string{"Jo"}, lake.Members)
}

func TestLoad_HouseholdsFile(t *testing.T) {
	clearEnvVars(t)
	path := filepath.Join(t.TempDir(), "households.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
households:
  - id: home
    name: Home
    members: [Alex, Sam, ""]
    timezone: Europe/Berlin
    refresh_weekday: Saturday
    refresh_hour: 22
  - id: cabin
    chores: []
    cleanup_hour: 99
`), 0o600))
	t.Setenv("CHOREBOARD_HOUSEHOLDS_FILE", path)
	t.Setenv("CHOREBOARD_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Households, 2)

	home := cfg.Households[0]
	assert.Equal(t, []string{"Alex", "Sam"}, home.Members)
	assert.Equal(t, time.Saturday, home.RefreshWeekday)
	assert.Equal(t, 22, home.RefreshHour)
	assert.Equal(t, 30, home.RefreshMinute)
	loc, err := home.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	cabin := cfg.Households[1]
	assert.Equal(t, "cabin", cabin.Name)
	assert.Equal(t, DefaultChores, cabin.Chores)
	assert.Equal(t, "UTC", cabin.Timezone)
	assert.Equal(t, 23, cabin.CleanupHour)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "azure without connection string", env: map[string]string{"BOARD_STORAGE": "azure"}},
		{name: "unknown storage", env: map[string]string{"BOARD_STORAGE": "s3"}},
		{name: "bad timezone", env: map[string]string{"CHOREBOARD_TIMEZONE": "Mars/Olympus"}},
		{name: "duplicate household", env: map[string]string{"CHOREBOARD_HOUSEHOLDS": "home,home"}},
		{name: "missing households file", env: map[string]string{"CHOREBOARD_HOUSEHOLDS_FILE": "/nonexistent/households.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		input string
		want  time.Weekday
	}{
		{"sunday", time.Sunday},
		{"Monday", time.Monday},
		{" fri ", time.Friday},
		{"0", time.Monday},
		{"5", time.Saturday},
		{"6", time.Sunday},
		{"7", time.Sunday},
		{"-1", time.Sunday},
		{"someday", time.Sunday},
		{"", time.Sunday},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseWeekday(tt.input, time.Sunday))
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "LAKE_HOUSE", envKey("lake-house"))
	assert.Equal(t, "HOME2", envKey("home2"))
}
