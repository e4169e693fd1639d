package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the light score service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the monitoring server.
// - APIPort: The port for the form session API.
// - BackendURL: Base URL of the light score backend (required).
// - ScorePath: Light score endpoint relative to BackendURL.
// - MapAPIKey: Key for the maps API, used for geocoding and static map images.
// - ProviderType: The geocoding provider to use (google, nominatim, visicom).
// - Database: Optional PostgreSQL geocode cache; disabled when Host is empty.
type Config struct {
	Env               string         `mapstructure:"env"`
	Port              int            `mapstructure:"monitoring_port"`
	APIPort           int            `mapstructure:"api_port"`
	BackendURL        string         `mapstructure:"backend_url"`
	ScorePath         string         `mapstructure:"score_path"`
	MapAPIKey         string         `mapstructure:"map_api_key"`
	ProviderType      string         `mapstructure:"provider_type"`
	RateLimit         int            `mapstructure:"rate_limit"`      // provider requests per second
	QuietPeriod       time.Duration  `mapstructure:"quiet_period"`    // debounce window for map updates
	GeocodeTimeout    time.Duration  `mapstructure:"geocode_timeout"` // bound on a single geocode call
	HTTPTimeout       time.Duration  `mapstructure:"http_timeout"`    // light score backend timeout
	SessionTTL        time.Duration  `mapstructure:"session_ttl"`
	CORSOrigins       []string       `mapstructure:"cors_origins"`
	RequirePostalCode bool           `mapstructure:"require_postal_code"`
	Database          PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`     // Host is the database server address.
	Port     string `mapstructure:"port"`     // Port is the database server port.
	User     string `mapstructure:"user"`     // User is the database user.
	Password string `mapstructure:"password"` // Password is the database user's password.
	Name     string `mapstructure:"db_name"`  // Name is the name of the database.
}

// Enabled reports whether a database is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

var defaults = map[string]any{
	"env":                 "production",
	"monitoring_port":     "8080",
	"api_port":            "8000",
	"score_path":          "/light_score/",
	"provider_type":       "google",
	"rate_limit":          "1",
	"quiet_period":        "1s",
	"geocode_timeout":     "10s",
	"http_timeout":        "30s",
	"session_ttl":         "30m",
	"cors_origins":        "*",
	"require_postal_code": "true",
	"postgres.port":       "5432",
}

// Environment variables outside the HELIOS_ prefix.
var envBindings = map[string]string{
	"postgres.host":     "DB_HOST",
	"postgres.port":     "DB_PORT",
	"postgres.user":     "DB_USERNAME",
	"postgres.password": "DB_PASSWORD",
	"postgres.db_name":  "DB_NAME",
}

// MustLoad loads the configuration from .env, an optional YAML file named by
// HELIOS_CONFIG_FILE and HELIOS_* environment variables, in increasing priority.
// It panics if a value cannot be parsed or the backend URL is missing.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("HELIOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			panic(fmt.Sprintf("failed to read configuration file %s", path))
		}
	}

	return &Config{
		Env:               v.GetString("env"),
		Port:              mustInt(v, "monitoring_port", "failed to parse port for monitoring server from configuration"),
		APIPort:           mustInt(v, "api_port", "failed to parse port for API server from configuration"),
		BackendURL:        mustBackendURL(v),
		ScorePath:         v.GetString("score_path"),
		MapAPIKey:         v.GetString("map_api_key"),
		ProviderType:      v.GetString("provider_type"),
		RateLimit:         mustInt(v, "rate_limit", "failed to parse provider rate limit from configuration"),
		QuietPeriod:       mustDuration(v, "quiet_period", "failed to parse quiet period from configuration"),
		GeocodeTimeout:    mustDuration(v, "geocode_timeout", "failed to parse geocode timeout from configuration"),
		HTTPTimeout:       mustDuration(v, "http_timeout", "failed to parse HTTP timeout from configuration"),
		SessionTTL:        mustDuration(v, "session_ttl", "failed to parse session TTL from configuration"),
		CORSOrigins:       splitList(v.GetString("cors_origins")),
		RequirePostalCode: mustBool(v, "require_postal_code", "failed to parse require_postal_code from configuration"),
		Database: PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.db_name"),
		},
	}
}

func mustBackendURL(v *viper.Viper) string {
	url := strings.TrimSpace(v.GetString("backend_url"))
	if url == "" {
		panic("backend URL is required, set HELIOS_BACKEND_URL")
	}

	return url
}

func mustInt(v *viper.Viper, key, msg string) int {
	n, err := strconv.Atoi(v.GetString(key))
	if err != nil {
		panic(msg)
	}

	return n
}

func mustDuration(v *viper.Viper, key, msg string) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		panic(msg)
	}

	return d
}

func mustBool(v *viper.Viper, key, msg string) bool {
	b, err := strconv.ParseBool(v.GetString(key))
	if err != nil {
		panic(msg)
	}

	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
