package app

import (
	"encoding/json"
	nativeerrors "errors"
	"fmt"
	"github.com/caarlos0/env/v11"
	"github.com/gobuffalo/nulls"
	"github.com/joho/godotenv"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/identity"
	"github.com/lefinal/vrcafe-server/maintenancesvc"
	"go.uber.org/zap/zapcore"
	"io/fs"
	"os"
	"time"
	// Bookings use the café location which must be available without system
	// time zone data.
	_ "time/tzdata"
)

const (
	defaultBookingExpirySchedule = "@hourly"
	defaultLobbyPurgeSchedule    = "@daily"
	defaultLobbyMaxAgeHours      = 24
	defaultLookupCacheTTL        = 10 * time.Minute
	defaultLocation              = "Asia/Kolkata"
)

// Config is the configuration needed in order to boot an App.
type Config struct {
	// DBConn is the connection string for the PostgreSQL database.
	DBConn string `json:"db_conn" env:"VRCAFE_DB_CONN"`
	// ServeAddr is the address, the app will listen for HTTP and websocket
	// connections on.
	ServeAddr string `json:"serve_addr" env:"VRCAFE_SERVE_ADDR"`
	// MQTTAddr is the address of the MQTT server.
	MQTTAddr string `json:"mqtt_addr" env:"VRCAFE_MQTT_ADDR"`
	// RedisAddr is the optional address of the Redis server that is used for
	// caching lookups.
	RedisAddr     nulls.String `json:"redis_addr" env:"VRCAFE_REDIS_ADDR"`
	RedisPassword string       `json:"redis_password" env:"VRCAFE_REDIS_PASSWORD"`
	RedisDB       int          `json:"redis_db" env:"VRCAFE_REDIS_DB"`
	// LookupCacheTTLSec is the time-to-live of cached lookups in seconds. 0 uses
	// the default.
	LookupCacheTTLSec int `json:"lookup_cache_ttl_sec" env:"VRCAFE_LOOKUP_CACHE_TTL_SEC"`
	// IdentitySecret is the shared secret for verifying tokens of the identity
	// provider.
	IdentitySecret string `json:"identity_secret" env:"VRCAFE_IDENTITY_SECRET"`
	// IdentityIssuer is the optional expected issuer of tokens.
	IdentityIssuer string `json:"identity_issuer" env:"VRCAFE_IDENTITY_ISSUER"`
	// Location is the time zone of the café which is used for bookings.
	Location              string `json:"location" env:"VRCAFE_LOCATION"`
	BookingExpirySchedule string `json:"booking_expiry_schedule" env:"VRCAFE_BOOKING_EXPIRY_SCHEDULE"`
	LobbyPurgeSchedule    string `json:"lobby_purge_schedule" env:"VRCAFE_LOBBY_PURGE_SCHEDULE"`
	LobbyMaxAgeHours      int    `json:"lobby_max_age_hours" env:"VRCAFE_LOBBY_MAX_AGE_HOURS"`
	// Log is the config for logging.
	Log LogConfig `json:"log" envPrefix:"VRCAFE_LOG_"`
}

// LogConfig is the config for logging.
type LogConfig struct {
	// StdoutLogLevel is the minimum log level for logging to stdout.
	StdoutLogLevel zapcore.Level `json:"stdout_log_level" env:"STDOUT_LEVEL"`
	// HighPriorityOutput is the optional file for warn and error logs.
	HighPriorityOutput nulls.String `json:"high_priority_output" env:"HIGH_PRIORITY_OUTPUT"`
	// DebugOutput is the optional file for all logs.
	DebugOutput nulls.String `json:"debug_output" env:"DEBUG_OUTPUT"`
	// MaxSize is the maximum size in megabytes of a log file before it gets
	// rotated.
	MaxSize int `json:"max_size" env:"MAX_SIZE"`
	// KeepDays is the number of days to keep rotated log files.
	KeepDays int `json:"keep_days" env:"KEEP_DAYS"`
	// SystemDebugStatsInterval is the interval in minutes for logging debug
	// stats. 0 disables it.
	SystemDebugStatsInterval int `json:"system_debug_stats_interval" env:"SYSTEM_DEBUG_STATS_INTERVAL"`
}

// defaultConfig returns a Config with defaults for optional values.
func defaultConfig() Config {
	return Config{
		ServeAddr:             ":8080",
		Location:              defaultLocation,
		BookingExpirySchedule: defaultBookingExpirySchedule,
		LobbyPurgeSchedule:    defaultLobbyPurgeSchedule,
		LobbyMaxAgeHours:      defaultLobbyMaxAgeHours,
		Log: LogConfig{
			StdoutLogLevel: zapcore.InfoLevel,
			MaxSize:        100,
			KeepDays:       7,
		},
	}
}

// LoadConfig reads the JSON config file at the given path. Values from the
// environment, including an optional .env file in the working directory,
// override the ones from the file. A missing config file is fine as long as
// the environment provides everything.
func LoadConfig(path string) (Config, error) {
	config := defaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil && !nativeerrors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err == nil {
		err = json.Unmarshal(raw, &config)
		if err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	err = godotenv.Load()
	if err != nil && !nativeerrors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	err = env.Parse(&config)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return config, nil
}

// lookupCacheTTL returns the configured TTL for cached lookups.
func (c Config) lookupCacheTTL() time.Duration {
	if c.LookupCacheTTLSec <= 0 {
		return defaultLookupCacheTTL
	}
	return time.Duration(c.LookupCacheTTLSec) * time.Second
}

// ValidateConfig validates the given Config.
func ValidateConfig(config Config) error {
	if config.DBConn == "" {
		return errors.NewBadRequestErr("missing db connection string", errors.KindUnexpected, nil)
	}
	if config.ServeAddr == "" {
		return errors.NewBadRequestErr("missing serve address", errors.KindUnexpected, nil)
	}
	if config.MQTTAddr == "" {
		return errors.NewBadRequestErr("missing mqtt address", errors.KindUnexpected, nil)
	}
	if len(config.IdentitySecret) < identity.MinSecretLength {
		return errors.NewBadRequestErr(fmt.Sprintf("identity secret must be at least %d bytes", identity.MinSecretLength),
			errors.KindUnexpected, nil)
	}
	if config.RedisDB < 0 {
		return errors.NewBadRequestErr("redis db must not be negative", errors.KindUnexpected,
			errors.Details{"was": config.RedisDB})
	}
	if config.LobbyMaxAgeHours < 1 {
		return errors.NewBadRequestErr("lobby max age must be at least one hour", errors.KindUnexpected,
			errors.Details{"was": config.LobbyMaxAgeHours})
	}
	if _, err := time.LoadLocation(config.Location); err != nil {
		return errors.NewBadRequestErr(fmt.Sprintf("invalid location: %s", err.Error()), errors.KindUnexpected,
			errors.Details{"was": config.Location})
	}
	for name, schedule := range map[string]string{
		"booking expiry schedule": config.BookingExpirySchedule,
		"lobby purge schedule":    config.LobbyPurgeSchedule,
	} {
		if err := maintenancesvc.ValidateSchedule(schedule); err != nil {
			return errors.NewBadRequestErr(fmt.Sprintf("invalid %s: %s", name, err.Error()), errors.KindUnexpected, nil)
		}
	}
	return nil
}

// maintenanceConfig creates the maintenancesvc.Config from the Config.
func (c Config) maintenanceConfig() maintenancesvc.Config {
	return maintenancesvc.Config{
		BookingExpirySchedule: c.BookingExpirySchedule,
		LobbyPurgeSchedule:    c.LobbyPurgeSchedule,
		LobbyMaxAge:           time.Duration(c.LobbyMaxAgeHours) * time.Hour,
	}
}
