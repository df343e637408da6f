package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/ambient-weather/pkg/ambient"
)

type AppConfig struct {
	APIKey         string `validate:"required"`
	ApplicationKey string `validate:"required"`

	// Device is a device index or a MAC address.
	Device   string `validate:"required"`
	Endpoint string `validate:"oneof=legacy api realtime rt"`

	// FetchInterval controls how often the latest observation is polled.
	FetchInterval time.Duration `validate:"gt=0"`
	RequestDelay  time.Duration `validate:"gte=0"`
	HTTPTimeout   time.Duration `validate:"gt=0"`

	// BackfillLimit is how many historic records to load on startup (0 = none).
	BackfillLimit int `validate:"min=0,max=288"`

	// In-memory store retention.
	StoreMaxHistory int           // max number of observations kept (0 = unlimited)
	StoreMaxAge     time.Duration // max age of observations (0 = unlimited)

	BreakerMaxFailures uint32        `validate:"min=1"`
	BreakerTimeout     time.Duration `validate:"gt=0"`

	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `validate:"oneof=json text"`

	Influx InfluxConfig
}

// InfluxConfig enables the InfluxDB sink when URL is set.
type InfluxConfig struct {
	URL    string
	Token  string `validate:"required_with=URL"`
	Org    string `validate:"required_with=URL"`
	Bucket string `validate:"required_with=URL"`
}

// Enabled reports whether observations should be written to InfluxDB.
func (c InfluxConfig) Enabled() bool {
	return c.URL != ""
}

var validate = validator.New()

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &AppConfig{
		APIKey:             v.GetString("ambient_api_key"),
		ApplicationKey:     v.GetString("ambient_application_key"),
		Device:             v.GetString("ambient_device"),
		Endpoint:           strings.ToLower(v.GetString("ambient_endpoint")),
		FetchInterval:      v.GetDuration("fetch_interval"),
		RequestDelay:       v.GetDuration("request_delay"),
		HTTPTimeout:        v.GetDuration("http_timeout"),
		BackfillLimit:      v.GetInt("backfill_limit"),
		StoreMaxHistory:    v.GetInt("store_max_history"),
		StoreMaxAge:        v.GetDuration("store_max_age"),
		BreakerMaxFailures: v.GetUint32("breaker_max_failures"),
		BreakerTimeout:     v.GetDuration("breaker_timeout"),
		Port:               v.GetString("port"),
		LogLevel:           strings.ToLower(v.GetString("log_level")),
		LogFormat:          strings.ToLower(v.GetString("log_format")),
		Influx: InfluxConfig{
			URL:    v.GetString("influxdb_url"),
			Token:  v.GetString("influxdb_token"),
			Org:    v.GetString("influxdb_org"),
			Bucket: v.GetString("influxdb_bucket"),
		},
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Credentials builds the vendor credentials for the configured device.
func (c *AppConfig) Credentials() (ambient.Credentials, error) {
	endpoint, err := ambient.ParseEndpoint(c.Endpoint)
	if err != nil {
		return ambient.Credentials{}, err
	}
	return ambient.NewCredentials(c.APIKey, c.ApplicationKey, ambient.ParseDeviceRef(c.Device), endpoint), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ambient_device", "0")
	v.SetDefault("ambient_endpoint", "legacy")

	v.SetDefault("fetch_interval", "5m")
	v.SetDefault("request_delay", ambient.MinRequestInterval.String())
	v.SetDefault("http_timeout", "15s")
	v.SetDefault("backfill_limit", ambient.MaxHistoricLimit)

	// roughly 7 days at 5-minute intervals
	v.SetDefault("store_max_history", 2016)
	v.SetDefault("store_max_age", "168h")

	v.SetDefault("breaker_max_failures", 5)
	v.SetDefault("breaker_timeout", "10m")

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}
