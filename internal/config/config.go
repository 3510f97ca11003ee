package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type AppConfig struct {
	Port        string        `validate:"required,numeric"`
	HTTPTimeout time.Duration `validate:"gt=0"`

	PeopleAPIURL      string `validate:"required,url"`
	PeopleNationality string
	WeatherAPIURL     string `validate:"required,url"`
	AdviceAPIURL      string `validate:"required,url"`

	// PageSize is the batch size for Initialize and LoadMore.
	PageSize int `validate:"gte=1,lte=5000"`
	// SavedThreshold is how many saved users make the initial remote fetch unnecessary.
	SavedThreshold int `validate:"gte=1"`

	WeatherRetryDelay time.Duration `validate:"gt=0"`
	RefreshInterval   time.Duration `validate:"gt=0"`

	StoreDriver string `validate:"oneof=file sqlite memory"`
	StorePath   string `validate:"required_unless=StoreDriver memory"`

	LogLevel  string
	LogFormat string `validate:"oneof=console json"`
}

var validate = validator.New()

var defaults = map[string]any{
	"PORT":                "8080",
	"HTTP_TIMEOUT":        "10s",
	"PEOPLE_API_URL":      "https://randomuser.me/api/",
	"PEOPLE_NATIONALITY":  "us",
	"WEATHER_API_URL":     "https://api.open-meteo.com/v1/forecast",
	"ADVICE_API_URL":      "http://localhost/advice",
	"PAGE_SIZE":           "5",
	"SAVED_THRESHOLD":     "5",
	"WEATHER_RETRY_DELAY": "1s",
	"REFRESH_INTERVAL":    "5m",
	"STORE_DRIVER":        StoreFile,
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "console",
}

// LoadDotEnv loads a .env file into the process environment if one exists.
// It reports whether a file was loaded.
func LoadDotEnv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

// Load reads configuration from the environment with sensible defaults.
func Load() (*AppConfig, error) {
	v := viper.New()
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return load(v)
}

func load(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Port:              v.GetString("PORT"),
		PeopleAPIURL:      v.GetString("PEOPLE_API_URL"),
		PeopleNationality: v.GetString("PEOPLE_NATIONALITY"),
		WeatherAPIURL:     v.GetString("WEATHER_API_URL"),
		AdviceAPIURL:      v.GetString("ADVICE_API_URL"),
		StoreDriver:       strings.ToLower(v.GetString("STORE_DRIVER")),
		StorePath:         v.GetString("STORE_PATH"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	var err error
	if cfg.HTTPTimeout, err = getDuration(v, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.WeatherRetryDelay, err = getDuration(v, "WEATHER_RETRY_DELAY"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getDuration(v, "REFRESH_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.PageSize, err = getInt(v, "PAGE_SIZE"); err != nil {
		return nil, err
	}
	if cfg.SavedThreshold, err = getInt(v, "SAVED_THRESHOLD"); err != nil {
		return nil, err
	}

	if cfg.StorePath == "" {
		switch cfg.StoreDriver {
		case StoreFile:
			cfg.StorePath = "saved_users.json"
		case StoreSQLite:
			cfg.StorePath = "saved_users.db"
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
