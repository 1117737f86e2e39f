package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env                string        `mapstructure:"ENV"`
	Port               string        `mapstructure:"PORT"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	AdminKey           string        `mapstructure:"ADMIN_KEY"`
	NominatimURL       string        `mapstructure:"NOMINATIM_URL"`
	NominatimUserAgent string        `mapstructure:"NOMINATIM_USER_AGENT"`
	GeocodeMinInterval time.Duration `mapstructure:"GEOCODE_MIN_INTERVAL"`
	GeocodeCacheTTL    time.Duration `mapstructure:"GEOCODE_CACHE_TTL"`
	SuggestMaxAttempts int           `mapstructure:"SUGGEST_MAX_ATTEMPTS"`
	CountryDefault     string        `mapstructure:"COUNTRY_DEFAULT"`
	CORSAllowed        string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB    int64         `mapstructure:"MAX_UPLOAD_MB"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GEOCODE_MIN_INTERVAL", "1s")
	v.SetDefault("GEOCODE_CACHE_TTL", "1h")
	v.SetDefault("SUGGEST_MAX_ATTEMPTS", 10)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
