package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is built once at process start and injected into the services.
// Business logic never reads the environment directly.
type Config struct {
	AppName  string
	RunMode  string
	Addr     string
	Frontend *Frontend
	Paystack *Paystack
	Data     *Data
	Logger   *Logger
}

type Frontend struct {
	ProductionURL  string
	DevelopmentURL string
	ClientHomePath string
}

// BaseURL selects the checkout callback base for the given run mode.
func (f *Frontend) BaseURL(runMode string) string {
	if runMode == "production" {
		return f.ProductionURL
	}
	return f.DevelopmentURL
}

// CallbackURL is where the gateway sends the payer after checkout.
func (f *Frontend) CallbackURL(runMode string) string {
	return f.BaseURL(runMode) + f.ClientHomePath
}

type Paystack struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	Timeout       time.Duration
}

type Data struct {
	MongoURI string
	Database string
}

type Logger struct {
	Level  string
	Format string
}

// Load reads configuration from an optional YAML file and the environment
// (env wins). Path may be empty.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app_name", "skillverse-payments")
	v.SetDefault("run_mode", "development")
	v.SetDefault("addr", ":5000")
	v.SetDefault("frontend.production_url", "")
	v.SetDefault("frontend.development_url", "http://localhost:3000")
	v.SetDefault("frontend.client_home_path", "/client/home")
	v.SetDefault("paystack.base_url", "https://api.paystack.co")
	v.SetDefault("paystack.timeout", "15s")
	v.SetDefault("data.database", "skillverse")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")

	v.SetEnvPrefix("PAYMENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	cfg := &Config{
		AppName:  v.GetString("app_name"),
		RunMode:  v.GetString("run_mode"),
		Addr:     v.GetString("addr"),
		Frontend: getFrontendConfig(v),
		Paystack: getPaystackConfig(v),
		Data:     getDataConfig(v),
		Logger:   getLoggerConfig(v),
	}
	return cfg, nil
}

func getFrontendConfig(v *viper.Viper) *Frontend {
	return &Frontend{
		ProductionURL:  v.GetString("frontend.production_url"),
		DevelopmentURL: v.GetString("frontend.development_url"),
		ClientHomePath: v.GetString("frontend.client_home_path"),
	}
}

func getPaystackConfig(v *viper.Viper) *Paystack {
	return &Paystack{
		SecretKey:     v.GetString("paystack.secret_key"),
		WebhookSecret: v.GetString("paystack.webhook_secret"),
		BaseURL:       v.GetString("paystack.base_url"),
		Timeout:       v.GetDuration("paystack.timeout"),
	}
}

func getDataConfig(v *viper.Viper) *Data {
	return &Data{
		MongoURI: v.GetString("data.mongo_uri"),
		Database: v.GetString("data.database"),
	}
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:  v.GetString("logger.level"),
		Format: v.GetString("logger.format"),
	}
}
