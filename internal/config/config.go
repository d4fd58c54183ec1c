package config

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"tradehook/pkg/secrets"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Binance   BinanceConfig   `mapstructure:"binance"`
	Flattrade FlattradeConfig `mapstructure:"flattrade"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	GCP       GCPConfig       `mapstructure:"gcp"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type BinanceConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`

	// RealAPIKey, when set, replaces APIKey after env resolution. Kept so a
	// testnet key can stay in the environment alongside the production key.
	RealAPIKey string `mapstructure:"real_api_key"`

	Testnet bool `mapstructure:"testnet"`
}

type FlattradeConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	UserID    string `mapstructure:"user_id"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GCPConfig struct {
	ProjectID   string              `mapstructure:"project_id"`
	UseSecrets  bool                `mapstructure:"use_secrets"`
	SecretNames secrets.SecretNames `mapstructure:"secret_names"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/tradehook")
	}

	v.SetEnvPrefix("TRADEHOOK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&config)

	if config.GCP.UseSecrets && config.GCP.ProjectID != "" {
		ctx := context.Background()
		logger := logrus.New()
		if err := loadSecretsFromGCP(ctx, &config, logger); err != nil {
			return nil, fmt.Errorf("error loading secrets from GCP: %w", err)
		}
	}

	if config.Binance.RealAPIKey != "" {
		config.Binance.APIKey = config.Binance.RealAPIKey
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)

	v.SetDefault("binance.testnet", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("gcp.use_secrets", false)
	v.SetDefault("gcp.project_id", "")

	secretNames := secrets.DefaultSecretNames()
	v.SetDefault("gcp.secret_names.binance_api_key", secretNames.BinanceAPIKey)
	v.SetDefault("gcp.secret_names.binance_api_secret", secretNames.BinanceAPISecret)
	v.SetDefault("gcp.secret_names.flattrade_api_key", secretNames.FlattradeAPIKey)
	v.SetDefault("gcp.secret_names.flattrade_api_secret", secretNames.FlattradeAPISecret)
	v.SetDefault("gcp.secret_names.flattrade_user_id", secretNames.FlattradeUserID)
}

func overrideFromEnv(config *Config) {
	if apiKey := os.Getenv("BINANCE_API_KEY"); apiKey != "" {
		config.Binance.APIKey = apiKey
	}
	if apiSecret := os.Getenv("BINANCE_API_SECRET"); apiSecret != "" {
		config.Binance.APISecret = apiSecret
	}
	if realAPIKey := os.Getenv("BINANCE_REAL_API_KEY"); realAPIKey != "" {
		config.Binance.RealAPIKey = realAPIKey
	}
	if testnet := os.Getenv("BINANCE_TESTNET"); testnet != "" {
		if parsed, err := strconv.ParseBool(testnet); err == nil {
			config.Binance.Testnet = parsed
		}
	}

	if apiKey := os.Getenv("FLATTRADE_API_KEY"); apiKey != "" {
		config.Flattrade.APIKey = apiKey
	}
	if apiSecret := os.Getenv("FLATTRADE_API_SECRET"); apiSecret != "" {
		config.Flattrade.APISecret = apiSecret
	}
	if userID := os.Getenv("FLATTRADE_USER_ID"); userID != "" {
		config.Flattrade.UserID = userID
	}

	if port := os.Getenv("PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			config.Server.Port = parsed
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if projectID := os.Getenv("GCP_PROJECT_ID"); projectID != "" {
		config.GCP.ProjectID = projectID
	}
	if useSecrets := os.Getenv("GCP_USE_SECRETS"); useSecrets == "true" {
		config.GCP.UseSecrets = true
	}
}

func loadSecretsFromGCP(ctx context.Context, config *Config, logger *logrus.Logger) error {
	secretManager, err := secrets.NewGCPSecretManager(ctx, config.GCP.ProjectID, logger)
	if err != nil {
		return fmt.Errorf("failed to create secret manager: %w", err)
	}
	defer secretManager.Close()

	// Only load secrets that are not already set
	if config.Binance.APIKey == "" {
		config.Binance.APIKey = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.BinanceAPIKey, "")
	}
	if config.Binance.APISecret == "" {
		config.Binance.APISecret = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.BinanceAPISecret, "")
	}

	if config.Flattrade.APIKey == "" {
		config.Flattrade.APIKey = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.FlattradeAPIKey, "")
	}
	if config.Flattrade.APISecret == "" {
		config.Flattrade.APISecret = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.FlattradeAPISecret, "")
	}
	if config.Flattrade.UserID == "" {
		config.Flattrade.UserID = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.FlattradeUserID, "")
	}

	logger.Info("Successfully loaded secrets from GCP Secret Manager")
	return nil
}
