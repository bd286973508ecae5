package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	RunAddress        string `env:"RUN_ADDRESS"`
	DatabaseDSN       string `env:"DATABASE_URI"`
	MigrationsDir     string `env:"MIGRATIONS_DIR"`
	JWTSecret         string `env:"JWT_SECRET"`
	DeliveryFee       string `env:"DELIVERY_FEE"`
	NotifierWorkers   uint   `env:"NOTIFIER_WORKERS"`
	NotifierQueueSize uint   `env:"NOTIFIER_QUEUE_SIZE"`
}

func LoadConfig() (*Config, error) {
	// .env опционален, его отсутствие не ошибка.
	_ = godotenv.Load()

	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	loadFlags(&flagsConfig)

	conf := mergeConfig(&envConfig, &flagsConfig)
	if conf.DatabaseDSN == "" {
		return nil, errors.New("database DSN is not set")
	}
	if conf.JWTSecret == "" {
		return nil, errors.New("JWT secret is not set")
	}
	return conf, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadFlags(flagConfig *Config) {
	flag.StringVar(&flagConfig.RunAddress, "a", "localhost:8080", "Run address in format host:port")
	flag.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	flag.StringVar(&flagConfig.MigrationsDir, "m", "internal/db/migrations", "Database migrations directory")
	flag.StringVar(&flagConfig.JWTSecret, "s", "", "JWT signing secret")
	flag.StringVar(&flagConfig.DeliveryFee, "f", "15", "Flat delivery fee per order")
	flag.UintVar(&flagConfig.NotifierWorkers, "w", 4, "Notification dispatcher workers") //nolint:mnd
	flag.UintVar(&flagConfig.NotifierQueueSize, "q", 256, "Notification queue size")     //nolint:mnd

	flag.Parse()
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	return &Config{
		RunAddress:        defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress),
		DatabaseDSN:       defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		MigrationsDir:     defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir),
		JWTSecret:         defaultIfBlank(envConfig.JWTSecret, flagsConfig.JWTSecret),
		DeliveryFee:       defaultIfBlank(envConfig.DeliveryFee, flagsConfig.DeliveryFee),
		NotifierWorkers:   defaultIfZero(envConfig.NotifierWorkers, flagsConfig.NotifierWorkers),
		NotifierQueueSize: defaultIfZero(envConfig.NotifierQueueSize, flagsConfig.NotifierQueueSize),
	}
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func defaultIfZero(value uint, defaultValue uint) uint {
	if value == 0 {
		return defaultValue
	}
	return value
}
