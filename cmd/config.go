package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/ohrachov/plantmon/pkg/logger"
	"github.com/ohrachov/plantmon/pkg/sensors"
)

// InitConfig initializes Viper configuration.
// It supports reading from config files (config.yaml) and environment variables.
func InitConfig(cfgFile string) error {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory and /etc/plantmon/
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/plantmon/")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Environment variables
	viper.SetEnvPrefix("PLANTMON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Healthy sensor bands, overridable per sensor
	defaults := sensors.DefaultThresholds()
	viper.SetDefault("thresholds.soil_moisture.min", defaults.SoilMoisture.Min)
	viper.SetDefault("thresholds.soil_moisture.max", defaults.SoilMoisture.Max)
	viper.SetDefault("thresholds.light_level.min", defaults.LightLevel.Min)
	viper.SetDefault("thresholds.light_level.max", defaults.LightLevel.Max)
	viper.SetDefault("thresholds.temperature.min", defaults.Temperature.Min)
	viper.SetDefault("thresholds.temperature.max", defaults.Temperature.Max)
	viper.SetDefault("thresholds.humidity.min", defaults.Humidity.Min)
	viper.SetDefault("thresholds.humidity.max", defaults.Humidity.Max)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		var configNotFoundErr viper.ConfigFileNotFoundError
		if errors.As(err, &configNotFoundErr) {
			// Config file not found; rely on env vars and defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// GetThresholds builds the sensor thresholds from configuration.
func GetThresholds() sensors.Thresholds {
	return sensors.Thresholds{
		SoilMoisture: sensors.Range{
			Min: viper.GetFloat64("thresholds.soil_moisture.min"),
			Max: viper.GetFloat64("thresholds.soil_moisture.max"),
		},
		LightLevel: sensors.Range{
			Min: viper.GetFloat64("thresholds.light_level.min"),
			Max: viper.GetFloat64("thresholds.light_level.max"),
		},
		Temperature: sensors.Range{
			Min: viper.GetFloat64("thresholds.temperature.min"),
			Max: viper.GetFloat64("thresholds.temperature.max"),
		},
		Humidity: sensors.Range{
			Min: viper.GetFloat64("thresholds.humidity.min"),
			Max: viper.GetFloat64("thresholds.humidity.max"),
		},
	}
}

// GetLogger creates a slog.Logger based on configuration.
func GetLogger() *slog.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.ParseLevel(viper.GetString("log.level"))
	if viper.GetString("log.format") == "text" {
		cfg.Format = logger.FormatText
	}
	return logger.New(cfg)
}
