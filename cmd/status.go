package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ohrachov/plantmon/internal/status"
	"github.com/ohrachov/plantmon/pkg/sensors"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current sensor readings",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	logger := GetLogger()

	provider, err := sensors.NewSimulated()
	if err != nil {
		return fmt.Errorf("failed to create sensor provider: %w", err)
	}

	aggregator, err := status.New(&status.Config{
		Logger:   logger,
		Provider: provider,
	})
	if err != nil {
		return err
	}

	if err := aggregator.Refresh(context.Background()); err != nil {
		return fmt.Errorf("failed to read sensors: %w", err)
	}

	snapshot := aggregator.Latest()
	fmt.Printf("Soil moisture: %.1f%%\n", snapshot.SoilMoisture)
	fmt.Printf("Light level: %.1f lux\n", snapshot.LightLevel)
	fmt.Printf("Temperature: %.1f°C\n", snapshot.Temperature)
	fmt.Printf("Humidity: %.1f%%\n", snapshot.Humidity)

	for _, tip := range GetThresholds().Advice(snapshot.Readings()) {
		fmt.Println(tip)
	}
	return nil
}
