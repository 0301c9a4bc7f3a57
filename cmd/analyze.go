package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ohrachov/plantmon/internal/analysis"
	"github.com/ohrachov/plantmon/internal/camera"
	"github.com/ohrachov/plantmon/internal/store"
	"github.com/ohrachov/plantmon/internal/vision"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a plant health check",
	Long: `Capture a simulated plant image, classify it and record the
result in the action log.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("images-dir", "images", "directory for captured plant images")
	_ = viper.BindPFlag("analyze.images_dir", analyzeCmd.Flags().Lookup("images-dir"))
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	logger := GetLogger()
	ctx := context.Background()

	st, err := store.Open(&store.Config{
		Logger: logger,
		Path:   viper.GetString("db.path"),
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	cam, err := camera.New(&camera.Config{
		Logger: logger,
		Dir:    viper.GetString("analyze.images_dir"),
	})
	if err != nil {
		return err
	}
	if err := cam.Setup(ctx); err != nil {
		return err
	}

	classifier, err := vision.New(&vision.Config{Logger: logger})
	if err != nil {
		return err
	}
	if err := classifier.Load(ctx); err != nil {
		return err
	}

	analyzer, err := analysis.New(&analysis.Config{
		Logger:     logger,
		Camera:     cam,
		Classifier: classifier,
		Actions:    st,
	})
	if err != nil {
		return err
	}

	result, err := analyzer.Analyze(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Image: %s\n", result.ImagePath)
	fmt.Printf("Condition: %s (%.1f%% confidence)\n", result.Label, result.Confidence*100)

	labels := make([]string, 0, len(result.Probabilities))
	for label := range result.Probabilities {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return result.Probabilities[labels[i]] > result.Probabilities[labels[j]]
	})
	for _, label := range labels {
		fmt.Printf("  %-12s %5.1f%%\n", label, result.Probabilities[label]*100)
	}
	return nil
}
