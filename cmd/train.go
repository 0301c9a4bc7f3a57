package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ohrachov/plantmon/internal/vision"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run a simulated classifier training pass",
	RunE:  runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().Int("epochs", 10, "number of training epochs")
	_ = viper.BindPFlag("train.epochs", trainCmd.Flags().Lookup("epochs"))
}

func runTrain(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	classifier, err := vision.New(&vision.Config{Logger: GetLogger()})
	if err != nil {
		return err
	}

	report, err := classifier.Train(ctx, viper.GetInt("train.epochs"))
	if err != nil {
		return err
	}

	accuracy, err := classifier.Evaluate(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Trained %d epochs, final loss %.4f.\n", report.Epochs, report.FinalLoss)
	fmt.Printf("Evaluation accuracy: %.1f%%\n", accuracy*100)
	return nil
}
