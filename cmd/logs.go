package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ohrachov/plantmon/internal/store"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent actions",
	RunE:  runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().Int("limit", 20, "maximum number of entries to show")
	logsCmd.Flags().Bool("clear", false, "clear the action log instead of showing it")
	_ = viper.BindPFlag("logs.limit", logsCmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("logs.clear", logsCmd.Flags().Lookup("clear"))
}

func runLogs(_ *cobra.Command, _ []string) error {
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

	if viper.GetBool("logs.clear") {
		if err := st.ClearLogs(ctx); err != nil {
			return err
		}
		fmt.Println("Action log cleared.")
		return nil
	}

	entries, err := st.RecentLogs(ctx, viper.GetInt("logs.limit"))
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No actions recorded yet.")
		return nil
	}

	for _, entry := range entries {
		fmt.Printf("%s  %s\n", entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Action)
	}
	return nil
}
