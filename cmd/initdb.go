package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ohrachov/plantmon/internal/store"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the database and run migrations",
	RunE:  runInitDB,
}

func init() {
	rootCmd.AddCommand(initdbCmd)
}

func runInitDB(_ *cobra.Command, _ []string) error {
	path := viper.GetString("db.path")

	st, err := store.Open(&store.Config{
		Logger: GetLogger(),
		Path:   path,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer st.Close()

	fmt.Printf("Database initialized at %s.\n", path)
	return nil
}
