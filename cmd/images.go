package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ohrachov/plantmon/internal/camera"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Manage captured plant images",
}

var imagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List captured plant images",
	RunE:  runImagesList,
}

var imagesCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete captured images older than the retention period",
	RunE:  runImagesCleanup,
}

func init() {
	rootCmd.AddCommand(imagesCmd)
	imagesCmd.AddCommand(imagesListCmd)
	imagesCmd.AddCommand(imagesCleanupCmd)

	imagesCmd.PersistentFlags().String("images-dir", "images", "directory for captured plant images")
	_ = viper.BindPFlag("images.dir", imagesCmd.PersistentFlags().Lookup("images-dir"))

	imagesCleanupCmd.Flags().Duration("older-than", 7*24*time.Hour, "delete images older than this age")
	_ = viper.BindPFlag("images.older_than", imagesCleanupCmd.Flags().Lookup("older-than"))
}

func openCamera(ctx context.Context) (*camera.Camera, error) {
	cam, err := camera.New(&camera.Config{
		Logger: GetLogger(),
		Dir:    viper.GetString("images.dir"),
	})
	if err != nil {
		return nil, err
	}
	if err := cam.Setup(ctx); err != nil {
		return nil, err
	}
	return cam, nil
}

func runImagesList(_ *cobra.Command, _ []string) error {
	cam, err := openCamera(context.Background())
	if err != nil {
		return err
	}

	images, err := cam.List()
	if err != nil {
		return err
	}
	if len(images) == 0 {
		fmt.Println("No captured images.")
		return nil
	}
	for _, name := range images {
		fmt.Println(name)
	}
	return nil
}

func runImagesCleanup(_ *cobra.Command, _ []string) error {
	cam, err := openCamera(context.Background())
	if err != nil {
		return err
	}

	deleted, err := cam.CleanupOlderThan(viper.GetDuration("images.older_than"))
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d image(s).\n", deleted)
	return nil
}
