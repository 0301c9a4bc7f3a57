package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ohrachov/plantmon/internal/monitor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the plant monitoring service",
	Long: `Run the plant monitoring service that:
- Refreshes simulated sensor readings on a fixed interval
- Fires watering and lighting schedules
- Serves the web dashboard and JSON API
- Optionally runs a Telegram bot and publishes events to RabbitMQ`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Serve-specific flags
	serveCmd.Flags().String("listen-addr", ":8080", "web server listen address")
	serveCmd.Flags().String("images-dir", "images", "directory for captured plant images")
	serveCmd.Flags().Duration("refresh-interval", 60*time.Second, "sensor refresh interval")
	serveCmd.Flags().Duration("poll-interval", time.Second, "schedule poll interval")
	serveCmd.Flags().Duration("watering-scale", 0, "wall time per scheduled watering minute (0 waters instantly)")
	serveCmd.Flags().String("rabbitmq-url", "", "RabbitMQ URL (empty disables event publishing)")
	serveCmd.Flags().String("queue-name", "plant-events", "RabbitMQ queue name for plant events")
	serveCmd.Flags().String("telegram-token", "", "Telegram bot token (empty disables the bot)")
	serveCmd.Flags().Int64("telegram-chat-id", 0, "Telegram chat for push alerts (0 disables pushes)")
	serveCmd.Flags().Bool("metrics", true, "enable Prometheus metrics")

	// Bind flags to viper
	_ = viper.BindPFlag("serve.listen_addr", serveCmd.Flags().Lookup("listen-addr"))
	_ = viper.BindPFlag("serve.images_dir", serveCmd.Flags().Lookup("images-dir"))
	_ = viper.BindPFlag("serve.refresh_interval", serveCmd.Flags().Lookup("refresh-interval"))
	_ = viper.BindPFlag("serve.poll_interval", serveCmd.Flags().Lookup("poll-interval"))
	_ = viper.BindPFlag("serve.watering_scale", serveCmd.Flags().Lookup("watering-scale"))
	_ = viper.BindPFlag("serve.rabbitmq.url", serveCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("serve.rabbitmq.queue_name", serveCmd.Flags().Lookup("queue-name"))
	_ = viper.BindPFlag("serve.telegram.token", serveCmd.Flags().Lookup("telegram-token"))
	_ = viper.BindPFlag("serve.telegram.chat_id", serveCmd.Flags().Lookup("telegram-chat-id"))
	_ = viper.BindPFlag("serve.metrics", serveCmd.Flags().Lookup("metrics"))
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := GetLogger()
	logger.Info("starting plant monitoring service")

	queueName := viper.GetString("serve.rabbitmq.queue_name")
	if viper.GetString("serve.rabbitmq.url") == "" {
		queueName = ""
	}

	config := &monitor.Config{
		Logger:          logger,
		DBPath:          viper.GetString("db.path"),
		ListenAddr:      viper.GetString("serve.listen_addr"),
		ImagesDir:       viper.GetString("serve.images_dir"),
		RefreshInterval: viper.GetDuration("serve.refresh_interval"),
		PollInterval:    viper.GetDuration("serve.poll_interval"),
		WateringScale:   viper.GetDuration("serve.watering_scale"),
		AMQPURL:         viper.GetString("serve.rabbitmq.url"),
		QueueName:       queueName,
		TelegramToken:   viper.GetString("serve.telegram.token"),
		TelegramChatID:  viper.GetInt64("serve.telegram.chat_id"),
		Thresholds:      GetThresholds(),
		Metrics:         viper.GetBool("serve.metrics"),
	}

	system, err := monitor.New(config)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		return err
	}

	logger.Info("service configuration",
		"db_path", config.DBPath,
		"listen_addr", config.ListenAddr,
		"refresh_interval", config.RefreshInterval,
		"poll_interval", config.PollInterval,
		"rabbitmq", config.AMQPURL != "",
		"telegram", config.TelegramToken != "",
	)

	if err := system.Run(context.Background()); err != nil {
		logger.Error("service error", "error", err)
		return err
	}

	logger.Info("service stopped")
	return nil
}
