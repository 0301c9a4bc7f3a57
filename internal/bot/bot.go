// Package bot exposes plant monitoring over a Telegram bot: status queries,
// manual control, scheduling and health checks.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/ohrachov/plantmon/internal/analysis"
	"github.com/ohrachov/plantmon/internal/errdefs"
	"github.com/ohrachov/plantmon/internal/status"
	"github.com/ohrachov/plantmon/internal/store"
	"github.com/ohrachov/plantmon/pkg/sensors"
)

// StatusProvider exposes the latest sensor snapshot.
type StatusProvider interface {
	Latest() *status.Snapshot
}

// Scheduler manages timed device actions.
type Scheduler interface {
	Schedule(ctx context.Context, device store.Device, timeOfDay string, durationMinutes int, action string) (uint, error)
	Cancel(ctx context.Context, id uint) error
	CancelAll(ctx context.Context) error
	Armed() []store.ScheduleEntry
}

// Controller runs device actions immediately.
type Controller interface {
	Water(ctx context.Context, durationMinutes int) error
	ControlLight(ctx context.Context, action string) error
}

// Analyzer runs the plant health check flow.
type Analyzer interface {
	Analyze(ctx context.Context) (*analysis.Result, error)
}

// LogReader reads recent action log entries.
type LogReader interface {
	RecentLogs(ctx context.Context, limit int) ([]store.ActionLogEntry, error)
}

// Bot is the Telegram front end.
type Bot struct {
	logger     *slog.Logger
	bot        *tele.Bot
	provider   StatusProvider
	scheduler  Scheduler
	controller Controller
	analyzer   Analyzer
	logs       LogReader
	thresholds sensors.Thresholds
}

// Config holds the configuration for the Bot.
type Config struct {
	Logger     *slog.Logger
	Provider   StatusProvider
	Scheduler  Scheduler
	Controller Controller
	Analyzer   Analyzer
	Logs       LogReader
	Token      string
	Thresholds sensors.Thresholds
	// Offline creates the bot without contacting the Telegram API.
	Offline bool
}

// New creates the Bot and registers its command handlers.
func New(cfg *Config) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("bot config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Token == "" {
		return nil, errors.New("bot token cannot be empty")
	}

	if cfg.Provider == nil {
		return nil, errors.New("status provider cannot be nil")
	}

	if cfg.Scheduler == nil {
		return nil, errors.New("scheduler cannot be nil")
	}

	if cfg.Controller == nil {
		return nil, errors.New("controller cannot be nil")
	}

	if cfg.Analyzer == nil {
		return nil, errors.New("analyzer cannot be nil")
	}

	if cfg.Logs == nil {
		return nil, errors.New("log reader cannot be nil")
	}

	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Poller:  &tele.LongPoller{Timeout: 10 * time.Second},
		Offline: cfg.Offline,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		logger:     cfg.Logger,
		bot:        b,
		provider:   cfg.Provider,
		scheduler:  cfg.Scheduler,
		controller: cfg.Controller,
		analyzer:   cfg.Analyzer,
		logs:       cfg.Logs,
		thresholds: cfg.Thresholds,
	}
	bot.registerHandlers()
	return bot, nil
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.HandleStart)
	b.bot.Handle("/status", b.HandleStatus)
	b.bot.Handle("/analyze", b.HandleAnalyze)
	b.bot.Handle("/water", b.HandleWater)
	b.bot.Handle("/light", b.HandleLight)
	b.bot.Handle("/schedule", b.HandleSchedule)
	b.bot.Handle("/schedules", b.HandleSchedules)
	b.bot.Handle("/cancel", b.HandleCancel)
	b.bot.Handle("/cancelall", b.HandleCancelAll)
	b.bot.Handle("/logs", b.HandleLogs)
}

// Run starts long polling and blocks until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("telegram bot starting")

	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()

	b.bot.Start()
	b.logger.Info("telegram bot stopped")
	return nil
}

// Sender returns the underlying bot for use as a notification sender.
func (b *Bot) Sender() *tele.Bot { return b.bot }

// HandleStart replies with the command overview.
func (b *Bot) HandleStart(c tele.Context) error {
	return c.Send("Plant monitor ready.\n" +
		"/status - current sensor readings\n" +
		"/analyze - run a plant health check\n" +
		"/water <minutes> - water now\n" +
		"/light <on|off> - switch the lights\n" +
		"/schedule <watering|lighting> <HH:MM> <minutes|on|off> - add a schedule\n" +
		"/schedules - list schedules\n" +
		"/cancel <id> - cancel one schedule\n" +
		"/cancelall - cancel all schedules\n" +
		"/logs - recent actions")
}

// HandleStatus replies with the latest snapshot and any advice.
func (b *Bot) HandleStatus(c tele.Context) error {
	snapshot := b.provider.Latest()
	if snapshot == nil {
		return c.Send("No sensor data available yet. Try again shortly.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Plant status (as of %s):\n", snapshot.CapturedAt.Format("15:04:05"))
	fmt.Fprintf(&sb, "Soil moisture: %.1f%%\n", snapshot.SoilMoisture)
	fmt.Fprintf(&sb, "Light level: %.1f lux\n", snapshot.LightLevel)
	fmt.Fprintf(&sb, "Temperature: %.1f°C\n", snapshot.Temperature)
	fmt.Fprintf(&sb, "Humidity: %.1f%%", snapshot.Humidity)

	for _, tip := range b.thresholds.Advice(snapshot.Readings()) {
		sb.WriteString("\n⚠️ " + tip)
	}

	return c.Send(sb.String())
}

// HandleAnalyze runs a health check and replies with the prediction.
func (b *Bot) HandleAnalyze(c tele.Context) error {
	result, err := b.analyzer.Analyze(context.Background())
	if err != nil {
		b.logger.Error("analysis failed", "error", err)
		return c.Send("Plant analysis failed. Check the service logs.")
	}

	return c.Send(fmt.Sprintf("Plant analysis: %s (%.1f%% confidence).", result.Label, result.Confidence*100))
}

// HandleWater waters immediately for the requested number of minutes.
func (b *Bot) HandleWater(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /water <minutes>")
	}

	minutes, err := strconv.Atoi(args[0])
	if err != nil || minutes <= 0 {
		return c.Send("Minutes must be a positive number.")
	}

	if err := b.controller.Water(context.Background(), minutes); err != nil {
		b.logger.Error("watering failed", "error", err)
		return c.Send("Watering failed. Check the service logs.")
	}

	return c.Send(fmt.Sprintf("Watered plants for %d minutes.", minutes))
}

// HandleLight switches the lights on or off.
func (b *Bot) HandleLight(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /light <on|off>")
	}

	action := strings.ToLower(args[0])
	if err := b.controller.ControlLight(context.Background(), action); err != nil {
		if errdefs.IsValidation(err) {
			return c.Send("Usage: /light <on|off>")
		}
		b.logger.Error("light control failed", "error", err)
		return c.Send("Light control failed. Check the service logs.")
	}

	return c.Send(fmt.Sprintf("Lights turned %s.", action))
}

// HandleSchedule adds one schedule.
func (b *Bot) HandleSchedule(c tele.Context) error {
	const usage = "Usage: /schedule <watering|lighting> <HH:MM> <minutes|on|off>"

	args := c.Args()
	if len(args) != 3 {
		return c.Send(usage)
	}

	device := store.Device(strings.ToLower(args[0]))
	timeOfDay := args[1]

	var (
		minutes int
		action  string
	)
	switch device {
	case store.DeviceWatering:
		parsed, err := strconv.Atoi(args[2])
		if err != nil || parsed <= 0 {
			return c.Send("Minutes must be a positive number.")
		}
		minutes = parsed
	case store.DeviceLighting:
		action = strings.ToLower(args[2])
	default:
		return c.Send(usage)
	}

	id, err := b.scheduler.Schedule(context.Background(), device, timeOfDay, minutes, action)
	if err != nil {
		if errdefs.IsValidation(err) {
			return c.Send(usage)
		}
		b.logger.Error("failed to add schedule", "error", err)
		return c.Send("Failed to add the schedule. Check the service logs.")
	}

	return c.Send(fmt.Sprintf("Schedule %d added: %s at %s daily.", id, device, timeOfDay))
}

// HandleSchedules lists the armed schedules.
func (b *Bot) HandleSchedules(c tele.Context) error {
	entries := b.scheduler.Armed()
	if len(entries) == 0 {
		return c.Send("No schedules configured.")
	}

	var sb strings.Builder
	sb.WriteString("Schedules:")
	for _, entry := range entries {
		fmt.Fprintf(&sb, "\n#%d %s at %s daily", entry.ID, entry.Device, entry.TimeOfDay)
		if entry.Device == store.DeviceWatering {
			fmt.Fprintf(&sb, " for %d minutes", entry.Duration)
		} else {
			fmt.Fprintf(&sb, " (%s)", entry.Action)
		}
	}
	return c.Send(sb.String())
}

// HandleCancel cancels one schedule by id.
func (b *Bot) HandleCancel(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /cancel <id>")
	}

	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return c.Send("Schedule id must be a number.")
	}

	if err := b.scheduler.Cancel(context.Background(), uint(id)); err != nil {
		b.logger.Error("failed to cancel schedule", "id", id, "error", err)
		return c.Send("Failed to cancel the schedule. Check the service logs.")
	}

	return c.Send(fmt.Sprintf("Schedule %d canceled.", id))
}

// HandleCancelAll cancels every schedule.
func (b *Bot) HandleCancelAll(c tele.Context) error {
	if err := b.scheduler.CancelAll(context.Background()); err != nil {
		b.logger.Error("failed to cancel schedules", "error", err)
		return c.Send("Failed to cancel schedules. Check the service logs.")
	}
	return c.Send("All schedules canceled.")
}

// HandleLogs replies with the most recent action log entries.
func (b *Bot) HandleLogs(c tele.Context) error {
	entries, err := b.logs.RecentLogs(context.Background(), 10)
	if err != nil {
		b.logger.Error("failed to read action log", "error", err)
		return c.Send("Failed to read the action log. Check the service logs.")
	}

	if len(entries) == 0 {
		return c.Send("No actions recorded yet.")
	}

	var sb strings.Builder
	sb.WriteString("Recent actions:")
	for _, entry := range entries {
		fmt.Fprintf(&sb, "\n%s %s", entry.Timestamp.Format("01-02 15:04"), entry.Action)
	}
	return c.Send(sb.String())
}
