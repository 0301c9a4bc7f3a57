package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ohrachov/plantmon/internal/devices"
	"github.com/ohrachov/plantmon/internal/scheduler"
	"github.com/ohrachov/plantmon/internal/store"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage watering and lighting schedules",
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add <watering|lighting> <HH:MM> <minutes|on|off>",
	Short: "Add a daily schedule",
	Args:  cobra.ExactArgs(3),
	RunE:  runScheduleAdd,
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured schedules",
	RunE:  runScheduleList,
}

var scheduleCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel one schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleCancel,
}

var scheduleCancelAllCmd = &cobra.Command{
	Use:   "cancel-all",
	Short: "Cancel all schedules",
	RunE:  runScheduleCancelAll,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleCancelCmd)
	scheduleCmd.AddCommand(scheduleCancelAllCmd)
}

// openScheduler opens the store and builds a scheduler over it for one-shot
// CLI operations. The caller must Close the returned store.
func openScheduler() (*store.Store, *scheduler.Scheduler, error) {
	logger := GetLogger()

	st, err := store.Open(&store.Config{
		Logger: logger,
		Path:   viper.GetString("db.path"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	controller, err := devices.NewController(&devices.ControllerConfig{
		Logger:   logger,
		Actions:  st,
		Actuator: &devices.SimulatedActuator{},
	})
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	sched, err := scheduler.New(&scheduler.Config{
		Logger:     logger,
		Store:      st,
		Controller: controller,
	})
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	return st, sched, nil
}

func runScheduleAdd(_ *cobra.Command, args []string) error {
	device := store.Device(args[0])
	timeOfDay := args[1]

	var (
		minutes int
		action  string
	)
	switch device {
	case store.DeviceWatering:
		parsed, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("minutes must be a number: %q", args[2])
		}
		minutes = parsed
	case store.DeviceLighting:
		action = args[2]
	default:
		return fmt.Errorf("unknown device %q (use watering or lighting)", args[0])
	}

	st, sched, err := openScheduler()
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := sched.Schedule(context.Background(), device, timeOfDay, minutes, action)
	if err != nil {
		return err
	}

	fmt.Printf("Schedule %d added: %s at %s daily.\n", id, device, timeOfDay)
	return nil
}

func runScheduleList(_ *cobra.Command, _ []string) error {
	st, _, err := openScheduler()
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.Schedules(context.Background())
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No schedules configured.")
		return nil
	}

	for _, entry := range entries {
		if entry.Device == store.DeviceWatering {
			fmt.Printf("#%d %s at %s daily for %d minutes\n", entry.ID, entry.Device, entry.TimeOfDay, entry.Duration)
		} else {
			fmt.Printf("#%d %s at %s daily (%s)\n", entry.ID, entry.Device, entry.TimeOfDay, entry.Action)
		}
	}
	return nil
}

func runScheduleCancel(_ *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("schedule id must be a number: %q", args[0])
	}

	st, sched, err := openScheduler()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := sched.Cancel(context.Background(), uint(id)); err != nil {
		return err
	}

	fmt.Printf("Schedule %d canceled.\n", id)
	return nil
}

func runScheduleCancelAll(_ *cobra.Command, _ []string) error {
	st, sched, err := openScheduler()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := sched.CancelAll(context.Background()); err != nil {
		return err
	}

	fmt.Println("All schedules canceled.")
	return nil
}
