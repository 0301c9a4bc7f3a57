package devices_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ohrachov/plantmon/internal/devices"
	"github.com/ohrachov/plantmon/internal/errdefs"
)

// recordingLog collects appended actions in memory.
type recordingLog struct {
	mu      sync.Mutex
	actions []string
	fail    error
}

func (r *recordingLog) AppendLog(_ context.Context, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.actions = append(r.actions, action)
	return nil
}

func (r *recordingLog) entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.actions...)
}

// failingActuator rejects every operation.
type failingActuator struct{}

func (failingActuator) Water(context.Context, time.Duration) error {
	return errors.New("pump jammed")
}

func (failingActuator) Light(context.Context, bool) error {
	return errors.New("relay stuck")
}

var _ = Describe("Controller", func() {
	var (
		ctx        context.Context
		logger     *slog.Logger
		actions    *recordingLog
		controller *devices.Controller
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		actions = &recordingLog{}

		var err error
		controller, err = devices.NewController(&devices.ControllerConfig{
			Logger:   logger,
			Actions:  actions,
			Actuator: &devices.SimulatedActuator{},
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewController", func() {
		It("should return error when config is nil", func() {
			c, err := devices.NewController(nil)
			Expect(err).To(HaveOccurred())
			Expect(c).To(BeNil())
		})

		It("should return error when a dependency is missing", func() {
			c, err := devices.NewController(&devices.ControllerConfig{Logger: logger})
			Expect(err).To(HaveOccurred())
			Expect(c).To(BeNil())
		})
	})

	Describe("Water", func() {
		It("should append start and completion log entries", func() {
			Expect(controller.Water(ctx, 15)).To(Succeed())

			Expect(actions.entries()).To(Equal([]string{
				"Started watering plants for 15 minutes.",
				"Completed watering plants.",
			}))
		})

		It("should reject negative durations", func() {
			err := controller.Water(ctx, -1)
			Expect(errdefs.IsValidation(err)).To(BeTrue())
			Expect(actions.entries()).To(BeEmpty())
		})

		It("should surface actuator failures as provider errors", func() {
			c, err := devices.NewController(&devices.ControllerConfig{
				Logger:   logger,
				Actions:  actions,
				Actuator: failingActuator{},
			})
			Expect(err).NotTo(HaveOccurred())

			waterErr := c.Water(ctx, 5)
			Expect(errdefs.IsProvider(waterErr)).To(BeTrue())
			// The start was logged but the completion never happened.
			Expect(actions.entries()).To(Equal([]string{
				"Started watering plants for 5 minutes.",
			}))
		})
	})

	Describe("ControlLight", func() {
		It("should log the switch for valid actions", func() {
			Expect(controller.ControlLight(ctx, "on")).To(Succeed())
			Expect(controller.ControlLight(ctx, "off")).To(Succeed())

			Expect(actions.entries()).To(Equal([]string{
				"Lights turned on.",
				"Lights turned off.",
			}))
		})

		It("should reject invalid actions without logging", func() {
			err := controller.ControlLight(ctx, "invalid")
			Expect(errdefs.IsValidation(err)).To(BeTrue())
			Expect(actions.entries()).To(BeEmpty())
		})
	})

	Describe("SimulatedActuator", func() {
		It("should honor context cancellation while watering", func() {
			actuator := &devices.SimulatedActuator{PerMinute: time.Hour}

			cancelCtx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() {
				done <- actuator.Water(cancelCtx, 10*time.Minute)
			}()
			cancel()

			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})

		It("should return immediately with a zero scale", func() {
			actuator := &devices.SimulatedActuator{}
			Expect(actuator.Water(ctx, 10*time.Minute)).To(Succeed())
		})
	})
})
