package scheduler_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"
	_ "time/tzdata"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ohrachov/plantmon/internal/errdefs"
	"github.com/ohrachov/plantmon/internal/scheduler"
	"github.com/ohrachov/plantmon/internal/store"
)

// fakeClock is adjustable wall time for driving the polling loop by hand.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// fakeController records dispatched device actions.
type fakeController struct {
	mu         sync.Mutex
	waterCalls []int
	lightCalls []string
	failWater  error
}

func (f *fakeController) Water(_ context.Context, durationMinutes int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWater != nil {
		return f.failWater
	}
	f.waterCalls = append(f.waterCalls, durationMinutes)
	return nil
}

func (f *fakeController) ControlLight(_ context.Context, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lightCalls = append(f.lightCalls, action)
	return nil
}

func (f *fakeController) waterings() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.waterCalls...)
}

func (f *fakeController) lightings() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lightCalls...)
}

var _ = Describe("Scheduler", func() {
	var (
		ctx        context.Context
		logger     *slog.Logger
		db         *store.Store
		clock      *fakeClock
		controller *fakeController
		sched      *scheduler.Scheduler
	)

	// A fixed morning; schedules for "08:00" are in the future.
	morning := time.Date(2026, time.March, 10, 7, 59, 0, 0, time.Local)

	newScheduler := func() *scheduler.Scheduler {
		s, err := scheduler.New(&scheduler.Config{
			Logger:     logger,
			Store:      db,
			Controller: controller,
			Now:        clock.Now,
		})
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))

		var err error
		db, err = store.Open(&store.Config{Logger: logger, Path: ":memory:"})
		Expect(err).NotTo(HaveOccurred())

		clock = newFakeClock(morning)
		controller = &fakeController{}
		sched = newScheduler()
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("New", func() {
		It("should return error when config is nil", func() {
			s, err := scheduler.New(nil)
			Expect(err).To(HaveOccurred())
			Expect(s).To(BeNil())
		})

		It("should return error when controller is nil", func() {
			s, err := scheduler.New(&scheduler.Config{Logger: logger, Store: db})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("controller"))
			Expect(s).To(BeNil())
		})
	})

	Describe("Schedule", func() {
		It("should persist and arm a watering schedule", func() {
			id, err := sched.Schedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).NotTo(BeZero())

			entries, err := db.Schedules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Device).To(Equal(store.DeviceWatering))
			Expect(entries[0].TimeOfDay).To(Equal("08:00"))
			Expect(entries[0].Duration).To(Equal(15))

			Expect(sched.ArmedCount()).To(Equal(1))
		})

		It("should zero the duration for lighting schedules", func() {
			_, err := sched.Schedule(ctx, store.DeviceLighting, "19:00", 42, "on")
			Expect(err).NotTo(HaveOccurred())

			entries, err := db.Schedules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries[0].Duration).To(BeZero())
			Expect(entries[0].Action).To(Equal("on"))
		})

		It("should reject an unknown device", func() {
			_, err := sched.Schedule(ctx, "fan", "08:00", 0, "")
			Expect(errdefs.IsValidation(err)).To(BeTrue())
			Expect(sched.ArmedCount()).To(BeZero())
		})

		It("should reject a malformed time of day", func() {
			_, err := sched.Schedule(ctx, store.DeviceWatering, "8 o'clock", 15, "")
			Expect(errdefs.IsValidation(err)).To(BeTrue())

			entries, serr := db.Schedules(ctx)
			Expect(serr).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("should reject a lighting schedule without a valid action", func() {
			_, err := sched.Schedule(ctx, store.DeviceLighting, "19:00", 0, "strobe")
			Expect(errdefs.IsValidation(err)).To(BeTrue())
		})
	})

	Describe("firing", func() {
		It("should fire a watering schedule at its time and log both entries", func() {
			_, err := sched.Schedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())

			sched.RunPending(ctx)
			Consistently(controller.waterings).Should(BeEmpty())

			clock.Set(morning.Add(time.Minute)) // 08:00
			sched.RunPending(ctx)

			Eventually(controller.waterings).Should(Equal([]int{15}))
		})

		It("should re-arm for the next day after firing", func() {
			_, err := sched.Schedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())

			clock.Set(morning.Add(time.Minute))
			sched.RunPending(ctx)
			Eventually(controller.waterings).Should(HaveLen(1))

			// Later the same day: nothing more.
			clock.Set(morning.Add(3 * time.Hour))
			sched.RunPending(ctx)
			Consistently(controller.waterings).Should(HaveLen(1))

			// Next day at 08:00: fires again.
			clock.Set(morning.Add(24*time.Hour + time.Minute))
			sched.RunPending(ctx)
			Eventually(controller.waterings).Should(Equal([]int{15, 15}))
		})

		It("should fire duplicate schedules independently", func() {
			_, err := sched.Schedule(ctx, store.DeviceLighting, "19:00", 0, "on")
			Expect(err).NotTo(HaveOccurred())
			_, err = sched.Schedule(ctx, store.DeviceLighting, "19:00", 0, "on")
			Expect(err).NotTo(HaveOccurred())

			clock.Set(time.Date(2026, time.March, 10, 19, 0, 0, 0, time.Local))
			sched.RunPending(ctx)

			Eventually(controller.lightings).Should(Equal([]string{"on", "on"}))
		})

		It("should re-arm on wall-clock time across a DST transition", func() {
			loc, err := time.LoadLocation("America/New_York")
			Expect(err).NotTo(HaveOccurred())

			// The Saturday before the US spring-forward (2026-03-08 02:00).
			clock.Set(time.Date(2026, time.March, 7, 7, 0, 0, 0, loc))
			_, err = sched.Schedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())

			clock.Set(time.Date(2026, time.March, 7, 8, 0, 30, 0, loc))
			sched.RunPending(ctx)
			Eventually(controller.waterings).Should(HaveLen(1))

			// Sunday 08:00 EDT is only 23 elapsed hours later; the timer
			// must still fire at 08:00 on the clock.
			clock.Set(time.Date(2026, time.March, 8, 8, 0, 30, 0, loc))
			sched.RunPending(ctx)
			Eventually(controller.waterings).Should(HaveLen(2))
		})

		It("should fire once and re-arm in the future after a stall of several days", func() {
			_, err := sched.Schedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())

			clock.Set(morning.Add(time.Minute))
			sched.RunPending(ctx)
			Eventually(controller.waterings).Should(HaveLen(1))

			// Three days without a poll. The missed days collapse into one
			// firing and the timer lands back in the future.
			clock.Set(morning.Add(72*time.Hour - time.Hour))
			sched.RunPending(ctx)
			Eventually(controller.waterings).Should(HaveLen(2))

			sched.RunPending(ctx)
			Consistently(controller.waterings).Should(HaveLen(2))
		})

		It("should keep a failing schedule armed for the next day", func() {
			_, err := sched.Schedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())

			controller.mu.Lock()
			controller.failWater = errors.New("pump jammed")
			controller.mu.Unlock()

			clock.Set(morning.Add(time.Minute))
			sched.RunPending(ctx)
			Consistently(controller.waterings).Should(BeEmpty())
			Expect(sched.ArmedCount()).To(Equal(1))

			controller.mu.Lock()
			controller.failWater = nil
			controller.mu.Unlock()

			clock.Set(morning.Add(24*time.Hour + time.Minute))
			sched.RunPending(ctx)
			Eventually(controller.waterings).Should(Equal([]int{15}))
		})
	})

	Describe("Cancel", func() {
		It("should disarm the timer and delete the row", func() {
			id, err := sched.Schedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(sched.Cancel(ctx, id)).To(Succeed())
			Expect(sched.ArmedCount()).To(BeZero())

			entries, err := db.Schedules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())

			clock.Set(morning.Add(time.Minute))
			sched.RunPending(ctx)
			Consistently(controller.waterings).Should(BeEmpty())
		})

		It("should treat an unknown id as a no-op", func() {
			_, err := sched.Schedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(sched.Cancel(ctx, 9999)).To(Succeed())
			Expect(sched.ArmedCount()).To(Equal(1))
		})
	})

	Describe("CancelAll", func() {
		It("should leave no armed timers and no rows, and log once", func() {
			_, err := sched.Schedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())
			_, err = sched.Schedule(ctx, store.DeviceLighting, "19:00", 0, "on")
			Expect(err).NotTo(HaveOccurred())

			Expect(sched.CancelAll(ctx)).To(Succeed())

			Expect(sched.ArmedCount()).To(BeZero())
			entries, err := db.Schedules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())

			logs, err := db.RecentLogs(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].Action).To(Equal("All schedules canceled."))
		})

		It("should be idempotent", func() {
			_, err := sched.Schedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(sched.CancelAll(ctx)).To(Succeed())
			Expect(sched.CancelAll(ctx)).To(Succeed())

			Expect(sched.ArmedCount()).To(BeZero())
			entries, err := db.Schedules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("concurrent use", func() {
		It("should keep the timer table and store consistent under concurrent callers", func() {
			var wg sync.WaitGroup

			for range 4 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					for range 20 {
						_, err := sched.Schedule(ctx, store.DeviceWatering, "08:00", 5, "")
						Expect(err).NotTo(HaveOccurred())
					}
				}()
			}

			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for range 20 {
					clock.Set(clock.Now().Add(time.Hour))
					sched.RunPending(ctx)
				}
			}()

			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for range 10 {
					sched.Armed()
					Expect(sched.CancelAll(ctx)).To(Succeed())
				}
			}()

			wg.Wait()

			Expect(sched.CancelAll(ctx)).To(Succeed())
			Expect(sched.ArmedCount()).To(BeZero())

			entries, err := db.Schedules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())

			clock.Set(clock.Now().Add(48 * time.Hour))
			sched.RunPending(ctx)
			Consistently(sched.ArmedCount).Should(BeZero())
		})
	})

	Describe("Reload", func() {
		It("should reproduce the armed-timer set across a restart", func() {
			_, err := sched.Schedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())
			_, err = sched.Schedule(ctx, store.DeviceLighting, "19:00", 0, "off")
			Expect(err).NotTo(HaveOccurred())

			restarted := newScheduler()
			Expect(restarted.Reload(ctx)).To(Succeed())
			Expect(restarted.ArmedCount()).To(Equal(2))

			// The reloaded lighting schedule still knows its action.
			clock.Set(time.Date(2026, time.March, 10, 19, 0, 0, 0, time.Local))
			restarted.RunPending(ctx)
			Eventually(controller.lightings).Should(Equal([]string{"off"}))
		})
	})

	Describe("Run", func() {
		It("should dispatch due timers from the polling loop and stop on cancel", func() {
			s, err := scheduler.New(&scheduler.Config{
				Logger:       logger,
				Store:        db,
				Controller:   controller,
				Now:          clock.Now,
				PollInterval: 5 * time.Millisecond,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Schedule(ctx, store.DeviceWatering, "08:00", 10, "")
			Expect(err).NotTo(HaveOccurred())

			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() {
				done <- s.Run(runCtx)
			}()

			clock.Set(morning.Add(time.Minute))
			Eventually(controller.waterings).Should(Equal([]int{10}))

			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})
	})
})
