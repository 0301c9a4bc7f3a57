package store_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ohrachov/plantmon/internal/store"
)

var _ = Describe("Store", func() {
	var (
		ctx    context.Context
		logger *slog.Logger
		db     *store.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))

		var err error
		db, err = store.Open(&store.Config{Logger: logger, Path: ":memory:"})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("Open", func() {
		It("should return error when config is nil", func() {
			s, err := store.Open(nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("config cannot be nil"))
			Expect(s).To(BeNil())
		})

		It("should return error when logger is nil", func() {
			s, err := store.Open(&store.Config{Path: ":memory:"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger"))
			Expect(s).To(BeNil())
		})

		It("should return error when path is empty", func() {
			s, err := store.Open(&store.Config{Logger: logger})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("path"))
			Expect(s).To(BeNil())
		})

		It("should create a database file on disk", func() {
			path := filepath.Join(GinkgoT().TempDir(), "plants.db")
			s, err := store.Open(&store.Config{Logger: logger, Path: path})
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			_, statErr := os.Stat(path)
			Expect(statErr).NotTo(HaveOccurred())
		})
	})

	Describe("schedules", func() {
		It("should assign ids on insert", func() {
			id1, err := db.AddSchedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())
			id2, err := db.AddSchedule(ctx, store.DeviceLighting, "19:00", 0, "on")
			Expect(err).NotTo(HaveOccurred())

			Expect(id1).NotTo(BeZero())
			Expect(id2).NotTo(Equal(id1))
		})

		It("should return a schedule matching the input exactly once", func() {
			_, err := db.AddSchedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())

			entries, err := db.Schedules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Device).To(Equal(store.DeviceWatering))
			Expect(entries[0].TimeOfDay).To(Equal("08:00"))
			Expect(entries[0].Duration).To(Equal(15))
		})

		It("should sort ascending by time of day", func() {
			_, err := db.AddSchedule(ctx, store.DeviceLighting, "23:00", 0, "off")
			Expect(err).NotTo(HaveOccurred())
			_, err = db.AddSchedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())
			_, err = db.AddSchedule(ctx, store.DeviceLighting, "19:00", 0, "on")
			Expect(err).NotTo(HaveOccurred())

			entries, err := db.Schedules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(3))
			Expect(entries[0].TimeOfDay).To(Equal("08:00"))
			Expect(entries[1].TimeOfDay).To(Equal("19:00"))
			Expect(entries[2].TimeOfDay).To(Equal("23:00"))
		})

		It("should permit duplicate device and time rows", func() {
			_, err := db.AddSchedule(ctx, store.DeviceLighting, "19:00", 0, "on")
			Expect(err).NotTo(HaveOccurred())
			_, err = db.AddSchedule(ctx, store.DeviceLighting, "19:00", 0, "on")
			Expect(err).NotTo(HaveOccurred())

			entries, err := db.Schedules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
		})

		It("should delete by id", func() {
			id, err := db.AddSchedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(db.DeleteSchedule(ctx, id)).To(Succeed())

			entries, err := db.Schedules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("should treat deleting an unknown id as a no-op", func() {
			id, err := db.AddSchedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(db.DeleteSchedule(ctx, id+1000)).To(Succeed())

			entries, err := db.Schedules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})

		It("should delete everything on DeleteAllSchedules", func() {
			_, err := db.AddSchedule(ctx, store.DeviceWatering, "08:00", 15, "")
			Expect(err).NotTo(HaveOccurred())
			_, err = db.AddSchedule(ctx, store.DeviceLighting, "19:00", 0, "on")
			Expect(err).NotTo(HaveOccurred())

			Expect(db.DeleteAllSchedules(ctx)).To(Succeed())
			Expect(db.DeleteAllSchedules(ctx)).To(Succeed()) // idempotent

			entries, err := db.Schedules(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("action log", func() {
		It("should return entries most recent first", func() {
			Expect(db.AppendLog(ctx, "first")).To(Succeed())
			Expect(db.AppendLog(ctx, "second")).To(Succeed())
			Expect(db.AppendLog(ctx, "third")).To(Succeed())

			entries, err := db.RecentLogs(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(3))
			Expect(entries[0].Action).To(Equal("third"))
			Expect(entries[2].Action).To(Equal("first"))
		})

		It("should honor the limit", func() {
			for range 5 {
				Expect(db.AppendLog(ctx, "entry")).To(Succeed())
			}

			entries, err := db.RecentLogs(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
		})

		It("should truncate wholesale on ClearLogs", func() {
			Expect(db.AppendLog(ctx, "entry")).To(Succeed())
			Expect(db.ClearLogs(ctx)).To(Succeed())

			entries, err := db.RecentLogs(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("sensor readings", func() {
		It("should round-trip a reading", func() {
			reading := &store.SensorReading{
				SoilMoisture: 45,
				LightLevel:   300,
				Temperature:  25.5,
				Humidity:     60,
			}
			Expect(db.AddReading(ctx, reading)).To(Succeed())

			history, err := db.RecentReadings(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(1))
			Expect(history[0].SoilMoisture).To(Equal(45.0))
			Expect(history[0].Temperature).To(Equal(25.5))
		})

		It("should return most recent first with a limit", func() {
			for i := range 4 {
				Expect(db.AddReading(ctx, &store.SensorReading{SoilMoisture: float64(i)})).To(Succeed())
			}

			history, err := db.RecentReadings(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(2))
			Expect(history[0].SoilMoisture).To(Equal(3.0))
		})
	})
})
