package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ohrachov/plantmon/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		Context("with nil config", func() {
			It("should create a non-nil logger with defaults", func() {
				log := logger.New(nil)
				Expect(log).NotTo(BeNil())
			})
		})

		Context("with JSON format", func() {
			It("should emit parseable JSON records", func() {
				buf := &bytes.Buffer{}
				log := logger.New(&logger.Config{Output: buf, Format: logger.FormatJSON})

				log.Info("watering started", "duration_minutes", 15)

				var entry map[string]interface{}
				Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
				Expect(entry).To(HaveKeyWithValue("msg", "watering started"))
				Expect(entry).To(HaveKeyWithValue("duration_minutes", float64(15)))
			})
		})

		Context("with text format", func() {
			It("should emit key=value records", func() {
				buf := &bytes.Buffer{}
				log := logger.New(&logger.Config{Output: buf, Format: logger.FormatText})

				log.Info("lights on")

				Expect(buf.String()).To(ContainSubstring(`msg="lights on"`))
			})
		})

		Context("with a minimum level", func() {
			It("should drop records below the level", func() {
				buf := &bytes.Buffer{}
				log := logger.New(&logger.Config{Output: buf, Level: slog.LevelWarn})

				log.Info("suppressed")
				log.Warn("kept")

				Expect(buf.String()).NotTo(ContainSubstring("suppressed"))
				Expect(buf.String()).To(ContainSubstring("kept"))
			})
		})
	})

	Describe("ForComponent", func() {
		It("should attach a component attribute to every record", func() {
			buf := &bytes.Buffer{}
			log := logger.ForComponent(logger.New(&logger.Config{Output: buf}), "scheduler")

			log.Info("armed")

			var entry map[string]interface{}
			Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
			Expect(entry).To(HaveKeyWithValue("component", "scheduler"))
		})

		It("should tolerate a nil parent logger", func() {
			Expect(logger.ForComponent(nil, "web")).NotTo(BeNil())
		})
	})

	Describe("ParseLevel", func() {
		DescribeTable("should parse level strings correctly",
			func(input string, expected slog.Level) {
				Expect(logger.ParseLevel(input)).To(Equal(expected))
			},
			Entry("debug", "debug", slog.LevelDebug),
			Entry("info", "info", slog.LevelInfo),
			Entry("warn", "warn", slog.LevelWarn),
			Entry("warning", "warning", slog.LevelWarn),
			Entry("error", "error", slog.LevelError),
			Entry("invalid defaults to info", "invalid", slog.LevelInfo),
			Entry("empty string defaults to info", "", slog.LevelInfo),
		)
	})

	Describe("DefaultConfig", func() {
		It("should default to info-level JSON", func() {
			cfg := logger.DefaultConfig()
			Expect(cfg.Level).To(Equal(slog.LevelInfo))
			Expect(cfg.Format).To(Equal(logger.FormatJSON))
			Expect(cfg.AddSource).To(BeFalse())
		})
	})

	Describe("record shape", func() {
		It("should include time, level and msg keys", func() {
			buf := &bytes.Buffer{}
			log := logger.New(&logger.Config{Output: buf})

			log.Info("snapshot published")

			line := strings.TrimSpace(buf.String())
			var entry map[string]interface{}
			Expect(json.Unmarshal([]byte(line), &entry)).To(Succeed())
			Expect(entry).To(HaveKey("time"))
			Expect(entry).To(HaveKeyWithValue("level", "INFO"))
			Expect(entry).To(HaveKey("msg"))
		})
	})
})
