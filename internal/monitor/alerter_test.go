package monitor_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ohrachov/plantmon/internal/monitor"
	"github.com/ohrachov/plantmon/internal/notify"
	"github.com/ohrachov/plantmon/internal/status"
	"github.com/ohrachov/plantmon/pkg/sensors"
)

type fakeProvider struct {
	mu       sync.Mutex
	snapshot *status.Snapshot
}

func (p *fakeProvider) Latest() *status.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

func (p *fakeProvider) set(s *status.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = s
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Send(_ context.Context, event notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) all() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Event(nil), p.events...)
}

func healthySnapshot() *status.Snapshot {
	return &status.Snapshot{
		CapturedAt:   time.Now(),
		SoilMoisture: 55,
		LightLevel:   420,
		Temperature:  22.5,
		Humidity:     50,
	}
}

var _ = Describe("Alerter", func() {
	var (
		ctx       context.Context
		provider  *fakeProvider
		publisher *recordingPublisher
		alerter   *monitor.Alerter
	)

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	BeforeEach(func() {
		ctx = context.Background()
		provider = &fakeProvider{}
		publisher = &recordingPublisher{}
		alerter = monitor.NewAlerter(&monitor.AlerterConfig{
			Logger:     discard,
			Provider:   provider,
			Publisher:  publisher,
			Thresholds: sensors.DefaultThresholds(),
		})
	})

	It("does nothing before the first snapshot", func() {
		alerter.Check(ctx)
		Expect(publisher.all()).To(BeEmpty())
	})

	It("does nothing while readings are healthy", func() {
		provider.set(healthySnapshot())
		alerter.Check(ctx)
		Expect(publisher.all()).To(BeEmpty())
	})

	It("sends one alert per out-of-band reading", func() {
		snapshot := healthySnapshot()
		snapshot.SoilMoisture = 12
		snapshot.LightLevel = 90
		provider.set(snapshot)

		alerter.Check(ctx)

		events := publisher.all()
		Expect(events).To(HaveLen(2))
		Expect(events[0].Kind).To(Equal("alert"))
		Expect(events[0].Message).To(ContainSubstring("Soil moisture is too low!"))
		Expect(events[1].Message).To(ContainSubstring("Light level is too low!"))
	})

	It("does not repeat identical advice", func() {
		snapshot := healthySnapshot()
		snapshot.SoilMoisture = 12
		provider.set(snapshot)

		alerter.Check(ctx)
		alerter.Check(ctx)

		Expect(publisher.all()).To(HaveLen(1))
	})

	It("alerts again after the readings recover and drift out of band", func() {
		unhealthy := healthySnapshot()
		unhealthy.SoilMoisture = 12
		provider.set(unhealthy)
		alerter.Check(ctx)

		provider.set(healthySnapshot())
		alerter.Check(ctx)

		stillDry := healthySnapshot()
		stillDry.SoilMoisture = 15
		provider.set(stillDry)
		alerter.Check(ctx)

		Expect(publisher.all()).To(HaveLen(2))
	})
})
