package analysis_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ohrachov/plantmon/internal/analysis"
	"github.com/ohrachov/plantmon/internal/notify"
	"github.com/ohrachov/plantmon/internal/vision"
)

type fakeCamera struct {
	path string
	err  error
}

func (c *fakeCamera) Capture(context.Context) (string, error) {
	return c.path, c.err
}

type fakeClassifier struct {
	pred *vision.Prediction
	err  error
}

func (c *fakeClassifier) Classify(context.Context, string) (*vision.Prediction, error) {
	return c.pred, c.err
}

type recordingLog struct {
	mu      sync.Mutex
	entries []string
	err     error
}

func (l *recordingLog) AppendLog(_ context.Context, action string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, action)
	return nil
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

var _ = Describe("Analyzer", func() {
	var (
		ctx        context.Context
		camera     *fakeCamera
		classifier *fakeClassifier
		actions    *recordingLog
		publisher  *recordingPublisher
	)

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	newAnalyzer := func() *analysis.Analyzer {
		analyzer, err := analysis.New(&analysis.Config{
			Logger:     discard,
			Camera:     camera,
			Classifier: classifier,
			Actions:    actions,
			Publisher:  publisher,
		})
		Expect(err).ToNot(HaveOccurred())
		return analyzer
	}

	BeforeEach(func() {
		ctx = context.Background()
		camera = &fakeCamera{path: "/tmp/images/plant_20260301_080000_abcd1234.jpg"}
		classifier = &fakeClassifier{pred: &vision.Prediction{
			Label:      "Needs Water",
			Confidence: 0.72,
			Probabilities: map[string]float64{
				"Healthy": 0.1, "Diseased": 0.08, "Needs Water": 0.72, "Low Light": 0.1,
			},
		}}
		actions = &recordingLog{}
		publisher = &recordingPublisher{}
	})

	It("returns an error when config is nil", func() {
		_, err := analysis.New(nil)
		Expect(err).To(MatchError("analysis config cannot be nil"))
	})

	It("captures, classifies and records the result", func() {
		result, err := newAnalyzer().Analyze(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.ImagePath).To(Equal(camera.path))
		Expect(result.Label).To(Equal("Needs Water"))
		Expect(result.Confidence).To(BeNumerically("~", 0.72, 1e-9))

		Expect(actions.entries).To(ConsistOf("Plant analysis: Needs Water (72.0% confidence)."))
		Expect(publisher.events).To(HaveLen(1))
		Expect(publisher.events[0].Kind).To(Equal("analysis"))
	})

	It("fails when the capture fails", func() {
		camera.err = errors.New("camera not initialized")

		_, err := newAnalyzer().Analyze(ctx)
		Expect(err).To(HaveOccurred())
		Expect(actions.entries).To(BeEmpty())
	})

	It("fails when classification fails", func() {
		classifier.err = errors.New("classifier not initialized")

		_, err := newAnalyzer().Analyze(ctx)
		Expect(err).To(HaveOccurred())
		Expect(actions.entries).To(BeEmpty())
	})

	It("still returns the result when the action log write fails", func() {
		actions.err = errors.New("disk full")

		result, err := newAnalyzer().Analyze(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Label).To(Equal("Needs Water"))
	})

	It("works without a publisher", func() {
		analyzer, err := analysis.New(&analysis.Config{
			Logger:     discard,
			Camera:     camera,
			Classifier: classifier,
			Actions:    actions,
		})
		Expect(err).ToNot(HaveOccurred())

		_, err = analyzer.Analyze(ctx)
		Expect(err).ToNot(HaveOccurred())
	})
})
