// Package analysis runs the plant health check flow: capture an image,
// classify it, record the outcome and notify the configured channels.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ohrachov/plantmon/internal/notify"
	"github.com/ohrachov/plantmon/internal/vision"
)

// Camera captures plant images.
type Camera interface {
	Capture(ctx context.Context) (string, error)
}

// Classifier predicts the plant condition from an image.
type Classifier interface {
	Classify(ctx context.Context, imagePath string) (*vision.Prediction, error)
}

// ActionLogger records analysis outcomes in the action log.
type ActionLogger interface {
	AppendLog(ctx context.Context, action string) error
}

// Publisher delivers analysis events to notification channels.
type Publisher interface {
	Send(ctx context.Context, event notify.Event)
}

// Result is the outcome of one health check.
type Result struct {
	ImagePath     string             `json:"image_path"`
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities"`
	Confidence    float64            `json:"confidence"`
}

// Analyzer orchestrates the health check flow.
type Analyzer struct {
	logger     *slog.Logger
	camera     Camera
	classifier Classifier
	actions    ActionLogger
	publisher  Publisher // Optional
}

// Config holds the configuration for the Analyzer.
type Config struct {
	Logger     *slog.Logger
	Camera     Camera
	Classifier Classifier
	Actions    ActionLogger
	// Publisher is optional; analysis events are skipped when nil.
	Publisher Publisher
}

// New creates a new Analyzer instance.
func New(cfg *Config) (*Analyzer, error) {
	if cfg == nil {
		return nil, errors.New("analysis config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Camera == nil {
		return nil, errors.New("camera cannot be nil")
	}

	if cfg.Classifier == nil {
		return nil, errors.New("classifier cannot be nil")
	}

	if cfg.Actions == nil {
		return nil, errors.New("action logger cannot be nil")
	}

	return &Analyzer{
		logger:     cfg.Logger,
		camera:     cfg.Camera,
		classifier: cfg.Classifier,
		actions:    cfg.Actions,
		publisher:  cfg.Publisher,
	}, nil
}

// Analyze captures one image, classifies it and records the result. The
// action log entry and notification are best effort; their failures are
// logged but do not fail the analysis.
func (a *Analyzer) Analyze(ctx context.Context) (*Result, error) {
	imagePath, err := a.camera.Capture(ctx)
	if err != nil {
		return nil, err
	}

	pred, err := a.classifier.Classify(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ImagePath:     imagePath,
		Label:         pred.Label,
		Confidence:    pred.Confidence,
		Probabilities: pred.Probabilities,
	}

	message := fmt.Sprintf("Plant analysis: %s (%.1f%% confidence).", result.Label, result.Confidence*100)

	if err := a.actions.AppendLog(ctx, message); err != nil {
		a.logger.Error("failed to record analysis result", "error", err)
	}

	if a.publisher != nil {
		a.publisher.Send(ctx, notify.Event{
			Timestamp: time.Now().UTC(),
			Kind:      "analysis",
			Message:   message,
		})
	}

	a.logger.Info("plant analysis complete",
		"image", imagePath,
		"label", result.Label,
		"confidence", result.Confidence)

	return result, nil
}
