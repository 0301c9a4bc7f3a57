// Package vision provides the simulated plant health classifier. The model
// must be loaded before classification; predictions are pseudo-random
// probability distributions over the known condition labels.
package vision

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/ohrachov/plantmon/internal/errdefs"
)

// Labels are the plant conditions the classifier can predict.
var Labels = []string{"Healthy", "Diseased", "Needs Water", "Low Light"}

// Prediction holds the classification result for one image.
type Prediction struct {
	// Probabilities maps each label to its predicted probability. The
	// values sum to 1.
	Probabilities map[string]float64
	// Label is the condition with the highest probability.
	Label string
	// Confidence is the probability of Label.
	Confidence float64
}

// TrainingReport summarizes a simulated training run.
type TrainingReport struct {
	Epochs    int
	FinalLoss float64
	Accuracy  float64
}

// Classifier is the simulated inference engine.
type Classifier struct {
	logger *slog.Logger
	delay  time.Duration

	mu     sync.Mutex
	rng    *rand.Rand
	loaded bool
}

// Config holds the configuration for the Classifier.
type Config struct {
	Logger *slog.Logger
	// Delay is slept during Classify to mimic inference latency. Zero
	// disables the delay.
	Delay time.Duration
	// Seed makes predictions deterministic when non-zero.
	Seed int64
}

// New creates a new Classifier. The model starts unloaded.
func New(cfg *Config) (*Classifier, error) {
	if cfg == nil {
		return nil, errors.New("classifier config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Classifier{
		logger: cfg.Logger,
		delay:  cfg.Delay,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// Load prepares the simulated model for inference.
func (c *Classifier) Load(_ context.Context) error {
	c.mu.Lock()
	c.loaded = true
	c.mu.Unlock()

	c.logger.Info("classifier model loaded", "labels", len(Labels))
	return nil
}

// Classify predicts the plant condition for the image at the given path.
// Classifying before Load fails with a not-initialized error.
func (c *Classifier) Classify(ctx context.Context, imagePath string) (*Prediction, error) {
	c.mu.Lock()
	loaded := c.loaded
	c.mu.Unlock()

	if !loaded {
		return nil, errdefs.NotInitialized("classifier")
	}

	if _, err := os.Stat(imagePath); err != nil {
		return nil, errdefs.Validationf("image not found: %s", imagePath)
	}

	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	probs := c.randomDistribution()

	pred := &Prediction{Probabilities: probs}
	for label, p := range probs {
		if p > pred.Confidence {
			pred.Label = label
			pred.Confidence = p
		}
	}

	c.logger.Info("image classified",
		"path", imagePath,
		"label", pred.Label,
		"confidence", pred.Confidence)

	return pred, nil
}

// Train runs a simulated training loop and reports the final metrics.
func (c *Classifier) Train(ctx context.Context, epochs int) (*TrainingReport, error) {
	if epochs <= 0 {
		return nil, errdefs.Validationf("epochs must be positive, got %d", epochs)
	}

	loss := 1.0
	for epoch := 1; epoch <= epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c.mu.Lock()
		loss *= 0.6 + 0.3*c.rng.Float64()
		c.mu.Unlock()

		c.logger.Info("training epoch complete", "epoch", epoch, "loss", loss)
	}

	c.mu.Lock()
	accuracy := 0.7 + 0.25*c.rng.Float64()
	c.loaded = true
	c.mu.Unlock()

	report := &TrainingReport{
		Epochs:    epochs,
		FinalLoss: loss,
		Accuracy:  accuracy,
	}

	c.logger.Info("training complete", "epochs", epochs, "accuracy", accuracy)
	return report, nil
}

// Evaluate runs a simulated evaluation pass and returns the accuracy.
func (c *Classifier) Evaluate(_ context.Context) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return 0, errdefs.NotInitialized("classifier")
	}

	return 0.7 + 0.25*c.rng.Float64(), nil
}

// randomDistribution draws a normalized probability over Labels.
func (c *Classifier) randomDistribution() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0.0
	raw := make([]float64, len(Labels))
	for i := range raw {
		raw[i] = c.rng.Float64()
		total += raw[i]
	}

	probs := make(map[string]float64, len(Labels))
	for i, label := range Labels {
		probs[label] = raw[i] / total
	}
	return probs
}
