// Package predictor wraps the pre-trained scaler + classifier pair used to
// turn eight health measurements into a diabetes prediction.
package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

const NumFeatures = 8

var (
	ErrInvalidArtifact = errors.New("invalid model artifact")
	ErrInvalidInput    = errors.New("features must be finite numbers")
)

// Predictor is anything able to classify a feature vector as 0 or 1
type Predictor interface {
	Predict(features [NumFeatures]float64) (int, error)
}

type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type Classifier struct {
	Type      string    `json:"type"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// Model is a standard scaler followed by a linear classifier. It's never
// modified after loading so it can be shared between requests.
type Model struct {
	Features   []string   `json:"features"`
	Scaler     Scaler     `json:"scaler"`
	Classifier Classifier `json:"classifier"`
}

// Decode reads a JSON model artifact and validates it
func Decode(r io.Reader) (*Model, error) {
	var m Model

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w, %w", ErrInvalidArtifact, err)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

func (m *Model) validate() error {
	switch m.Classifier.Type {
	case "logistic_regression", "linear_svc":
	default:
		return fmt.Errorf("%w, unsupported classifier type %q", ErrInvalidArtifact, m.Classifier.Type)
	}

	if m.Features != nil && len(m.Features) != NumFeatures {
		return fmt.Errorf("%w, expected %d feature names, got %d", ErrInvalidArtifact, NumFeatures, len(m.Features))
	}

	for name, v := range map[string][]float64{
		"scaler.mean":     m.Scaler.Mean,
		"scaler.scale":    m.Scaler.Scale,
		"classifier.coef": m.Classifier.Coef,
	} {
		if len(v) != NumFeatures {
			return fmt.Errorf("%w, %s must have %d values, got %d", ErrInvalidArtifact, name, NumFeatures, len(v))
		}
		if !allFinite(v) {
			return fmt.Errorf("%w, %s contains non finite values", ErrInvalidArtifact, name)
		}
	}

	if math.IsNaN(m.Classifier.Intercept) || math.IsInf(m.Classifier.Intercept, 0) {
		return fmt.Errorf("%w, intercept isn't finite", ErrInvalidArtifact)
	}

	return nil
}

// Transform standardizes the features. A zero scale means the feature
// had no variance during training and it's only centered.
func (m *Model) Transform(features [NumFeatures]float64) [NumFeatures]float64 {
	var out [NumFeatures]float64

	for i, x := range features {
		scale := m.Scaler.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x - m.Scaler.Mean[i]) / scale
	}

	return out
}

// Decision returns the signed distance of scaled features from the
// separating hyperplane
func (m *Model) Decision(scaled [NumFeatures]float64) float64 {
	d := m.Classifier.Intercept
	for i, z := range scaled {
		d += m.Classifier.Coef[i] * z
	}

	return d
}

// Classify returns 1 for the positive class
func (m *Model) Classify(scaled [NumFeatures]float64) int {
	if m.Decision(scaled) > 0 {
		return 1
	}

	return 0
}

func (m *Model) Predict(features [NumFeatures]float64) (int, error) {
	if !allFinite(features[:]) {
		return 0, ErrInvalidInput
	}

	return m.Classify(m.Transform(features)), nil
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}

	return true
}
