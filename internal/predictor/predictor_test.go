package predictor

import (
	"bitwise74/diapredict/config"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const artifact = `{
  "features": ["pregnancies", "glucose", "blood_pressure", "skin_thickness", "insulin", "bmi", "pedigree_function", "age"],
  "scaler": {
    "mean": [3.85, 120.89, 69.11, 20.54, 79.8, 31.99, 0.47, 33.24],
    "scale": [3.37, 31.95, 19.34, 15.94, 115.17, 7.88, 0.33, 11.75]
  },
  "classifier": {
    "type": "logistic_regression",
    "coef": [0.39, 1.08, -0.25, 0.02, -0.14, 0.7, 0.3, 0.17],
    "intercept": -0.85
  }
}`

func decode(t *testing.T, s string) *Model {
	t.Helper()

	m, err := Decode(strings.NewReader(s))
	require.NoError(t, err)
	return m
}

func TestPredict(t *testing.T) {
	m := decode(t, artifact)

	tests := []struct {
		name     string
		features [NumFeatures]float64
		want     int
	}{
		{"sample", [NumFeatures]float64{2, 120, 70, 20, 79, 25.0, 0.5, 30}, 0},
		{"high glucose", [NumFeatures]float64{6, 148, 72, 35, 0, 33.6, 0.627, 50}, 1},
		{"low risk", [NumFeatures]float64{1, 85, 66, 29, 0, 26.6, 0.351, 31}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Predict(tt.features)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, _ := m.Predict(tt.features)
			assert.Equal(t, got, again, "predictions are deterministic")
		})
	}
}

func TestTransform(t *testing.T) {
	m := decode(t, artifact)
	m.Scaler.Scale[0] = 0

	z := m.Transform([NumFeatures]float64{4.85, 120.89, 69.11, 20.54, 79.8, 31.99, 0.47, 33.24})

	assert.InDelta(t, 1.0, z[0], 1e-9, "zero scale only centers")
	for _, v := range z[1:] {
		assert.InDelta(t, 0.0, v, 1e-9)
	}
}

func TestDecisionBoundary(t *testing.T) {
	m := decode(t, artifact)
	m.Classifier.Intercept = 0

	// At the mean every scaled feature is 0 so the decision is exactly 0
	var mean [NumFeatures]float64
	copy(mean[:], m.Scaler.Mean)

	assert.Equal(t, 0.0, m.Decision(m.Transform(mean)))
	assert.Equal(t, 0, m.Classify(m.Transform(mean)))
}

func TestPredictRejectsNonFinite(t *testing.T) {
	m := decode(t, artifact)

	_, err := m.Predict([NumFeatures]float64{math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = m.Predict([NumFeatures]float64{1, math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `nope`},
		{"unknown field", `{"weights": []}`},
		{"bad type", strings.Replace(artifact, "logistic_regression", "random_forest", 1)},
		{"short mean", strings.Replace(artifact, "[3.85, 120.89,", "[120.89,", 1)},
		{"short coef", strings.Replace(artifact, "[0.39, 1.08,", "[1.08,", 1)},
		{"feature names", strings.Replace(artifact, `"pregnancies", `, "", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidArtifact)
		})
	}
}

func TestDecodeLinearSVC(t *testing.T) {
	m := decode(t, strings.Replace(artifact, "logistic_regression", "linear_svc", 1))
	assert.Equal(t, "linear_svc", m.Classifier.Type)
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(p, []byte(artifact), 0o644))

	m, err := Load(t.Context(), &config.ModelConfig{Path: p})
	require.NoError(t, err)
	assert.Len(t, m.Features, NumFeatures)

	_, err = Load(t.Context(), &config.ModelConfig{Path: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestLoadBundledArtifact(t *testing.T) {
	m, err := Load(t.Context(), &config.ModelConfig{Path: "../../Model/diabetes.json"})
	require.NoError(t, err)

	got, err := m.Predict([NumFeatures]float64{2, 120, 70, 20, 79, 25.0, 0.5, 30})
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestLoadBadS3URI(t *testing.T) {
	_, err := Load(t.Context(), &config.ModelConfig{Path: "s3://bucket-only"})
	assert.ErrorContains(t, err, "s3://bucket/key")
}
