package forecast

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raykavin/bullseye/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closes(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	return values
}

func uniformModel(t *testing.T) *Model {
	t.Helper()

	weights := make([]float64, DefaultWindow)
	for i := range weights {
		weights[i] = 1.0 / DefaultWindow
	}

	model, err := New(Regressor{Weights: weights}, Scaler{Min: -1, Scale: 0.02})
	require.NoError(t, err)
	return model
}

func TestModel_Predict(t *testing.T) {
	model := uniformModel(t)
	assert.Equal(t, 60, model.Window())

	// uniform weights average the trailing window: 140..199
	prediction, err := model.Predict(closes(100))
	require.NoError(t, err)
	assert.InDelta(t, 169.5, prediction, 1e-9)
}

func TestModel_PredictLastClose(t *testing.T) {
	weights := make([]float64, DefaultWindow)
	weights[DefaultWindow-1] = 1

	model, err := New(Regressor{Weights: weights, Bias: 0.1}, Scaler{Min: 0, Scale: 0.01})
	require.NoError(t, err)

	prediction, err := model.Predict(closes(60))
	require.NoError(t, err)
	assert.InDelta(t, 169.0, prediction, 1e-9)
}

func TestModel_InsufficientHistory(t *testing.T) {
	model := uniformModel(t)

	_, err := model.Predict(closes(59))
	require.ErrorIs(t, err, core.ErrInsufficientHistory)

	_, err = model.Predict(nil)
	require.ErrorIs(t, err, core.ErrInsufficientHistory)
}

func TestModel_MissingObservation(t *testing.T) {
	model := uniformModel(t)

	values := closes(80)
	values[70] = math.NaN()
	_, err := model.Predict(values)
	require.ErrorIs(t, err, core.ErrMissingObservation)

	values[70] = math.Inf(1)
	_, err = model.Predict(values)
	require.ErrorIs(t, err, core.ErrMissingObservation)

	// gaps before the window are ignored
	values[70] = 170
	values[5] = math.NaN()
	_, err = model.Predict(values)
	require.NoError(t, err)
}

func TestModel_InputUntouched(t *testing.T) {
	model := uniformModel(t)
	values := closes(60)

	_, err := model.Predict(values)
	require.NoError(t, err)
	assert.Equal(t, closes(60), values)
}

func TestNew_InvalidWeights(t *testing.T) {
	_, err := New(Regressor{Weights: []float64{1, 2}}, Scaler{Scale: 1})
	require.Error(t, err)

	_, err = New(Regressor{Weights: make([]float64, DefaultWindow)}, Scaler{})
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	scalerPath := filepath.Join(dir, "scaler.json")

	weights := "[" + "0" + strings.Repeat(",0", DefaultWindow-2) + ",1]"
	require.NoError(t, os.WriteFile(modelPath, []byte(`{"weights":`+weights+`,"bias":0}`), 0o600))
	require.NoError(t, os.WriteFile(scalerPath, []byte(`{"min_":[-0.5],"scale_":[0.005]}`), 0o600))

	model, err := Load(modelPath, scalerPath)
	require.NoError(t, err)

	prediction, err := model.Predict(closes(60))
	require.NoError(t, err)
	assert.InDelta(t, 159.0, prediction, 1e-9)

	_, err = Load(filepath.Join(dir, "missing.json"), scalerPath)
	require.Error(t, err)
}

func TestParseScaler(t *testing.T) {
	scaler, err := ParseScaler([]byte(`{"min_": -2, "scale_": 0.5}`))
	require.NoError(t, err)
	assert.Equal(t, Scaler{Min: -2, Scale: 0.5}, scaler)
	assert.Equal(t, []float64{-1.5, 3}, scaler.Transform([]float64{1, 10}))
	assert.Equal(t, 10.0, scaler.InverseTransform(3))

	_, err = ParseScaler([]byte(`{"min_": [], "scale_": [1]}`))
	require.Error(t, err)

	_, err = ParseScaler([]byte(`{"min_": [0], "scale_": [0]}`))
	require.Error(t, err)

	_, err = ParseScaler([]byte(`{"scale_": [1]}`))
	require.Error(t, err)
}
