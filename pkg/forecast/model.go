package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/raykavin/bullseye/pkg/core"
	"gonum.org/v1/gonum/mat"
)

// DefaultWindow is the number of trailing closes the model reads
const DefaultWindow = 60

// Regressor is a linear model over the scaled close window
type Regressor struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Model predicts the next close of a ticker from its recent closes
type Model struct {
	regressor Regressor
	scaler    Scaler
	weights   *mat.VecDense
}

// Load reads a model and its scaler from JSON files
func Load(modelPath, scalerPath string) (*Model, error) {
	content, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var regressor Regressor
	if err := json.Unmarshal(content, &regressor); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}

	return New(regressor, scaler)
}

// New builds a model from its parameters
func New(regressor Regressor, scaler Scaler) (*Model, error) {
	if len(regressor.Weights) != DefaultWindow {
		return nil, fmt.Errorf("model expects %d weights, got %d", DefaultWindow, len(regressor.Weights))
	}
	if scaler.Scale == 0 {
		return nil, fmt.Errorf("scaler scale must not be zero")
	}

	return &Model{
		regressor: regressor,
		scaler:    scaler,
		weights:   mat.NewVecDense(len(regressor.Weights), regressor.Weights),
	}, nil
}

// Window returns the number of closes a prediction needs
func (m *Model) Window() int {
	return len(m.regressor.Weights)
}

// Predict returns the forecast close for the trading day after the last
// close. Closes must be in ascending date order; only the trailing window is
// used.
func (m *Model) Predict(closes []float64) (float64, error) {
	window := m.Window()
	if len(closes) < window {
		return 0, fmt.Errorf("%w: need %d closes, got %d", core.ErrInsufficientHistory, window, len(closes))
	}

	last := core.Series[float64](closes).LastValues(window)
	for i, value := range last {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return 0, fmt.Errorf("%w: close %d of the last %d", core.ErrMissingObservation, i+1, window)
		}
	}

	// one sample of window steps with a single feature
	sample := mat.NewDense(1, window, m.scaler.Transform(last))

	var output mat.VecDense
	output.MulVec(sample, m.weights)

	return m.scaler.InverseTransform(output.AtVec(0) + m.regressor.Bias), nil
}
