package forecast

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scaler is a fitted min-max scaler for a single feature, stored with the
// attribute names scikit-learn exports ("min_", "scale_")
type Scaler struct {
	Min   float64
	Scale float64
}

type scalerFile struct {
	Min   json.RawMessage `json:"min_"`
	Scale json.RawMessage `json:"scale_"`
}

// LoadScaler reads scaler parameters from a JSON file
func LoadScaler(path string) (Scaler, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Scaler{}, err
	}
	return ParseScaler(content)
}

// ParseScaler decodes scaler parameters. Both scalars and one-element arrays
// are accepted for each attribute.
func ParseScaler(content []byte) (Scaler, error) {
	var file scalerFile
	if err := json.Unmarshal(content, &file); err != nil {
		return Scaler{}, fmt.Errorf("decode scaler: %w", err)
	}

	minValue, err := firstValue(file.Min)
	if err != nil {
		return Scaler{}, fmt.Errorf("scaler min_: %w", err)
	}
	scale, err := firstValue(file.Scale)
	if err != nil {
		return Scaler{}, fmt.Errorf("scaler scale_: %w", err)
	}
	if scale == 0 {
		return Scaler{}, fmt.Errorf("scaler scale_ must not be zero")
	}

	return Scaler{Min: minValue, Scale: scale}, nil
}

func firstValue(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing value")
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err == nil {
		return value, nil
	}

	var values []float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("empty array")
	}
	return values[0], nil
}

// Transform scales values into the fitted range
func (s Scaler) Transform(values []float64) []float64 {
	result := make([]float64, len(values))
	for i, value := range values {
		result[i] = value*s.Scale + s.Min
	}
	return result
}

// InverseTransform maps a scaled value back to price units
func (s Scaler) InverseTransform(value float64) float64 {
	return (value - s.Min) / s.Scale
}
