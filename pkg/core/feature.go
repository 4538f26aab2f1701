package core

import (
	"fmt"
	"strings"
)

// Field is a price column of a dataframe
type Field string

const (
	FieldOpen   Field = "Open"
	FieldHigh   Field = "High"
	FieldLow    Field = "Low"
	FieldClose  Field = "Close"
	FieldVolume Field = "Volume"
)

// DefaultFields and DefaultWindows are the columns and window lengths
// derived when nothing else is configured
var (
	DefaultFields  = []Field{FieldOpen, FieldHigh, FieldLow, FieldClose}
	DefaultWindows = []int{5, 10, 20, 50, 100, 150, 200}
)

// ParseField converts a case-insensitive name into a Field
func ParseField(name string) (Field, error) {
	for _, field := range []Field{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume} {
		if strings.EqualFold(strings.TrimSpace(name), string(field)) {
			return field, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Feature identifies one derived moving average column
type Feature struct {
	Field  Field
	Window int
}

// Name returns the column name of the feature, e.g. "Close 20 Day MA"
func (f Feature) Name() string {
	return ColumnName(f.Field, f.Window)
}

// ColumnName formats the name of a moving average column
func ColumnName(field Field, window int) string {
	return fmt.Sprintf("%s %d Day MA", field, window)
}

// FeatureSet is the single description of which moving averages exist.
// The deriver computes them and the chart assembler lays out one trace per
// feature, both iterating fields outer and windows inner.
type FeatureSet struct {
	Fields  []Field
	Windows []int
}

// DefaultFeatureSet returns the four price fields with seven windows
func DefaultFeatureSet() FeatureSet {
	return FeatureSet{
		Fields:  append([]Field(nil), DefaultFields...),
		Windows: append([]int(nil), DefaultWindows...),
	}
}

// Validate checks the windows are positive and the fields known
func (fs FeatureSet) Validate() error {
	for _, window := range fs.Windows {
		if window <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidWindow, window)
		}
	}
	for _, field := range fs.Fields {
		if _, err := ParseField(string(field)); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of derived columns
func (fs FeatureSet) Len() int {
	return len(fs.Fields) * len(fs.Windows)
}

// Features lists every (field, window) pair in iteration order
func (fs FeatureSet) Features() []Feature {
	features := make([]Feature, 0, fs.Len())
	for _, field := range fs.Fields {
		for _, window := range fs.Windows {
			features = append(features, Feature{Field: field, Window: window})
		}
	}
	return features
}

// Columns lists the derived column names in iteration order
func (fs FeatureSet) Columns() []string {
	columns := make([]string, 0, fs.Len())
	for _, feature := range fs.Features() {
		columns = append(columns, feature.Name())
	}
	return columns
}
