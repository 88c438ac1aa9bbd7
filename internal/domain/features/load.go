package features

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// scalerArtifact mirrors the exported StandardScaler statistics.
type scalerArtifact struct {
	Columns []string  `koanf:"columns"`
	Mean    []float64 `koanf:"mean"`
	Scale   []float64 `koanf:"scale"`
}

// LoadParams reads scaler statistics from a YAML artifact and builds Params
// with them. The artifact must list the training columns in training order.
func LoadParams(path string, opts ...Option) (*Params, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrInvalidParams, path, err)
	}
	var a scalerArtifact
	if err := k.UnmarshalWithConf("scaler", &a, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidParams, path, err)
	}
	if len(a.Columns) == 0 || len(a.Columns) != len(a.Mean) || len(a.Columns) != len(a.Scale) {
		return nil, fmt.Errorf("%w: %d columns, %d means, %d scales", ErrInvalidParams, len(a.Columns), len(a.Mean), len(a.Scale))
	}
	stats := make(map[string]Standardization, len(a.Columns))
	for i, c := range a.Columns {
		stats[c] = Standardization{Mean: a.Mean[i], Scale: a.Scale[i]}
	}
	return New(append([]Option{WithScaler(a.Columns, stats)}, opts...)...)
}
