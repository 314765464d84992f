// Package store holds the visualization configuration read by the geometry generators.
package store

import (
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// Shape is a named ring of [longitude, latitude] pairs in degrees.
type Shape struct {
	Name        string       `json:"name"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// Config is the visualization configuration.
type Config struct {
	// R is the earth radius in world units.
	R          float64 `json:"R"`
	EarthColor string  `json:"earthColor"`

	ShapeColor string  `json:"shapeColor"`
	Shapes     []Shape `json:"shapes"`

	HaloColor string  `json:"haloColor"`
	HaloSize  float64 `json:"haloSize"`

	PointColor  string  `json:"pointColor"`
	PointSize   float64 `json:"pointSize"`
	MarkerColor string  `json:"markerColor"`
	MarkerSize  float64 `json:"markerSize"`
	LabelColor  string  `json:"labelColor"`
	LabelSize   float64 `json:"labelSize"`

	FlyLineColor string `json:"flyLineColor"`
	// FlyLineHeight is the bulge of a line spanning half the globe. Shorter lines arc lower.
	FlyLineHeight   float64       `json:"flyLineHeight"`
	FlyLineDuration time.Duration `json:"flyLineDuration"`

	// Segments is how many samples arcs and rings are subdivided into.
	Segments int `json:"segments"`
}

// DefaultConfig returns the configuration used for keys the caller leaves out.
func DefaultConfig() Config {
	return Config{
		R:               120,
		EarthColor:      "#13162c",
		ShapeColor:      "#3a7bd5",
		HaloColor:       "#1e90ff",
		HaloSize:        300,
		PointColor:      "#ffcc00",
		PointSize:       3,
		MarkerColor:     "#ff4d4f",
		MarkerSize:      6,
		LabelColor:      "#ffffff",
		LabelSize:       12,
		FlyLineColor:    "#00ffcc",
		FlyLineHeight:   0.4,
		FlyLineDuration: 2 * time.Second,
		Segments:        48,
	}
}

// Validate returns an error for values the generators cannot work with.
func (c Config) Validate() error {
	if c.R <= 0 {
		return errors.Errorf("earth radius must be positive, got %v", c.R)
	}
	if c.Segments < 2 {
		return errors.Errorf("segments must be at least 2, got %d", c.Segments)
	}
	for _, shape := range c.Shapes {
		for _, coord := range shape.Coordinates {
			if coord[1] < -90 || coord[1] > 90 {
				return errors.Errorf("shape %q has latitude %v out of range", shape.Name, coord[1])
			}
		}
	}
	return nil
}

// Store is a concurrency safe holder of the current Config.
type Store struct {
	mu     sync.RWMutex
	config Config
}

// New returns a store holding DefaultConfig.
func New() *Store {
	return &Store{config: DefaultConfig()}
}

// SetConfig decodes the opaque payload over DefaultConfig and stores the result. A nil payload
// resets to the defaults. The stored config is unchanged on error.
func (s *Store) SetConfig(payload map[string]any) error {
	cfg, err := Decode(payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	return nil
}

// Config returns a copy of the current configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.config
	cfg.Shapes = append([]Shape(nil), s.config.Shapes...)
	return cfg
}

// Decode converts a payload into a Config starting from the defaults.
func Decode(payload map[string]any) (Config, error) {
	cfg := DefaultConfig()
	if payload == nil {
		return cfg, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(payload); err != nil {
		return Config{}, errors.Wrap(err, "decoding visualization config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
