package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrLatitudeRange  = errors.New("latitude out of range [-90, 90]")
	ErrLongitudeRange = errors.New("longitude out of range [-180, 180]")
	ErrMalformed      = errors.New("malformed coordinate")
)

// Coordinate is a geographic position in decimal degrees
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Validate reports whether the coordinate lies on the globe.
// The distance predicates never call it; range checking is left to callers.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: %v", ErrLatitudeRange, c.Lat)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: %v", ErrLongitudeRange, c.Lon)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%g, %g)", c.Lat, c.Lon)
}

// ParseCoordinate parses "lat,lon"
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("%w: %q, want lat,lon", ErrMalformed, s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: latitude %q: %v", ErrMalformed, parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: longitude %q: %v", ErrMalformed, parts[1], err)
	}

	return Coordinate{Lat: lat, Lon: lon}, nil
}

// UnmarshalYAML accepts either the ordered pair [lat, lon] or a {lat, lon} mapping.
func (c *Coordinate) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var pair []float64
		if err := value.Decode(&pair); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("%w: line %d: want 2 elements, got %d", ErrMalformed, value.Line, len(pair))
		}
		c.Lat, c.Lon = pair[0], pair[1]
		return nil

	case yaml.MappingNode:
		// Alias type drops the custom unmarshaler to avoid recursion.
		type plain Coordinate
		var p plain
		if err := value.Decode(&p); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		*c = Coordinate(p)
		return nil

	default:
		return fmt.Errorf("%w: line %d: want [lat, lon] or {lat, lon}", ErrMalformed, value.Line)
	}
}

// MarshalYAML writes the ordered pair form.
func (c Coordinate) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range []float64{c.Lat, c.Lon} {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: strconv.FormatFloat(v, 'g', -1, 64),
		})
	}
	return node, nil
}

// BoundingBox represents a rectangular area defined by two corners
type BoundingBox struct {
	BottomLeft Coordinate
	TopRight   Coordinate
}

// Contains reports whether c lies inside the box, edges included
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.BottomLeft.Lat && c.Lat <= b.TopRight.Lat &&
		c.Lon >= b.BottomLeft.Lon && c.Lon <= b.TopRight.Lon
}
