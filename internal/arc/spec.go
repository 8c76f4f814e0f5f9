// Package arc builds great-circle arcs between two geographic points and the
// ribbon meshes used to draw them.
//
// An arc is sampled by spherical linear interpolation and lifted off the
// surface along a parabola that is zero at both endpoints and PeakHeight at
// the midpoint. The ribbon is a strip of quads, duplicated with reversed
// winding so it is visible from both sides.
package arc

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/golang/geo/r3"

	"github.com/couchcryptid/globe-mesh/internal/geodesy"
	"github.com/couchcryptid/globe-mesh/internal/mesh"
)

const (
	DefaultSegments   = 50
	DefaultPeakHeight = 50.0
	DefaultThickness  = 1.0
)

// Yellow is the default arc color.
var Yellow = color.NRGBA{R: 255, G: 255, A: 255}

// ErrInvalidSpec is returned by Spec.Validate.
var ErrInvalidSpec = errors.New("invalid arc")

// Spec describes one arc. Values are immutable; the With methods return
// modified copies.
type Spec struct {
	From       geodesy.Coordinate
	To         geodesy.Coordinate
	Segments   int
	PeakHeight float64
	Color      color.NRGBA
	Thickness  float64
}

// New validates both endpoints, given in degrees, and returns a Spec with the
// default styling.
func New(fromLat, fromLon, toLat, toLon float64) (Spec, error) {
	from, err := geodesy.FromDegrees(fromLat, fromLon)
	if err != nil {
		return Spec{}, fmt.Errorf("arc origin: %w", err)
	}
	to, err := geodesy.FromDegrees(toLat, toLon)
	if err != nil {
		return Spec{}, fmt.Errorf("arc destination: %w", err)
	}
	return Between(from, to), nil
}

// Between returns a Spec with default styling for already validated endpoints.
func Between(from, to geodesy.Coordinate) Spec {
	return Spec{
		From:       from,
		To:         to,
		Segments:   DefaultSegments,
		PeakHeight: DefaultPeakHeight,
		Color:      Yellow,
		Thickness:  DefaultThickness,
	}
}

func (s Spec) WithColor(c color.NRGBA) Spec {
	s.Color = c
	return s
}

func (s Spec) WithSegments(n int) Spec {
	s.Segments = n
	return s
}

func (s Spec) WithPeakHeight(h float64) Spec {
	s.PeakHeight = h
	return s
}

func (s Spec) WithThickness(t float64) Spec {
	s.Thickness = t
	return s
}

// Validate checks the styling fields. Endpoints are validated on construction.
func (s Spec) Validate() error {
	if s.Segments < 1 {
		return fmt.Errorf("%w: segments %d < 1", ErrInvalidSpec, s.Segments)
	}
	if math.IsNaN(s.PeakHeight) || math.IsInf(s.PeakHeight, 0) {
		return fmt.Errorf("%w: peak height %v", ErrInvalidSpec, s.PeakHeight)
	}
	if !(s.Thickness > 0) || math.IsInf(s.Thickness, 0) {
		return fmt.Errorf("%w: thickness %v", ErrInvalidSpec, s.Thickness)
	}
	return nil
}

// Points samples the arc above a sphere of the given radius.
func (s Spec) Points(radius float64) []r3.Vector {
	return Interpolate(s.From, s.To, s.Segments, s.PeakHeight, radius)
}

// Mesh builds the arc's ribbon above a sphere of the given radius.
func (s Spec) Mesh(radius float64) mesh.Buffers {
	return BuildRibbon(s.Points(radius), s.Thickness)
}

// MaterialHints tells a renderer how to shade an arc ribbon.
type MaterialHints struct {
	BaseColor  string `cbor:"base_color" json:"base_color"`
	Unlit      bool   `cbor:"unlit" json:"unlit"`
	AlphaBlend bool   `cbor:"alpha_blend" json:"alpha_blend"`
}

// Material returns the shading hints for s: its color, unlit, alpha blended.
func Material(s Spec) MaterialHints {
	return MaterialHints{BaseColor: FormatColor(s.Color), Unlit: true, AlphaBlend: true}
}
