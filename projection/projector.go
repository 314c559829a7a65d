// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package projection converts geographic coordinates to and from planar
// coordinate systems identified by EPSG codes.
package projection

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jcodagnone/trackeval/spatial"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	// Geographic is the code of the input coordinate system, lon/lat degrees.
	Geographic = "epsg:4326"
	// WebMercator is the default planar system.
	WebMercator = "epsg:3857"

	// maxMercatorLat is the latitude where Web Mercator turns square.
	maxMercatorLat = 85.05112878
)

// Projector converts between geographic coordinates and one planar system.
type Projector interface {
	// ToProjected converts a geographic point into the planar system.
	ToProjected(p spatial.Point) (orb.Point, error)
	// ToGeographic is the inverse of ToProjected.
	ToGeographic(p orb.Point) (spatial.Point, error)
	// Code returns the normalized EPSG code.
	Code() string
}

// New returns the projector for an EPSG-style code such as "epsg:3857".
func New(code string) (Projector, error) {
	normalized, n, err := parseCode(code)
	if err != nil {
		return nil, err
	}

	switch {
	case n == 4326:
		return identity{}, nil
	case n == 3857 || n == 900913:
		return mercator{code: normalized}, nil
	case n >= 32601 && n <= 32660:
		return newUTM(normalized, n, n-32600), nil
	case n >= 32701 && n <= 32760:
		return newUTM(normalized, n, n-32700), nil
	default:
		return nil, &ProjectionError{
			Type:    ErrorTypeUnsupportedCode,
			Code:    normalized,
			Message: "coordinate system not supported",
		}
	}
}

// MustNew is like New but panics on error. Meant for package-level defaults.
func MustNew(code string) Projector {
	p, err := New(code)
	if err != nil {
		panic(err)
	}

	return p
}

func parseCode(code string) (string, int, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))

	authority, number, ok := strings.Cut(normalized, ":")
	if !ok || authority != "epsg" {
		return normalized, 0, &ProjectionError{
			Type:    ErrorTypeUnsupportedCode,
			Code:    code,
			Message: "expected a code of the form epsg:NNNN",
		}
	}

	n, err := strconv.Atoi(number)
	if err != nil || n <= 0 {
		return normalized, 0, &ProjectionError{
			Type:    ErrorTypeUnsupportedCode,
			Code:    code,
			Message: "invalid EPSG number",
			Err:     err,
		}
	}

	return fmt.Sprintf("epsg:%d", n), n, nil
}

func checkGeographic(code string, p spatial.Point) error {
	if !p.Valid() {
		return outOfDomain(code, "invalid geographic coordinate %s", p)
	}

	return nil
}

func checkPlanar(code string, p orb.Point) error {
	if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
		return outOfDomain(code, "non finite planar coordinate %v", p)
	}

	return nil
}

// identity treats lon/lat degrees as planar x/y.
type identity struct{}

func (identity) Code() string { return Geographic }

func (identity) ToProjected(p spatial.Point) (orb.Point, error) {
	if err := checkGeographic(Geographic, p); err != nil {
		return orb.Point{}, err
	}

	return orb.Point{p.Lng, p.Lat}, nil
}

func (identity) ToGeographic(p orb.Point) (spatial.Point, error) {
	geo := spatial.Point{Lat: p.Lat(), Lng: p.Lon()}
	if err := checkGeographic(Geographic, geo); err != nil {
		return spatial.Point{}, err
	}

	return geo, nil
}

// mercator is the spherical Web Mercator used by web maps.
type mercator struct {
	code string
}

func (m mercator) Code() string { return m.code }

func (m mercator) ToProjected(p spatial.Point) (orb.Point, error) {
	if err := checkGeographic(m.code, p); err != nil {
		return orb.Point{}, err
	}

	if math.Abs(p.Lat) > maxMercatorLat {
		return orb.Point{}, outOfDomain(m.code, "latitude %f beyond ±%f", p.Lat, maxMercatorLat)
	}

	return project.Point(orb.Point{p.Lng, p.Lat}, project.WGS84.ToMercator), nil
}

func (m mercator) ToGeographic(p orb.Point) (spatial.Point, error) {
	if err := checkPlanar(m.code, p); err != nil {
		return spatial.Point{}, err
	}

	geo := project.Point(p, project.Mercator.ToWGS84)
	pt := spatial.Point{Lat: geo.Lat(), Lng: geo.Lon()}

	if err := checkGeographic(m.code, pt); err != nil {
		return spatial.Point{}, err
	}

	return pt, nil
}
