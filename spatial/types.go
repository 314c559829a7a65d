// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
)

const earthRadius = 6371e3 // meters

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewPoint builds a Point from a longitude/latitude pair.
func NewPoint(lng, lat float64) Point {
	return Point{Lat: lat, Lng: lng}
}

// String returns the WKT form of the Point, with the shortest decimals that
// read back to the same coordinates.
func (p Point) String() string {
	return "POINT(" + strconv.FormatFloat(p.Lng, 'g', -1, 64) + " " +
		strconv.FormatFloat(p.Lat, 'g', -1, 64) + ")"
}

// Valid reports whether the point lies within the geographic coordinate range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}

	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Value implements the driver.Valuer interface for database serialization.
func (p Point) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		p.Lat, p.Lng = 0, 0

		return nil
	}

	switch v := value.(type) {
	case []byte:
		return p.scanText(string(v))
	case string:
		return p.scanText(v)
	case map[string]interface{}:
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for point: expected 'x' and 'y' float64 fields, got %+v", v)
		}

		p.Lng = x
		p.Lat = y

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}
}

// scanText accepts both "POINT (lng lat)", as DuckDB renders it, and the
// "POINT(lng lat)" form produced by String.
func (p *Point) scanText(s string) error {
	if _, err := fmt.Sscanf(s, "POINT (%f %f)", &p.Lng, &p.Lat); err == nil {
		return nil
	}

	_, err := fmt.Sscanf(s, "POINT(%f %f)", &p.Lng, &p.Lat)

	return err
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Haversine is the value form of HaversineDistance, handy where a distance
// function is injected.
func Haversine(a, b Point) float64 {
	return a.HaversineDistance(&b)
}
