// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package projection

import (
	"math"

	"github.com/jcodagnone/trackeval/spatial"
	"github.com/paulmach/orb"
	"github.com/wroge/wgs84"
)

const (
	utmMinLat = -80.0
	utmMaxLat = 84.0
	// Transverse Mercator loses accuracy fast beyond twice the zone width.
	utmMaxLngOffset = 12.0
)

// utm is a WGS84 Universal Transverse Mercator zone.
type utm struct {
	code    string
	centerD float64 // central meridian, degrees
	forward wgs84.Func
	inverse wgs84.Func
}

func newUTM(code string, epsg, zone int) *utm {
	return &utm{
		code:    code,
		centerD: float64(zone-1)*6 - 180 + 3,
		forward: wgs84.Transform(wgs84.EPSG().Code(4326), wgs84.EPSG().Code(epsg)),
		inverse: wgs84.Transform(wgs84.EPSG().Code(epsg), wgs84.EPSG().Code(4326)),
	}
}

func (u *utm) Code() string { return u.code }

func (u *utm) ToProjected(p spatial.Point) (orb.Point, error) {
	if err := checkGeographic(u.code, p); err != nil {
		return orb.Point{}, err
	}

	if p.Lat < utmMinLat || p.Lat > utmMaxLat {
		return orb.Point{}, outOfDomain(u.code, "latitude %f outside [%.0f, %.0f]", p.Lat, utmMinLat, utmMaxLat)
	}

	if math.Abs(p.Lng-u.centerD) > utmMaxLngOffset {
		return orb.Point{}, outOfDomain(u.code, "longitude %f too far from central meridian %.0f", p.Lng, u.centerD)
	}

	east, north, _ := u.forward(p.Lng, p.Lat, 0)

	projected := orb.Point{east, north}
	if err := checkPlanar(u.code, projected); err != nil {
		return orb.Point{}, err
	}

	return projected, nil
}

func (u *utm) ToGeographic(p orb.Point) (spatial.Point, error) {
	if err := checkPlanar(u.code, p); err != nil {
		return spatial.Point{}, err
	}

	lng, lat, _ := u.inverse(p[0], p[1], 0)

	pt := spatial.NewPoint(lng, lat)
	if err := checkGeographic(u.code, pt); err != nil {
		return spatial.Point{}, err
	}

	return pt, nil
}
