// Package model defines the entities flowing through the feature pipeline.
// Every entity is produced by exactly one stage and consumed read-only by the
// next; nothing is mutated after creation.
package model

import (
	"time"

	"github.com/twpayne/go-geom"
)

// Climate zone group labels from the load-study documentation. Zone codes
// absent from the catalog carry no group and are dropped during resolution.
const (
	GroupCoastal            = "Coastal"
	GroupInland             = "Inland"
	GroupNorthCentralValley = "North Central Valley"
	GroupSouthCentralValley = "South Central Valley"
)

// CustomerType distinguishes residential from non-residential load profiles.
type CustomerType string

const (
	CustomerResidential    CustomerType = "residential"
	CustomerNonResidential CustomerType = "nonresidential"
)

// ClimateZone is a climate region polygon with its numeric zone code and the
// group label derived from it. Group is empty for unmapped codes.
type ClimateZone struct {
	ZoneCode int
	Group    string
	Geometry geom.T
}

// ZipArea is a ZIP code service-area polygon. One polygon per ZIP code.
type ZipArea struct {
	ZipCode  string
	Geometry geom.T
}

// ZipClimate assigns a ZIP code to exactly one climate zone group.
type ZipClimate struct {
	ZipCode string
	Group   string
}

// LoadProfile is a characterized load archetype ("GP"): an id, the climate
// zone group of its segment, and the customer type it was derived from.
type LoadProfile struct {
	ProfileID    string
	SegmentGroup string
	Type         CustomerType
}

// ZipProfile is one candidate profile for a ZIP. A ZIP whose group has no
// catalog coverage yields a single row with an empty ProfileID, which is
// discarded downstream wherever a profile is required.
type ZipProfile struct {
	ZipCode   string
	ProfileID string
}

// Observation is one raw hourly load-shape reading.
type Observation struct {
	ProfileID string
	Date      time.Time
	Hour      int
	KWH       float64
}

// AggregatedLoad is the seasonal mean for one (profile, month, hour) slot.
// Month is a calendar month number inside the season window.
type AggregatedLoad struct {
	ProfileID string
	Month     int
	Hour      int
	MeanKWH   float64
}

// FeederLine is a distribution feeder line geometry.
type FeederLine struct {
	FeederID string
	Geometry geom.T
}

// FeederZip assigns a feeder to exactly one ZIP code.
type FeederZip struct {
	FeederID string
	ZipCode  string
}
