// Package domain contains the core types of the Wayfind application.
package domain

import "time"

// LocationKind classifies a location in the directory.
type LocationKind string

const (
	KindBuilding LocationKind = "building"
	KindRoom     LocationKind = "room"
	KindCampus   LocationKind = "campus"
	KindArea     LocationKind = "area"
	KindPOI      LocationKind = "poi"
)

// Location is a navigable entry in the location directory. Name and
// TypeCommonName carry the localized values for the language the row was
// read with; the repository resolves the language at query time.
type Location struct {
	Key            string
	Kind           LocationKind
	Name           string
	TypeCommonName string
	Lat            float64
	Lon            float64

	// Calendar scraping state. CalendarURL is nil for locations without a
	// bookable calendar.
	CalendarURL        *string
	LastCalendarScrape *time.Time
}

// HasCoordinates reports whether the location carries a usable position.
// Rows imported from incomplete sources can have a zero lat/lon pair, which
// is in the Atlantic and never a real campus location.
func (l *Location) HasCoordinates() bool {
	return l.Lat != 0 || l.Lon != 0
}
