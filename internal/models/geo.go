package models

import "fmt"

// GeoLevel is the closed set of levels in the geographic hierarchy:
// country contains regions, regions contain divisions, divisions contain
// cities. Code that dispatches on level switches over these four constants
// so an unhandled level is a compile-visible default case, not a silent
// string mismatch.
type GeoLevel int

const (
	GeoCountry GeoLevel = iota
	GeoRegion
	GeoDivision
	GeoCity
)

// String returns the lowercase level name used in storage and logs.
func (l GeoLevel) String() string {
	switch l {
	case GeoCountry:
		return "country"
	case GeoRegion:
		return "region"
	case GeoDivision:
		return "division"
	case GeoCity:
		return "city"
	default:
		return fmt.Sprintf("geolevel(%d)", int(l))
	}
}

// ParseGeoLevel maps a stored level name back to its GeoLevel.
func ParseGeoLevel(s string) (GeoLevel, error) {
	switch s {
	case "country":
		return GeoCountry, nil
	case "region":
		return GeoRegion, nil
	case "division":
		return GeoDivision, nil
	case "city":
		return GeoCity, nil
	default:
		return 0, fmt.Errorf("unknown geo level: %q", s)
	}
}

// GeoPlace is one node in the geographic hierarchy.
type GeoPlace struct {
	ID        string   `json:"id"`
	AppID     string   `json:"appId"`
	Level     GeoLevel `json:"-"`
	Name      string   `json:"name"`
	ParentID  string   `json:"parentId,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}
