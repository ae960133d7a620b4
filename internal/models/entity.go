package models

// Venue is an internal venue catalog entry.
type Venue struct {
	ID        string   `json:"id"`
	AppID     string   `json:"appId"`
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases,omitempty"`
	Address   string   `json:"address,omitempty"`
	CityID    string   `json:"cityId,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Provisional marks a venue synthesized during import from a geographic
	// fallback rather than entered by an operator. Flagged for later review.
	Provisional bool `json:"provisional,omitempty"`
}

// Organizer is an internal organizer catalog entry.
type Organizer struct {
	ID        string   `json:"id"`
	AppID     string   `json:"appId"`
	Name      string   `json:"name"`
	ShortName string   `json:"shortName,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`
}

// OrganizerRef is the cached result of a successful organizer resolution.
type OrganizerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category is an internal category catalog entry.
type Category struct {
	ID    string `json:"id"`
	AppID string `json:"appId"`
	Name  string `json:"name"`
}

// CategoryRef is the cached result of a category resolution. FirstLevel is
// the top-level category name attached to resolved events.
type CategoryRef struct {
	ID         string `json:"id"`
	FirstLevel string `json:"firstLevel"`
}

// VenueGeography holds the geographic names a resolved event inherits from
// its venue.
type VenueGeography struct {
	RegionName   string `json:"regionName"`
	DivisionName string `json:"divisionName"`
	CityName     string `json:"cityName"`
}
