package models

import (
	"fmt"
	"time"
)

// ImportSourceBTC identifies events imported from the external BTC calendar.
// Stored on every imported event so a re-import can replace exactly the
// events it owns.
const ImportSourceBTC = "btc"

// BTCEvent is a raw record from the external BTC calendar. It exists only for
// the duration of one import run; nothing persists it in this shape.
type BTCEvent struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Start         time.Time `json:"startDate"`
	End           time.Time `json:"endDate"`
	VenueName     string    `json:"venueName"`
	VenueAddress  string    `json:"venueAddress"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	OrganizerName string    `json:"organizerName"`
	CategoryName  string    `json:"categoryName"`
	FetchedAt     time.Time `json:"-"`
}

// DisplayName returns the best human identifier for log lines and reports.
func (e *BTCEvent) DisplayName() string {
	if e.Title != "" {
		return e.Title
	}
	return e.ID
}

// ResolvedEvent is the internal representation of an imported event, ready
// for persistence. Built by combining a BTCEvent with resolver outputs.
//
// Every external source normalizes into this one shape; the event store and
// its schema never change when the external calendar does.
type ResolvedEvent struct {
	ID          string    `json:"id"`
	AppID       string    `json:"appId"`
	Source      string    `json:"source"`   // e.g. ImportSourceBTC
	SourceID    string    `json:"sourceId"` // id in the external calendar
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"startDate"`
	End         time.Time `json:"endDate"`

	OwnerOrganizerID   string `json:"ownerOrganizerId"`
	OwnerOrganizerName string `json:"ownerOrganizerName"`
	VenueID            string `json:"venueId"`
	VenueName          string `json:"venueName"`
	CategoryID         string `json:"categoryId"`
	CategoryFirstLevel string `json:"categoryFirstLevel"`

	// Geographic names inherited from the resolved venue. May be empty when
	// the venue is missing geographic data; persistence tolerates that.
	RegionName   string `json:"regionName,omitempty"`
	DivisionName string `json:"divisionName,omitempty"`
	CityName     string `json:"cityName,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the fields the internal schema requires before persistence
// is attempted. Geographic names are deliberately not required.
func (e *ResolvedEvent) Validate() error {
	if e.AppID == "" {
		return fmt.Errorf("appId is required")
	}
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	if e.OwnerOrganizerID == "" {
		return fmt.Errorf("owner organizer is unresolved")
	}
	if e.VenueID == "" {
		return fmt.Errorf("venue is unresolved")
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return fmt.Errorf("start and end are required")
	}
	if !e.Start.Before(e.End) {
		return fmt.Errorf("start %s is not before end %s", e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
	}
	return nil
}

// DayKey formats a date the way the import pipeline keys days: calendar date
// only, time discarded.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
