package models

import "time"

// BTCEventStats counts external events seen during an import run.
type BTCEventStats struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
}

// ResolutionStats counts per-event entity resolution outcomes. An event is a
// resolution success only when both organizer and venue resolved; counted per
// event, not per field.
type ResolutionStats struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// ValidationStats counts events that passed or failed validation.
type ValidationStats struct {
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// TTEventStats counts writes against the internal event store.
type TTEventStats struct {
	Created int `json:"created"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// ImportStats aggregates the counters for one day or a whole run.
type ImportStats struct {
	BTCEvents        BTCEventStats   `json:"btcEvents"`
	EntityResolution ResolutionStats `json:"entityResolution"`
	Validation       ValidationStats `json:"validation"`
	TTEvents         TTEventStats    `json:"ttEvents"`
}

// Add folds another stats block into this one. Used to aggregate per-day
// statistics into run totals.
func (s *ImportStats) Add(o ImportStats) {
	s.BTCEvents.Total += o.BTCEvents.Total
	s.BTCEvents.Processed += o.BTCEvents.Processed
	s.EntityResolution.Success += o.EntityResolution.Success
	s.EntityResolution.Failure += o.EntityResolution.Failure
	s.Validation.Valid += o.Validation.Valid
	s.Validation.Invalid += o.Validation.Invalid
	s.TTEvents.Created += o.TTEvents.Created
	s.TTEvents.Deleted += o.TTEvents.Deleted
	s.TTEvents.Failed += o.TTEvents.Failed
}

// ResolutionRate is the fraction of processed events whose entities all
// resolved. Returns 1.0 when nothing was processed so an empty day never
// fails an assessment on its own.
func (s *ImportStats) ResolutionRate() float64 {
	return rate(s.EntityResolution.Success, s.EntityResolution.Success+s.EntityResolution.Failure)
}

// ValidationRate is the fraction of processed events that validated.
func (s *ImportStats) ValidationRate() float64 {
	return rate(s.Validation.Valid, s.Validation.Valid+s.Validation.Invalid)
}

// CreationRate is the fraction of attempted creates that succeeded.
func (s *ImportStats) CreationRate() float64 {
	return rate(s.TTEvents.Created, s.TTEvents.Created+s.TTEvents.Failed)
}

func rate(num, denom int) float64 {
	if denom == 0 {
		return 1.0
	}
	return float64(num) / float64(denom)
}

// FailureStage names the pipeline stage where an event failed.
type FailureStage string

const (
	StageResolution  FailureStage = "resolution"
	StageValidation  FailureStage = "validation"
	StagePersistence FailureStage = "persistence"
)

// FailedEvent records one external event that did not make it into the
// internal store, with enough context for a human to chase it down.
type FailedEvent struct {
	SourceID string       `json:"sourceId"`
	Title    string       `json:"title"`
	Stage    FailureStage `json:"stage"`
	Reason   string       `json:"reason"`
}

// DayResult is the outcome of importing a single calendar day.
type DayResult struct {
	Date         string        `json:"date"` // DayKey format
	Stats        ImportStats   `json:"stats"`
	FailedEvents []FailedEvent `json:"failedEvents"`
	StartedAt    time.Time     `json:"startedAt"`
	CompletedAt  time.Time     `json:"completedAt"`
	Error        string        `json:"error,omitempty"` // set when the day itself failed
}

// Failed reports whether the day aborted before processing its events.
func (d *DayResult) Failed() bool { return d.Error != "" }

// RunResult is the outcome of a multi-day import run.
type RunResult struct {
	Days        []DayResult `json:"days"`
	Totals      ImportStats `json:"totals"`
	DryRun      bool        `json:"dryRun"`
	StartedAt   time.Time   `json:"startedAt"`
	CompletedAt time.Time   `json:"completedAt"`
	Assessment  *Assessment `json:"assessment,omitempty"`
}

// AssessmentMetric is one quality ratio compared against its threshold.
type AssessmentMetric struct {
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Pass      bool    `json:"pass"`
}

// Assessment is the go/no-go judgment over a statistics snapshot. It is
// derived and read-only: valid only for the snapshot it was computed from,
// never persisted on its own.
type Assessment struct {
	Go      bool                        `json:"go"`
	Metrics map[string]AssessmentMetric `json:"metrics"`
}
