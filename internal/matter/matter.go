// Package matter defines the canonical legislative matter record and
// the normalization from raw per-city API responses into it.
package matter

import "time"

// Raw is the unmodified JSON object the upstream API returns for one
// matter. Field presence and naming vary by city deployment.
type Raw map[string]any

// Matter is the canonical output record. ID is the only field
// guaranteed present; everything else degrades to its zero default
// (empty string, nil date) when the upstream omits or mangles it.
// DateScraped and SourceURL are set by the normalizer, never upstream.
type Matter struct {
	ID              int64      `json:"id"`
	FileNumber      string     `json:"file_number"`
	Name            string     `json:"name"`
	Title           string     `json:"title"`
	Type            string     `json:"type"`
	Status          string     `json:"status"`
	IntroDate       *time.Time `json:"intro_date"`
	AgendaDate      *time.Time `json:"agenda_date"`
	PassedDate      *time.Time `json:"passed_date"`
	EnactmentNumber string     `json:"enactment_number"`
	EnactmentDate   *time.Time `json:"enactment_date"`
	Requester       string     `json:"requester"`
	Notes           string     `json:"notes"`
	Text            string     `json:"text"`
	DateScraped     time.Time  `json:"date_scraped"`
	SourceURL       string     `json:"source_url"`
}
