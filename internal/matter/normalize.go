package matter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// MalformedRecordError signals a raw item without a usable identity
// field. It carries the raw payload for diagnostics: the run aborts on
// it rather than silently dropping a record.
type MalformedRecordError struct {
	Raw Raw
}

func (e *MalformedRecordError) Error() string {
	payload, _ := json.Marshal(e.Raw)
	return fmt.Sprintf("matter record has no id field: %s", truncate(string(payload), 512))
}

// Field aliases observed across Legistar deployments. The first key
// present in the raw object wins. Enumerated once here so default
// handling is not scattered across the normalizer.
var (
	stringFields = map[string][]string{
		"fileNumber":      {"MatterFile", "File"},
		"name":            {"MatterName", "Name"},
		"title":           {"MatterTitle", "Title"},
		"type":            {"MatterTypeName", "MatterType", "Type"},
		"status":          {"MatterStatusName", "MatterStatus", "Status"},
		"enactmentNumber": {"MatterEnactmentNumber", "EnactmentNumber"},
		"requester":       {"MatterRequester", "Requester"},
		"notes":           {"MatterNotes", "Notes"},
	}

	dateFields = map[string][]string{
		"introDate":     {"MatterIntroDate", "IntroDate"},
		"agendaDate":    {"MatterAgendaDate", "AgendaDate"},
		"passedDate":    {"MatterPassedDate", "PassedDate"},
		"enactmentDate": {"MatterEnactmentDate", "EnactmentDate"},
	}

	idKeys = []string{"MatterId", "MatterID", "Id", "ID"}

	// Legistar splits full body text across numbered columns.
	textKeys = []string{"MatterText1", "MatterText2", "MatterText3", "MatterText4", "MatterText5"}
)

// Normalize maps one raw API item into the canonical record. It is
// total over any input that carries an id: missing or malformed
// optional fields degrade to empty strings and nil dates instead of
// failing. A missing id is the only error.
func Normalize(raw Raw, sourceURL string, now time.Time) (Matter, error) {
	id, ok := extractID(raw)
	if !ok {
		return Matter{}, &MalformedRecordError{Raw: raw}
	}

	m := Matter{
		ID:              id,
		FileNumber:      stringField(raw, stringFields["fileNumber"]),
		Name:            stringField(raw, stringFields["name"]),
		Title:           stringField(raw, stringFields["title"]),
		Type:            stringField(raw, stringFields["type"]),
		Status:          stringField(raw, stringFields["status"]),
		IntroDate:       dateField(raw, dateFields["introDate"]),
		AgendaDate:      dateField(raw, dateFields["agendaDate"]),
		PassedDate:      dateField(raw, dateFields["passedDate"]),
		EnactmentNumber: stringField(raw, stringFields["enactmentNumber"]),
		EnactmentDate:   dateField(raw, dateFields["enactmentDate"]),
		Requester:       stringField(raw, stringFields["requester"]),
		Notes:           stringField(raw, stringFields["notes"]),
		Text:            bodyText(raw),
		DateScraped:     now.UTC(),
		SourceURL:       sourceURL,
	}
	return m, nil
}

// extractID pulls the upstream primary key, tolerating the number
// representations different JSON decoders produce.
func extractID(raw Raw) (int64, bool) {
	for _, key := range idKeys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n), true
		case int:
			return int64(n), true
		case int64:
			return n, true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i, true
			}
		case string:
			if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

func stringField(raw Raw, keys []string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// dateField parses the first date-like value found under keys. Values
// that fail to parse become nil rather than an error.
func dateField(raw Raw, keys []string) *time.Time {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		t, err := dateparse.ParseAny(s)
		if err != nil {
			continue
		}
		return &t
	}
	return nil
}

// bodyText joins the non-empty MatterTextN parts in order.
func bodyText(raw Raw) string {
	var parts []string
	for _, key := range textKeys {
		if v, ok := raw[key]; ok && v != nil {
			if s, ok := v.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
