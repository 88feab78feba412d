package matter

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "https://webapi.legistar.com/v1/nyc/matters?$skip=0&$top=50"

func sampleRaw() Raw {
	return Raw{
		"MatterId":              float64(12345),
		"MatterFile":            "Int 0123-2024",
		"MatterName":            "Test Matter",
		"MatterTitle":           "A Local Law to amend the administrative code",
		"MatterTypeName":        "Introduction",
		"MatterStatusName":      "Committee",
		"MatterIntroDate":       "2024-01-15T00:00:00",
		"MatterAgendaDate":      "2024-01-20T00:00:00",
		"MatterPassedDate":      nil,
		"MatterEnactmentDate":   nil,
		"MatterEnactmentNumber": nil,
		"MatterRequester":       "Council Member Smith",
		"MatterNotes":           "Test notes",
		"MatterText1":           "Summary text",
		"MatterText2":           nil,
	}
}

func TestNormalize_FullRecord(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	m, err := Normalize(sampleRaw(), pageURL, now)
	require.NoError(t, err)

	assert.Equal(t, int64(12345), m.ID)
	assert.Equal(t, "Int 0123-2024", m.FileNumber)
	assert.Equal(t, "Test Matter", m.Name)
	assert.Equal(t, "A Local Law to amend the administrative code", m.Title)
	assert.Equal(t, "Introduction", m.Type)
	assert.Equal(t, "Committee", m.Status)
	require.NotNil(t, m.IntroDate)
	assert.Equal(t, 2024, m.IntroDate.Year())
	require.NotNil(t, m.AgendaDate)
	assert.Nil(t, m.PassedDate)
	assert.Nil(t, m.EnactmentDate)
	assert.Empty(t, m.EnactmentNumber)
	assert.Equal(t, "Council Member Smith", m.Requester)
	assert.Equal(t, "Summary text", m.Text)
	assert.Equal(t, now, m.DateScraped)
	assert.Equal(t, pageURL, m.SourceURL)
}

func TestNormalize_Total(t *testing.T) {
	// Only an id: every optional field falls back to its default.
	m, err := Normalize(Raw{"MatterId": float64(7)}, pageURL, time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(7), m.ID)
	assert.Empty(t, m.FileNumber)
	assert.Empty(t, m.Name)
	assert.Empty(t, m.Title)
	assert.Empty(t, m.Type)
	assert.Empty(t, m.Status)
	assert.Nil(t, m.IntroDate)
	assert.Nil(t, m.AgendaDate)
	assert.Nil(t, m.PassedDate)
	assert.Nil(t, m.EnactmentDate)
	assert.Empty(t, m.Requester)
	assert.Empty(t, m.Notes)
	assert.Empty(t, m.Text)
	assert.False(t, m.DateScraped.IsZero())
	assert.Equal(t, pageURL, m.SourceURL)
}

func TestNormalize_MalformedOptionalFields(t *testing.T) {
	raw := Raw{
		"MatterId":        float64(9),
		"MatterFile":      float64(42), // wrong type
		"MatterIntroDate": "not a date",
		"MatterTitle":     nil,
	}

	m, err := Normalize(raw, pageURL, time.Now())
	require.NoError(t, err)
	assert.Empty(t, m.FileNumber)
	assert.Nil(t, m.IntroDate)
	assert.Empty(t, m.Title)
}

func TestNormalize_MissingID(t *testing.T) {
	raw := Raw{"MatterName": "No identity"}

	_, err := Normalize(raw, pageURL, time.Now())
	require.Error(t, err)

	var malformed *MalformedRecordError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "No identity", malformed.Raw["MatterName"])
	assert.Contains(t, err.Error(), "no id field")
}

func TestNormalize_IDRepresentations(t *testing.T) {
	cases := []struct {
		name string
		raw  Raw
		want int64
	}{
		{"float64", Raw{"MatterId": float64(101)}, 101},
		{"json number", Raw{"MatterId": json.Number("102")}, 102},
		{"string", Raw{"MatterId": "103"}, 103},
		{"alternate key", Raw{"MatterID": float64(104)}, 104},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Normalize(tc.raw, pageURL, time.Now())
			require.NoError(t, err)
			assert.Equal(t, tc.want, m.ID)
		})
	}
}

func TestNormalize_BodyTextJoined(t *testing.T) {
	raw := Raw{
		"MatterId":    float64(1),
		"MatterText1": "part one",
		"MatterText2": "",
		"MatterText3": "part three",
	}

	m, err := Normalize(raw, pageURL, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "part one\n\npart three", m.Text)
}

func TestNormalize_AliasKeys(t *testing.T) {
	raw := Raw{
		"Id":        float64(55),
		"File":      "R-55",
		"Title":     "Alternate deployment shape",
		"IntroDate": "2023-06-01",
	}

	m, err := Normalize(raw, pageURL, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(55), m.ID)
	assert.Equal(t, "R-55", m.FileNumber)
	assert.Equal(t, "Alternate deployment shape", m.Title)
	require.NotNil(t, m.IntroDate)
	assert.Equal(t, time.June, m.IntroDate.Month())
}
