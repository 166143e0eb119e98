package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Due Date `json:"due"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"due":"2026-10-16"}`), &payload))
	assert.Equal(t, "2026-10-16", payload.Due.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2026-10-16"}`, string(out))
}

func TestDate_UnmarshalJSON_Layouts(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"2026-01-05"`, "2026-01-05"},
		{`"05-01-2026"`, "2026-01-05"},
		{`"2026/01/05"`, "2026-01-05"},
		{`"January 5, 2026"`, "2026-01-05"},
		{`"2026-01-05T23:30:00Z"`, "2026-01-05"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Date
			require.NoError(t, d.UnmarshalJSON([]byte(tt.input)))
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDate_UnmarshalJSON_Invalid(t *testing.T) {
	var d Date
	assert.Error(t, d.UnmarshalJSON([]byte(`"next tuesday"`)))
	assert.Error(t, d.UnmarshalJSON([]byte(`20260105`)))
}

func TestDate_EmptyIsZero(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalJSON([]byte(`""`)))
	assert.True(t, d.IsZero())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestDate_Comparisons(t *testing.T) {
	today := NewDate(2026, time.October, 16)

	assert.True(t, today.AddDays(-1).Before(today))
	assert.True(t, today.AddDays(28).After(today))
	assert.True(t, today.AddDays(0).Equal(today))
	assert.Equal(t, "2026-11-13", today.AddDays(28).String())
}

func TestDateOf_UsesLocalCalendarDay(t *testing.T) {
	zone := time.FixedZone("UTC+10", 10*60*60)
	late := time.Date(2026, time.October, 16, 23, 0, 0, 0, zone)

	assert.Equal(t, "2026-10-16", DateOf(late).String())
}

func TestDate_ScanAndValue(t *testing.T) {
	d := NewDate(2026, time.February, 28)

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", v)

	var fromString Date
	require.NoError(t, fromString.Scan("2026-02-28"))
	assert.True(t, d.Equal(fromString))

	var fromBytes Date
	require.NoError(t, fromBytes.Scan([]byte("2026-02-28 00:00:00+00:00")))
	assert.True(t, d.Equal(fromBytes))

	var fromTime Date
	require.NoError(t, fromTime.Scan(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)))
	assert.True(t, d.Equal(fromTime))

	var fromNil Date
	require.NoError(t, fromNil.Scan(nil))
	assert.True(t, fromNil.IsZero())

	var zero Date
	v, err = zero.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, fromNil.Scan(42))
}
