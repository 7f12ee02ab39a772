package aggregate

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "sqlite driver text", input: "2024-05-01 10:30:00+00:00", want: want},
		{name: "sqlite driver text with offset", input: "2024-05-01 14:00:00+03:30", want: want},
		{name: "rfc3339", input: "2024-05-01T10:30:00Z", want: want},
		{name: "fractional seconds", input: "2024-05-01 10:30:00.5+00:00", want: want.Add(500 * time.Millisecond)},
		{name: "minutes only", input: "2024-05-01T10:30", want: want},
		{name: "date only", input: "2024-05-01", want: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestRaw_Decode(t *testing.T) {
	raw := Raw{
		LastCallAt:          sql.NullString{String: "2024-05-01 10:30:00+00:00", Valid: true},
		HasOpenFollowup:     1,
		NextOpenFollowupDue: sql.NullString{String: "2024-06-01 00:00:00+00:00", Valid: true},
	}
	agg, err := raw.Decode()
	require.NoError(t, err)
	require.NotNil(t, agg.LastCallAt)
	require.NotNil(t, agg.NextOpenFollowupDue)
	assert.True(t, agg.HasOpenFollowup)
	assert.Equal(t, 2024, agg.NextOpenFollowupDue.Year())

	empty, err := Raw{}.Decode()
	require.NoError(t, err)
	assert.Nil(t, empty.LastCallAt)
	assert.Nil(t, empty.NextOpenFollowupDue)
	assert.False(t, empty.HasOpenFollowup)

	_, err = Raw{LastCallAt: sql.NullString{String: "garbage", Valid: true}}.Decode()
	assert.Error(t, err)
}

func TestFromHistory(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	calls := []domain.Call{{CallAt: day(3)}, {CallAt: day(9)}, {CallAt: day(5)}}
	followups := []domain.Followup{
		{Status: domain.FollowupOpen, DueDate: day(10)},
		{Status: domain.FollowupOpen, DueDate: day(20)},
		{Status: domain.FollowupDone, DueDate: day(30)},
	}

	agg := FromHistory(calls, followups)
	require.NotNil(t, agg.LastCallAt)
	assert.Equal(t, day(9), *agg.LastCallAt)
	assert.True(t, agg.HasOpenFollowup)
	// the latest open due date wins, done followups are ignored
	require.NotNil(t, agg.NextOpenFollowupDue)
	assert.Equal(t, day(20), *agg.NextOpenFollowupDue)

	closed := FromHistory(nil, []domain.Followup{{Status: domain.FollowupDone, DueDate: day(1)}})
	assert.False(t, closed.HasOpenFollowup)
	assert.Nil(t, closed.NextOpenFollowupDue)
	assert.Nil(t, closed.LastCallAt)
}

func TestPredicates(t *testing.T) {
	assert.True(t, HasOpenFollowup("c", nil).IsEmpty())

	yes, no := true, false
	p := HasOpenFollowup("c", &yes)
	assert.True(t, strings.HasPrefix(p.SQL, "EXISTS"))
	assert.Equal(t, []any{"open"}, p.Args)
	assert.True(t, strings.HasPrefix(HasOpenFollowup("c", &no).SQL, "NOT EXISTS"))

	assert.True(t, LastCallBetween("c", domain.DateRange{}).IsEmpty())

	cols := Columns("c")
	assert.Equal(t, 2, strings.Count(cols.SQL, "?"))
	assert.Len(t, cols.Args, 2)
	assert.Contains(t, cols.SQL, "AS last_call_at")
}
