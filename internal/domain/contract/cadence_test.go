package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"plain", date(2026, 1, 15), 1, date(2026, 2, 15)},
		{"clamps to february", date(2026, 1, 31), 1, date(2026, 2, 28)},
		{"clamps to leap february", date(2028, 1, 31), 1, date(2028, 2, 29)},
		{"crosses year", date(2026, 11, 30), 3, date(2027, 2, 28)},
		{"twelve months", date(2026, 8, 31), 12, date(2027, 8, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.in, tt.n))
		})
	}
}

func TestStep(t *testing.T) {
	start := date(2026, 1, 31)

	assert.Equal(t, date(2026, 2, 3), Step(start, UnitDay, 3))
	assert.Equal(t, date(2026, 2, 14), Step(start, UnitWeek, 2))
	assert.Equal(t, date(2026, 3, 31), Step(start, UnitMonth, 2))
	assert.Equal(t, date(2027, 1, 31), Step(start, UnitYear, 1))
}

func TestRecurringUnit_IsValid(t *testing.T) {
	assert.True(t, UnitMonth.IsValid())
	assert.False(t, RecurringUnit("fortnight").IsValid())
}

func TestParseStates(t *testing.T) {
	states, err := ParseStates([]string{"active", "terminated"})
	require.NoError(t, err)
	assert.Equal(t, []State{StateActive, StateTerminated}, states)

	_, err = ParseStates([]string{"active", "paused"})
	assert.ErrorIs(t, err, ErrInvalidState)
}
