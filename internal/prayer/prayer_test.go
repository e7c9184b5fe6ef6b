package prayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/village-sim/internal/models"
)

func day(h, m int) time.Time {
	return time.Date(2024, 3, 1, h, m, 0, 0, time.UTC)
}

func TestCompleteOncePerDay(t *testing.T) {
	tr := NewTracker(nil)

	reward, err := tr.Complete("Fajr", day(5, 40))
	require.NoError(t, err)
	assert.Equal(t, models.Resources{VirtuePoints: 10}, reward)
	assert.True(t, tr.Completed("fajr", day(6, 0)))

	_, err = tr.Complete("fajr", day(7, 0))
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	// A new day resets.
	_, err = tr.Complete("Fajr", day(5, 40).AddDate(0, 0, 1))
	assert.NoError(t, err)
}

func TestCompleteUnknown(t *testing.T) {
	tr := NewTracker(nil)
	_, err := tr.Complete("Tahajjud", day(3, 0))
	assert.ErrorIs(t, err, ErrUnknownPrayer)
	assert.False(t, tr.Completed("Tahajjud", day(3, 0)))
}

func TestCustomReward(t *testing.T) {
	tr := NewTracker(nil, WithReward(25))
	reward, err := tr.Complete("Isha", day(21, 0))
	require.NoError(t, err)
	assert.Equal(t, 25.0, reward.VirtuePoints)
}

func TestDue(t *testing.T) {
	tr := NewTracker(nil)

	p, ok := tr.Due(day(5, 20))
	require.True(t, ok)
	assert.Equal(t, "Fajr", p.Name)

	_, ok = tr.Due(day(5, 45))
	assert.True(t, ok)
	_, ok = tr.Due(day(5, 46))
	assert.False(t, ok)
	_, ok = tr.Due(day(5, 14))
	assert.False(t, ok)

	// Only the first incomplete prayer is considered.
	_, ok = tr.Due(day(12, 30))
	assert.False(t, ok)

	_, err := tr.Complete("Fajr", day(5, 30))
	require.NoError(t, err)
	p, ok = tr.Due(day(12, 30))
	require.True(t, ok)
	assert.Equal(t, "Dhuhr", p.Name)
}

func TestDueCustomWindow(t *testing.T) {
	tr := NewTracker(nil, WithWindow(time.Hour))
	p, ok := tr.Due(day(6, 30))
	require.True(t, ok)
	assert.Equal(t, "Fajr", p.Name)
}

func TestToday(t *testing.T) {
	tr := NewTracker(nil)
	_, err := tr.Complete("Asr", day(16, 0))
	require.NoError(t, err)

	today := tr.Today(day(18, 0))
	require.Len(t, today, 5)
	assert.Equal(t, "Asr", today[2].Prayer.Name)
	assert.True(t, today[2].Completed)
	assert.False(t, today[0].Completed)
	assert.Equal(t, day(19, 15), today[3].At)
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule([]Prayer{{Name: "Fajr", Time: "04:50"}})
	require.NoError(t, err)
	assert.Equal(t, day(4, 50), s[0].At(day(12, 0)))

	bad := [][]Prayer{
		{{Name: "Fajr", Time: "25:00"}},
		{{Name: "Fajr", Time: "noon"}},
		{{Name: "", Time: "05:00"}},
		{{Name: "Fajr", Time: "05:00"}, {Name: "fajr", Time: "06:00"}},
	}
	for _, b := range bad {
		_, err := ParseSchedule(b)
		assert.Error(t, err, "%v", b)
	}
}
