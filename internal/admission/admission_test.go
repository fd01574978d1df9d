package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestDecide(t *testing.T) {
	none := Registration{}
	confirmed := Registration{Exists: true, Confirmed: true}
	cancelled := Registration{Exists: true}

	tests := []struct {
		name     string
		capacity *int
		count    int
		prior    Registration
		confirm  bool
		want     Decision
	}{
		{name: "unlimited event admits", capacity: nil, count: 500, prior: none, confirm: true, want: Admit},
		{name: "room left admits", capacity: intPtr(2), count: 1, prior: none, confirm: true, want: Admit},
		{name: "new email at capacity is full", capacity: intPtr(2), count: 2, prior: none, confirm: true, want: Full},
		{name: "confirmed registrant at capacity updates", capacity: intPtr(2), count: 2, prior: confirmed, confirm: true, want: AlreadyRegistered},
		{name: "confirmed registrant may cancel when full", capacity: intPtr(2), count: 2, prior: confirmed, confirm: false, want: AlreadyRegistered},
		{name: "cancelled registrant re-confirms with room", capacity: intPtr(2), count: 1, prior: cancelled, confirm: true, want: AlreadyRegistered},
		{name: "cancelled registrant cannot re-confirm into a full event", capacity: intPtr(2), count: 2, prior: cancelled, confirm: true, want: Full},
		{name: "cancelled registrant stays cancelled when full", capacity: intPtr(2), count: 2, prior: cancelled, confirm: false, want: AlreadyRegistered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.capacity, tt.count, tt.prior, tt.confirm))
		})
	}
}

func TestDecideAdmitsExactlyCapacity(t *testing.T) {
	for _, n := range []int{1, 2, 5, 50} {
		count := 0
		for i := 0; i < n; i++ {
			d := Decide(intPtr(n), count, Registration{}, true)
			assert.Equal(t, Admit, d, "registrant %d of %d", i+1, n)
			count += Delta(Registration{}, true)
		}
		assert.Equal(t, n, count)
		assert.Equal(t, Full, Decide(intPtr(n), count, Registration{}, true), "registrant %d of %d", n+1, n)
	}
}

func TestDelta(t *testing.T) {
	assert.Equal(t, 1, Delta(Registration{}, true))
	assert.Equal(t, 0, Delta(Registration{}, false))
	assert.Equal(t, 0, Delta(Registration{Exists: true, Confirmed: true}, true))
	assert.Equal(t, -1, Delta(Registration{Exists: true, Confirmed: true}, false))
	assert.Equal(t, 1, Delta(Registration{Exists: true}, true))
	assert.Equal(t, 0, Delta(Registration{Exists: true}, false))
}

func TestStateAndSpotsLeft(t *testing.T) {
	assert.Equal(t, StateOpen, State(nil, 10))
	assert.Equal(t, StateOpen, State(intPtr(2), 1))
	assert.Equal(t, StateFull, State(intPtr(2), 2))

	assert.Nil(t, SpotsLeft(nil, 3))
	assert.Equal(t, 1, *SpotsLeft(intPtr(3), 2))
	assert.Equal(t, 0, *SpotsLeft(intPtr(3), 5))
}

func TestGrowthPercentage(t *testing.T) {
	assert.Equal(t, float64(100), GrowthPercentage(7, 0))
	assert.Equal(t, float64(0), GrowthPercentage(0, 0))
	assert.Equal(t, float64(50), GrowthPercentage(3, 2))
	assert.Equal(t, float64(-100), GrowthPercentage(0, 4))
	assert.Equal(t, float64(0), GrowthPercentage(4, 4))
}

func TestMonthWindows(t *testing.T) {
	now := time.Date(2025, time.January, 17, 13, 45, 0, 0, time.UTC)
	current, previous := MonthWindows(now)

	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), current.From)
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), current.To)
	assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), previous.From)
	assert.Equal(t, current.From, previous.To)
}

func TestDecisionText(t *testing.T) {
	for d, want := range map[Decision]string{Admit: "admit", AlreadyRegistered: "already_registered", Full: "full"} {
		b, err := d.MarshalText()
		assert.NoError(t, err)
		assert.Equal(t, want, string(b))
	}
	assert.True(t, Admit.Allowed())
	assert.True(t, AlreadyRegistered.Allowed())
	assert.False(t, Full.Allowed())
}
