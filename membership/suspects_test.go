package membership_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/rollcall/membership"
)

const deathTimeout = 30 * time.Second

func makeRow(siloID string, start time.Time, status membership.Status, alive time.Time) membership.Row {
	return membership.Row{
		ClusterID:    "testcluster",
		ServiceID:    "testservice",
		SiloID:       siloID,
		Address:      siloID + ":3000",
		StartTime:    start,
		Status:       status,
		IAmAliveTime: alive,
		Version:      2,
	}
}

func TestFindSuspects(t *testing.T) {
	now := epoch.Add(time.Hour)

	tests := map[string]struct {
		rows []membership.Row
		want map[string]membership.Reason
	}{
		"AllFresh": {
			rows: []membership.Row{
				makeRow("silo-a", epoch, membership.StatusActive, now.Add(-5*time.Second)),
				makeRow("silo-b", epoch, membership.StatusJoining, now),
			},
			want: map[string]membership.Reason{},
		},
		"ExpiredActive": {
			rows: []membership.Row{
				makeRow("silo-a", epoch, membership.StatusActive, now.Add(-31*time.Second)),
				makeRow("silo-b", epoch, membership.StatusActive, now),
			},
			want: map[string]membership.Reason{"silo-a": membership.ReasonExpired},
		},
		"ExpiredJoining": {
			rows: []membership.Row{
				makeRow("silo-a", epoch, membership.StatusJoining, now.Add(-time.Minute)),
			},
			want: map[string]membership.Reason{"silo-a": membership.ReasonExpired},
		},
		"TerminalIgnored": {
			rows: []membership.Row{
				makeRow("silo-a", epoch, membership.StatusDead, epoch),
				makeRow("silo-b", epoch, membership.StatusShuttingDown, epoch),
			},
			want: map[string]membership.Reason{},
		},
		"AtThreshold": {
			rows: []membership.Row{
				makeRow("silo-a", epoch, membership.StatusActive, now.Add(-deathTimeout)),
			},
			want: map[string]membership.Reason{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := make(map[string]membership.Reason)
			for _, s := range membership.FindSuspects(tt.rows, now, deathTimeout) {
				got[s.Row.SiloID] = s.Reason
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindSuspects_Superseded(t *testing.T) {
	now := epoch.Add(time.Hour)

	old := makeRow("silo-a", epoch, membership.StatusActive, now)
	fresh := makeRow("silo-a", epoch.Add(time.Minute), membership.StatusJoining, now)

	suspects := membership.FindSuspects([]membership.Row{fresh, old}, now, deathTimeout)
	require.Len(t, suspects, 1)
	assert.True(t, suspects[0].Row.Key().Equal(old.Key()))
	assert.Equal(t, membership.ReasonSuperseded, suspects[0].Reason)
}

func TestFindSuspects_NotSupersededByStaleIncarnation(t *testing.T) {
	now := epoch.Add(time.Hour)

	old := makeRow("silo-a", epoch, membership.StatusActive, now)
	stale := makeRow("silo-a", epoch.Add(time.Minute), membership.StatusJoining, now.Add(-time.Minute))

	suspects := membership.FindSuspects([]membership.Row{old, stale}, now, deathTimeout)
	require.Len(t, suspects, 1)
	assert.True(t, suspects[0].Row.Key().Equal(stale.Key()))
	assert.Equal(t, membership.ReasonExpired, suspects[0].Reason)
}

func TestFindSuspects_Monotonic(t *testing.T) {
	row := makeRow("silo-a", epoch, membership.StatusActive, epoch)
	rows := []membership.Row{row}

	first := epoch.Add(deathTimeout + time.Second)
	require.Len(t, membership.FindSuspects(rows, first, deathTimeout), 1)

	for _, later := range []time.Duration{time.Second, time.Minute, 24 * time.Hour} {
		suspects := membership.FindSuspects(rows, first.Add(later), deathTimeout)
		assert.Len(t, suspects, 1, "not a suspect %s later", later)
	}
}

func TestActiveMembers(t *testing.T) {
	now := epoch.Add(time.Hour)

	rows := []membership.Row{
		makeRow("silo-a", epoch, membership.StatusActive, now),
		makeRow("silo-b", epoch, membership.StatusActive, now.Add(-time.Minute)),
		makeRow("silo-c", epoch, membership.StatusJoining, now),
		makeRow("silo-d", epoch, membership.StatusDead, now),
		makeRow("silo-e", epoch, membership.StatusActive, now.Add(-time.Second)),
	}

	live := membership.ActiveMembers(rows, now, deathTimeout)
	require.Len(t, live, 2)
	assert.Equal(t, "silo-a", live[0].SiloID)
	assert.Equal(t, "silo-e", live[1].SiloID)
}
