package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/awion/stadion360/model"
	"github.com/awion/stadion360/public/analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 7, 22, 19, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	seq := 0
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithIDs(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		WithRand(NewSequenceRand(0)),
	}

	s, err := NewStore(StoreConfig{Type: "memory"}, append(base, opts...)...)
	require.NoError(t, err)
	return s
}

func TestNewStore_Types(t *testing.T) {
	t.Run("memory and empty are accepted", func(t *testing.T) {
		_, err := NewStore(StoreConfig{Type: "memory"})
		assert.NoError(t, err)
		_, err = NewStore(StoreConfig{})
		assert.NoError(t, err)
	})

	t.Run("anything else is rejected", func(t *testing.T) {
		_, err := NewStore(StoreConfig{Type: "postgres"})
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("configured gates replace the defaults", func(t *testing.T) {
		s, err := NewStore(StoreConfig{Gates: []string{"Utara", "Selatan"}})
		require.NoError(t, err)

		state := s.Snapshot()
		assert.Len(t, state.GateStatus, 2)
		assert.Equal(t, model.GateNormal, state.GateStatus["Utara"])
		assert.Equal(t, []string{"Utara", "Selatan"}, s.Gates())
	})
}

func TestSeedState(t *testing.T) {
	s := newTestStore(t)
	state := s.Snapshot()

	assert.Equal(t, 45231, state.VisitorCount)
	assert.Equal(t, model.SecuritySafe, state.SecurityStatus)
	assert.Equal(t, 65, state.TrashLevel)
	assert.Len(t, state.GateStatus, 4)
	assert.Len(t, state.ActivityLog, 3)
	assert.Empty(t, state.Alerts)
	assert.Equal(t, "Budi Santoso", state.UserProfile.Name)
	assert.Len(t, state.UserProfile.Ledger, 5)
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := newTestStore(t)

	snap := s.Snapshot()
	snap.GateStatus["Gerbang 1"] = model.GateAlert
	snap.ActivityLog[0].Message = "changed"
	snap.VisitorCount = 1

	fresh := s.Snapshot()
	assert.Equal(t, model.GateNormal, fresh.GateStatus["Gerbang 1"])
	assert.Equal(t, "Pindai aman di Gerbang 4", fresh.ActivityLog[0].Message)
	assert.Equal(t, 45231, fresh.VisitorCount)
}

func TestRecordActivity(t *testing.T) {
	s := newTestStore(t)

	t.Run("new entries come first", func(t *testing.T) {
		entry := s.RecordActivity(model.ActivityEntry{
			Severity: model.SeverityInfo,
			Message:  "Pintu darurat diperiksa",
			ID:       "ignored",
		})

		state := s.Snapshot()
		assert.Equal(t, entry.ID, state.ActivityLog[0].ID)
		assert.NotEqual(t, "ignored", entry.ID)
		assert.Equal(t, testNow, entry.CreatedAt)
		assert.Equal(t, "Pindai aman di Gerbang 4", state.ActivityLog[1].Message)
	})

	t.Run("never more than ten entries", func(t *testing.T) {
		for i := 0; i < 25; i++ {
			s.RecordActivity(model.ActivityEntry{
				Severity: model.SeverityInfo,
				Message:  fmt.Sprintf("entry %d", i),
			})
			assert.LessOrEqual(t, len(s.Snapshot().ActivityLog), MaxActivities)
		}

		log := s.Snapshot().ActivityLog
		require.Len(t, log, MaxActivities)
		assert.Equal(t, "entry 24", log[0].Message)
		assert.Equal(t, "entry 15", log[9].Message)
	})
}

func TestRaiseAlert(t *testing.T) {
	s := newTestStore(t)

	alert := s.RaiseAlert("Gerbang 2", "Objek Mencurigakan", &model.Subject{
		Name:  "Ahmad Wijaya",
		Badge: "BND-001",
	}, "desc")

	state := s.Snapshot()
	assert.Equal(t, model.GateAlert, state.GateStatus["Gerbang 2"])
	assert.Equal(t, model.SecurityWarning, state.SecurityStatus)
	assert.Equal(t, 1, state.ActiveAlertCount)

	require.Len(t, state.Alerts, 1)
	assert.Equal(t, alert, state.Alerts[0])
	assert.Equal(t, model.AlertNew, alert.Status)
	assert.Equal(t, "Ahmad Wijaya", alert.SubjectName)
	assert.Equal(t, "BND-001", alert.SubjectBadge)

	entry := state.ActivityLog[0]
	assert.Equal(t, model.SeverityError, entry.Severity)
	assert.Equal(t, "Objek Mencurigakan terdeteksi di Gerbang 2!", entry.Message)
	assert.Equal(t, "Gerbang 2", entry.Location)

	second := s.RaiseAlert("Gerbang 4", "Anomali Kimia", nil, "")
	state = s.Snapshot()
	assert.Equal(t, second.ID, state.Alerts[0].ID, "most recent alert first")
	assert.Equal(t, 2, state.ActiveAlertCount)
}

func TestSetAlertStatus(t *testing.T) {
	t.Run("in progress keeps the gate flagged", func(t *testing.T) {
		s := newTestStore(t)
		alert := s.RaiseAlert("Gerbang 2", "Objek Mencurigakan", nil, "")

		ok := s.SetAlertStatus(alert.ID, model.AlertInProgress, "Operator-001")
		require.True(t, ok)

		state := s.Snapshot()
		assert.Equal(t, model.GateAlert, state.GateStatus["Gerbang 2"])
		assert.Equal(t, 1, state.ActiveAlertCount)
		assert.Equal(t, model.SecurityWarning, state.SecurityStatus)
		assert.Equal(t, "Operator-001", state.Alerts[0].AssignedTo)

		entry := state.ActivityLog[0]
		assert.Equal(t, model.SeverityWarning, entry.Severity)
		assert.Equal(t, "Operator-001 sedang menangani kasus Objek Mencurigakan di Gerbang 2", entry.Message)
	})

	t.Run("resolved reverts the gate and the posture", func(t *testing.T) {
		s := newTestStore(t)
		alert := s.RaiseAlert("Gerbang 2", "Objek Mencurigakan", nil, "")

		require.True(t, s.SetAlertStatus(alert.ID, model.AlertResolved, "Operator-001"))

		state := s.Snapshot()
		assert.Equal(t, model.GateNormal, state.GateStatus["Gerbang 2"])
		assert.Equal(t, 0, state.ActiveAlertCount)
		assert.Equal(t, model.SecuritySafe, state.SecurityStatus)

		entry := state.ActivityLog[0]
		assert.Equal(t, model.SeveritySuccess, entry.Severity)
		assert.Equal(t, "Kasus Objek Mencurigakan di Gerbang 2 telah diselesaikan oleh Operator-001", entry.Message)
	})

	t.Run("resolved with other active alerts stays in warning", func(t *testing.T) {
		s := newTestStore(t)
		first := s.RaiseAlert("Gerbang 2", "Objek Mencurigakan", nil, "")
		s.RaiseAlert("Gerbang 3", "Akses Tidak Sah", nil, "")

		require.True(t, s.SetAlertStatus(first.ID, model.AlertResolved, "Operator-001"))

		state := s.Snapshot()
		assert.Equal(t, model.GateNormal, state.GateStatus["Gerbang 2"])
		assert.Equal(t, model.GateAlert, state.GateStatus["Gerbang 3"])
		assert.Equal(t, 1, state.ActiveAlertCount)
		assert.Equal(t, model.SecurityWarning, state.SecurityStatus)
	})

	t.Run("unknown id changes nothing", func(t *testing.T) {
		s := newTestStore(t)
		s.RaiseAlert("Gerbang 1", "Anomali Kimia", nil, "")
		before := s.Snapshot()

		notified := 0
		s.Subscribe(func(Operation, model.SimulationState) { notified++ })

		assert.False(t, s.SetAlertStatus("missing", model.AlertResolved, "Operator-001"))
		assert.Equal(t, before, s.Snapshot())
		assert.Zero(t, notified)
	})

	t.Run("empty operator gets a placeholder in the feed", func(t *testing.T) {
		s := newTestStore(t)
		alert := s.RaiseAlert("Gerbang 1", "Anomali Kimia", nil, "")

		require.True(t, s.SetAlertStatus(alert.ID, model.AlertInProgress, ""))
		assert.Equal(t, "Petugas sedang menangani kasus Anomali Kimia di Gerbang 1", s.Snapshot().ActivityLog[0].Message)
	})
}

func TestActiveAlertCountInvariant(t *testing.T) {
	s := newTestStore(t, WithRand(NewSequenceRand(3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9)))
	statuses := []model.AlertStatus{model.AlertNew, model.AlertInProgress, model.AlertResolved}
	gates := s.Gates()

	var ids []string
	for step := 0; step < 60; step++ {
		r := s.Rand()
		if len(ids) == 0 || r.Intn(3) == 0 {
			alert := s.RaiseAlert(gates[r.Intn(len(gates))], "Anomali Kimia", nil, "")
			ids = append(ids, alert.ID)
		} else {
			id := ids[r.Intn(len(ids))]
			s.SetAlertStatus(id, statuses[r.Intn(len(statuses))], "Operator-001")
		}

		state := s.Snapshot()
		require.Equal(t, model.CountActiveAlerts(state.Alerts), state.ActiveAlertCount, "step %d", step)
		if state.ActiveAlertCount > 0 {
			require.Equal(t, model.SecurityWarning, state.SecurityStatus, "step %d", step)
		} else {
			require.Equal(t, model.SecuritySafe, state.SecurityStatus, "step %d", step)
		}
		require.LessOrEqual(t, len(state.ActivityLog), MaxActivities)
	}
}

func TestSetTrashLevel(t *testing.T) {
	tests := []struct {
		level    int
		stored   int
		severity model.Severity
		message  string
	}{
		{95, 95, model.SeverityError, "Tempat sampah di Tribun 7-B hampir penuh! Perlu dikosongkan segera."},
		{90, 90, model.SeverityError, "Tempat sampah di Tribun 7-B hampir penuh! Perlu dikosongkan segera."},
		{80, 80, model.SeverityWarning, "Tempat sampah di Tribun 7-B 80% penuh"},
		{75, 75, model.SeverityWarning, "Tempat sampah di Tribun 7-B 75% penuh"},
		{60, 60, model.SeverityInfo, "Level sampah di Tribun 7-B: 60%"},
		{50, 50, model.SeverityInfo, "Level sampah di Tribun 7-B: 50%"},
		{10, 10, model.SeveritySuccess, "Tempat sampah di Tribun 7-B telah dikosongkan (10%)"},
		{150, 100, model.SeverityError, "Tempat sampah di Tribun 7-B hampir penuh! Perlu dikosongkan segera."},
		{-5, 0, model.SeveritySuccess, "Tempat sampah di Tribun 7-B telah dikosongkan (0%)"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("level %d", tt.level), func(t *testing.T) {
			s := newTestStore(t)
			before := len(s.Snapshot().ActivityLog)

			s.SetTrashLevel(tt.level)

			state := s.Snapshot()
			assert.Equal(t, tt.stored, state.TrashLevel)
			require.Len(t, state.ActivityLog, before+1, "exactly one entry")
			assert.Equal(t, tt.severity, state.ActivityLog[0].Severity)
			assert.Equal(t, tt.message, state.ActivityLog[0].Message)
			assert.Equal(t, "Tribun 7-B", state.ActivityLog[0].Location)
		})
	}
}

func TestSimulateVisitorExit(t *testing.T) {
	t.Run("draws from 100 to 599", func(t *testing.T) {
		s := newTestStore(t, WithRand(NewSequenceRand(0, 499)))

		exited, total := s.SimulateVisitorExit()
		assert.Equal(t, 100, exited)
		assert.Equal(t, 45131, total)

		exited, total = s.SimulateVisitorExit()
		assert.Equal(t, 599, exited)
		assert.Equal(t, 44532, total)
		assert.Equal(t, 44532, s.Snapshot().VisitorCount)

		entry := s.Snapshot().ActivityLog[0]
		assert.Equal(t, model.SeverityInfo, entry.Severity)
		assert.Equal(t, "599 pengunjung keluar stadion. Total sekarang: 44.532", entry.Message)
	})

	t.Run("never below zero", func(t *testing.T) {
		s := newTestStore(t, WithSeed(func(now time.Time) model.SimulationState {
			state := model.SeedState(now)
			state.VisitorCount = 150
			return state
		}), WithRand(NewSequenceRand(400)))

		_, total := s.SimulateVisitorExit()
		assert.Equal(t, 0, total)

		_, total = s.SimulateVisitorExit()
		assert.Equal(t, 0, total)
		assert.Equal(t, 0, s.Snapshot().VisitorCount)
	})

	t.Run("strictly decreases while positive", func(t *testing.T) {
		s := newTestStore(t, WithRand(NewRand(42)))
		prev := s.Snapshot().VisitorCount
		for i := 0; i < 200; i++ {
			_, total := s.SimulateVisitorExit()
			require.GreaterOrEqual(t, total, 0)
			if prev > 0 {
				require.Less(t, total, prev)
			}
			prev = total
		}
	})
}

func TestFocus(t *testing.T) {
	s := newTestStore(t)
	alert := s.RaiseAlert("Gerbang 3", "Akses Tidak Sah", nil, "")
	before := s.Snapshot()

	gate := alert.Gate
	s.SelectAlert(&alert.ID)
	s.HighlightGate(&gate)

	state := s.Snapshot()
	require.NotNil(t, state.SelectedAlertID)
	assert.Equal(t, alert.ID, *state.SelectedAlertID)
	require.NotNil(t, state.HighlightedGate)
	assert.Equal(t, "Gerbang 3", *state.HighlightedGate)

	selected, ok := state.SelectedAlert()
	assert.True(t, ok)
	assert.Equal(t, alert.ID, selected.ID)

	assert.Equal(t, before.ActivityLog, state.ActivityLog)
	assert.Equal(t, before.Alerts, state.Alerts)
	assert.Equal(t, before.GateStatus, state.GateStatus)

	s.SelectAlert(nil)
	s.HighlightGate(nil)
	state = s.Snapshot()
	assert.Nil(t, state.SelectedAlertID)
	assert.Nil(t, state.HighlightedGate)
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	s.RaiseAlert("Gerbang 1", "Anomali Kimia", nil, "")
	s.SetTrashLevel(95)
	s.SimulateVisitorExit()

	s.Reset()

	state := s.Snapshot()
	assert.Equal(t, 45231, state.VisitorCount)
	assert.Equal(t, 65, state.TrashLevel)
	assert.Empty(t, state.Alerts)
	assert.Equal(t, model.SecuritySafe, state.SecurityStatus)
	assert.Equal(t, model.GateNormal, state.GateStatus["Gerbang 1"])
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t)

	var ops []Operation
	var seen []int
	unsubscribe := s.Subscribe(func(op Operation, state model.SimulationState) {
		ops = append(ops, op)
		seen = append(seen, state.TrashLevel)
		assert.Equal(t, state, s.Snapshot(), "listener sees the committed snapshot")
	})

	var order []string
	s.Subscribe(func(Operation, model.SimulationState) { order = append(order, "second") })

	s.SetTrashLevel(80)
	s.RaiseAlert("Gerbang 1", "Anomali Kimia", nil, "")

	assert.Equal(t, []Operation{OpSetTrashLevel, OpRaiseAlert}, ops)
	assert.Equal(t, []int{80, 80}, seen)
	assert.Equal(t, []string{"second", "second"}, order)

	unsubscribe()
	s.SetTrashLevel(10)
	assert.Len(t, ops, 2)
	assert.Len(t, order, 3)
}

func TestDangerThreshold(t *testing.T) {
	rules := analyzer.NewAnalyzer(nil, analyzer.SecurityConfig{DangerThreshold: 2}, nil)
	s := newTestStore(t, WithRules(rules))

	first := s.RaiseAlert("Gerbang 1", "Anomali Kimia", nil, "")
	assert.Equal(t, model.SecurityWarning, s.Snapshot().SecurityStatus)

	s.RaiseAlert("Gerbang 2", "Anomali Kimia", nil, "")
	assert.Equal(t, model.SecurityDanger, s.Snapshot().SecurityStatus)

	s.SetAlertStatus(first.ID, model.AlertResolved, "Operator-001")
	assert.Equal(t, model.SecurityWarning, s.Snapshot().SecurityStatus)
}

func TestAutoResolveStale(t *testing.T) {
	now := testNow
	s := newTestStore(t, WithClock(func() time.Time { return now }))

	old := s.RaiseAlert("Gerbang 1", "Anomali Kimia", nil, "")
	handled := s.RaiseAlert("Gerbang 2", "Akses Tidak Sah", nil, "")
	s.SetAlertStatus(handled.ID, model.AlertResolved, "Operator-001")

	now = now.Add(5 * time.Second)
	fresh := s.RaiseAlert("Gerbang 3", "Objek Mencurigakan", nil, "")

	now = now.Add(6 * time.Second)
	resolved := s.AutoResolveStale(10*time.Second, "Sistem")
	assert.Equal(t, 1, resolved)

	state := s.Snapshot()
	got, _ := state.FindAlert(old.ID)
	assert.Equal(t, model.AlertResolved, got.Status)
	assert.Equal(t, "Sistem", got.AssignedTo)

	got, _ = state.FindAlert(fresh.ID)
	assert.Equal(t, model.AlertNew, got.Status)

	got, _ = state.FindAlert(handled.ID)
	assert.Equal(t, "Operator-001", got.AssignedTo, "already resolved alerts are left alone")
}

func TestFromContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoStore)

	s := newTestStore(t)
	got, err := FromContext(WithStore(context.Background(), s))
	require.NoError(t, err)
	assert.Same(t, s, got)
}
