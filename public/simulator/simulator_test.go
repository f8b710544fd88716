package simulator

import (
	"testing"
	"time"

	"github.com/awion/stadion360/model"
	"github.com/awion/stadion360/public/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSimulator(t *testing.T, values ...int) (*Simulator, *store.Store) {
	t.Helper()

	st, err := store.NewStore(store.StoreConfig{Type: "memory"},
		store.WithRand(store.NewSequenceRand(values...)))
	require.NoError(t, err)

	return NewSimulator(nil, st, nil), st
}

func TestSecurityAlert(t *testing.T) {
	// gate index 1, threat index 1, subject index 0
	sim, st := newTestSimulator(t, 1, 1, 0)

	alert := sim.SecurityAlert()

	assert.Equal(t, "Gerbang 2", alert.Gate)
	assert.Equal(t, "Objek Mencurigakan", alert.ThreatType)
	assert.Equal(t, "Ahmad Wijaya", alert.SubjectName)
	assert.Equal(t, "BND-001", alert.SubjectBadge)
	assert.Equal(t, "Sistem telah mendeteksi objek mencurigakan melalui sensor keamanan otomatis di Gerbang 2.", alert.Description)

	state := st.Snapshot()
	assert.Equal(t, model.GateAlert, state.GateStatus["Gerbang 2"])
	assert.Equal(t, model.SecurityWarning, state.SecurityStatus)
}

func TestExtendedSecurityAlert(t *testing.T) {
	// threat index 4, gate index 3, subject index 2
	sim, _ := newTestSimulator(t, 4, 3, 2)

	alert := sim.ExtendedSecurityAlert()

	assert.Equal(t, "Pelanggaran Protokol", alert.ThreatType)
	assert.Equal(t, "Gerbang 4", alert.Gate)
	assert.Equal(t, "Budi Santoso", alert.SubjectName)
	assert.Contains(t, alert.Description, "pelanggaran protokol")
}

func TestTrashAndVisitors(t *testing.T) {
	sim, st := newTestSimulator(t, 95, 0)

	class := sim.RandomTrashLevel()
	assert.Equal(t, model.SeverityError, class.Severity)
	assert.Equal(t, 95, st.Snapshot().TrashLevel)

	exited, total := sim.VisitorExit()
	assert.Equal(t, 100, exited)
	assert.Equal(t, 45131, total)

	class = sim.TrashLevel(20)
	assert.Equal(t, model.SeveritySuccess, class.Severity)
}

func TestScenarios(t *testing.T) {
	st, err := store.NewStore(store.StoreConfig{Type: "memory"}, store.WithRand(store.NewRand(7)))
	require.NoError(t, err)

	sim := NewSimulator([]ScenarioConfig{
		{Type: ScenarioVisitors, Interval: 1},
		{Type: "weather", Interval: 1},
		{Type: ScenarioTrash, Interval: 0},
	}, st, nil)

	sim.Start()
	assert.Equal(t, 1, sim.Running(), "unknown and non-positive scenarios are skipped")

	assert.Eventually(t, func() bool {
		return st.Snapshot().VisitorCount < 45231
	}, 3*time.Second, 50*time.Millisecond)

	sim.Stop()
	assert.Zero(t, sim.Running())
}

func TestScenarioParameters(t *testing.T) {
	st, err := store.NewStore(store.StoreConfig{Type: "memory"}, store.WithRand(store.NewRand(7)))
	require.NoError(t, err)

	sim := NewSimulator([]ScenarioConfig{
		{Type: ScenarioTrash, Interval: 1, Parameters: map[string]string{"level": "90"}},
		{Type: ScenarioTrash, Interval: 1, Parameters: map[string]string{"level": "penuh"}},
		{Type: ScenarioSecurity, Interval: 1, Parameters: map[string]string{"extended": "kadang"}},
	}, st, nil)

	sim.Start()
	defer sim.Stop()
	assert.Equal(t, 1, sim.Running(), "scenarios with invalid parameters are skipped")

	assert.Eventually(t, func() bool {
		return st.Snapshot().TrashLevel == 90
	}, 3*time.Second, 50*time.Millisecond)
}

func TestScenarioLevelAndExtended(t *testing.T) {
	tests := []struct {
		name       string
		params     map[string]string
		wantLevel  int
		wantSet    bool
		wantLevErr bool
		wantExt    bool
		wantExtErr bool
	}{
		{name: "no parameters"},
		{name: "fixed level", params: map[string]string{"level": "75"}, wantLevel: 75, wantSet: true},
		{name: "level out of range", params: map[string]string{"level": "101"}, wantLevErr: true},
		{name: "extended", params: map[string]string{"extended": "true"}, wantExt: true},
		{name: "extended not boolean", params: map[string]string{"extended": "ya"}, wantExtErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := ScenarioConfig{Parameters: tt.params}

			level, ok, err := ScenarioLevel(scenario)
			if tt.wantLevErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantSet, ok)
				assert.Equal(t, tt.wantLevel, level)
			}

			extended, err := ScenarioExtended(scenario)
			if tt.wantExtErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantExt, extended)
			}
		})
	}
}

func TestSecurityAlert_PanelSubjectsOnly(t *testing.T) {
	for i := range panelSubjects {
		sim, _ := newTestSimulator(t, 0, 0, i)
		alert := sim.SecurityAlert()
		assert.Equal(t, Subjects[i].Name, alert.SubjectName)
	}
	assert.Len(t, panelSubjects, 2)
	assert.NotContains(t, panelSubjects, Subjects[2])
}
