package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
	}{
		{"success", SeveritySuccess},
		{"SUCCESS", SeveritySuccess},
		{"warning", SeverityWarning},
		{"ERROR", SeverityError},
		{"info", SeverityInfo},
		{"", SeverityInfo},
		{"critical", SeverityInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSeverity(tt.input), tt.input)
	}
}

func TestParseAlertStatus(t *testing.T) {
	tests := []struct {
		input string
		want  AlertStatus
		ok    bool
	}{
		{"new", AlertNew, true},
		{"in_progress", AlertInProgress, true},
		{"in-progress", AlertInProgress, true},
		{"resolved", AlertResolved, true},
		{"Resolved", "", false},
		{"closed", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseAlertStatus(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestCountActiveAlerts(t *testing.T) {
	alerts := []Alert{
		{ID: "a", Status: AlertNew},
		{ID: "b", Status: AlertInProgress},
		{ID: "c", Status: AlertResolved},
	}
	assert.Equal(t, 2, CountActiveAlerts(alerts))
	assert.Zero(t, CountActiveAlerts(nil))
}

func TestClone_IsDeep(t *testing.T) {
	now := time.Date(2024, time.July, 22, 19, 30, 0, 0, time.UTC)
	state := SeedState(now)
	id, gate := "alert-1", "Gerbang 1"
	state.Alerts = []Alert{{ID: id, Gate: gate, Status: AlertNew}}
	state.SelectedAlertID = &id
	state.HighlightedGate = &gate

	clone := state.Clone()
	require.Equal(t, state, clone)

	clone.GateStatus["Gerbang 1"] = GateAlert
	clone.ActivityLog[0].Message = "diubah"
	clone.Alerts[0].Status = AlertResolved
	clone.UserProfile.Ledger[0].Description = "diubah"
	clone.ChartData.SecurityTrend[0].Alerts = 99
	clone.ChartData.Cleanliness[0].Cleanliness = 1
	*clone.SelectedAlertID = "lain"
	*clone.HighlightedGate = "Gerbang 9"

	assert.Equal(t, GateNormal, state.GateStatus["Gerbang 1"])
	assert.NotEqual(t, "diubah", state.ActivityLog[0].Message)
	assert.Equal(t, AlertNew, state.Alerts[0].Status)
	assert.NotEqual(t, "diubah", state.UserProfile.Ledger[0].Description)
	assert.NotEqual(t, 99, state.ChartData.SecurityTrend[0].Alerts)
	assert.NotEqual(t, 1, state.ChartData.Cleanliness[0].Cleanliness)
	assert.Equal(t, "alert-1", *state.SelectedAlertID)
	assert.Equal(t, "Gerbang 1", *state.HighlightedGate)
}

func TestSelectedAlert(t *testing.T) {
	state := SimulationState{Alerts: []Alert{{ID: "a"}, {ID: "b"}}}

	_, ok := state.SelectedAlert()
	assert.False(t, ok)

	id := "b"
	state.SelectedAlertID = &id
	alert, ok := state.SelectedAlert()
	require.True(t, ok)
	assert.Equal(t, "b", alert.ID)

	missing := "z"
	state.SelectedAlertID = &missing
	_, ok = state.SelectedAlert()
	assert.False(t, ok)
}
