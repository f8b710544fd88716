// Package views shapes store snapshots into the payloads each dashboard
// page renders. Terminal and HTTP renderers share these.
package views

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/awion/stadion360/model"
	"github.com/awion/stadion360/public/locale"
)

// ErrUnknownView is returned for names outside the fixed navigation set
var ErrUnknownView = errors.New("unknown view")

// Name identifies a navigable view
type Name string

// Views
const (
	Dashboard   Name = "dashboard"
	Security    Name = "security"
	Cleanliness Name = "cleanliness"
	Simulator   Name = "simulator"
	Profile     Name = "profile"
)

// Names lists the views in navigation order
var Names = []Name{Dashboard, Security, Cleanliness, Simulator, Profile}

// Parse converts a string to a view name
func Parse(s string) (Name, error) {
	switch s {
	case "", "home", "dashboard":
		return Dashboard, nil
	case "security":
		return Security, nil
	case "cleanliness":
		return Cleanliness, nil
	case "simulator":
		return Simulator, nil
	case "profile":
		return Profile, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownView, s)
	}
}

// StatCard is one headline number
type StatCard struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Tone  Tone   `json:"tone"`
}

// GateView is a gate on the stadium map
type GateView struct {
	Name        string           `json:"name"`
	Status      model.GateStatus `json:"status"`
	Tone        Tone             `json:"tone"`
	Highlighted bool             `json:"highlighted"`
}

// ActivityView is a rendered activity feed line
type ActivityView struct {
	ID       string         `json:"id"`
	Severity model.Severity `json:"severity"`
	Tone     Tone           `json:"tone"`
	Message  string         `json:"message"`
	Location string         `json:"location,omitempty"`
	When     string         `json:"when"`
}

// AlertView is an alert with its display labels
type AlertView struct {
	model.Alert
	StatusLabel string `json:"statusLabel"`
	Tone        Tone   `json:"tone"`
	When        string `json:"when"`
	CreatedText string `json:"createdText"`
	Selected    bool   `json:"selected"`
}

// ModalState is the alert-detail modal's position in its flow
type ModalState string

// Modal states
const (
	ModalClosed         ModalState = "closed"
	ModalOpenNew        ModalState = "open_new"
	ModalOpenInProgress ModalState = "open_in_progress"
)

// Modal actions offered to the operator
const (
	ActionTakeAction = "act"
	ActionResolve    = "resolve"
)

// ModalView is the alert-detail modal
type ModalView struct {
	State   ModalState `json:"state"`
	Alert   *AlertView `json:"alert,omitempty"`
	Actions []string   `json:"actions,omitempty"`
}

// DashboardView is the home page
type DashboardView struct {
	Stats         []StatCard                `json:"stats"`
	Gates         []GateView                `json:"gates"`
	Activity      []ActivityView            `json:"activity"`
	SecurityTrend []model.TrendPoint        `json:"securityTrend"`
	Cleanliness   []model.SectorCleanliness `json:"cleanliness"`
}

// SecurityView is the security command center
type SecurityView struct {
	Status       model.SecurityStatus `json:"status"`
	StatusLabel  string               `json:"statusLabel"`
	Tone         Tone                 `json:"tone"`
	ActiveAlerts int                  `json:"activeAlerts"`
	Alerts       []AlertView          `json:"alerts"`
	Gates        []GateView           `json:"gates"`
	Modal        ModalView            `json:"modal"`
}

// BinView is a trash bin card
type BinView struct {
	model.TrashBin
	Tone          Tone `json:"tone"`
	NeedsEmptying bool `json:"needsEmptying"`
}

// CleanlinessView is the cleanliness page
type CleanlinessView struct {
	Bins          []BinView                 `json:"bins"`
	NeedAttention int                       `json:"needAttention"`
	AverageLevel  int                       `json:"averageLevel"`
	Sectors       []model.SectorCleanliness `json:"sectors"`
}

// SimulatorView is the simulator control panel's status strip
type SimulatorView struct {
	Stats    []StatCard     `json:"stats"`
	Activity []ActivityView `json:"activity"`
}

// LedgerView is a rendered point event
type LedgerView struct {
	model.PointEvent
	DeltaText   string `json:"deltaText"`
	Tone        Tone   `json:"tone"`
	CreatedText string `json:"createdText"`
}

// ProfileView is the loyalty profile page
type ProfileView struct {
	RequestedID  string       `json:"requestedId"`
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	AvatarURL    string       `json:"avatarUrl"`
	PointBalance int          `json:"pointBalance"`
	BalanceText  string       `json:"balanceText"`
	TotalEarned  int          `json:"totalEarned"`
	TotalSpent   int          `json:"totalSpent"`
	Ledger       []LedgerView `json:"ledger"`
}

// Build renders the named view. arg is the user ID for the profile view.
func Build(name Name, state model.SimulationState, now time.Time, arg string) (interface{}, error) {
	switch name {
	case Dashboard:
		return BuildDashboard(state, now), nil
	case Security:
		return BuildSecurity(state, now), nil
	case Cleanliness:
		return BuildCleanliness(state), nil
	case Simulator:
		return BuildSimulator(state, now), nil
	case Profile:
		return BuildProfile(state, arg), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
}

func stats(state model.SimulationState) []StatCard {
	alertTone := ToneGreen
	if state.ActiveAlertCount > 0 {
		alertTone = ToneRed
	}
	return []StatCard{
		{Title: "Total Penonton", Value: locale.Number(state.VisitorCount), Tone: ToneBlue},
		{Title: "Status Keamanan", Value: SecurityLabel(state.SecurityStatus), Tone: SecurityTone(state.SecurityStatus)},
		{Title: "Level Sampah", Value: fmt.Sprintf("%d%%", state.TrashLevel), Tone: TrashTone(state.TrashLevel)},
		{Title: "Alert Aktif", Value: fmt.Sprintf("%d", state.ActiveAlertCount), Tone: alertTone},
	}
}

// Gates lists gates sorted by name
func Gates(state model.SimulationState) []GateView {
	names := make([]string, 0, len(state.GateStatus))
	for name := range state.GateStatus {
		names = append(names, name)
	}
	sort.Strings(names)

	gates := make([]GateView, 0, len(names))
	for _, name := range names {
		status := state.GateStatus[name]
		gates = append(gates, GateView{
			Name:        name,
			Status:      status,
			Tone:        GateTone(status),
			Highlighted: state.HighlightedGate != nil && *state.HighlightedGate == name,
		})
	}
	return gates
}

// Activity renders the feed
func Activity(state model.SimulationState, now time.Time) []ActivityView {
	out := make([]ActivityView, 0, len(state.ActivityLog))
	for _, entry := range state.ActivityLog {
		out = append(out, ActivityView{
			ID:       entry.ID,
			Severity: entry.Severity,
			Tone:     SeverityTone(entry.Severity),
			Message:  entry.Message,
			Location: entry.Location,
			When:     RelativeTime(now, entry.CreatedAt),
		})
	}
	return out
}

func alertView(alert model.Alert, state model.SimulationState, now time.Time) AlertView {
	return AlertView{
		Alert:       alert,
		StatusLabel: AlertStatusLabel(alert.Status),
		Tone:        AlertStatusTone(alert.Status),
		When:        RelativeTime(now, alert.CreatedAt),
		CreatedText: DateTime(alert.CreatedAt),
		Selected:    state.SelectedAlertID != nil && *state.SelectedAlertID == alert.ID,
	}
}

// Modal derives the alert-detail modal from the focus state. A selected
// alert that is already resolved leaves the modal closed.
func Modal(state model.SimulationState, now time.Time) ModalView {
	alert, ok := state.SelectedAlert()
	if !ok {
		return ModalView{State: ModalClosed}
	}

	view := alertView(alert, state, now)
	switch alert.Status {
	case model.AlertNew:
		return ModalView{State: ModalOpenNew, Alert: &view, Actions: []string{ActionTakeAction, ActionResolve}}
	case model.AlertInProgress:
		return ModalView{State: ModalOpenInProgress, Alert: &view, Actions: []string{ActionResolve}}
	default:
		return ModalView{State: ModalClosed}
	}
}

// BuildDashboard renders the home page
func BuildDashboard(state model.SimulationState, now time.Time) DashboardView {
	return DashboardView{
		Stats:         stats(state),
		Gates:         Gates(state),
		Activity:      Activity(state, now),
		SecurityTrend: state.ChartData.SecurityTrend,
		Cleanliness:   state.ChartData.Cleanliness,
	}
}

// BuildSecurity renders the security command center
func BuildSecurity(state model.SimulationState, now time.Time) SecurityView {
	alerts := make([]AlertView, 0, len(state.Alerts))
	for _, alert := range state.Alerts {
		alerts = append(alerts, alertView(alert, state, now))
	}

	return SecurityView{
		Status:       state.SecurityStatus,
		StatusLabel:  SecurityLabel(state.SecurityStatus),
		Tone:         SecurityTone(state.SecurityStatus),
		ActiveAlerts: state.ActiveAlertCount,
		Alerts:       alerts,
		Gates:        Gates(state),
		Modal:        Modal(state, now),
	}
}

// BuildCleanliness renders the cleanliness page
func BuildCleanliness(state model.SimulationState) CleanlinessView {
	bins := model.TrashBins(state.TrashLevel)

	view := CleanlinessView{
		Bins:    make([]BinView, 0, len(bins)),
		Sectors: state.ChartData.Cleanliness,
	}

	total := 0
	for _, bin := range bins {
		full := bin.Level >= 75
		if full {
			view.NeedAttention++
		}
		total += bin.Level
		view.Bins = append(view.Bins, BinView{
			TrashBin:      bin,
			Tone:          TrashTone(bin.Level),
			NeedsEmptying: full,
		})
	}
	if len(bins) > 0 {
		view.AverageLevel = total / len(bins)
	}
	return view
}

// BuildSimulator renders the simulator control panel
func BuildSimulator(state model.SimulationState, now time.Time) SimulatorView {
	return SimulatorView{
		Stats:    stats(state),
		Activity: Activity(state, now),
	}
}

// BuildProfile renders the loyalty profile. Every user ID resolves to the
// single simulated profile.
func BuildProfile(state model.SimulationState, userID string) ProfileView {
	profile := state.UserProfile
	if userID == "" {
		userID = profile.ID
	}

	view := ProfileView{
		RequestedID:  userID,
		ID:           profile.ID,
		Name:         profile.Name,
		AvatarURL:    profile.AvatarURL,
		PointBalance: profile.PointBalance,
		BalanceText:  locale.Number(profile.PointBalance),
		Ledger:       make([]LedgerView, 0, len(profile.Ledger)),
	}

	for _, event := range profile.Ledger {
		tone := ToneGreen
		if event.Kind == model.PointsSpent {
			tone = ToneRed
			view.TotalSpent += -event.PointsDelta
		} else {
			view.TotalEarned += event.PointsDelta
		}
		view.Ledger = append(view.Ledger, LedgerView{
			PointEvent:  event,
			DeltaText:   PointsDelta(event.PointsDelta),
			Tone:        tone,
			CreatedText: DateTime(event.CreatedAt),
		})
	}
	return view
}
