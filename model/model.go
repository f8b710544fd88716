package model

import (
	"time"
)

// SecurityStatus represents the overall security posture of the stadium
type SecurityStatus string

// Security statuses
const (
	SecuritySafe    SecurityStatus = "Safe"
	SecurityWarning SecurityStatus = "Warning"
	SecurityDanger  SecurityStatus = "Danger"
)

// GateStatus represents the discrete status of a stadium gate
type GateStatus string

// Gate statuses
const (
	GateNormal  GateStatus = "normal"
	GateWarning GateStatus = "warning"
	GateAlert   GateStatus = "alert"
)

// Severity represents the severity level of activity log entries
type Severity string

// Severity levels
const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity converts a string to a Severity type
func ParseSeverity(s string) Severity {
	switch s {
	case "success", "SUCCESS":
		return SeveritySuccess
	case "warning", "WARNING":
		return SeverityWarning
	case "error", "ERROR":
		return SeverityError
	default:
		return SeverityInfo
	}
}

// AlertStatus represents the handling stage of a security alert
type AlertStatus string

// Alert statuses, in the order an alert moves through them
const (
	AlertNew        AlertStatus = "new"
	AlertInProgress AlertStatus = "in_progress"
	AlertResolved   AlertStatus = "resolved"
)

// ParseAlertStatus converts a string to an AlertStatus. The boolean is false
// for unknown values.
func ParseAlertStatus(s string) (AlertStatus, bool) {
	switch s {
	case "new":
		return AlertNew, true
	case "in_progress", "in-progress":
		return AlertInProgress, true
	case "resolved":
		return AlertResolved, true
	default:
		return "", false
	}
}

// PointKind tells whether a loyalty point event added or removed points
type PointKind string

// Point event kinds
const (
	PointsEarned PointKind = "earned"
	PointsSpent  PointKind = "spent"
)

// ActivityEntry is one line of the human-readable activity feed
type ActivityEntry struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Location  string    `json:"location,omitempty"`
}

// Subject identifies the visitor wristband involved in an alert
type Subject struct {
	Name   string `json:"name" yaml:"name"`
	Badge  string `json:"badge" yaml:"badge"`
	Avatar string `json:"avatar" yaml:"avatar"`
}

// Alert represents a security incident raised at a gate
type Alert struct {
	ID            string      `json:"id"`
	Gate          string      `json:"gate"`
	ThreatType    string      `json:"threatType"`
	CreatedAt     time.Time   `json:"createdAt"`
	Status        AlertStatus `json:"status"`
	AssignedTo    string      `json:"assignedTo,omitempty"`
	SubjectName   string      `json:"subjectName,omitempty"`
	SubjectBadge  string      `json:"subjectBadge,omitempty"`
	SubjectAvatar string      `json:"subjectAvatar,omitempty"`
	Description   string      `json:"description,omitempty"`
}

// Active reports whether the alert still counts towards the active total
func (a Alert) Active() bool {
	return a.Status != AlertResolved
}

// CountActiveAlerts returns the number of alerts that are not resolved
func CountActiveAlerts(alerts []Alert) int {
	count := 0
	for _, alert := range alerts {
		if alert.Active() {
			count++
		}
	}
	return count
}

// PointEvent is an immutable loyalty-points ledger entry
type PointEvent struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	PointsDelta int       `json:"pointsDelta"`
	CreatedAt   time.Time `json:"createdAt"`
	Kind        PointKind `json:"kind"`
}

// UserProfile represents a visitor and their loyalty points
type UserProfile struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	AvatarURL    string       `json:"avatarUrl"`
	PointBalance int          `json:"pointBalance"`
	Ledger       []PointEvent `json:"ledger"`
}

// TrendPoint is one day of the security alert trend chart
type TrendPoint struct {
	Date   string `json:"date"`
	Alerts int    `json:"alerts"`
}

// SectorCleanliness is one bar of the cleanliness chart
type SectorCleanliness struct {
	Sector      string `json:"sector"`
	Cleanliness int    `json:"cleanliness"`
	Fill        string `json:"fill"`
}

// ChartData holds the example chart series shown on the dashboard
type ChartData struct {
	SecurityTrend []TrendPoint        `json:"securityTrend"`
	Cleanliness   []SectorCleanliness `json:"cleanliness"`
}

// TrashBin is a monitored waste bin on the cleanliness view
type TrashBin struct {
	ID          string `json:"id"`
	Location    string `json:"location"`
	Level       int    `json:"level"`
	LastEmptied string `json:"lastEmptied"`
	Capacity    string `json:"capacity"`
}

// SimulationState is the whole simulated stadium at one point in time.
// The store replaces it wholesale on every mutation.
type SimulationState struct {
	VisitorCount     int                   `json:"visitorCount"`
	SecurityStatus   SecurityStatus        `json:"securityStatus"`
	TrashLevel       int                   `json:"trashLevel"`
	ActiveAlertCount int                   `json:"activeAlertCount"`
	GateStatus       map[string]GateStatus `json:"gateStatus"`
	ActivityLog      []ActivityEntry       `json:"activityLog"`
	Alerts           []Alert               `json:"alerts"`
	SelectedAlertID  *string               `json:"selectedAlertId,omitempty"`
	HighlightedGate  *string               `json:"highlightedGate,omitempty"`
	UserProfile      UserProfile           `json:"userProfile"`
	ChartData        ChartData             `json:"chartData"`
}

// Clone returns a deep copy so callers can never reach the store's state
func (s SimulationState) Clone() SimulationState {
	out := s

	out.GateStatus = make(map[string]GateStatus, len(s.GateStatus))
	for gate, status := range s.GateStatus {
		out.GateStatus[gate] = status
	}

	out.ActivityLog = append([]ActivityEntry(nil), s.ActivityLog...)
	out.Alerts = append([]Alert(nil), s.Alerts...)
	out.UserProfile.Ledger = append([]PointEvent(nil), s.UserProfile.Ledger...)
	out.ChartData.SecurityTrend = append([]TrendPoint(nil), s.ChartData.SecurityTrend...)
	out.ChartData.Cleanliness = append([]SectorCleanliness(nil), s.ChartData.Cleanliness...)

	if s.SelectedAlertID != nil {
		id := *s.SelectedAlertID
		out.SelectedAlertID = &id
	}
	if s.HighlightedGate != nil {
		gate := *s.HighlightedGate
		out.HighlightedGate = &gate
	}

	return out
}

// FindAlert returns the alert with the given ID
func (s SimulationState) FindAlert(id string) (Alert, bool) {
	for _, alert := range s.Alerts {
		if alert.ID == id {
			return alert, true
		}
	}
	return Alert{}, false
}

// SelectedAlert returns the alert currently in focus, if any
func (s SimulationState) SelectedAlert() (Alert, bool) {
	if s.SelectedAlertID == nil {
		return Alert{}, false
	}
	return s.FindAlert(*s.SelectedAlertID)
}
