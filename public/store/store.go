package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/awion/stadion360/model"
	"github.com/awion/stadion360/public/analyzer"
	"github.com/awion/stadion360/public/locale"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxActivities is the length cap of the activity feed
const MaxActivities = 10

// Visitor exits are drawn uniformly from [visitorExitMin, visitorExitMin+visitorExitSpan)
const (
	visitorExitMin  = 100
	visitorExitSpan = 500
)

// ErrUnsupportedType is returned for store types other than memory
var ErrUnsupportedType = errors.New("unsupported store type")

// StoreConfig represents store configuration options
type StoreConfig struct {
	Type          string   `yaml:"type"`
	Gates         []string `yaml:"gates"`
	TrashLocation string   `yaml:"trashLocation"`
	RandomSeed    int64    `yaml:"randomSeed"`
}

// Operation names a store mutation, as reported to listeners
type Operation string

// Store operations
const (
	OpRecordActivity Operation = "record_activity"
	OpRaiseAlert     Operation = "raise_alert"
	OpSetAlertStatus Operation = "set_alert_status"
	OpSetTrashLevel  Operation = "set_trash_level"
	OpVisitorExit    Operation = "visitor_exit"
	OpSelectAlert    Operation = "select_alert"
	OpHighlightGate  Operation = "highlight_gate"
	OpReset          Operation = "reset"
)

// Listener is called synchronously after every mutation with the new
// snapshot. Listeners must not call store mutations.
type Listener func(op Operation, state model.SimulationState)

type subscription struct {
	id int
	fn Listener
}

// Store holds the simulated stadium state and is the only way to change it
type Store struct {
	config StoreConfig
	rules  *analyzer.Analyzer
	logger *zap.Logger
	now    func() time.Time
	rand   Rand
	newID  func() string
	seed   func(time.Time) model.SimulationState

	// writeMu serializes mutations end to end, including notification
	writeMu sync.Mutex
	mutex   sync.RWMutex
	state   model.SimulationState

	listenerMu sync.RWMutex
	listeners  []subscription
	nextSubID  int
}

// Option customizes a Store
type Option func(*Store)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRand replaces the randomness source
func WithRand(r Rand) Option {
	return func(s *Store) { s.rand = r }
}

// WithIDs replaces the ID generator
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithRules sets the analyzer used for banding and posture
func WithRules(rules *analyzer.Analyzer) Option {
	return func(s *Store) { s.rules = rules }
}

// WithSeed replaces the boot snapshot
func WithSeed(seed func(time.Time) model.SimulationState) Option {
	return func(s *Store) { s.seed = seed }
}

// NewStore initializes a new store based on configuration
func NewStore(config StoreConfig, opts ...Option) (*Store, error) {
	switch config.Type {
	case "":
		config.Type = "memory"
	case "memory":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, config.Type)
	}
	if config.TrashLocation == "" {
		config.TrashLocation = model.TrackedBin
	}

	s := &Store{
		config: config,
		now:    time.Now,
		newID:  uuid.NewString,
		seed:   model.SeedState,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.rules == nil {
		s.rules = analyzer.NewAnalyzer(nil, analyzer.SecurityConfig{}, s.logger)
	}
	if s.rand == nil {
		seed := config.RandomSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s.rand = NewRand(seed)
	}

	s.state = s.bootState()

	s.logger.Info("Initialized store",
		zap.String("type", "memory"),
		zap.Int("gates", len(s.state.GateStatus)))
	return s, nil
}

// bootState builds the seed snapshot, applying configured gates
func (s *Store) bootState() model.SimulationState {
	state := s.seed(s.now())
	if len(s.config.Gates) > 0 {
		state.GateStatus = make(map[string]model.GateStatus, len(s.config.Gates))
		for _, gate := range s.config.Gates {
			state.GateStatus[gate] = model.GateNormal
		}
	}
	return state
}

// Config returns the store configuration in effect
func (s *Store) Config() StoreConfig {
	return s.config
}

// Gates returns the gate names the simulator picks from
func (s *Store) Gates() []string {
	if len(s.config.Gates) > 0 {
		return append([]string(nil), s.config.Gates...)
	}
	return append([]string(nil), model.DefaultGates...)
}

// Rand exposes the randomness source so triggers share one sequence
func (s *Store) Rand() Rand {
	return s.rand
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() model.SimulationState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.state.Clone()
}

// Subscribe registers a listener and returns a function that removes it
func (s *Store) Subscribe(fn Listener) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()

		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// mutate runs fn against a private copy of the state. When fn reports a
// change the copy replaces the snapshot and listeners are notified.
func (s *Store) mutate(op Operation, fn func(state *model.SimulationState) bool) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mutex.RLock()
	next := s.state.Clone()
	s.mutex.RUnlock()

	if !fn(&next) {
		return false
	}

	s.mutex.Lock()
	s.state = next
	s.mutex.Unlock()

	s.notify(op, next)
	return true
}

// notify calls listeners in registration order
func (s *Store) notify(op Operation, state model.SimulationState) {
	s.listenerMu.RLock()
	listeners := append([]subscription(nil), s.listeners...)
	s.listenerMu.RUnlock()

	for _, sub := range listeners {
		sub.fn(op, state.Clone())
	}
}

// prependActivity adds a new entry to the front of the feed and trims it
func (s *Store) prependActivity(state *model.SimulationState, severity model.Severity, message, location string) model.ActivityEntry {
	entry := model.ActivityEntry{
		ID:        s.newID(),
		Severity:  severity,
		Message:   message,
		CreatedAt: s.now(),
		Location:  location,
	}

	log := make([]model.ActivityEntry, 0, MaxActivities)
	log = append(log, entry)
	for _, old := range state.ActivityLog {
		if len(log) >= MaxActivities {
			break
		}
		log = append(log, old)
	}
	state.ActivityLog = log

	return entry
}

// recountAlerts restores the active-count and posture invariants
func (s *Store) recountAlerts(state *model.SimulationState) {
	state.ActiveAlertCount = model.CountActiveAlerts(state.Alerts)
	state.SecurityStatus = s.rules.SecurityStatus(state.ActiveAlertCount)
}

// RecordActivity prepends an entry to the activity feed. ID and CreatedAt
// are always generated.
func (s *Store) RecordActivity(entry model.ActivityEntry) model.ActivityEntry {
	var recorded model.ActivityEntry
	s.mutate(OpRecordActivity, func(state *model.SimulationState) bool {
		recorded = s.prependActivity(state, entry.Severity, entry.Message, entry.Location)
		return true
	})

	s.logger.Debug("Recorded activity",
		zap.String("id", recorded.ID),
		zap.String("severity", string(recorded.Severity)))
	return recorded
}

// RaiseAlert creates a new alert at a gate and flags the gate
func (s *Store) RaiseAlert(gate, threatType string, subject *model.Subject, description string) model.Alert {
	alert := model.Alert{
		ID:          s.newID(),
		Gate:        gate,
		ThreatType:  threatType,
		CreatedAt:   s.now(),
		Status:      model.AlertNew,
		Description: description,
	}
	if subject != nil {
		alert.SubjectName = subject.Name
		alert.SubjectBadge = subject.Badge
		alert.SubjectAvatar = subject.Avatar
	}

	s.mutate(OpRaiseAlert, func(state *model.SimulationState) bool {
		state.Alerts = append([]model.Alert{alert}, state.Alerts...)
		s.recountAlerts(state)
		state.GateStatus[gate] = model.GateAlert

		s.prependActivity(state, model.SeverityError,
			fmt.Sprintf("%s terdeteksi di %s!", threatType, gate), gate)
		return true
	})

	s.logger.Info("Security alert raised",
		zap.String("id", alert.ID),
		zap.String("gate", gate),
		zap.String("threat", threatType))
	return alert
}

// SetAlertStatus moves an alert to a new status. It returns false, and
// changes nothing, when no alert has the given ID.
func (s *Store) SetAlertStatus(alertID string, status model.AlertStatus, assignedTo string) bool {
	return s.setAlertStatus(alertID, status, assignedTo, false)
}

func (s *Store) setAlertStatus(alertID string, status model.AlertStatus, assignedTo string, onlyActive bool) bool {
	changed := s.mutate(OpSetAlertStatus, func(state *model.SimulationState) bool {
		idx := -1
		for i := range state.Alerts {
			if state.Alerts[i].ID == alertID {
				idx = i
				break
			}
		}
		if idx < 0 || (onlyActive && !state.Alerts[idx].Active()) {
			return false
		}

		state.Alerts[idx].Status = status
		state.Alerts[idx].AssignedTo = assignedTo
		alert := state.Alerts[idx]
		s.recountAlerts(state)

		operator := assignedTo
		if operator == "" {
			operator = "Petugas"
		}

		switch status {
		case model.AlertInProgress:
			s.prependActivity(state, model.SeverityWarning,
				fmt.Sprintf("%s sedang menangani kasus %s di %s", operator, alert.ThreatType, alert.Gate),
				alert.Gate)
		case model.AlertResolved:
			state.GateStatus[alert.Gate] = model.GateNormal
			s.prependActivity(state, model.SeveritySuccess,
				fmt.Sprintf("Kasus %s di %s telah diselesaikan oleh %s", alert.ThreatType, alert.Gate, operator),
				alert.Gate)
		}
		return true
	})

	if !changed {
		s.logger.Debug("Alert status update ignored", zap.String("id", alertID))
		return false
	}

	s.logger.Info("Alert status updated",
		zap.String("id", alertID),
		zap.String("status", string(status)),
		zap.String("assigned_to", assignedTo))
	return true
}

// SetTrashLevel stores the tracked bin level, clamped to 0-100, and logs
// one activity chosen by its band
func (s *Store) SetTrashLevel(level int) analyzer.Classification {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}

	class := s.rules.Classify(level, s.config.TrashLocation)
	s.mutate(OpSetTrashLevel, func(state *model.SimulationState) bool {
		state.TrashLevel = level
		s.prependActivity(state, class.Severity, class.Message, s.config.TrashLocation)
		return true
	})

	s.logger.Debug("Trash level set",
		zap.Int("level", level),
		zap.String("band", class.BandID))
	return class
}

// SimulateVisitorExit removes a random number of visitors and returns the
// number drawn together with the new total
func (s *Store) SimulateVisitorExit() (exited, total int) {
	exited = visitorExitMin + s.rand.Intn(visitorExitSpan)

	s.mutate(OpVisitorExit, func(state *model.SimulationState) bool {
		total = state.VisitorCount - exited
		if total < 0 {
			total = 0
		}
		state.VisitorCount = total

		s.prependActivity(state, model.SeverityInfo,
			fmt.Sprintf("%d pengunjung keluar stadion. Total sekarang: %s", exited, locale.Number(total)),
			"")
		return true
	})

	s.logger.Debug("Visitors exited", zap.Int("exited", exited), zap.Int("total", total))
	return exited, total
}

// SelectAlert puts an alert in focus, or clears the focus when id is nil
func (s *Store) SelectAlert(id *string) {
	s.mutate(OpSelectAlert, func(state *model.SimulationState) bool {
		state.SelectedAlertID = copyString(id)
		return true
	})
}

// HighlightGate marks a gate on the map, or clears the mark when gate is nil
func (s *Store) HighlightGate(gate *string) {
	s.mutate(OpHighlightGate, func(state *model.SimulationState) bool {
		state.HighlightedGate = copyString(gate)
		return true
	})
}

// Reset restores the boot snapshot
func (s *Store) Reset() {
	s.mutate(OpReset, func(state *model.SimulationState) bool {
		*state = s.bootState()
		return true
	})
	s.logger.Info("Store reset to seed state")
}

// AutoResolveStale resolves every active alert older than maxAge and
// returns how many were resolved
func (s *Store) AutoResolveStale(maxAge time.Duration, operator string) int {
	cutoff := s.now().Add(-maxAge)

	var stale []string
	for _, alert := range s.Snapshot().Alerts {
		if alert.Active() && !alert.CreatedAt.After(cutoff) {
			stale = append(stale, alert.ID)
		}
	}

	resolved := 0
	for _, id := range stale {
		if s.setAlertStatus(id, model.AlertResolved, operator, true) {
			resolved++
		}
	}
	return resolved
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
