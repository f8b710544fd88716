package simulator

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/awion/stadion360/model"
	"github.com/awion/stadion360/public/analyzer"
	"github.com/awion/stadion360/public/store"
	"go.uber.org/zap"
)

// ScenarioConfig represents a timed trigger that fires a simulation on an
// interval, in seconds. Parameters: "level" pins a trash scenario to a
// fixed fill level, "extended" set to "true" makes a security scenario draw
// from the command center lists.
type ScenarioConfig struct {
	Type       string            `yaml:"type"`
	Interval   int               `yaml:"interval"`
	Parameters map[string]string `yaml:"parameters"`
}

// Scenario types
const (
	ScenarioSecurity = "security"
	ScenarioTrash    = "trash"
	ScenarioVisitors = "visitors"
)

// Threats raised by the simulator control panel
var Threats = []string{"Anomali Kimia", "Objek Mencurigakan", "Akses Tidak Sah"}

// ExtendedThreats are raised from the security command center
var ExtendedThreats = []string{
	"Anomali Kimia",
	"Objek Mencurigakan",
	"Akses Tidak Sah",
	"Gangguan Keamanan",
	"Pelanggaran Protokol",
}

// Subjects are the wristbands attached to command center alerts
var Subjects = []model.Subject{
	{
		Name:   "Ahmad Wijaya",
		Badge:  "BND-001",
		Avatar: "https://ui-avatars.com/api/?name=Ahmad+Wijaya&background=ef4444&color=fff&size=64",
	},
	{
		Name:   "Siti Rahayu",
		Badge:  "BND-002",
		Avatar: "https://ui-avatars.com/api/?name=Siti+Rahayu&background=3b82f6&color=fff&size=64",
	},
	{
		Name:   "Budi Santoso",
		Badge:  "BND-003",
		Avatar: "https://ui-avatars.com/api/?name=Budi+Santoso&background=10b981&color=fff&size=64",
	},
}

// panelSubjects are the wristbands the simulator control panel draws from
var panelSubjects = Subjects[:2]

// Simulator turns random picks into store operations
type Simulator struct {
	scenarios []ScenarioConfig
	store     *store.Store
	rand      store.Rand
	logger    *zap.Logger
	runners   []*scenarioRunner
	mu        sync.Mutex
}

// NewSimulator creates a new simulator sharing the store's randomness source
func NewSimulator(scenarios []ScenarioConfig, st *store.Store, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		scenarios: scenarios,
		store:     st,
		rand:      st.Rand(),
		logger:    logger,
	}
}

// Store returns the store the simulator drives
func (s *Simulator) Store() *store.Store {
	return s.store
}

func (s *Simulator) pick(values []string) string {
	return values[s.rand.Intn(len(values))]
}

// SecurityAlert raises an alert at a random gate with a random threat and
// subject, as the simulator control panel does
func (s *Simulator) SecurityAlert() model.Alert {
	gate := s.pick(s.store.Gates())
	threat := s.pick(Threats)
	subject := panelSubjects[s.rand.Intn(len(panelSubjects))]

	description := fmt.Sprintf("Sistem telah mendeteksi %s melalui sensor keamanan otomatis di %s.",
		strings.ToLower(threat), gate)

	return s.store.RaiseAlert(gate, threat, &subject, description)
}

// ExtendedSecurityAlert raises an alert drawn from the wider threat and
// subject lists of the security command center
func (s *Simulator) ExtendedSecurityAlert() model.Alert {
	threat := s.pick(ExtendedThreats)
	gate := s.pick(s.store.Gates())
	subject := Subjects[s.rand.Intn(len(Subjects))]

	description := fmt.Sprintf("Sistem telah mendeteksi %s melalui sensor keamanan otomatis. "+
		"Tim keamanan diharapkan segera melakukan verifikasi dan tindakan yang diperlukan.",
		strings.ToLower(threat))

	return s.store.RaiseAlert(gate, threat, &subject, description)
}

// TrashLevel sets the tracked bin to level
func (s *Simulator) TrashLevel(level int) analyzer.Classification {
	return s.store.SetTrashLevel(level)
}

// RandomTrashLevel sets the tracked bin to a random level in 0-100
func (s *Simulator) RandomTrashLevel() analyzer.Classification {
	return s.store.SetTrashLevel(s.rand.Intn(101))
}

// VisitorExit lets a random group of visitors leave
func (s *Simulator) VisitorExit() (exited, total int) {
	return s.store.SimulateVisitorExit()
}

// Start launches every configured scenario
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, scenario := range s.scenarios {
		if scenario.Interval <= 0 {
			s.logger.Warn("Skipping scenario with non-positive interval", zap.String("type", scenario.Type))
			continue
		}

		fire, err := s.scenarioAction(scenario)
		if err != nil {
			s.logger.Warn("Skipping scenario", zap.String("type", scenario.Type), zap.Error(err))
			continue
		}

		runner := newScenarioRunner(scenario, fire, s.logger)
		s.runners = append(s.runners, runner)
		runner.Start()
	}
}

// scenarioAction resolves what a scenario does each time it fires
func (s *Simulator) scenarioAction(scenario ScenarioConfig) (func(), error) {
	switch scenario.Type {
	case ScenarioSecurity:
		extended, err := ScenarioExtended(scenario)
		if err != nil {
			return nil, err
		}
		if extended {
			return func() { s.ExtendedSecurityAlert() }, nil
		}
		return func() { s.SecurityAlert() }, nil

	case ScenarioTrash:
		level, ok, err := ScenarioLevel(scenario)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() { s.TrashLevel(level) }, nil
		}
		return func() { s.RandomTrashLevel() }, nil

	case ScenarioVisitors:
		return func() { s.VisitorExit() }, nil
	}
	return nil, fmt.Errorf("unknown scenario type: %s", scenario.Type)
}

// ScenarioLevel reads the fixed "level" parameter of a trash scenario
func ScenarioLevel(scenario ScenarioConfig) (int, bool, error) {
	raw, ok := scenario.Parameters["level"]
	if !ok {
		return 0, false, nil
	}
	level, err := strconv.Atoi(raw)
	if err != nil || level < 0 || level > 100 {
		return 0, false, fmt.Errorf("level parameter must be 0-100, got %q", raw)
	}
	return level, true, nil
}

// ScenarioExtended reads the "extended" parameter of a security scenario
func ScenarioExtended(scenario ScenarioConfig) (bool, error) {
	raw, ok := scenario.Parameters["extended"]
	if !ok {
		return false, nil
	}
	extended, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("extended parameter must be a boolean, got %q", raw)
	}
	return extended, nil
}

// Stop halts all running scenarios
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, runner := range s.runners {
		runner.Stop()
	}
	s.runners = nil
}

// Running returns how many scenarios are active
func (s *Simulator) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runners)
}

// scenarioRunner fires one scenario on its interval
type scenarioRunner struct {
	config   ScenarioConfig
	fire     func()
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func newScenarioRunner(config ScenarioConfig, fire func(), logger *zap.Logger) *scenarioRunner {
	return &scenarioRunner{
		config:   config,
		fire:     fire,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins firing on the configured interval
func (r *scenarioRunner) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.logger.Info("Starting scenario",
			zap.String("type", r.config.Type),
			zap.Int("interval_seconds", r.config.Interval))

		ticker := time.NewTicker(time.Duration(r.config.Interval) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.fire()
			case <-r.stopChan:
				return
			}
		}
	}()
}

// Stop halts the runner
func (r *scenarioRunner) Stop() {
	close(r.stopChan)
	r.wg.Wait()
}
