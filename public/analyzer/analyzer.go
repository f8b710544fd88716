package analyzer

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/awion/stadion360/model"
	"go.uber.org/zap"
)

// BandConfig represents a single trash-level band rule. A level falls into
// the band with the highest Min that does not exceed it.
type BandConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Min      int    `yaml:"min"`
	Severity string `yaml:"severity"`
	Message  string `yaml:"message"`
}

// SecurityConfig tunes how alerts map onto the security posture
type SecurityConfig struct {
	// DangerThreshold switches the posture to Danger once this many alerts
	// are active. Zero keeps Danger unreachable.
	DangerThreshold int `yaml:"dangerThreshold"`
	// AutoResetAfter resolves alerts older than this many seconds. Zero
	// disables the sweeper.
	AutoResetAfter int    `yaml:"autoResetAfter"`
	SweepInterval  int    `yaml:"sweepInterval"`
	Operator       string `yaml:"operator"`
}

// Classification is the outcome of running a trash level through the bands
type Classification struct {
	BandID   string         `json:"bandId"`
	Severity model.Severity `json:"severity"`
	Message  string         `json:"message"`
}

// Resolver is the part of the state store the sweeper drives
type Resolver interface {
	AutoResolveStale(maxAge time.Duration, operator string) int
}

// Analyzer applies banding and posture rules to simulated readings
type Analyzer struct {
	bands    []BandConfig
	security SecurityConfig
	logger   *zap.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// DefaultBands returns the stock trash-level rules
func DefaultBands() []BandConfig {
	return []BandConfig{
		{
			ID:       "trash-full",
			Name:     "Almost full",
			Min:      90,
			Severity: "error",
			Message:  "Tempat sampah di {location} hampir penuh! Perlu dikosongkan segera.",
		},
		{
			ID:       "trash-high",
			Name:     "High",
			Min:      75,
			Severity: "warning",
			Message:  "Tempat sampah di {location} {level}% penuh",
		},
		{
			ID:       "trash-medium",
			Name:     "Medium",
			Min:      50,
			Severity: "info",
			Message:  "Level sampah di {location}: {level}%",
		},
		{
			ID:       "trash-emptied",
			Name:     "Emptied",
			Min:      0,
			Severity: "success",
			Message:  "Tempat sampah di {location} telah dikosongkan ({level}%)",
		},
	}
}

// NewAnalyzer creates a new analyzer. An empty band list falls back to
// DefaultBands.
func NewAnalyzer(bands []BandConfig, security SecurityConfig, logger *zap.Logger) *Analyzer {
	if len(bands) == 0 {
		bands = DefaultBands()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sorted := append([]BandConfig(nil), bands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Min > sorted[j].Min
	})

	if security.SweepInterval <= 0 {
		security.SweepInterval = 1
	}
	if security.Operator == "" {
		security.Operator = "Sistem"
	}

	return &Analyzer{
		bands:    sorted,
		security: security,
		logger:   logger,
	}
}

// Classify picks the band for a trash level and renders its message
func (a *Analyzer) Classify(level int, location string) Classification {
	for _, band := range a.bands {
		if level >= band.Min {
			return Classification{
				BandID:   band.ID,
				Severity: model.ParseSeverity(band.Severity),
				Message:  renderMessage(band.Message, level, location),
			}
		}
	}

	return Classification{
		Severity: model.SeverityInfo,
		Message:  renderMessage("Level sampah di {location}: {level}%", level, location),
	}
}

// renderMessage fills the {level} and {location} placeholders
func renderMessage(tmpl string, level int, location string) string {
	r := strings.NewReplacer("{level}", strconv.Itoa(level), "{location}", location)
	return r.Replace(tmpl)
}

// SecurityStatus derives the posture from the number of active alerts
func (a *Analyzer) SecurityStatus(active int) model.SecurityStatus {
	switch {
	case active <= 0:
		return model.SecuritySafe
	case a.security.DangerThreshold > 0 && active >= a.security.DangerThreshold:
		return model.SecurityDanger
	default:
		return model.SecurityWarning
	}
}

// GetBands returns the band rules, highest threshold first
func (a *Analyzer) GetBands() []BandConfig {
	return append([]BandConfig(nil), a.bands...)
}

// GetSecurity returns the security tuning in effect
func (a *Analyzer) GetSecurity() SecurityConfig {
	return a.security
}

// Start launches the auto-reset sweeper when it is configured
func (a *Analyzer) Start(resolver Resolver) {
	if a.security.AutoResetAfter <= 0 || resolver == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true
	a.stopChan = make(chan struct{})

	a.logger.Info("Starting alert auto-reset sweeper",
		zap.Int("after_seconds", a.security.AutoResetAfter),
		zap.Int("interval_seconds", a.security.SweepInterval))

	a.wg.Add(1)
	go a.runSweeper(resolver, a.stopChan)
}

// Stop halts the sweeper
func (a *Analyzer) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.stopChan)
	a.mu.Unlock()

	a.wg.Wait()
	a.logger.Info("Alert auto-reset sweeper stopped")
}

// runSweeper periodically resolves alerts that outlived AutoResetAfter
func (a *Analyzer) runSweeper(resolver Resolver, stop <-chan struct{}) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Duration(a.security.SweepInterval) * time.Second)
	defer ticker.Stop()

	maxAge := time.Duration(a.security.AutoResetAfter) * time.Second

	for {
		select {
		case <-ticker.C:
			if n := resolver.AutoResolveStale(maxAge, a.security.Operator); n > 0 {
				a.logger.Info("Auto-resolved stale alerts", zap.Int("count", n))
			}
		case <-stop:
			return
		}
	}
}
