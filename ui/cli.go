package ui

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/awion/stadion360/model"
	"github.com/awion/stadion360/public/locale"
	"github.com/awion/stadion360/public/simulator"
	"github.com/awion/stadion360/public/store"
	"github.com/awion/stadion360/public/views"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

// Config holds the CLI configuration settings
type Config struct {
	Operator    string `yaml:"operator"`
	LiveFeed    bool   `yaml:"liveFeed"`
	HistorySize int    `yaml:"historySize"`
	ShowBanner  bool   `yaml:"showBanner"`
}

// DefaultOperator handles alerts taken from the terminal
const DefaultOperator = "Operator-001"

// CLI represents the terminal dashboard
type CLI struct {
	store      *store.Store
	simulator  *simulator.Simulator
	config     Config
	logger     *zap.Logger
	in         io.Reader
	out        io.Writer
	now        func() time.Time
	outMu      sync.Mutex
	feedMu     sync.Mutex
	lastHead   string
	cmdHistory []string
	unsub      func()
	done       chan struct{}
	stopOnce   sync.Once
}

// syncWriter serializes writes from the command loop and the live feed
type syncWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (s syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// NewCLI creates a terminal dashboard reading commands from in and writing
// to out
func NewCLI(in io.Reader, out io.Writer, st *store.Store, sim *simulator.Simulator, config Config, logger *zap.Logger) *CLI {
	if config.Operator == "" {
		config.Operator = DefaultOperator
	}
	if config.HistorySize <= 0 {
		config.HistorySize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &CLI{
		store:      st,
		simulator:  sim,
		config:     config,
		logger:     logger,
		in:         in,
		now:        time.Now,
		cmdHistory: make([]string, 0, config.HistorySize),
		done:       make(chan struct{}),
	}
	c.out = syncWriter{mu: &c.outMu, w: out}
	return c
}

// Start shows the menu and begins reading commands
func (c *CLI) Start() {
	if c.config.LiveFeed {
		c.lastHead = headID(c.store.Snapshot())
		c.unsub = c.store.Subscribe(c.onChange)
	}

	if c.config.ShowBanner {
		c.showBanner()
	}
	c.showMenu()

	go c.processCommands()
}

// Done is closed when the operator quits or input ends
func (c *CLI) Done() <-chan struct{} {
	return c.done
}

// Stop detaches the live feed. A pending read on the input is abandoned.
func (c *CLI) Stop() {
	c.stopOnce.Do(func() {
		if c.unsub != nil {
			c.unsub()
		}
		close(c.done)
	})
}

// onChange echoes new activity entries while the live feed is on
func (c *CLI) onChange(op store.Operation, state model.SimulationState) {
	c.feedMu.Lock()
	defer c.feedMu.Unlock()

	head := headID(state)
	if head == c.lastHead {
		return
	}
	c.lastHead = head
	if op == store.OpReset || len(state.ActivityLog) == 0 {
		return
	}

	entry := state.ActivityLog[0]
	tone := views.SeverityTone(entry.Severity)
	fmt.Fprintf(c.out, "\n%s %s\n", paint(tone, "●"), entry.Message)
}

func headID(state model.SimulationState) string {
	if len(state.ActivityLog) == 0 {
		return ""
	}
	return state.ActivityLog[0].ID
}

// showBanner displays the application banner
func (c *CLI) showBanner() {
	fmt.Fprintln(c.out, colorCyan(`
   _____ __            ___               _____ _____ ____
  / ___// /_____ _____/ (_)___  ____    |__  // ___// __ \
  \__ \/ __/ __ '/ __  / / __ \/ __ \    /_ </ __ \/ / / /
 ___/ / /_/ /_/ / /_/ / / /_/ / / / /  ___/ / /_/ / /_/ /
/____/\__/\__,_/\__,_/_/\____/_/ /_/  /____/\____/\____/
`))
}

// processCommands reads commands line by line until input ends
func (c *CLI) processCommands() {
	defer c.Stop()

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "\n> ")
		if !scanner.Scan() {
			return
		}

		command := strings.TrimSpace(scanner.Text())
		if command == "" {
			continue
		}
		if !c.Execute(command) {
			return
		}
	}
}

// Execute runs one command. It returns false when the operator quits.
func (c *CLI) Execute(command string) bool {
	parts := parseCommandWithQuotes(command)
	if len(parts) == 0 {
		return true
	}

	c.recordHistory(command)

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "h", "?":
		c.showHelp()
	case "menu", "m":
		c.showMenu()
	case "dashboard", "1", "d":
		c.showDashboard()
	case "security", "2", "s":
		c.showSecurity()
	case "cleanliness", "3", "c":
		c.showCleanliness()
	case "simulator", "4", "sim":
		c.showSimulator()
	case "profile", "5", "p":
		userID := ""
		if len(args) > 0 {
			userID = args[0]
		}
		c.showProfile(userID)
	case "alert":
		c.simulateAlert(args)
	case "trash":
		c.simulateTrash(args)
	case "exit-visitors", "visitors":
		c.simulateVisitorExit()
	case "show":
		c.withAlertID(args, "show <alert_id>", c.openAlert)
	case "act":
		c.withAlertID(args, "act <alert_id>", c.takeAction)
	case "resolve":
		c.withAlertID(args, "resolve <alert_id>", c.resolveAlert)
	case "close":
		c.closeModal()
	case "activity", "feed":
		c.showActivity()
	case "reset":
		c.store.Reset()
		fmt.Fprintln(c.out, colorGreen("Simulasi dikembalikan ke kondisi awal"))
	case "history":
		c.showCommandHistory()
	case "clear", "cls":
		fmt.Fprint(c.out, "\033[H\033[2J")
		c.showMenu()
	case "exit", "quit", "q":
		fmt.Fprintln(c.out, "Sampai jumpa!")
		return false
	default:
		fmt.Fprintf(c.out, "%s: Perintah tidak dikenal: %s\n", colorRed("Error"), parts[0])
		fmt.Fprintln(c.out, "Ketik 'help' untuk melihat daftar perintah")
	}
	return true
}

// recordHistory appends to the command history, skipping repeats
func (c *CLI) recordHistory(command string) {
	if len(c.cmdHistory) > 0 && c.cmdHistory[len(c.cmdHistory)-1] == command {
		return
	}
	if len(c.cmdHistory) >= c.config.HistorySize {
		c.cmdHistory = c.cmdHistory[1:]
	}
	c.cmdHistory = append(c.cmdHistory, command)
}

// parseCommandWithQuotes splits command respecting quoted strings
func parseCommandWithQuotes(command string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false

	for _, r := range command {
		switch {
		case r == '"' || r == '\'':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// newTable returns a table writer with the shared look
func (c *CLI) newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// showMenu displays the main menu
func (c *CLI) showMenu() {
	fmt.Fprintf(c.out, "\n%s\n", colorBold("Menu Utama:"))

	table := tablewriter.NewWriter(c.out)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("│")
	table.SetHeaderLine(false)

	table.Append([]string{colorCyan("1") + " / " + colorCyan("d"), "Dashboard", "Ringkasan stadion dan aktivitas terbaru"})
	table.Append([]string{colorCyan("2") + " / " + colorCyan("s"), "Keamanan", "Pusat komando keamanan dan daftar alert"})
	table.Append([]string{colorCyan("3") + " / " + colorCyan("c"), "Kebersihan", "Level tempat sampah per tribun"})
	table.Append([]string{colorCyan("4") + " / " + colorCyan("sim"), "Simulator", "Panel kontrol simulasi"})
	table.Append([]string{colorCyan("5") + " / " + colorCyan("p"), "Profil", "Poin loyalitas pengunjung"})
	table.Append([]string{colorCyan("help") + " / " + colorCyan("?"), "Bantuan", "Daftar semua perintah"})
	table.Append([]string{colorCyan("quit") + " / " + colorCyan("q"), "Keluar", "Tutup terminal"})
	table.Render()

	c.showQuickStatus()
}

// showQuickStatus prints a one-line overview under the menu
func (c *CLI) showQuickStatus() {
	state := c.store.Snapshot()
	fmt.Fprintf(c.out, "\nStatus: %s │ Penonton: %s │ Sampah: %s │ Alert aktif: %d\n",
		paint(views.SecurityTone(state.SecurityStatus), views.SecurityLabel(state.SecurityStatus)),
		locale.Number(state.VisitorCount),
		paint(views.TrashTone(state.TrashLevel), fmt.Sprintf("%d%%", state.TrashLevel)),
		state.ActiveAlertCount)
}

// showHelp displays available commands
func (c *CLI) showHelp() {
	fmt.Fprintf(c.out, "\n%s\n", colorBold("Perintah Tersedia:"))
	fmt.Fprintln(c.out, "═════════════════════")
	fmt.Fprintln(c.out, "  dashboard | 1          - Dashboard utama")
	fmt.Fprintln(c.out, "  security | 2           - Pusat komando keamanan")
	fmt.Fprintln(c.out, "  cleanliness | 3        - Status kebersihan")
	fmt.Fprintln(c.out, "  simulator | 4          - Panel simulator")
	fmt.Fprintln(c.out, "  profile [id] | 5       - Profil dan riwayat poin")
	fmt.Fprintln(c.out, "\nSimulasi:")
	fmt.Fprintln(c.out, "  alert [extended]       - Picu alert keamanan acak")
	fmt.Fprintln(c.out, "  trash [0-100]          - Atur level sampah (acak bila kosong)")
	fmt.Fprintln(c.out, "  exit-visitors          - Simulasikan pengunjung keluar")
	fmt.Fprintln(c.out, "  reset                  - Kembalikan ke kondisi awal")
	fmt.Fprintln(c.out, "\nPenanganan alert:")
	fmt.Fprintln(c.out, "  show <id>              - Buka detail alert dan sorot gerbang")
	fmt.Fprintln(c.out, "  act <id>               - Ambil tindakan (dalam penanganan)")
	fmt.Fprintln(c.out, "  resolve <id>           - Tandai selesai")
	fmt.Fprintln(c.out, "  close                  - Tutup detail alert")
	fmt.Fprintln(c.out, "\nLainnya:")
	fmt.Fprintln(c.out, "  activity | history | clear | menu | quit")
}

// showCommandHistory lists recent commands
func (c *CLI) showCommandHistory() {
	fmt.Fprintf(c.out, "\n%s\n", colorBold("Riwayat Perintah:"))
	for i, cmd := range c.cmdHistory {
		fmt.Fprintf(c.out, "  %3d  %s\n", i+1, cmd)
	}
}

// showStats renders the headline cards
func (c *CLI) showStats(stats []views.StatCard) {
	table := c.newTable("Metrik", "Nilai")
	for _, card := range stats {
		table.Append([]string{card.Title, paint(card.Tone, card.Value)})
	}
	table.Render()
}

// showGates renders the stadium map as a gate table
func (c *CLI) showGates(gates []views.GateView) {
	table := c.newTable("Gerbang", "Status")
	for _, gate := range gates {
		name := gate.Name
		if gate.Highlighted {
			name = colorHighlight(name)
		}
		table.Append([]string{name, paint(gate.Tone, strings.ToUpper(string(gate.Status)))})
	}
	table.Render()
}

// showActivityTable renders the activity feed
func (c *CLI) showActivityTable(entries []views.ActivityView) {
	table := c.newTable("Waktu", "Tingkat", "Pesan", "Lokasi")
	for _, entry := range entries {
		table.Append([]string{
			entry.When,
			paint(entry.Tone, string(entry.Severity)),
			entry.Message,
			orDash(entry.Location),
		})
	}
	table.Render()
}

// showDashboard renders the home view
func (c *CLI) showDashboard() {
	view := views.BuildDashboard(c.store.Snapshot(), c.now())

	fmt.Fprintf(c.out, "\n%s\n", colorBold("Dashboard Stadion 360°"))
	c.showStats(view.Stats)

	fmt.Fprintf(c.out, "\n%s\n", colorBold("Peta Gerbang:"))
	c.showGates(view.Gates)

	fmt.Fprintf(c.out, "\n%s\n", colorBold("Aktivitas Terbaru:"))
	c.showActivityTable(view.Activity)

	fmt.Fprintf(c.out, "\n%s\n", colorBold("Tren Alert Keamanan:"))
	table := c.newTable("Tanggal", "Alert")
	for _, point := range view.SecurityTrend {
		table.Append([]string{point.Date, strconv.Itoa(point.Alerts)})
	}
	table.Render()
}

// showSecurity renders the security command center
func (c *CLI) showSecurity() {
	view := views.BuildSecurity(c.store.Snapshot(), c.now())

	fmt.Fprintf(c.out, "\n%s  Status: %s  │  Alert aktif: %d\n",
		colorBold("Pusat Komando Keamanan"),
		paint(view.Tone, view.StatusLabel),
		view.ActiveAlerts)

	c.showGates(view.Gates)

	if len(view.Alerts) == 0 {
		fmt.Fprintln(c.out, "\nBelum ada alert. Gunakan 'alert' untuk memicu simulasi.")
	} else {
		table := c.newTable("ID", "Gerbang", "Ancaman", "Status", "Petugas", "Waktu")
		for _, alert := range view.Alerts {
			id := shortID(alert.ID)
			if alert.Selected {
				id = colorHighlight(id)
			}
			table.Append([]string{
				id,
				alert.Gate,
				alert.ThreatType,
				paint(alert.Tone, alert.StatusLabel),
				orDash(alert.AssignedTo),
				alert.When,
			})
		}
		fmt.Fprintln(c.out)
		table.Render()
	}

	c.showModal(view.Modal)
}

// showModal renders the alert-detail panel when it is open
func (c *CLI) showModal(modal views.ModalView) {
	if modal.State == views.ModalClosed || modal.Alert == nil {
		return
	}

	alert := modal.Alert
	fmt.Fprintf(c.out, "\n%s\n", paint(alert.Tone, "╔═ Detail Alert ═════════════════════════════════════"))
	fmt.Fprintf(c.out, "║ %s  %s\n", colorBold(alert.ThreatType), paint(alert.Tone, alert.StatusLabel))
	fmt.Fprintf(c.out, "║ ID:        %s\n", alert.ID)
	fmt.Fprintf(c.out, "║ Lokasi:    %s\n", alert.Gate)
	fmt.Fprintf(c.out, "║ Waktu:     %s (%s)\n", alert.CreatedText, alert.When)
	if alert.SubjectName != "" {
		fmt.Fprintf(c.out, "║ Subjek:    %s [%s]\n", alert.SubjectName, orDash(alert.SubjectBadge))
	}
	if alert.AssignedTo != "" {
		fmt.Fprintf(c.out, "║ Petugas:   %s\n", alert.AssignedTo)
	}
	if alert.Description != "" {
		fmt.Fprintf(c.out, "║ %s\n", alert.Description)
	}

	hints := make([]string, 0, len(modal.Actions))
	for _, action := range modal.Actions {
		switch action {
		case views.ActionTakeAction:
			hints = append(hints, colorCyan("act "+shortID(alert.ID))+" Ambil Tindakan")
		case views.ActionResolve:
			hints = append(hints, colorCyan("resolve "+shortID(alert.ID))+" Tandai Selesai")
		}
	}
	hints = append(hints, colorCyan("close")+" Tutup")
	fmt.Fprintf(c.out, "║ %s\n", strings.Join(hints, "  │  "))
	fmt.Fprintf(c.out, "%s\n", paint(alert.Tone, "╚════════════════════════════════════════════════════"))
}

// showCleanliness renders the bin levels
func (c *CLI) showCleanliness() {
	view := views.BuildCleanliness(c.store.Snapshot())

	fmt.Fprintf(c.out, "\n%s  Perlu dikosongkan: %d  │  Rata-rata: %d%%\n",
		colorBold("Status Kebersihan"), view.NeedAttention, view.AverageLevel)

	table := c.newTable("Tempat Sampah", "Lokasi", "Level", "", "Kapasitas", "Dikosongkan")
	for _, bin := range view.Bins {
		table.Append([]string{
			bin.ID,
			bin.Location,
			paint(bin.Tone, fmt.Sprintf("%d%%", bin.Level)),
			paint(bin.Tone, levelBar(bin.Level)),
			bin.Capacity,
			bin.LastEmptied,
		})
	}
	table.Render()

	fmt.Fprintf(c.out, "\n%s\n", colorBold("Kebersihan per Sektor:"))
	sectors := c.newTable("Sektor", "Kebersihan")
	for _, sector := range view.Sectors {
		sectors.Append([]string{sector.Sector, fmt.Sprintf("%d%%", sector.Cleanliness)})
	}
	sectors.Render()
}

// showSimulator renders the simulator control panel
func (c *CLI) showSimulator() {
	view := views.BuildSimulator(c.store.Snapshot(), c.now())

	fmt.Fprintf(c.out, "\n%s\n", colorBold("Panel Simulator"))
	c.showStats(view.Stats)

	fmt.Fprintln(c.out, "\nKontrol:")
	fmt.Fprintf(c.out, "  %s  Picu alert keamanan\n", colorCyan("alert"))
	fmt.Fprintf(c.out, "  %s  Atur level sampah\n", colorCyan("trash <0-100>"))
	fmt.Fprintf(c.out, "  %s  Simulasikan pengunjung keluar\n", colorCyan("exit-visitors"))
	if c.simulator != nil && c.simulator.Running() > 0 {
		fmt.Fprintf(c.out, "\nSkenario otomatis aktif: %d\n", c.simulator.Running())
	}
}

// showProfile renders the loyalty profile
func (c *CLI) showProfile(userID string) {
	view := views.BuildProfile(c.store.Snapshot(), userID)

	fmt.Fprintf(c.out, "\n%s\n", colorBold(view.Name))
	fmt.Fprintf(c.out, "ID Pengguna: %s\n", view.RequestedID)
	fmt.Fprintf(c.out, "Saldo Poin:  %s\n", colorGreen(view.BalanceText))
	fmt.Fprintf(c.out, "Diperoleh:   %s  │  Ditukar: %s\n",
		colorGreen(views.PointsDelta(view.TotalEarned)),
		colorRed(views.PointsDelta(-view.TotalSpent)))

	table := c.newTable("Tanggal", "Keterangan", "Poin")
	for _, event := range view.Ledger {
		table.Append([]string{event.CreatedText, event.Description, paint(event.Tone, event.DeltaText)})
	}
	table.Render()
}

// showActivity renders just the activity feed
func (c *CLI) showActivity() {
	fmt.Fprintf(c.out, "\n%s\n", colorBold("Aktivitas Terbaru:"))
	c.showActivityTable(views.Activity(c.store.Snapshot(), c.now()))
}

// simulateAlert raises a random alert
func (c *CLI) simulateAlert(args []string) {
	var alert model.Alert
	if len(args) > 0 && args[0] == "extended" {
		alert = c.simulator.ExtendedSecurityAlert()
	} else {
		alert = c.simulator.SecurityAlert()
	}
	fmt.Fprintf(c.out, "%s %s di %s (ID %s)\n",
		colorRed("Alert dibuat:"), alert.ThreatType, alert.Gate, shortID(alert.ID))
}

// simulateTrash sets the tracked bin level
func (c *CLI) simulateTrash(args []string) {
	if len(args) == 0 {
		class := c.simulator.RandomTrashLevel()
		fmt.Fprintln(c.out, class.Message)
		return
	}

	level, err := strconv.Atoi(args[0])
	if err != nil || level < 0 || level > 100 {
		fmt.Fprintln(c.out, "Usage: trash <0-100>")
		return
	}
	class := c.simulator.TrashLevel(level)
	fmt.Fprintln(c.out, class.Message)
}

// simulateVisitorExit lets a random group leave
func (c *CLI) simulateVisitorExit() {
	exited, total := c.simulator.VisitorExit()
	fmt.Fprintf(c.out, "%d pengunjung keluar. Total: %s\n", exited, locale.Number(total))
	c.logger.Debug("Visitor exit from terminal", zap.Int("exited", exited), zap.Int("total", total))
}

// withAlertID resolves the first argument to an alert before calling fn
func (c *CLI) withAlertID(args []string, usage string, fn func(model.Alert)) {
	if len(args) == 0 {
		fmt.Fprintf(c.out, "Usage: %s\n", usage)
		return
	}

	alert, err := c.findAlert(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "%s: %v\n", colorRed("Error"), err)
		return
	}
	fn(alert)
}

// findAlert matches an alert by ID or unique ID prefix
func (c *CLI) findAlert(prefix string) (model.Alert, error) {
	state := c.store.Snapshot()
	if alert, ok := state.FindAlert(prefix); ok {
		return alert, nil
	}

	var matches []model.Alert
	for _, alert := range state.Alerts {
		if strings.HasPrefix(alert.ID, prefix) {
			matches = append(matches, alert)
		}
	}

	switch len(matches) {
	case 0:
		return model.Alert{}, fmt.Errorf("alert %s tidak ditemukan", prefix)
	case 1:
		return matches[0], nil
	default:
		return model.Alert{}, fmt.Errorf("ID %s cocok dengan %d alert", prefix, len(matches))
	}
}

// openAlert selects an alert, highlights its gate and shows the modal
func (c *CLI) openAlert(alert model.Alert) {
	id, gate := alert.ID, alert.Gate
	c.store.SelectAlert(&id)
	c.store.HighlightGate(&gate)
	c.showModal(views.Modal(c.store.Snapshot(), c.now()))
}

// takeAction moves an alert to in progress under the terminal operator
func (c *CLI) takeAction(alert model.Alert) {
	if alert.Status != model.AlertNew {
		fmt.Fprintf(c.out, "Alert %s sudah %s\n", shortID(alert.ID), views.AlertStatusLabel(alert.Status))
		return
	}

	c.store.SetAlertStatus(alert.ID, model.AlertInProgress, c.config.Operator)
	fmt.Fprintf(c.out, "%s %s sedang menangani alert %s\n",
		colorYellow("●"), c.config.Operator, shortID(alert.ID))

	if selected := c.store.Snapshot().SelectedAlertID; selected != nil && *selected == alert.ID {
		c.showModal(views.Modal(c.store.Snapshot(), c.now()))
	}
}

// resolveAlert marks an alert resolved and closes the modal
func (c *CLI) resolveAlert(alert model.Alert) {
	if alert.Status == model.AlertResolved {
		fmt.Fprintf(c.out, "Alert %s sudah diselesaikan\n", shortID(alert.ID))
		return
	}

	c.store.SetAlertStatus(alert.ID, model.AlertResolved, c.config.Operator)
	fmt.Fprintf(c.out, "%s Alert %s diselesaikan oleh %s\n",
		colorGreen("✔"), shortID(alert.ID), c.config.Operator)
	c.closeModal()
}

// closeModal clears the selected alert and highlighted gate
func (c *CLI) closeModal() {
	state := c.store.Snapshot()
	if state.SelectedAlertID != nil {
		c.store.SelectAlert(nil)
	}
	if state.HighlightedGate != nil {
		c.store.HighlightGate(nil)
	}
}
