package model

import (
	"time"
)

// DefaultGates are the stadium entry points tracked on the map
var DefaultGates = []string{"Gerbang 1", "Gerbang 2", "Gerbang 3", "Gerbang 4"}

// TrackedBin is the waste bin whose level the simulator drives
const TrackedBin = "Tribun 7-B"

// SeedState builds the snapshot the store boots with. Relative timestamps
// are anchored on now.
func SeedState(now time.Time) SimulationState {
	gates := make(map[string]GateStatus, len(DefaultGates))
	for _, gate := range DefaultGates {
		gates[gate] = GateNormal
	}

	return SimulationState{
		VisitorCount:     45231,
		SecurityStatus:   SecuritySafe,
		TrashLevel:       65,
		ActiveAlertCount: 0,
		GateStatus:       gates,
		Alerts:           []Alert{},
		ActivityLog: []ActivityEntry{
			{
				ID:        "1",
				Severity:  SeveritySuccess,
				Message:   "Pindai aman di Gerbang 4",
				CreatedAt: now.Add(-2 * time.Minute),
				Location:  "Gerbang 4",
			},
			{
				ID:        "2",
				Severity:  SeverityInfo,
				Message:   "Tempat sampah di Tribun 7-B sudah 85% penuh",
				CreatedAt: now.Add(-5 * time.Minute),
				Location:  TrackedBin,
			},
			{
				ID:        "3",
				Severity:  SeveritySuccess,
				Message:   "Sistem keamanan beroperasi normal",
				CreatedAt: now.Add(-10 * time.Minute),
			},
		},
		UserProfile: UserProfile{
			ID:           "123",
			Name:         "Budi Santoso",
			AvatarURL:    "https://ui-avatars.com/api/?name=Budi+Santoso&background=10b981&color=fff&size=128",
			PointBalance: 2450,
			Ledger: []PointEvent{
				{ID: "1", Description: "Melewati Gerbang Keamanan", PointsDelta: 10, CreatedAt: now.Add(-30 * time.Minute), Kind: PointsEarned},
				{ID: "2", Description: "Membuang Sampah pada Tempatnya", PointsDelta: 25, CreatedAt: now.Add(-2 * time.Hour), Kind: PointsEarned},
				{ID: "3", Description: "Menukar Poin untuk Merchandise", PointsDelta: -100, CreatedAt: now.Add(-24 * time.Hour), Kind: PointsSpent},
				{ID: "4", Description: "Check-in Tepat Waktu", PointsDelta: 15, CreatedAt: now.Add(-48 * time.Hour), Kind: PointsEarned},
				{ID: "5", Description: "Melaporkan Fasilitas Rusak", PointsDelta: 50, CreatedAt: now.Add(-72 * time.Hour), Kind: PointsEarned},
			},
		},
		ChartData: ChartData{
			SecurityTrend: []TrendPoint{
				{Date: "15 Jul", Alerts: 2},
				{Date: "16 Jul", Alerts: 1},
				{Date: "17 Jul", Alerts: 4},
				{Date: "18 Jul", Alerts: 3},
				{Date: "19 Jul", Alerts: 1},
				{Date: "20 Jul", Alerts: 2},
				{Date: "21 Jul", Alerts: 0},
				{Date: "22 Jul", Alerts: 1},
			},
			Cleanliness: []SectorCleanliness{
				{Sector: "Sektor A", Cleanliness: 92, Fill: "#10b981"},
				{Sector: "Sektor B", Cleanliness: 78, Fill: "#3b82f6"},
				{Sector: "Sektor C", Cleanliness: 85, Fill: "#8b5cf6"},
				{Sector: "Sektor D", Cleanliness: 69, Fill: "#f59e0b"},
				{Sector: "Sektor E", Cleanliness: 94, Fill: "#06b6d4"},
			},
		},
	}
}

// TrashBins lists the bins on the cleanliness view. Only the tracked bin
// follows the simulated level.
func TrashBins(trackedLevel int) []TrashBin {
	return []TrashBin{
		{ID: "Tribun 7-A", Location: "Sektor Utara", Level: 45, LastEmptied: "2 jam lalu", Capacity: "240L"},
		{ID: TrackedBin, Location: "Sektor Utara", Level: trackedLevel, LastEmptied: "30 menit lalu", Capacity: "240L"},
		{ID: "Tribun 8-A", Location: "Sektor Selatan", Level: 32, LastEmptied: "1 jam lalu", Capacity: "240L"},
		{ID: "Tribun 8-B", Location: "Sektor Selatan", Level: 58, LastEmptied: "45 menit lalu", Capacity: "240L"},
		{ID: "Gerbang Utama", Location: "Pintu Masuk", Level: 78, LastEmptied: "3 jam lalu", Capacity: "120L"},
		{ID: "Area Parkir", Location: "Luar Stadion", Level: 23, LastEmptied: "30 menit lalu", Capacity: "360L"},
	}
}
