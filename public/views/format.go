package views

import (
	"fmt"
	"time"

	"github.com/awion/stadion360/model"
)

// Tone is a colour band shared by the terminal and web renderers
type Tone string

// Tones
const (
	ToneGreen  Tone = "green"
	ToneBlue   Tone = "blue"
	ToneYellow Tone = "yellow"
	ToneRed    Tone = "red"
	ToneGray   Tone = "gray"
)

// RelativeTime renders how long ago t was, in whole units
func RelativeTime(now, t time.Time) string {
	minutes := int(now.Sub(t) / time.Minute)
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%d hari lalu", days)
	case hours > 0:
		return fmt.Sprintf("%d jam lalu", hours)
	case minutes > 0:
		return fmt.Sprintf("%d menit lalu", minutes)
	default:
		return "Baru saja"
	}
}

var months = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// DateTime renders t as "22 Juli 2024 19.30"
func DateTime(t time.Time) string {
	return fmt.Sprintf("%02d %s %d %02d.%02d", t.Day(), months[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// SecurityLabel maps a posture to its display label
func SecurityLabel(status model.SecurityStatus) string {
	switch status {
	case model.SecuritySafe:
		return "Aman"
	case model.SecurityWarning:
		return "Peringatan"
	case model.SecurityDanger:
		return "Bahaya"
	default:
		return string(status)
	}
}

// SecurityTone maps a posture to its colour
func SecurityTone(status model.SecurityStatus) Tone {
	switch status {
	case model.SecuritySafe:
		return ToneGreen
	case model.SecurityWarning:
		return ToneYellow
	default:
		return ToneRed
	}
}

// AlertStatusLabel maps an alert status to its display label
func AlertStatusLabel(status model.AlertStatus) string {
	switch status {
	case model.AlertNew:
		return "PERINGATAN BARU"
	case model.AlertInProgress:
		return "DALAM PENANGANAN"
	case model.AlertResolved:
		return "DISELESAIKAN"
	default:
		return "STATUS TIDAK DIKENAL"
	}
}

// AlertStatusTone maps an alert status to its colour
func AlertStatusTone(status model.AlertStatus) Tone {
	switch status {
	case model.AlertNew:
		return ToneRed
	case model.AlertInProgress:
		return ToneYellow
	case model.AlertResolved:
		return ToneGreen
	default:
		return ToneGray
	}
}

// GateTone maps a gate status to its colour
func GateTone(status model.GateStatus) Tone {
	switch status {
	case model.GateAlert:
		return ToneRed
	case model.GateWarning:
		return ToneYellow
	default:
		return ToneGreen
	}
}

// SeverityTone maps an activity severity to its colour
func SeverityTone(severity model.Severity) Tone {
	switch severity {
	case model.SeveritySuccess:
		return ToneGreen
	case model.SeverityInfo:
		return ToneBlue
	case model.SeverityWarning:
		return ToneYellow
	case model.SeverityError:
		return ToneRed
	default:
		return ToneGray
	}
}

// TrashTone bands a fill level: red from 90, yellow from 75, blue from 50
func TrashTone(level int) Tone {
	switch {
	case level >= 90:
		return ToneRed
	case level >= 75:
		return ToneYellow
	case level >= 50:
		return ToneBlue
	default:
		return ToneGreen
	}
}

// PointsDelta renders a signed points change, e.g. +25 or -100
func PointsDelta(delta int) string {
	if delta > 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return fmt.Sprintf("%d", delta)
}
