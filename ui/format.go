package ui

import (
	"strings"

	"github.com/awion/stadion360/public/views"
	"github.com/fatih/color"
)

// Color definitions using fatih/color package for better cross-platform support
var (
	colorRed       = color.New(color.FgRed).SprintFunc()
	colorGreen     = color.New(color.FgGreen).SprintFunc()
	colorYellow    = color.New(color.FgYellow).SprintFunc()
	colorBlue      = color.New(color.FgBlue).SprintFunc()
	colorCyan      = color.New(color.FgCyan).SprintFunc()
	colorGray      = color.New(color.FgHiBlack).SprintFunc()
	colorBold      = color.New(color.Bold).SprintFunc()
	colorHighlight = color.New(color.BgBlue, color.FgWhite).SprintFunc()
)

// toneColor returns the color function for a display tone
func toneColor(tone views.Tone) func(a ...interface{}) string {
	switch tone {
	case views.ToneRed:
		return colorRed
	case views.ToneYellow:
		return colorYellow
	case views.ToneBlue:
		return colorBlue
	case views.ToneGreen:
		return colorGreen
	default:
		return colorGray
	}
}

// paint colors s by tone
func paint(tone views.Tone, s string) string {
	return toneColor(tone)(s)
}

const barWidth = 20

// levelBar draws a fill gauge such as [██████░░░░░░░░░░░░░░]
func levelBar(level int) string {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	filled := level * barWidth / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

// shortID trims generated IDs for table display
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// orDash renders empty optional fields
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
