// Package locale formats numbers the way the stadium staff read them.
package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Tag is the display language of the dashboard
var Tag = language.Indonesian

// Printer returns a printer for the dashboard language
func Printer() *message.Printer {
	return message.NewPrinter(Tag)
}

// Number renders n with Indonesian digit grouping, e.g. 45.231
func Number(n int) string {
	return Printer().Sprintf("%d", n)
}
