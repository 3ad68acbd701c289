package main

import (
	"log"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/message"
)

// newPrinter returns a printer which formats numbers for the user's locale.
func newPrinter() *message.Printer {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	return message.NewPrinter(message.MatchLanguage(locales...))
}

// prettyFrequency returns a human-readable version of the given clock frequency in herz.
func prettyFrequency(p *message.Printer, v float64) string {
	switch {
	case v >= 1e9:
		return p.Sprintf("%.2f GHz", v/1e9)
	case v >= 1e6:
		return p.Sprintf("%.2f MHz", v/1e6)
	case v >= 1e3:
		return p.Sprintf("%.2f KHz", v/1e3)
	default:
		return p.Sprintf("%.2f Hz", v)
	}
}
