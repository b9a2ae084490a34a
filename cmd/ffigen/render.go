package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"ffigen/internal/diagnostic"
)

var (
	errorLabel   = color.New(color.FgRed, color.Bold).SprintFunc()
	warningLabel = color.New(color.FgYellow, color.Bold).SprintFunc()
	infoLabel    = color.New(color.Faint).SprintFunc()
)

// renderDiagnostics prints an aggregated run outcome, errors first.
// Infos (e.g. attribute-disabled items) only appear under verbose.
func renderDiagnostics(w io.Writer, d *diagnostic.Diagnostics, verbose bool) {
	for _, e := range d.Errors {
		fmt.Fprintf(w, "%s %s\n", errorLabel("error:"), e.String())
	}

	for _, warn := range d.Warnings {
		fmt.Fprintf(w, "%s %s\n", warningLabel("warning:"), warn.String())
	}

	if !verbose {
		return
	}

	for _, info := range d.Infos {
		fmt.Fprintf(w, "%s %s\n", infoLabel("info:"), info.String())
	}
}
