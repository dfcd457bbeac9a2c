// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/elmtest/services/discovery/collector"
)

var (
	colorTeal  = lipgloss.Color("#2CD7C7")
	colorSlate = lipgloss.Color("#2C4A54")
	colorError = lipgloss.Color("#E74C3C")
)

// styles holds the text styles of one report. The zero value renders plain.
type styles struct {
	path    lipgloss.Style
	test    lipgloss.Style
	muted   lipgloss.Style
	failure lipgloss.Style
}

func plainStyles() styles {
	s := lipgloss.NewStyle()
	return styles{path: s, test: s, muted: s, failure: s}
}

func colorStyles() styles {
	return styles{
		path:    lipgloss.NewStyle().Bold(true).Foreground(colorTeal),
		test:    lipgloss.NewStyle(),
		muted:   lipgloss.NewStyle().Foreground(colorSlate),
		failure: lipgloss.NewStyle().Foreground(colorError),
	}
}

// stylesFor returns color styles only when w is a terminal.
func stylesFor(w io.Writer) styles {
	f, ok := w.(*os.File)
	if !ok {
		return plainStyles()
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return colorStyles()
	}
	return plainStyles()
}

// report is the outcome of one discovery run.
type report struct {
	Modules  []collector.TestModule `json:"modules"`
	Failures []reportFailure        `json:"failures"`
}

type reportFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

func newReport(modules []collector.TestModule, collectErr *collector.CollectError) report {
	r := report{Modules: modules, Failures: []reportFailure{}}
	if r.Modules == nil {
		r.Modules = []collector.TestModule{}
	}
	if collectErr != nil {
		for _, f := range collectErr.Failures {
			r.Failures = append(r.Failures, reportFailure{Path: f.Path, Error: f.Err.Error()})
		}
	}
	return r
}

func renderJSON(w io.Writer, r report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// renderText prints one block per file:
//
//	tests/ExampleTest.elm
//	  suite
//	  fuzzTests
func renderText(w io.Writer, r report, st styles) error {
	var b strings.Builder
	for _, m := range r.Modules {
		b.WriteString(st.path.Render(m.Path))
		b.WriteByte('\n')
		if len(m.Tests) == 0 {
			b.WriteString("  " + st.muted.Render("(no candidates)") + "\n")
		}
		for _, name := range m.Tests {
			b.WriteString("  " + st.test.Render(name) + "\n")
		}
	}
	for _, f := range r.Failures {
		b.WriteString(st.failure.Render("FAIL "+f.Path) + "\n")
		b.WriteString("  " + st.muted.Render(f.Error) + "\n")
	}
	_, err := fmt.Fprint(w, b.String())
	return err
}
