// Package ui renders the terminal output of the snownode CLI with lipgloss.
//
// Output is "run once and exit": a Header banner naming the command and its
// parameters, followed by a Result box listing each Check with a pass, fail
// or skip marker. Logging goes to stderr through zap and is independent of
// this output.
package ui
