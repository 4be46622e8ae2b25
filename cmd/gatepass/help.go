package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/gatepass/internal/notify"
)

func printHelp() {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#2dd4bf")).
		Bold(true).
		Render("G A T E P A S S")

	sub := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Visitor passes for residents, from the terminal.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"gatepass", "Sign in and manage visits (interactive TUI)"},
		{"gatepass notify <json>", "Deliver a notification to the running app"},
		{"gatepass open <json>", "Launch from a notification"},
		{"gatepass token <value>", "Rotate the push token of the running app"},
		{"gatepass forget", "Remove quick login from this device"},
		{"gatepass --version", "Show version"},
		{"gatepass help", "You are here"},
	}

	fmt.Printf("\n  %s\n\n  %s\n\n  Commands:\n", title, sub)
	for _, c := range commands {
		fmt.Printf("    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-24s", c.cmd)), descStyle.Render(c.desc))
	}
	actions := make([]string, 0, 3)
	for _, a := range notify.NewRouter(notify.NewBuffer(), nil).Actions() {
		actions = append(actions, string(a))
	}
	fmt.Printf("\n  %s %s\n", descStyle.Render("Notification actions:"), strings.Join(actions, ", "))
	note := descStyle.Render("<json> may be a literal, @file, or - for stdin. Settings: GATEPASS_* or ~/.gatepass/config.yaml")
	fmt.Printf("\n  %s\n\n", note)
}
