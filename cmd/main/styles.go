package main

import (
	"github.com/charmbracelet/lipgloss"
)

// CLI styles, Tokyo Night palette
var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Bold(true)
)
