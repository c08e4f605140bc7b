package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/apivet/apivet/internal/models"
)

// Severity colors
var (
	colorHigh   = lipgloss.Color("#FF8800")
	colorMedium = lipgloss.Color("#FFFF00")
	colorLow    = lipgloss.Color("#00FF00")
	colorMuted  = lipgloss.Color("#888888")
	colorAccent = lipgloss.Color("#7B68EE")
	colorBorder = lipgloss.Color("#444444")
)

// Panel styles
var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	styleDetailPanel = lipgloss.NewStyle().
				Padding(0, 1).
				BorderStyle(lipgloss.NormalBorder()).
				BorderTop(true).
				BorderForeground(colorBorder)

	styleFooter = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	styleSearchPrompt = lipgloss.NewStyle().
				Foreground(colorAccent).Bold(true)

	styleMenuTitle = lipgloss.NewStyle().
			Foreground(colorAccent).Bold(true)

	styleMenuHint = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// severityStyle returns the lipgloss style for a severity level.
func severityStyle(severity models.Severity) lipgloss.Style {
	switch severity {
	case models.SeverityHigh:
		return lipgloss.NewStyle().Foreground(colorHigh).Bold(true)
	case models.SeverityMedium:
		return lipgloss.NewStyle().Foreground(colorMedium)
	case models.SeverityLow:
		return lipgloss.NewStyle().Foreground(colorLow)
	default:
		return lipgloss.NewStyle()
	}
}

// llmStatusStyle returns the lipgloss style for an augmentation status.
func llmStatusStyle(status models.LLMStatus) lipgloss.Style {
	switch status {
	case models.LLMOK:
		return lipgloss.NewStyle().Foreground(colorLow).Bold(true)
	case models.LLMDegraded:
		return lipgloss.NewStyle().Foreground(colorHigh).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(colorMuted)
	}
}
