package ui

import "github.com/charmbracelet/lipgloss"

var (
	normalDim = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	gray      = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray   = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}
	cream     = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	fuchsia   = lipgloss.Color("#EE6FF8")
	green     = lipgloss.Color("#04B575")
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	yellow    = lipgloss.AdaptiveColor{Light: "#D9A400", Dark: "#ECFD65"}

	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}
)

var (
	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(fuchsia).
			Bold(true).
			Padding(0, 1).
			Render

	sectionStyle = lipgloss.NewStyle().
			Foreground(gray).
			Bold(true).
			Render

	toneNameStyle = lipgloss.NewStyle().
			Foreground(fuchsia).
			Bold(true).
			Render

	subtleStyle = lipgloss.NewStyle().
			Foreground(normalDim).
			Render

	outputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(midGray).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(fuchsia).
			Render

	favoriteStyle = lipgloss.NewStyle().
			Foreground(yellow).
			Render

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(red).
				Render

	spinnerStyle = lipgloss.NewStyle().
			Foreground(green)
)
