package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Adaptive colors for dark/light terminals
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorBorder    = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}
	colorActiveBdr = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorPillBg    = lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#2A2A3E"}
	colorStatusBg  = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#16213E"}
	colorStatusFg  = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorGreen     = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorWarn      = lipgloss.AdaptiveColor{Light: "#C98A00", Dark: "#E5C07B"}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			PaddingLeft(1)

	headerDateStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Align(lipgloss.Right)

	listPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	listPaneActiveStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorActiveBdr)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	panelActiveStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorActiveBdr)

	panelLabelStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	panelValueStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	panelSelectedStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	cardTitleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	cardSelectedStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	cardSourceStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	cardMetaStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	cardTagStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Background(colorPillBg).
			Padding(0, 1)

	featuredStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	skeletonStyle = lipgloss.NewStyle().
			Foreground(colorBorder)

	pillActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1).
			Bold(true)

	pillInactiveStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Background(colorPillBg).
				Padding(0, 1)

	stalePillStyle = lipgloss.NewStyle().
			Foreground(colorWarn).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(colorStatusBg).
			Foreground(colorStatusFg).
			PaddingLeft(1).
			PaddingRight(1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	searchPromptStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	errStyle = lipgloss.NewStyle().
			Foreground(colorAccent)
)
