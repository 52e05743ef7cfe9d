package ui

import "github.com/charmbracelet/lipgloss"

var (
	PrimaryColor   = lipgloss.Color("205")
	SecondaryColor = lipgloss.Color("81")
	MutedColor     = lipgloss.Color("240")
	TextColor      = lipgloss.Color("252")
	SuccessColor   = lipgloss.Color("46")
	WarningColor   = lipgloss.Color("214")
	ErrorColor     = lipgloss.Color("#FF5555")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	StatusStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Padding(0, 1)

	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(MutedColor).
			Padding(0, 1)

	FocusedPaneStyle = PaneStyle.
				BorderForeground(PrimaryColor)

	PaneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	SelectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(PrimaryColor)

	UnselectedItemStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	MutedTextStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	MessageTimeStyle = lipgloss.NewStyle().
				Foreground(MutedColor)

	MessageAuthorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(SecondaryColor)

	MessageOwnAuthorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(SuccessColor)

	MessageContentStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	AttachmentStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	LinkStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Underline(true)

	OwnerBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(WarningColor).
			Padding(0, 1)

	RecordingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ErrorColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ErrorColor)

	HintKeyStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)
)

// RenderError renders an inline error line
func RenderError(text string) string {
	return ErrorStyle.Render(text)
}
