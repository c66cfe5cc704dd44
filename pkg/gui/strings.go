package gui

const (
	loadingTooltip      = "batticon - Loading..."
	clickCommandTooltip = `Run the command configured as leftClickCommand.

Nothing happens when no command is configured.`
	quitTooltip = `Quit batticon.`
)
