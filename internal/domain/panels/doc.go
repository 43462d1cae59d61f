/*
Package panels implements the controllers behind the explorer, editor and
console panes of a workspace.

Each controller is a thin command layer over a *workspace.Workspace. Panels
never talk to each other; they observe the workspace change stream instead.

# Explorer

	explorer := panels.NewExplorer(ws, logger)
	explorer.OpenNewFileInput()
	explorer.SetInput("Button.js")
	path, err := explorer.Create() // "/Button.js", now active

# Editor

	editor := panels.NewEditor(ws)
	defer editor.Detach()
	_ = editor.UpdateCode("console.log(1)")

# Console

	console := panels.NewConsole(ws, layoutController)
	view := console.View(0)
*/
package panels
