/*
Package boundary implements the failure boundary wrapped around a panel.

# Overview

A boundary isolates a subtree of the workspace (the editor or the preview)
so that a failure there degrades to an error view instead of taking the
whole widget down. It is a two-state machine with a single manual recovery
path; there is no automatic retry.

# States

- Normal: the wrapped panel renders and its work runs
- Errored: the panel shows the failure message and a "Reset & Try Again" action

# Pattern

	Normal --[Fail]-> Errored --[Reset: recover files]-> Normal

Reset runs the configured Recover hook (the workspace's ResetAllFiles) before
returning to Normal. When the hook fails the boundary stays Errored.

# Usage

	b := boundary.New(types.PanelPreview, boundary.Settings{
		Recover: func(ctx context.Context) error {
			ws.ResetAllFiles()
			return nil
		},
		OnStateChange: func(panel types.Panel, from, to boundary.State) {
			logger.Info("boundary changed", zap.Stringer("to", to))
		},
	})

	err := b.Guard(func() error {
		return compile(ctx)
	})
*/
package boundary
