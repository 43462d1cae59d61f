// Package studio assembles live sandboxes.
//
// An Instance wires one workspace to its panel controllers: the explorer,
// the editor, the console, the layout, the preview scheduler and one failure
// boundary per wrapped panel. Every source of change is fanned into a single
// ordered event stream that the websocket layer forwards to the front end.
//
// The Manager owns all instances of the process, keyed by workspace ID.
package studio
