// Package viz shows a running layout in the terminal.
//
// [Model] is a Bubble Tea model that ticks a [sim.Simulation] once per
// frame and draws it on a braille [Canvas]. A [Camera] keeps the layout
// in view; its center and zoom are smoothed with harmonica springs.
// [App] adds a menu of generated graphs in front of the live view.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single tick while paused
//	R     - Reheat
//	Tab   - Select parameter, Up/Down to scale it by 5%
//	+/-   - Zoom, WASD to pan, F to fit again
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
