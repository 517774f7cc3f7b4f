// Package viz provides a terminal live view for growth simulations.
//
// [Model] is a Bubble Tea program that steps an initialized growth model,
// plots total biomass with asciigraph and lets the user tune parameters
// while the curve develops.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset state and parameters
//	L     - Toggle log scale
//	Tab   - Select parameter
//	↑/↓   - Tune selected parameter by 5%
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
