// Package viz draws the tunnel in a terminal.
//
// [RenderField] downsamples one scalar field (speed, vorticity, density or
// smoke) to a character grid; [Braille] draws smoke streaks at 2x4 dots per
// cell. [LiveModel] is a Bubble Tea program that steps a tunnel one frame
// per tick and renders both alongside a drag graph.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	+/-     - Inlet speed up/down
//	Arrows  - Move the brush cursor
//	P/E     - Paint/Erase at the cursor
//	[ ]     - Brush radius
//	M       - Cycle field mode
//	B       - Toggle braille smoke view
//	S       - Toggle smoke
//	C       - Clear obstacles
//	R       - Reset flow
//	?       - Help overlay
package viz
