// Package viz is the interactive terminal view built on Bubble Tea.
//
//   - [Model]: the live view; it polls the latest frame from a [Sink]
//   - [Sink]: a non-blocking [sim.Renderer] the loop publishes into
//   - [TerminalLayout]: field geometry derived from the terminal size
//   - [Canvas]: Braille pixel canvas, 2x4 dots per cell
//
// # Key Bindings
//
//	←/→ ↑/↓ - Tilt the device (keyboard source only)
//	0       - Level the device
//	1 2 3   - Roll, Float, Orbit
//	Space   - Pause/Resume the loop
//	R       - Restart the current mode
//	?       - Show help overlay
package viz
