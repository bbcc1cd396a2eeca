// Package analysis inspects recorded runs.
//
//   - [PowerSpectrum]: windowed FFT of one frame series
//   - [Spectrum.Dominant]: strongest non-DC frequency, e.g. how fast a
//     balloon sways under a periodic tilt
//   - [GeneratePhasePortrait]: position against velocity on one axis
//   - [WallCrossings]: stroboscopic section taken each time the body
//     passes a vertical line
//
// # Spectrum
//
// Frames are sampled at the loop interval, so a 40ms tick gives 25Hz and
// frequencies up to 12.5Hz:
//
//	spec := analysis.PowerSpectrum(speeds, 25)
//	f, _ := spec.Dominant()
package analysis
