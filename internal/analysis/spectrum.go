package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

type Spectrum struct {
	Freqs []float64
	Power []float64
}

// PowerSpectrum removes the mean, applies a Hann window and returns the
// magnitude of each bin up to the Nyquist frequency.
func PowerSpectrum(data []float64, sampleRate float64) Spectrum {
	n := len(data)
	if n < 2 || sampleRate <= 0 {
		return Spectrum{}
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range data {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = (v - mean) * window
	}

	bins := fft.FFTReal(windowed)
	half := n/2 + 1
	s := Spectrum{
		Freqs: make([]float64, half),
		Power: make([]float64, half),
	}
	for k := 0; k < half; k++ {
		s.Freqs[k] = float64(k) * sampleRate / float64(n)
		s.Power[k] = cmplx.Abs(bins[k])
	}
	return s
}

// Dominant returns the strongest bin above DC.
func (s Spectrum) Dominant() (freq, power float64) {
	for k := 1; k < len(s.Power); k++ {
		if s.Power[k] > power {
			freq, power = s.Freqs[k], s.Power[k]
		}
	}
	return freq, power
}

// Bands sums power into n equal-width bands, for bar rendering.
func (s Spectrum) Bands(n int) []float64 {
	if n <= 0 || len(s.Power) < 2 {
		return nil
	}
	out := make([]float64, n)
	usable := s.Power[1:]
	for i, p := range usable {
		out[i*n/len(usable)] += p
	}
	return out
}
