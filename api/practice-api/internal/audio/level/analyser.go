// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_level

import (
	"encoding/binary"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// DefaultWindowSize is the analysis window in samples. Power of two; 512
// trades responsiveness for smoothing — smaller windows react faster but are
// noisier, larger windows smooth more and lag more.
const DefaultWindowSize = 512

// Analyser keeps the most recent window of the live PCM feed and exposes a
// frequency-domain magnitude array scaled to the 0–255 byte range, one bin
// per frequency up to Nyquist. One analyser per recording attempt.
type Analyser struct {
	mu      sync.Mutex
	window  int
	samples []float64 // normalized [-1, 1], ring of the latest `window` samples
	filled  int
	pos     int
	fft     *fourier.FFT
	coeffs  []complex128
}

// NewAnalyser builds an analyser with the given window size. Window must be a
// power of two; pass DefaultWindowSize unless tuning.
func NewAnalyser(window int) *Analyser {
	if window <= 0 {
		window = DefaultWindowSize
	}
	return &Analyser{
		window:  window,
		samples: make([]float64, window),
		fft:     fourier.NewFFT(window),
		coeffs:  make([]complex128, window/2+1),
	}
}

// Push feeds a LINEAR16 little-endian PCM chunk into the window.
func (a *Analyser) Push(pcm []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcm[i:]))
		a.samples[a.pos] = float64(sample) / 32768.0
		a.pos = (a.pos + 1) % a.window
		if a.filled < a.window {
			a.filled++
		}
	}
}

// ByteFrequencyData computes the magnitude spectrum of the current window,
// scaled so a full-scale sine peaks at 255. Returns window/2 bins. An empty
// window yields all-zero bins.
func (a *Analyser) ByteFrequencyData() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Unroll the ring into chronological order.
	seq := make([]float64, a.window)
	if a.filled == a.window {
		for i := 0; i < a.window; i++ {
			seq[i] = a.samples[(a.pos+i)%a.window]
		}
	} else {
		// Not yet full: oldest positions stay zero (silence pad).
		copy(seq[a.window-a.filled:], a.samples[:a.filled])
	}

	a.fft.Coefficients(a.coeffs, seq)

	bins := make([]float64, a.window/2)
	scale := 2.0 / float64(a.window)
	for i := range bins {
		mag := cmplx.Abs(a.coeffs[i]) * scale * 255.0
		bins[i] = math.Min(255.0, mag)
	}
	return bins
}

// Window returns the configured window size in samples.
func (a *Analyser) Window() int {
	return a.window
}
