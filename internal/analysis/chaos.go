package analysis

import (
	"math"

	"github.com/lokhorst/rebound/internal/sim"
)

// ShadowNorm returns the magnitude of the combined shadow-particle variation
// vector, positions and velocities together. Zero when no shadow particles
// are attached.
func ShadowNorm(s *sim.Simulation) float64 {
	nReal := s.NReal()
	var sum float64
	for k := 0; k < s.NMegno; k++ {
		v := s.Particles[nReal+k]
		sum += v.X*v.X + v.Y*v.Y + v.Z*v.Z
		sum += v.VX*v.VX + v.VY*v.VY + v.VZ*v.VZ
	}
	return math.Sqrt(sum)
}

// DivergenceRate fits ln(norm) against time by least squares and returns the
// slope, an estimate of the largest Lyapunov exponent. Non-positive norms
// are skipped.
func DivergenceRate(times, norms []float64) float64 {
	n := len(times)
	if n != len(norms) || n < 2 {
		return 0
	}

	var sx, sy, sxx, sxy float64
	count := 0
	for i := 0; i < n; i++ {
		if norms[i] <= 0 {
			continue
		}
		x := times[i]
		y := math.Log(norms[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
		count++
	}
	if count < 2 {
		return 0
	}

	denom := float64(count)*sxx - sx*sx
	if denom == 0 {
		return 0
	}
	return (float64(count)*sxy - sx*sy) / denom
}
