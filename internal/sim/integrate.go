package sim

import (
	"context"
	"math"
)

// Status is the outcome of an integration run. The three non-success values
// are expected conditions, not failures: the state remains valid and the run
// can in principle be resumed.
type Status int

const (
	// StatusSuccess means the target time was reached.
	StatusSuccess Status = iota

	// StatusNoParticles means the driver was invoked with an empty particle
	// set; no step was executed.
	StatusNoParticles

	// StatusEscape means a particle moved strictly beyond the escape radius.
	StatusEscape

	// StatusEncounter means a pair of particles came strictly closer than
	// the encounter threshold.
	StatusEncounter
)

func (st Status) String() string {
	switch st {
	case StatusSuccess:
		return "success"
	case StatusNoParticles:
		return "no particles"
	case StatusEscape:
		return "escape detected"
	case StatusEncounter:
		return "close encounter detected"
	}
	return "unknown"
}

// Integrate advances the simulation to tmax. The sign of Dt fixes the
// integration direction for the run; with ExactFinishTime set the final step
// is clamped so T lands exactly on tmax, and Dt is restored to the last
// fully-completed step size before returning.
//
// maxR, when non-zero, aborts the run once any physical particle is strictly
// farther than maxR from the origin. minD, when non-zero, aborts once any
// pair is strictly closer than minD. Both conditions are evaluated after a
// step completes, so the triggering step (including its collision
// resolution) has already finished when the run stops. Escape is checked
// first and wins when both conditions arise in the same step. Shadow
// particles are excluded from both scans.
//
// Cancellation is cooperative: ctx and the ExitSimulation flag are sampled
// once per iteration, never mid-step.
func (s *Simulation) Integrate(ctx context.Context, tmax, maxR, minD float64) (Status, error) {
	if s.integrator == nil || s.gravity == nil {
		return StatusSuccess, ErrNotWired
	}

	dtLastDone := s.Dt
	lastStep := 0
	status := StatusSuccess
	dtsign := math.Copysign(1, s.Dt)

	if s.PostTimestep != nil {
		s.PostTimestep(s)
	}
	if s.ExactFinishTime && (s.T+s.Dt)*dtsign >= tmax*dtsign {
		s.Dt = tmax - s.T
		lastStep++
	}

	for s.T*dtsign < tmax*dtsign && lastStep < 2 && status == StatusSuccess && !s.ExitSimulation {
		select {
		case <-ctx.Done():
			s.ExitSimulation = true
			continue
		default:
		}

		if s.N() <= 0 {
			return StatusNoParticles, nil
		}

		if err := s.Step(); err != nil {
			return status, err
		}

		if s.ExactFinishTime && (s.T+s.Dt)*dtsign >= tmax*dtsign {
			s.integrator.Synchronize(s)
			s.Dt = tmax - s.T
			lastStep++
		} else {
			dtLastDone = s.Dt
		}

		if s.PostTimestep != nil {
			s.PostTimestep(s)
		}

		if maxR != 0 {
			maxR2 := maxR * maxR
			for i := 0; i < s.NReal(); i++ {
				if s.Particles[i].RadiusSquared() > maxR2 {
					status = StatusEscape
					s.LastEscaped = i
					break
				}
			}
		}
		if minD != 0 && status == StatusSuccess {
			minD2 := minD * minD
		encounters:
			for i := 0; i < s.NReal(); i++ {
				for j := 0; j < i; j++ {
					if s.Particles[i].DistanceSquared(s.Particles[j]) < minD2 {
						status = StatusEncounter
						s.LastEncounter = [2]int{i, j}
						break encounters
					}
				}
			}
		}
	}

	s.integrator.Synchronize(s)
	s.Dt = dtLastDone
	if s.Finished != nil {
		s.Finished(s)
	}
	return status, ctx.Err()
}
