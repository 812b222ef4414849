package sim

// Step advances the simulation by one timestep. The phase order is fixed:
// drift half-step, boundary check, index maintenance, distributed particle
// exchange, gravity-data aggregation and essential exchange, acceleration,
// user forces, kick close-out, post-step modifications, collisions. Each
// phase blocks until its effects are complete; collaborator errors propagate
// unmodified.
func (s *Simulation) Step() error {
	if s.integrator == nil || s.gravity == nil {
		return ErrNotWired
	}

	s.integrator.Part1(s)

	if s.boundary != nil {
		s.boundary.Check(s)
	}

	if s.index != nil {
		if err := s.index.Update(s); err != nil {
			return err
		}
	}

	if s.coordinator != nil {
		if err := s.coordinator.DistributeParticles(s); err != nil {
			return err
		}
	}

	if s.treeGravity && s.index != nil {
		s.index.UpdateGravityData(s)
		if s.coordinator != nil {
			s.index.PrepareEssential(s)
			if err := s.coordinator.DistributeEssentialTree(s); err != nil {
				return err
			}
		}
	}

	if err := s.gravity.Accelerate(s); err != nil {
		return err
	}
	if s.NMegno > 0 {
		if err := s.gravity.AccelerateVariational(s); err != nil {
			return err
		}
	}
	if s.AdditionalForces != nil {
		s.AdditionalForces(s)
	}

	s.integrator.Part2(s)

	if s.PostTimestepModifications != nil {
		s.integrator.Synchronize(s)
		s.PostTimestepModifications(s)
		s.Symplectic.RecalculateCoordinates = true
	}

	if s.collisions != nil {
		// Positions may have shifted since the earlier boundary check.
		if s.boundary != nil {
			s.boundary.Check(s)
		}
		cs := s.collisions.Search(s)
		s.collisions.Resolve(s, cs)
	}

	return nil
}
