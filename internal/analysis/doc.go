// Package analysis provides post-run analysis of orbital trajectories.
//
// [PowerSpectrum] extracts the dominant frequencies of a sampled coordinate,
// which recovers orbital periods from stored runs. [DivergenceRate] fits an
// exponential growth rate to the shadow-particle separation; a positive rate
// indicates chaotic dynamics.
package analysis
