// Package availability implements the interval algorithms under the
// calendar service: next-free-block and slot sweeps, pairwise conflict
// detection, duplicate grouping and busy-minute aggregation.
//
// Two comparison conventions coexist and must not be conflated: date
// range membership is inclusive on both ends, while interval
// intersection is strict (touching endpoints do not overlap).
//
// All functions are pure; the service layer feeds them snapshots of the
// event set.
package availability
