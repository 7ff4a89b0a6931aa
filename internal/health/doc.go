// Package health computes the network health score.
//
// score.go provides the pure ComputeRawScore(Input) function that calculates
// the composite 0–100 score from four weighted sub-scores: availability (50%),
// performance (30%), infrastructure (15%) and alert impact (5%), with a
// structured Diagnostics breakdown for callers and tests.
//
// override.go applies the critical-condition caps: 20 when a router or
// gateway is unreachable, 40 when average latency exceeds one second.
//
// smooth.go provides the mutex-guarded History window (last 3 scores) that
// dampens single-step changes to ±15 points and blends with the moving
// average, preventing score whiplash between evaluations.
package health
