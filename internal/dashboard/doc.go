// Package dashboard orchestrates health evaluations and serves the REST API.
//
// The Aggregator pulls counts and device projections from the repository,
// runs the score → override → smooth pipeline, triggers best-effort alert
// emission, and returns an all-or-nothing Summary. Evaluations are serialized
// so the smoothing history and the emission dedup check cannot race.
package dashboard
