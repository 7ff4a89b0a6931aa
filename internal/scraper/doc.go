// Package scraper collects live device metrics. Each device's Prometheus
// text exposition is fetched over HTTP; the round-trip time becomes the
// device's response time measurement and well-known interface series become
// its congestion stats. Probe failures mark the device offline so the health
// score reflects reachability without a separate liveness subsystem.
package scraper
