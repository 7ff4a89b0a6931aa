// Package alerts implements the health alert emission rule and its delivery
// side effects. Emission is best-effort and decoupled from scoring: a score
// crossing a threshold appends one alert to the system device, deduplicated
// over a 30-minute window (and, when configured, through a Redis claim so
// parallel server instances cannot double-emit). Fired alerts are optionally
// delivered to Teams, Slack, or generic HTTP webhooks.
package alerts
