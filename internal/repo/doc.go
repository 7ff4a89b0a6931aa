// Package repo implements the device repository: the inventory of monitored
// devices, their latest poll metrics, and the alert lists embedded in device
// records. Two backends are provided: a mutex-guarded in-memory store for
// dev/demo use and a SQLite store for persistence across restarts. The
// smoothing history deliberately does not live here; it is process state.
package repo
