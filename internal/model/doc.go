// Package model defines the shared records for the monitored network:
// devices, their poll metrics, and the alerts embedded in device records.
package model
