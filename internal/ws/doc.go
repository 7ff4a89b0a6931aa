// Package ws streams dashboard summaries to UI clients over WebSocket.
// The broadcast ticker doubles as the periodic health evaluation loop.
package ws
