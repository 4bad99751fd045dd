package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrWSDisconnect   = errors.New("websocket disconnected")
	ErrMonitorRunning = errors.New("monitor already running")
	ErrMonitorStopped = errors.New("monitor not running")
)
