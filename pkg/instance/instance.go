// Package instance names the running process so leases and log lines can be
// traced back to a worker.
package instance

import (
	"os"

	"github.com/mercato-dev/mercato-backend/pkg/env"
)

const (
	EnvWorkerID = "MERCATO_WORKER_ID"
	fallbackID  = "worker-0"
)

// ID prefers MERCATO_WORKER_ID, then the hostname (the pod name on
// Kubernetes).
func ID() string {
	if id := env.String(EnvWorkerID, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
