package poller

import (
	"errors"
	"time"

	"github.com/pilot-net/spot-console/console/internal/client"
)

// Connectivity is the backend state shown by the status indicator.
type Connectivity string

const (
	ConnectivityUnknown  Connectivity = "unknown"
	ConnectivityOnline   Connectivity = "online"
	ConnectivityDegraded Connectivity = "degraded"
	ConnectivityOffline  Connectivity = "offline"
)

// Status is the health indicator. Poll failures only ever change Status,
// never the last good feed values.
type Status struct {
	Backend             Connectivity `json:"backend"`
	LastError           string       `json:"last_error,omitempty"`
	LastErrorFeed       string       `json:"last_error_feed,omitempty"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	LastSuccess         time.Time    `json:"last_success,omitempty"`
	Breaker             string       `json:"breaker"`
}

// classify maps a poll failure to the connectivity it implies.
func classify(err error) Connectivity {
	switch {
	case errors.Is(err, ErrBackendUnavailable), client.IsTransport(err):
		return ConnectivityOffline
	default:
		return ConnectivityDegraded
	}
}
