package types

import (
	"net/url"
	"strconv"
)

// AgentFilter narrows an agent listing. Retired agents are excluded unless
// IncludeRetired is set.
type AgentFilter struct {
	IncludeRetired bool
	Status         AgentStatus
	Search         string
}

// Values encodes the filter as query parameters, omitting empty fields.
func (f AgentFilter) Values() url.Values {
	v := url.Values{}
	if f.IncludeRetired {
		v.Set("include_retired", "true")
	}
	setIf(v, "status", string(f.Status))
	setIf(v, "search", f.Search)
	return v
}

// InstanceFilter narrows an instance listing.
type InstanceFilter struct {
	Status string
	Mode   Mode
	Search string
}

// Values encodes the filter as query parameters, omitting empty fields.
func (f InstanceFilter) Values() url.Values {
	v := url.Values{}
	setIf(v, "status", f.Status)
	setIf(v, "mode", string(f.Mode))
	setIf(v, "search", f.Search)
	return v
}

// HistoryFilter narrows a switch-history listing.
type HistoryFilter struct {
	Range   string // e.g. "24h", "7d", "30d"
	Start   string // YYYY-MM-DD
	End     string // YYYY-MM-DD
	Trigger Trigger
	Limit   int
}

// Values encodes the filter as query parameters, omitting empty fields.
func (f HistoryFilter) Values() url.Values {
	v := url.Values{}
	setIf(v, "range", f.Range)
	setIf(v, "start_date", f.Start)
	setIf(v, "end_date", f.End)
	setIf(v, "trigger_type", string(f.Trigger))
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// SavingsFilter narrows a savings report.
type SavingsFilter struct {
	Range string
}

// Values encodes the filter as query parameters, omitting empty fields.
func (f SavingsFilter) Values() url.Values {
	v := url.Values{}
	setIf(v, "range", f.Range)
	return v
}

// NotificationFilter narrows a notification listing. An empty ClientID
// returns global and all client notifications.
type NotificationFilter struct {
	ClientID   string
	UnreadOnly bool
}

// Values encodes the filter as query parameters, omitting empty fields.
func (f NotificationFilter) Values() url.Values {
	v := url.Values{}
	setIf(v, "client_id", f.ClientID)
	if f.UnreadOnly {
		v.Set("unread", "true")
	}
	return v
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
