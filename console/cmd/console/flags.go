package main

import (
	"flag"
	"fmt"

	"github.com/pilot-net/spot-console/console/internal/view"
	"github.com/pilot-net/spot-console/pkg/types"
)

// viewFlags are the view parameters and action options given on the command
// line.
type viewFlags struct {
	clientID   string
	instanceID string

	includeRetired bool
	agentStatus    string
	mode           string
	search         string

	timeRange string
	start     string
	end       string
	trigger   string
	limit     int

	unreadOnly bool
	priority   int
}

func (v *viewFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&v.clientID, "client", "", "Client ID for client views and mark-read all")
	fs.StringVar(&v.instanceID, "instance", "", "Instance ID for instance-pools")
	fs.BoolVar(&v.includeRetired, "include-retired", false, "Include retired agents")
	fs.StringVar(&v.agentStatus, "agent-status", "", "Filter agents by status (online, offline)")
	fs.StringVar(&v.mode, "mode", "", "Filter instances by mode (spot, ondemand)")
	fs.StringVar(&v.search, "search", "", "Search agents or instances")
	fs.StringVar(&v.timeRange, "range", "", "History or savings range (24h, 7d, 30d)")
	fs.StringVar(&v.start, "start", "", "History start date (YYYY-MM-DD)")
	fs.StringVar(&v.end, "end", "", "History end date (YYYY-MM-DD)")
	fs.StringVar(&v.trigger, "trigger", "", "Filter history by trigger (manual, model, scheduled)")
	fs.IntVar(&v.limit, "limit", 0, "Maximum history events")
	fs.BoolVar(&v.unreadOnly, "unread", false, "Only unread notifications")
	fs.IntVar(&v.priority, "priority", 0, "Force-switch priority")
}

// descriptor builds the descriptor of the view named in args.
func (v viewFlags) descriptor(args []string) (view.Descriptor, error) {
	if len(args) != 1 {
		return view.Descriptor{}, fmt.Errorf("expected one view name, one of %v", view.Kinds())
	}
	kind, err := view.ParseKind(args[0])
	if err != nil {
		return view.Descriptor{}, err
	}

	p := view.Params{
		ClientID:   v.clientID,
		InstanceID: v.instanceID,
		Agents: types.AgentFilter{
			IncludeRetired: v.includeRetired,
			Status:         types.AgentStatus(v.agentStatus),
			Search:         v.search,
		},
		Instances: types.InstanceFilter{
			Search: v.search,
		},
		History: types.HistoryFilter{
			Range:   v.timeRange,
			Start:   v.start,
			End:     v.end,
			Trigger: types.Trigger(v.trigger),
			Limit:   v.limit,
		},
		Savings: types.SavingsFilter{
			Range: v.timeRange,
		},
		Notifications: types.NotificationFilter{
			ClientID:   v.clientID,
			UnreadOnly: v.unreadOnly,
		},
	}
	if v.mode != "" {
		m, err := types.ParseMode(v.mode)
		if err != nil {
			return view.Descriptor{}, err
		}
		p.Instances.Mode = m
	}

	d := view.Descriptor{Kind: kind, Params: p}
	if err := d.Validate(); err != nil {
		return view.Descriptor{}, err
	}
	return d, nil
}
