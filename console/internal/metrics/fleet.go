package metrics

import "github.com/pilot-net/spot-console/pkg/types"

// SwitchBreakdown summarizes a page of switch history.
type SwitchBreakdown struct {
	Total        int                           `json:"total"`
	ByTrigger    map[types.Trigger]int         `json:"by_trigger"`
	ByStatus     map[types.ExecutionStatus]int `json:"by_status"`
	NetSavings   float64                       `json:"net_savings_per_hour"`
	OrphanEvents int                           `json:"orphan_events"` // agent permanently deleted
}

// BreakdownSwitches counts events per trigger and execution status and sums
// their signed savings impact.
func BreakdownSwitches(events []types.SwitchEvent) SwitchBreakdown {
	b := SwitchBreakdown{
		Total:     len(events),
		ByTrigger: make(map[types.Trigger]int),
		ByStatus:  make(map[types.ExecutionStatus]int),
	}
	for _, e := range events {
		b.ByTrigger[e.Trigger]++
		b.ByStatus[e.ExecutionStatus]++
		b.NetSavings += e.SavingsImpact.Float()
		if e.AgentID == nil {
			b.OrphanEvents++
		}
	}
	return b
}

// FleetSummary aggregates one client's agents and instances.
type FleetSummary struct {
	AgentsOnline          int     `json:"agents_online"`
	AgentsTotal           int     `json:"agents_total"`
	AgentsRetired         int     `json:"agents_retired"`
	SpotInstances         int     `json:"spot_instances"`
	OnDemandInstances     int     `json:"ondemand_instances"`
	HourlySavings         float64 `json:"hourly_savings"`
	AverageSavingsPercent float64 `json:"average_savings_percent"`
}

// SummarizeFleet counts agents and instances. Retired agents are counted
// separately and never as online. The average savings percent only covers
// spot instances with a positive on-demand price.
func SummarizeFleet(agents []types.Agent, instances []types.Instance) FleetSummary {
	var s FleetSummary
	for i := range agents {
		a := &agents[i]
		if a.Retired() {
			s.AgentsRetired++
			continue
		}
		s.AgentsTotal++
		if a.Status == types.AgentStatusOnline {
			s.AgentsOnline++
		}
	}

	priced := 0
	percentSum := 0.0
	for _, inst := range instances {
		switch inst.CurrentMode {
		case types.ModeSpot:
			s.SpotInstances++
			s.HourlySavings += HourlySavings(inst)
			if inst.OnDemandPrice.Float() > 0 {
				priced++
				percentSum += InstanceSavingsPercent(inst)
			}
		case types.ModeOnDemand:
			s.OnDemandInstances++
		}
	}
	if priced > 0 {
		s.AverageSavingsPercent = percentSum / float64(priced)
	}
	return s
}

// UnreadCount counts unread notifications.
func UnreadCount(notifications []types.Notification) int {
	n := 0
	for _, note := range notifications {
		if !note.IsRead {
			n++
		}
	}
	return n
}

// LatestSamples keeps the newest live sample of each agent, in the order the
// agents first appear. Samples arrive newest first, so the first row seen
// for an agent wins unless a later row carries a newer timestamp.
func LatestSamples(samples []types.LiveSample) []types.LiveSample {
	index := make(map[string]int, len(samples))
	out := make([]types.LiveSample, 0, len(samples))
	for _, s := range samples {
		i, seen := index[s.AgentID]
		if !seen {
			index[s.AgentID] = len(out)
			out = append(out, s)
			continue
		}
		if s.ReceivedAt.After(out[i].ReceivedAt.Time) {
			out[i] = s
		}
	}
	return out
}

// SystemIssues counts recent critical events, recent errors and background
// jobs that did not complete.
type SystemIssues struct {
	Critical   int  `json:"critical"`
	Errors     int  `json:"errors"`
	FailedJobs int  `json:"failed_jobs"`
	NoEngine   bool `json:"no_engine"`
}

// SummarizeSystem counts the problems a system health payload reports.
func SummarizeSystem(h *types.SystemHealth) SystemIssues {
	var s SystemIssues
	for _, e := range h.RecentErrors {
		if e.Severity == types.SeverityCritical {
			s.Critical++
		} else {
			s.Errors++
		}
	}
	for _, j := range h.BackgroundJobs {
		if j.Status == "failed" {
			s.FailedJobs++
		}
	}
	s.NoEngine = !h.DecisionEngine.Registered() || !bool(h.DecisionEngine.IsActive)
	return s
}
