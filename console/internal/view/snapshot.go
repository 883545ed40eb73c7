package view

import (
	"github.com/pilot-net/spot-console/console/internal/metrics"
	"github.com/pilot-net/spot-console/pkg/types"
)

// Snapshot is the composed data of one completed view load. Sections a view
// does not read stay nil.
type Snapshot struct {
	Stats         *types.GlobalStats   `json:"stats,omitempty"`
	Clients       []types.Client       `json:"clients,omitempty"`
	Client        *types.ClientDetail  `json:"client,omitempty"`
	Agents        []types.Agent        `json:"agents,omitempty"`
	Instances     []types.Instance     `json:"instances,omitempty"`
	History       []types.SwitchEvent  `json:"history,omitempty"`
	Savings       *types.SavingsReport `json:"savings,omitempty"`
	Pools         *types.PoolOptions   `json:"pools,omitempty"`
	Notifications []types.Notification `json:"notifications,omitempty"`
	Live          []types.LiveSample   `json:"live,omitempty"`
	System        *types.SystemHealth  `json:"system,omitempty"`
	Models        *types.ModelsStatus  `json:"models,omitempty"`

	Derived Derived `json:"derived"`
}

// Derived holds the display figures computed from the raw sections.
type Derived struct {
	Cumulative          []metrics.CumulativePoint `json:"cumulative,omitempty"`
	TotalSavings        float64                   `json:"total_savings"`
	AverageDailySavings float64                   `json:"average_daily_savings"`
	Monthly             []metrics.PeriodBucket    `json:"monthly,omitempty"`
	TopInstanceTypes    []metrics.Category        `json:"top_instance_types,omitempty"`
	RankedPools         []metrics.RankedPool      `json:"ranked_pools,omitempty"`
	CurrentSavingsPct   float64                   `json:"current_savings_percent"`
	Fleet               *metrics.FleetSummary     `json:"fleet,omitempty"`
	Switches            *metrics.SwitchBreakdown  `json:"switches,omitempty"`
	UnreadNotifications int                       `json:"unread_notifications"`
	LatestLive          []types.LiveSample        `json:"latest_live,omitempty"`
	SystemIssues        *metrics.SystemIssues     `json:"system_issues,omitempty"`
}

// derive recomputes s.Derived from the raw sections.
func (s *Snapshot) derive() {
	var d Derived

	if s.Stats != nil {
		d.Cumulative = metrics.RunningTotal(s.Stats.DailySavings)
		d.TotalSavings = s.Stats.Totals.Savings.Float()
		d.AverageDailySavings = metrics.AverageDailySavings(s.Stats.DailySavings)
	}
	if s.Savings != nil {
		d.Cumulative = metrics.RunningTotal(s.Savings.Daily)
		d.TotalSavings = metrics.SumSavings(s.Savings.Daily)
		d.AverageDailySavings = metrics.AverageDailySavings(s.Savings.Daily)
		d.Monthly = metrics.MonthlyBuckets(s.Savings.Monthly)
		d.TopInstanceTypes = metrics.TopCategories(s.Savings.ByInstanceType, metrics.DefaultCategoryLimit)
	}
	if s.Pools != nil {
		d.RankedPools = metrics.RankPools(s.Pools.AlternatePools)
		d.CurrentSavingsPct = metrics.SavingsPercent(
			s.Pools.Current.OnDemandPrice.Float(),
			s.Pools.Current.SpotPrice.Float(),
		)
	}
	if s.Agents != nil || s.Instances != nil {
		fleet := metrics.SummarizeFleet(s.Agents, s.Instances)
		d.Fleet = &fleet
	}
	if s.History != nil {
		b := metrics.BreakdownSwitches(s.History)
		d.Switches = &b
	}
	d.UnreadNotifications = metrics.UnreadCount(s.Notifications)
	if s.Live != nil {
		d.LatestLive = metrics.LatestSamples(s.Live)
	}
	if s.System != nil {
		issues := metrics.SummarizeSystem(s.System)
		d.SystemIssues = &issues
	}

	s.Derived = d
}

// Clone returns a copy whose slices and top-level sections can be modified
// without affecting s. Pointer fields inside list elements are shared;
// patches replace them rather than writing through them.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s

	c.Stats = clonePtr(s.Stats)
	if c.Stats != nil {
		c.Stats.DailySavings = cloneSlice(s.Stats.DailySavings)
	}
	c.Client = clonePtr(s.Client)
	if c.Client != nil {
		c.Client.LastDecision = clonePtr(s.Client.LastDecision)
	}
	c.Savings = clonePtr(s.Savings)
	if c.Savings != nil {
		c.Savings.Daily = cloneSlice(s.Savings.Daily)
		c.Savings.Monthly = cloneSlice(s.Savings.Monthly)
		c.Savings.ByInstanceType = cloneSlice(s.Savings.ByInstanceType)
	}
	c.Pools = clonePtr(s.Pools)
	if c.Pools != nil {
		c.Pools.AlternatePools = cloneSlice(s.Pools.AlternatePools)
	}
	c.Clients = cloneSlice(s.Clients)
	c.Agents = cloneSlice(s.Agents)
	c.Instances = cloneSlice(s.Instances)
	c.History = cloneSlice(s.History)
	c.Notifications = cloneSlice(s.Notifications)
	c.Live = cloneSlice(s.Live)
	c.System = clonePtr(s.System)
	if c.System != nil {
		c.System.RecentErrors = cloneSlice(s.System.RecentErrors)
		c.System.BackgroundJobs = cloneSlice(s.System.BackgroundJobs)
	}
	c.Models = clonePtr(s.Models)
	if c.Models != nil {
		c.Models.Models = cloneSlice(s.Models.Models)
	}

	c.Derived.Cumulative = cloneSlice(s.Derived.Cumulative)
	c.Derived.Monthly = cloneSlice(s.Derived.Monthly)
	c.Derived.TopInstanceTypes = cloneSlice(s.Derived.TopInstanceTypes)
	c.Derived.RankedPools = cloneSlice(s.Derived.RankedPools)
	c.Derived.Fleet = clonePtr(s.Derived.Fleet)
	c.Derived.LatestLive = cloneSlice(s.Derived.LatestLive)
	c.Derived.SystemIssues = clonePtr(s.Derived.SystemIssues)
	if s.Derived.Switches != nil {
		b := *s.Derived.Switches
		b.ByTrigger = make(map[types.Trigger]int, len(s.Derived.Switches.ByTrigger))
		for k, v := range s.Derived.Switches.ByTrigger {
			b.ByTrigger[k] = v
		}
		b.ByStatus = make(map[types.ExecutionStatus]int, len(s.Derived.Switches.ByStatus))
		for k, v := range s.Derived.Switches.ByStatus {
			b.ByStatus[k] = v
		}
		c.Derived.Switches = &b
	}
	return &c
}

// FindAgent returns the agent with the given id, or nil.
func (s *Snapshot) FindAgent(id string) *types.Agent {
	for i := range s.Agents {
		if s.Agents[i].ID == id {
			return &s.Agents[i]
		}
	}
	return nil
}

// FindNotification returns the notification with the given id, or nil.
func (s *Snapshot) FindNotification(id string) *types.Notification {
	for i := range s.Notifications {
		if s.Notifications[i].ID == id {
			return &s.Notifications[i]
		}
	}
	return nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
