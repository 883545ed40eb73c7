package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/pilot-net/spot-console/pkg/types"
)

// Kind identifies a logical screen.
type Kind string

const (
	KindDashboard       Kind = "dashboard"
	KindClients         Kind = "clients"
	KindClientOverview  Kind = "client-overview"
	KindClientAgents    Kind = "client-agents"
	KindClientInstances Kind = "client-instances"
	KindClientHistory   Kind = "client-history"
	KindClientSavings   Kind = "client-savings"
	KindClientLive      Kind = "client-live"
	KindInstancePools   Kind = "instance-pools"
	KindNotifications   Kind = "notifications"
	KindSystem          Kind = "system"
)

// Kinds lists every view kind in display order.
func Kinds() []Kind {
	return []Kind{
		KindDashboard,
		KindClients,
		KindClientOverview,
		KindClientAgents,
		KindClientInstances,
		KindClientHistory,
		KindClientSavings,
		KindClientLive,
		KindInstancePools,
		KindNotifications,
		KindSystem,
	}
}

// ParseKind parses a view kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := specs[k]; !ok {
		return "", fmt.Errorf("unknown view %q", s)
	}
	return k, nil
}

// Params are the inputs of a view load. Params is comparable; two loads with
// equal Params issue the same requests.
type Params struct {
	ClientID   string
	InstanceID string

	Agents        types.AgentFilter
	Instances     types.InstanceFilter
	History       types.HistoryFilter
	Savings       types.SavingsFilter
	Notifications types.NotificationFilter
}

// Descriptor names one view and its inputs.
type Descriptor struct {
	Kind   Kind
	Params Params
}

// Key identifies the view independently of its filters. A filter change
// reloads the same view; a different key is a different view.
func (d Descriptor) Key() string {
	switch {
	case d.Kind == KindInstancePools:
		return string(d.Kind) + "/" + d.Params.InstanceID
	case d.Params.ClientID != "" && strings.HasPrefix(string(d.Kind), "client-"):
		return string(d.Kind) + "/" + d.Params.ClientID
	}
	return string(d.Kind)
}

// Validate checks that the descriptor carries the ids its kind needs.
func (d Descriptor) Validate() error {
	s, ok := specs[d.Kind]
	if !ok {
		return fmt.Errorf("unknown view %q", d.Kind)
	}
	if s.needsClient && d.Params.ClientID == "" {
		return fmt.Errorf("view %s requires a client id", d.Kind)
	}
	if s.needsInstance && d.Params.InstanceID == "" {
		return fmt.Errorf("view %s requires an instance id", d.Kind)
	}
	return nil
}

// Polls reports whether the view is refreshed by the scheduled poll.
func (d Descriptor) Polls() bool {
	return specs[d.Kind].polls
}

// ReusesUnchanged reports whether opening the view with the params of its
// last completed load skips the fetch.
func (d Descriptor) ReusesUnchanged() bool {
	return specs[d.Kind].reuseUnchanged
}

// Reads returns the names of the reads the view issues.
func (d Descriptor) Reads() []string {
	reads := specs[d.Kind].reads
	names := make([]string, len(reads))
	for i, r := range reads {
		names[i] = r.Name
	}
	return names
}

// Source is the read side of the backend API.
type Source interface {
	GlobalStats(ctx context.Context) (*types.GlobalStats, error)
	ListClients(ctx context.Context) ([]types.Client, error)
	GetClient(ctx context.Context, clientID string) (*types.ClientDetail, error)
	ListAgents(ctx context.Context, clientID string, filter types.AgentFilter) ([]types.Agent, error)
	ListInstances(ctx context.Context, clientID string, filter types.InstanceFilter) ([]types.Instance, error)
	SwitchHistory(ctx context.Context, clientID string, filter types.HistoryFilter) ([]types.SwitchEvent, error)
	Savings(ctx context.Context, clientID string, filter types.SavingsFilter) (*types.SavingsReport, error)
	InstancePools(ctx context.Context, instanceID string) (*types.PoolOptions, error)
	Notifications(ctx context.Context, filter types.NotificationFilter) ([]types.Notification, error)
	LiveData(ctx context.Context, clientID string) ([]types.LiveSample, error)
	SystemHealth(ctx context.Context) (*types.SystemHealth, error)
	ModelsStatus(ctx context.Context) (*types.ModelsStatus, error)
}

// Read is one typed backend call of a view. Fetch returns an applier that
// writes the result into a snapshot; appliers only run once every read of
// the load has succeeded.
type Read struct {
	Name  string
	Fetch func(ctx context.Context, src Source, p Params) (func(*Snapshot), error)
}

type kindSpec struct {
	reads          []Read
	needsClient    bool
	needsInstance  bool
	polls          bool
	reuseUnchanged bool
}

var (
	readStats = Read{"stats", func(ctx context.Context, src Source, p Params) (func(*Snapshot), error) {
		v, err := src.GlobalStats(ctx)
		return func(s *Snapshot) { s.Stats = v }, err
	}}
	readClients = Read{"clients", func(ctx context.Context, src Source, p Params) (func(*Snapshot), error) {
		v, err := src.ListClients(ctx)
		return func(s *Snapshot) { s.Clients = v }, err
	}}
	readClient = Read{"client", func(ctx context.Context, src Source, p Params) (func(*Snapshot), error) {
		v, err := src.GetClient(ctx, p.ClientID)
		return func(s *Snapshot) { s.Client = v }, err
	}}
	readAgents = Read{"agents", func(ctx context.Context, src Source, p Params) (func(*Snapshot), error) {
		v, err := src.ListAgents(ctx, p.ClientID, p.Agents)
		return func(s *Snapshot) { s.Agents = v }, err
	}}
	readInstances = Read{"instances", func(ctx context.Context, src Source, p Params) (func(*Snapshot), error) {
		v, err := src.ListInstances(ctx, p.ClientID, p.Instances)
		return func(s *Snapshot) { s.Instances = v }, err
	}}
	readHistory = Read{"history", func(ctx context.Context, src Source, p Params) (func(*Snapshot), error) {
		v, err := src.SwitchHistory(ctx, p.ClientID, p.History)
		return func(s *Snapshot) { s.History = v }, err
	}}
	readSavings = Read{"savings", func(ctx context.Context, src Source, p Params) (func(*Snapshot), error) {
		v, err := src.Savings(ctx, p.ClientID, p.Savings)
		return func(s *Snapshot) { s.Savings = v }, err
	}}
	readPools = Read{"pools", func(ctx context.Context, src Source, p Params) (func(*Snapshot), error) {
		v, err := src.InstancePools(ctx, p.InstanceID)
		return func(s *Snapshot) { s.Pools = v }, err
	}}
	readNotifications = Read{"notifications", func(ctx context.Context, src Source, p Params) (func(*Snapshot), error) {
		v, err := src.Notifications(ctx, p.Notifications)
		return func(s *Snapshot) { s.Notifications = v }, err
	}}
	readLive = Read{"live", func(ctx context.Context, src Source, p Params) (func(*Snapshot), error) {
		v, err := src.LiveData(ctx, p.ClientID)
		return func(s *Snapshot) { s.Live = v }, err
	}}
	readSystem = Read{"system", func(ctx context.Context, src Source, p Params) (func(*Snapshot), error) {
		v, err := src.SystemHealth(ctx)
		return func(s *Snapshot) { s.System = v }, err
	}}
	readModels = Read{"models", func(ctx context.Context, src Source, p Params) (func(*Snapshot), error) {
		v, err := src.ModelsStatus(ctx)
		return func(s *Snapshot) { s.Models = v }, err
	}}
)

var specs = map[Kind]kindSpec{
	KindDashboard: {
		reads: []Read{readStats, readClients, readNotifications},
		polls: true,
	},
	KindClients: {
		reads: []Read{readClients},
		polls: true,
	},
	KindClientOverview: {
		reads:       []Read{readClient, readAgents, readInstances, readSavings},
		needsClient: true,
		polls:       true,
	},
	KindClientAgents: {
		reads:          []Read{readAgents},
		needsClient:    true,
		polls:          true,
		reuseUnchanged: true,
	},
	KindClientInstances: {
		reads:          []Read{readInstances},
		needsClient:    true,
		polls:          true,
		reuseUnchanged: true,
	},
	KindClientHistory: {
		reads:          []Read{readHistory},
		needsClient:    true,
		reuseUnchanged: true,
	},
	KindClientSavings: {
		reads:          []Read{readSavings},
		needsClient:    true,
		reuseUnchanged: true,
	},
	KindClientLive: {
		reads:       []Read{readLive},
		needsClient: true,
		polls:       true,
	},
	KindInstancePools: {
		reads:         []Read{readPools},
		needsInstance: true,
	},
	KindNotifications: {
		reads: []Read{readNotifications},
		polls: true,
	},
	KindSystem: {
		reads: []Read{readSystem, readModels},
		polls: true,
	},
}
