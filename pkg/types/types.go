// Package types defines the domain types shared by the console components.
//
// # Design Principles
//
// 1. Read-through copies: every entity is owned by the backend; these types
//    only mirror what the API returns
// 2. Serialization: JSON names match the backend envelope payloads
// 3. Totality: numeric, flag and time fields decode without failing,
//    substituting zero values for anything malformed (see Amount, Count,
//    Flag and Time)
// 4. Validation: types include Validate() methods for invariants the console
//    checks before dispatching writes
package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// CLIENT
// =============================================================================

// ClientStatus is the lifecycle status of a tenant account.
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// Client is a tenant account of the optimization service, with the summary
// counters the backend joins in from its client summary view.
type Client struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	CompanyName string       `json:"company_name,omitempty"`
	Status      ClientStatus `json:"status"`

	// Cumulative savings in currency units
	TotalSavings Amount `json:"total_savings"`

	AgentsOnline      Count `json:"agents_online"`
	AgentsTotal       Count `json:"agents_total"`
	ActiveInstances   Count `json:"active_instances"`
	SpotInstances     Count `json:"spot_instances"`
	OnDemandInstances Count `json:"ondemand_instances"`

	MonthlySavingsEstimate Amount `json:"monthly_savings_estimate"`
	ManualSwitchesToday    Count  `json:"manual_switches_today"`
	ModelSwitchesToday     Count  `json:"model_switches_today"`

	CreatedAt  Time `json:"created_at"`
	LastSyncAt Time `json:"last_sync_at"`
}

// Validate checks the client counter invariants.
func (c *Client) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("client id is required")
	}
	if c.AgentsOnline > c.AgentsTotal {
		return fmt.Errorf("agents_online (%d) exceeds agents_total (%d)", c.AgentsOnline, c.AgentsTotal)
	}
	return nil
}

// Decision is the most recent switch decision recorded for a client.
type Decision struct {
	Decision     string `json:"decision"`
	Reason       string `json:"reason"`
	RiskScore    Amount `json:"risk_score"`
	TargetPoolID string `json:"target_pool_id,omitempty"`
	CreatedAt    Time   `json:"created_at"`
}

// ClientDetail is the per-client overview payload.
type ClientDetail struct {
	Client
	LastDecision *Decision `json:"last_decision,omitempty"`
}

// CreatedClient is returned when a client account is created.
type CreatedClient struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	Token       string `json:"token"`
}

// ClientToken carries a client's agent registration token.
type ClientToken struct {
	Token string `json:"token"`
}

// =============================================================================
// AGENT
// =============================================================================

// AgentStatus is derived by the backend from heartbeat recency.
type AgentStatus string

const (
	AgentStatusOnline  AgentStatus = "online"
	AgentStatusOffline AgentStatus = "offline"
)

// AgentConfig holds the per-agent switching policy.
type AgentConfig struct {
	MinSavingsPercent    Amount `json:"min_savings_percent"`
	RiskThreshold        Amount `json:"risk_threshold"`
	MaxSwitchesPerWeek   Count  `json:"max_switches_per_week"`
	MinPoolDurationHours Count  `json:"min_pool_duration_hours"`
}

// DefaultAgentConfig mirrors the backend defaults applied to unset fields.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		MinSavingsPercent:    10,
		RiskThreshold:        0.7,
		MaxSwitchesPerWeek:   3,
		MinPoolDurationHours: 24,
	}
}

// Validate checks that the policy values are within their allowed ranges.
func (c AgentConfig) Validate() error {
	if c.MinSavingsPercent < 0 || c.MinSavingsPercent > 100 {
		return fmt.Errorf("min_savings_percent must be between 0 and 100")
	}
	if c.RiskThreshold < 0 || c.RiskThreshold > 1 {
		return fmt.Errorf("risk_threshold must be between 0 and 1")
	}
	if c.MaxSwitchesPerWeek < 0 {
		return fmt.Errorf("max_switches_per_week must not be negative")
	}
	if c.MinPoolDurationHours < 0 {
		return fmt.Errorf("min_pool_duration_hours must not be negative")
	}
	return nil
}

// Agent is a monitoring process belonging to one client.
type Agent struct {
	ID             string      `json:"id"`
	LogicalAgentID string      `json:"logical_agent_id,omitempty"`
	ClientID       string      `json:"client_id"`
	Hostname       string      `json:"hostname,omitempty"`
	Version        string      `json:"agent_version,omitempty"`
	Status         AgentStatus `json:"status"`

	Enabled              Flag `json:"enabled"`
	AutoSwitchEnabled    Flag `json:"auto_switch_enabled"`
	AutoTerminateEnabled Flag `json:"auto_terminate_enabled"`

	// Soft-delete tracking
	RetiredAt        Time   `json:"retired_at"`
	RetirementReason string `json:"retirement_reason,omitempty"`

	LastHeartbeat  Time  `json:"last_heartbeat"`
	InstanceCount  Count `json:"instance_count"`
	RecentSwitches Count `json:"recent_switches"`

	AgentConfig
}

// Retired reports whether the agent has been soft-deleted.
func (a *Agent) Retired() bool {
	return !a.RetiredAt.IsZero()
}

// AgentSettings are the boolean automation switches of an agent.
type AgentSettings struct {
	AutoSwitchEnabled    bool `json:"auto_switch_enabled"`
	AutoTerminateEnabled bool `json:"auto_terminate_enabled"`
}

// =============================================================================
// INSTANCE
// =============================================================================

// Mode is the capacity mode an instance runs in.
type Mode string

const (
	ModeSpot     Mode = "spot"
	ModeOnDemand Mode = "ondemand"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeSpot || m == ModeOnDemand
}

// ParseMode parses a user-supplied mode, accepting "on-demand" as an alias.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spot":
		return ModeSpot, nil
	case "ondemand", "on-demand", "od":
		return ModeOnDemand, nil
	}
	return "", fmt.Errorf("unknown mode %q (want spot or ondemand)", s)
}

// Instance is a compute resource managed by exactly one agent.
type Instance struct {
	ID            string  `json:"id"`
	AgentID       string  `json:"agent_id"`
	AgentHostname string  `json:"agent_hostname,omitempty"`
	InstanceType  string  `json:"instance_type"`
	Region        string  `json:"region"`
	AZ            string  `json:"az,omitempty"`
	CurrentMode   Mode    `json:"current_mode"`
	CurrentPoolID *string `json:"current_pool_id"`

	SpotPrice     Amount `json:"spot_price"`
	OnDemandPrice Amount `json:"ondemand_price"`

	LastSwitchAt Time `json:"last_switch_at"`
}

// =============================================================================
// POOL
// =============================================================================

// Pool is a priced spot offering an instance could switch to.
type Pool struct {
	ID                string `json:"pool_id"`
	AZ                string `json:"az,omitempty"`
	Price             Amount `json:"spot_price"`
	SavingsVsOnDemand Amount `json:"savings_vs_od"`
	LastUpdated       Time   `json:"last_updated"`
}

// CurrentPlacement describes where an instance runs now.
type CurrentPlacement struct {
	PoolID        *string `json:"pool_id"`
	SpotPrice     Amount  `json:"spot_price"`
	OnDemandPrice Amount  `json:"ondemand_price"`
}

// OnDemandOffer is the on-demand price for an instance type.
type OnDemandOffer struct {
	Price Amount `json:"price"`
}

// PoolOptions is the switch-management payload for one instance.
type PoolOptions struct {
	Current        CurrentPlacement `json:"current"`
	AlternatePools []Pool           `json:"alternate_pools"`
	OnDemand       OnDemandOffer    `json:"ondemand"`
}

// =============================================================================
// SWITCH EVENT
// =============================================================================

// Trigger is what initiated a mode switch.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerModel     Trigger = "model"
	TriggerScheduled Trigger = "scheduled"
)

// ExecutionStatus is the outcome of a switch.
type ExecutionStatus string

const (
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
	ExecutionPending   ExecutionStatus = "pending"
)

// SwitchEvent is an immutable record of a historical mode transition.
// AgentID is nil when the agent was permanently deleted.
type SwitchEvent struct {
	ID         string  `json:"id"`
	ClientID   string  `json:"client_id,omitempty"`
	AgentID    *string `json:"agent_id"`
	InstanceID string  `json:"instance_id"`
	Hostname   string  `json:"hostname,omitempty"`
	Timestamp  Time    `json:"timestamp"`

	FromMode   Mode    `json:"from_mode"`
	ToMode     Mode    `json:"to_mode"`
	FromPoolID *string `json:"from_pool_id"`
	ToPoolID   *string `json:"to_pool_id"`

	Trigger         Trigger         `json:"event_trigger"`
	SavingsImpact   Amount          `json:"savings_impact"` // currency/hr, signed
	ExecutionStatus ExecutionStatus `json:"execution_status"`
}

// =============================================================================
// NOTIFICATION
// =============================================================================

// Severity of an operational alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Notification is a transient operational alert. ClientID is nil for global
// notifications.
type Notification struct {
	ID        string   `json:"id"`
	ClientID  *string  `json:"client_id"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	CreatedAt Time     `json:"created_at"`
	IsRead    Flag     `json:"is_read"`
}

// =============================================================================
// SAVINGS & STATS
// =============================================================================

// DailySavings is one point of a per-day savings series.
type DailySavings struct {
	Date        string `json:"date"`
	Savings     Amount `json:"savings"`
	SwitchCount Count  `json:"switch_count,omitempty"`
}

// MonthlySavings is one month of recorded savings.
type MonthlySavings struct {
	Year    Count  `json:"year"`
	Month   Count  `json:"month"`
	Savings Amount `json:"savings"`
}

// TypeSavings is savings grouped by instance type.
type TypeSavings struct {
	InstanceType string `json:"instance_type"`
	TotalSavings Amount `json:"total_savings"`
	SwitchCount  Count  `json:"switch_count"`
}

// SavingsReport is the per-client savings payload.
type SavingsReport struct {
	Daily          []DailySavings   `json:"daily"`
	Monthly        []MonthlySavings `json:"monthly"`
	ByInstanceType []TypeSavings    `json:"by_instance_type"`
}

// Totals are fleet-wide counters.
type Totals struct {
	Clients   Count  `json:"clients"`
	Agents    Count  `json:"agents"`
	Instances Count  `json:"instances"`
	Savings   Amount `json:"savings"`
}

// SwitchCounts are fleet-wide switch counters.
type SwitchCounts struct {
	ManualToday Count `json:"manual_today"`
	ModelToday  Count `json:"model_today"`
	Total24h    Count `json:"total_24h"`
}

// TopClient is the highest-saving client.
type TopClient struct {
	ID      *string `json:"id"`
	Name    *string `json:"name"`
	Savings Amount  `json:"savings"`
}

// ComponentHealth reports backend component status as seen by the backend.
type ComponentHealth struct {
	Database string `json:"database"`
	Backend  string `json:"backend"`
}

// GlobalStats is the admin summary payload.
type GlobalStats struct {
	Totals       Totals          `json:"totals"`
	Switches     SwitchCounts    `json:"switches"`
	DailySavings []DailySavings  `json:"daily_savings"`
	TopClient    TopClient       `json:"top_client"`
	SystemHealth ComponentHealth `json:"system_health"`
}

// EngineStatus describes the decision engine the backend has loaded.
type EngineStatus struct {
	Loaded  Flag    `json:"loaded"`
	Type    *string `json:"type"`
	Version *string `json:"version"`
}

// Health is the liveness and version payload.
type Health struct {
	Status         string       `json:"status"`
	Database       string       `json:"database"`
	DecisionEngine EngineStatus `json:"decision_engine"`
	Version        string       `json:"version"`
	Timestamp      Time         `json:"timestamp"`
}

// Healthy reports whether the backend declared itself fully healthy.
func (h *Health) Healthy() bool {
	return h.Status == "healthy"
}
