// Package testutil provides fixtures and helpers for console tests.
//
// Fixtures take functional overrides:
//
//	agent := testutil.FixtureAgent()
//	agent := testutil.FixtureAgent(func(a *types.Agent) {
//		a.ClientID = "c-2"
//		a.Status = types.AgentStatusOffline
//	})
package testutil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pilot-net/spot-console/pkg/types"
)

// NewTestLogger returns a logger that discards all output.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WriteEnvelope writes a success envelope around data, the way the backend
// wraps every read.
func WriteEnvelope(w http.ResponseWriter, data any) {
	WriteJSON(w, map[string]any{"status": "success", "data": data})
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// =============================================================================
// CLIENT FIXTURES
// =============================================================================

// FixtureClient creates a client with sensible defaults.
func FixtureClient(overrides ...func(*types.Client)) *types.Client {
	client := &types.Client{
		ID:                     uuid.New().String(),
		Name:                   "client-" + uuid.New().String()[:8],
		CompanyName:            "Test Co",
		Status:                 types.ClientStatusActive,
		TotalSavings:           250,
		AgentsOnline:           1,
		AgentsTotal:            2,
		ActiveInstances:        3,
		SpotInstances:          2,
		OnDemandInstances:      1,
		MonthlySavingsEstimate: 90,
		CreatedAt:              types.NewTime(time.Now().Add(-30 * 24 * time.Hour)),
		LastSyncAt:             types.NewTime(time.Now()),
	}

	for _, override := range overrides {
		override(client)
	}

	return client
}

// =============================================================================
// AGENT FIXTURES
// =============================================================================

// FixtureAgent creates an online, enabled agent.
func FixtureAgent(overrides ...func(*types.Agent)) *types.Agent {
	agent := &types.Agent{
		ID:                uuid.New().String(),
		ClientID:          "c-1",
		Hostname:          "host-" + uuid.New().String()[:8],
		Version:           "1.0.0",
		Status:            types.AgentStatusOnline,
		Enabled:           true,
		AutoSwitchEnabled: true,
		LastHeartbeat:     types.NewTime(time.Now()),
		InstanceCount:     1,
	}

	for _, override := range overrides {
		override(agent)
	}

	return agent
}

// FixtureAgentOffline creates an agent with a stale heartbeat.
func FixtureAgentOffline(overrides ...func(*types.Agent)) *types.Agent {
	return FixtureAgent(append([]func(*types.Agent){
		func(a *types.Agent) {
			a.Status = types.AgentStatusOffline
			a.LastHeartbeat = types.NewTime(TimeAgo(10 * time.Minute))
		},
	}, overrides...)...)
}

// FixtureAgentRetired creates a retired agent.
func FixtureAgentRetired(overrides ...func(*types.Agent)) *types.Agent {
	return FixtureAgent(append([]func(*types.Agent){
		func(a *types.Agent) {
			a.Status = types.AgentStatusOffline
			a.RetiredAt = types.NewTime(TimeAgo(24 * time.Hour))
			a.RetirementReason = "decommissioned"
		},
	}, overrides...)...)
}

// =============================================================================
// INSTANCE FIXTURES
// =============================================================================

// FixtureInstance creates a spot instance saving 70% against on-demand.
func FixtureInstance(overrides ...func(*types.Instance)) *types.Instance {
	inst := &types.Instance{
		ID:            "i-" + uuid.New().String()[:12],
		AgentID:       "a-1",
		InstanceType:  "m5.large",
		Region:        "us-east-1",
		AZ:            "us-east-1a",
		CurrentMode:   types.ModeSpot,
		CurrentPoolID: Ptr("m5.large:us-east-1a"),
		SpotPrice:     3,
		OnDemandPrice: 10,
		LastSwitchAt:  types.NewTime(TimeAgo(time.Hour)),
	}

	for _, override := range overrides {
		override(inst)
	}

	return inst
}

// FixtureInstanceOnDemand creates an instance running on-demand.
func FixtureInstanceOnDemand(overrides ...func(*types.Instance)) *types.Instance {
	return FixtureInstance(append([]func(*types.Instance){
		func(i *types.Instance) {
			i.CurrentMode = types.ModeOnDemand
			i.CurrentPoolID = nil
		},
	}, overrides...)...)
}

// =============================================================================
// HISTORY AND NOTIFICATION FIXTURES
// =============================================================================

// FixtureSwitchEvent creates a completed model-triggered switch to spot.
func FixtureSwitchEvent(overrides ...func(*types.SwitchEvent)) *types.SwitchEvent {
	event := &types.SwitchEvent{
		ID:              uuid.New().String(),
		ClientID:        "c-1",
		AgentID:         Ptr("a-1"),
		InstanceID:      "i-1",
		Timestamp:       types.NewTime(TimeAgo(time.Hour)),
		FromMode:        types.ModeOnDemand,
		ToMode:          types.ModeSpot,
		ToPoolID:        Ptr("m5.large:us-east-1a"),
		Trigger:         types.TriggerModel,
		SavingsImpact:   0.07,
		ExecutionStatus: types.ExecutionCompleted,
	}

	for _, override := range overrides {
		override(event)
	}

	return event
}

// FixtureNotification creates an unread info notification.
func FixtureNotification(overrides ...func(*types.Notification)) *types.Notification {
	note := &types.Notification{
		ID:        uuid.New().String(),
		Message:   "Instance switched to spot",
		Severity:  types.SeverityInfo,
		CreatedAt: types.NewTime(TimeAgo(time.Minute)),
	}

	for _, override := range overrides {
		override(note)
	}

	return note
}

// =============================================================================
// LIVE DATA AND SYSTEM FIXTURES
// =============================================================================

// FixtureLiveSample creates a sample received a minute ago.
func FixtureLiveSample(overrides ...func(*types.LiveSample)) *types.LiveSample {
	sample := &types.LiveSample{
		AgentID:    "a-1",
		ClientID:   "c-1",
		Hostname:   "host-1",
		ReceivedAt: types.NewTime(TimeAgo(time.Minute)),
		SecondsAgo: 60,
	}

	for _, override := range overrides {
		override(sample)
	}

	return sample
}

// FixtureSystemHealth creates a healthy system with an active engine and
// no recent errors.
func FixtureSystemHealth(overrides ...func(*types.SystemHealth)) *types.SystemHealth {
	health := &types.SystemHealth{
		Database: types.DatabaseStatus{Status: "online", Connections: 3, Clients: 1, Agents: 2},
		Backend:  types.BackendStatus{Status: "online", Version: "3.0.0", Uptime: "running"},
		DecisionEngine: types.EngineRecord{
			EngineType:   "ml_based",
			Region:       "us-east-1",
			ModelVersion: Ptr("v1"),
			IsActive:     true,
			LoadedAt:     types.NewTime(TimeAgo(time.Hour)),
		},
		RecentErrors:   []types.SystemEvent{},
		BackgroundJobs: []types.BackgroundJob{},
	}

	for _, override := range overrides {
		override(health)
	}

	return health
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Ptr returns a pointer to the given value.
func Ptr[T any](v T) *T {
	return &v
}

// TimeAgo returns a time in the past by the given duration.
func TimeAgo(d time.Duration) time.Time {
	return time.Now().Add(-d)
}
