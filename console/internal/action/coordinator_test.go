package action

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pilot-net/spot-console/console/internal/client"
	"github.com/pilot-net/spot-console/console/internal/view"
	"github.com/pilot-net/spot-console/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockBackend records every write. err fails all writes; block, when set,
// holds writes until closed. Client lookups answer "Acme Corp" for
// client-1 and 404 for anything else.
type mockBackend struct {
	mu    sync.Mutex
	calls []string
	err   error
	block chan struct{}
}

func (m *mockBackend) GetClient(ctx context.Context, clientID string) (*types.ClientDetail, error) {
	if clientID != "client-1" {
		return nil, &client.RequestError{StatusCode: 404, Message: "Client not found"}
	}
	return &types.ClientDetail{Client: types.Client{ID: clientID, Name: "Acme Corp"}}, nil
}

func (m *mockBackend) record(call string) error {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	err, block := m.err, m.block
	m.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (m *mockBackend) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockBackend) ToggleAgentEnabled(ctx context.Context, agentID string, enabled bool) error {
	return m.record("toggle:" + agentID)
}

func (m *mockBackend) UpdateAgentSettings(ctx context.Context, agentID string, settings types.AgentSettings) error {
	return m.record("settings:" + agentID)
}

func (m *mockBackend) UpdateAgentConfig(ctx context.Context, agentID string, cfg types.AgentConfig) error {
	return m.record("config:" + agentID)
}

func (m *mockBackend) RetireAgent(ctx context.Context, agentID, reason string) error {
	return m.record("retire:" + agentID)
}

func (m *mockBackend) DeleteAgent(ctx context.Context, agentID string) error {
	return m.record("delete-agent:" + agentID)
}

func (m *mockBackend) CreateClient(ctx context.Context, req client.CreateClientRequest) (*types.CreatedClient, error) {
	if err := m.record("create-client:" + req.Name); err != nil {
		return nil, err
	}
	return &types.CreatedClient{ID: "client-new", Name: req.Name, Token: "tok"}, nil
}

func (m *mockBackend) DeleteClient(ctx context.Context, clientID string) error {
	return m.record("delete-client:" + clientID)
}

func (m *mockBackend) RegenerateClientToken(ctx context.Context, clientID string) (string, error) {
	if err := m.record("regenerate:" + clientID); err != nil {
		return "", err
	}
	return "new-token", nil
}

func (m *mockBackend) ForceSwitch(ctx context.Context, instanceID string, req client.ForceSwitchRequest) error {
	return m.record("switch:" + instanceID + ":" + string(req.Target))
}

func (m *mockBackend) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return m.record("read:" + notificationID)
}

func (m *mockBackend) MarkAllNotificationsRead(ctx context.Context, filter types.NotificationFilter) error {
	return m.record("read-all")
}

// mockSource serves one client's agents and the notification list.
type mockSource struct {
	mu          sync.Mutex
	agentReads  int
	failReloads bool
}

func (s *mockSource) GlobalStats(ctx context.Context) (*types.GlobalStats, error) {
	return &types.GlobalStats{}, nil
}

func (s *mockSource) ListClients(ctx context.Context) ([]types.Client, error) {
	return []types.Client{{ID: "client-1", Name: "Acme Corp"}}, nil
}

func (s *mockSource) GetClient(ctx context.Context, clientID string) (*types.ClientDetail, error) {
	return &types.ClientDetail{Client: types.Client{ID: clientID, Name: "Acme Corp"}}, nil
}

func (s *mockSource) ListAgents(ctx context.Context, clientID string, filter types.AgentFilter) ([]types.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentReads++
	if s.failReloads && s.agentReads > 1 {
		return nil, &client.TransportError{Op: "GET /agents", Cause: errors.New("connection refused")}
	}
	return []types.Agent{
		{ID: "agent-1", ClientID: clientID, Hostname: "web-1", Status: types.AgentStatusOnline, Enabled: true, AutoSwitchEnabled: true},
		{ID: "agent-2", ClientID: clientID, Hostname: "web-2", Status: types.AgentStatusOnline, Enabled: true},
	}, nil
}

func (s *mockSource) ListInstances(ctx context.Context, clientID string, filter types.InstanceFilter) ([]types.Instance, error) {
	return nil, nil
}

func (s *mockSource) SwitchHistory(ctx context.Context, clientID string, filter types.HistoryFilter) ([]types.SwitchEvent, error) {
	return nil, nil
}

func (s *mockSource) Savings(ctx context.Context, clientID string, filter types.SavingsFilter) (*types.SavingsReport, error) {
	return &types.SavingsReport{}, nil
}

func (s *mockSource) InstancePools(ctx context.Context, instanceID string) (*types.PoolOptions, error) {
	return &types.PoolOptions{}, nil
}

func (s *mockSource) Notifications(ctx context.Context, filter types.NotificationFilter) ([]types.Notification, error) {
	return []types.Notification{{ID: "n-1"}, {ID: "n-2"}}, nil
}

func (s *mockSource) LiveData(ctx context.Context, clientID string) ([]types.LiveSample, error) {
	return nil, nil
}

func (s *mockSource) SystemHealth(ctx context.Context) (*types.SystemHealth, error) {
	return &types.SystemHealth{}, nil
}

func (s *mockSource) ModelsStatus(ctx context.Context) (*types.ModelsStatus, error) {
	return &types.ModelsStatus{}, nil
}

func (s *mockSource) reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentReads
}

// confirmWith answers every prompt the same way and records the prompts.
type confirmWith struct {
	mu      sync.Mutex
	answer  Answer
	prompts []Prompt
}

func (c *confirmWith) Confirm(ctx context.Context, p Prompt) (Answer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, p)
	return c.answer, nil
}

func setup(t *testing.T, answer Answer) (*Coordinator, *mockBackend, *mockSource, *view.Orchestrator, *confirmWith) {
	t.Helper()
	backend := &mockBackend{}
	src := &mockSource{}
	views := view.New(src, testLogger())
	confirmer := &confirmWith{answer: answer}
	return New(backend, views, confirmer, testLogger()), backend, src, views, confirmer
}

func openAgents(t *testing.T, views *view.Orchestrator) view.State {
	t.Helper()
	st, err := views.Open(context.Background(), view.Descriptor{
		Kind:   view.KindClientAgents,
		Params: view.Params{ClientID: "client-1"},
	})
	if err != nil {
		t.Fatalf("open agents view: %v", err)
	}
	return st
}

func snapshotJSON(t *testing.T, views *view.Orchestrator) []byte {
	t.Helper()
	st, ok := views.ActiveState()
	if !ok {
		t.Fatal("no active view")
	}
	b, err := json.Marshal(st.Snapshot)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return b
}

func TestToggleAgent_PatchesWithoutReload(t *testing.T) {
	c, backend, src, views, _ := setup(t, Answer{})
	openAgents(t, views)

	if err := c.ToggleAgent(context.Background(), "agent-1", false); err != nil {
		t.Fatalf("ToggleAgent failed: %v", err)
	}

	st, _ := views.ActiveState()
	if st.Snapshot.FindAgent("agent-1").Enabled {
		t.Error("expected agent-1 disabled in held snapshot")
	}
	if !st.Snapshot.FindAgent("agent-2").Enabled {
		t.Error("expected agent-2 untouched")
	}
	if src.reads() != 1 {
		t.Errorf("expected no reload after toggle, got %d agent reads", src.reads())
	}
	if calls := backend.Calls(); len(calls) != 1 || calls[0] != "toggle:agent-1" {
		t.Errorf("unexpected backend calls %v", calls)
	}
}

func TestToggleAgent_FailureLeavesSnapshotUnchanged(t *testing.T) {
	c, backend, _, views, _ := setup(t, Answer{})
	openAgents(t, views)
	backend.err = &client.RequestError{StatusCode: 500, Message: "Failed to toggle agent"}

	before := snapshotJSON(t, views)
	err := c.ToggleAgent(context.Background(), "agent-1", false)
	after := snapshotJSON(t, views)

	if string(before) != string(after) {
		t.Errorf("snapshot changed after failed toggle:\nbefore %s\nafter  %s", before, after)
	}

	var notApplied *NotAppliedError
	if !errors.As(err, &notApplied) {
		t.Fatalf("expected NotAppliedError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "not applied") {
		t.Errorf("expected message to state change was not applied, got %q", err.Error())
	}
	var reqErr *client.RequestError
	if !errors.As(err, &reqErr) || reqErr.Message != "Failed to toggle agent" {
		t.Errorf("expected underlying RequestError, got %v", err)
	}
}

func TestUpdateAgentSettings_FailureKeepsConfirmedValues(t *testing.T) {
	c, backend, _, views, _ := setup(t, Answer{})
	openAgents(t, views)
	backend.err = &client.TransportError{Op: "POST settings", Cause: errors.New("timeout")}

	err := c.UpdateAgentSettings(context.Background(), "agent-1", types.AgentSettings{AutoSwitchEnabled: false, AutoTerminateEnabled: true})
	if err == nil {
		t.Fatal("expected error")
	}

	st, _ := views.ActiveState()
	a := st.Snapshot.FindAgent("agent-1")
	if !a.AutoSwitchEnabled || a.AutoTerminateEnabled {
		t.Errorf("expected last confirmed settings, got %+v", a)
	}

	backend.err = nil
	if err := c.UpdateAgentSettings(context.Background(), "agent-1", types.AgentSettings{AutoSwitchEnabled: false, AutoTerminateEnabled: true}); err != nil {
		t.Fatalf("UpdateAgentSettings failed: %v", err)
	}
	st, _ = views.ActiveState()
	a = st.Snapshot.FindAgent("agent-1")
	if a.AutoSwitchEnabled || !a.AutoTerminateEnabled {
		t.Errorf("expected patched settings, got %+v", a)
	}
}

func TestUpdateAgentConfig_InvalidNeverDispatches(t *testing.T) {
	c, backend, _, _, _ := setup(t, Answer{})

	cfg := types.DefaultAgentConfig()
	cfg.RiskThreshold = 1.5
	err := c.UpdateAgentConfig(context.Background(), "agent-1", cfg)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(backend.Calls()) != 0 {
		t.Errorf("expected no backend calls, got %v", backend.Calls())
	}
}

func TestUpdateAgentConfig_Reloads(t *testing.T) {
	c, _, src, views, _ := setup(t, Answer{})
	openAgents(t, views)

	if err := c.UpdateAgentConfig(context.Background(), "agent-1", types.DefaultAgentConfig()); err != nil {
		t.Fatalf("UpdateAgentConfig failed: %v", err)
	}
	if src.reads() != 2 {
		t.Errorf("expected reload after config update, got %d reads", src.reads())
	}
}

func TestDeleteClient_TypedNameMustMatchExactly(t *testing.T) {
	tests := []struct {
		name     string
		typed    string
		dispatch bool
	}{
		{"exact", "Acme Corp", true},
		{"leading space", " Acme Corp", false},
		{"trailing space", "Acme Corp ", false},
		{"wrong case", "acme corp", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, backend, _, _, confirmer := setup(t, Answer{Confirmed: true, Typed: tt.typed})

			err := c.DeleteClient(context.Background(), ClientRef{ID: "client-1", Name: "Acme Corp"})

			dispatched := len(backend.Calls()) == 1
			if dispatched != tt.dispatch {
				t.Errorf("expected dispatch=%v, got calls %v", tt.dispatch, backend.Calls())
			}
			if tt.dispatch && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.dispatch {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("expected ValidationError, got %v", err)
				}
			}

			p := confirmer.prompts[0]
			if p.TypeToConfirm != "Acme Corp" {
				t.Errorf("expected typed confirmation of client name, got %q", p.TypeToConfirm)
			}
			if len(p.Removes) == 0 {
				t.Error("expected prompt to list removed data")
			}
		})
	}
}

func TestDeleteClient_WrongCallerNameRejected(t *testing.T) {
	c, backend, _, _, confirmer := setup(t, Answer{Confirmed: true, Typed: "not-acme"})

	err := c.DeleteClient(context.Background(), ClientRef{ID: "client-1", Name: "not-acme"})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(backend.Calls()) != 0 || len(confirmer.prompts) != 0 {
		t.Errorf("expected no prompt and no dispatch, got calls %v prompts %d", backend.Calls(), len(confirmer.prompts))
	}
}

func TestDeleteClient_NameResolvedFromBackend(t *testing.T) {
	c, backend, _, _, confirmer := setup(t, Answer{Confirmed: true, Typed: "Acme Corp"})

	if err := c.DeleteClient(context.Background(), ClientRef{ID: "client-1"}); err != nil {
		t.Fatalf("DeleteClient failed: %v", err)
	}
	if p := confirmer.prompts[0]; p.TypeToConfirm != "Acme Corp" || p.Target != "Acme Corp" {
		t.Errorf("expected prompt for the stored name, got %+v", p)
	}
	if calls := backend.Calls(); len(calls) != 1 || calls[0] != "delete-client:client-1" {
		t.Errorf("unexpected backend calls %v", calls)
	}
}

func TestDeleteClient_LookupFailureRejected(t *testing.T) {
	c, backend, _, _, confirmer := setup(t, Answer{Confirmed: true, Typed: "Ghost"})

	err := c.DeleteClient(context.Background(), ClientRef{ID: "client-9", Name: "Ghost"})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Client not found") {
		t.Errorf("expected lookup failure in message, got %q", err.Error())
	}
	if len(backend.Calls()) != 0 || len(confirmer.prompts) != 0 {
		t.Errorf("expected no prompt and no dispatch, got calls %v prompts %d", backend.Calls(), len(confirmer.prompts))
	}
}

func TestDeleteClient_Declined(t *testing.T) {
	c, backend, _, _, _ := setup(t, Answer{Confirmed: false, Typed: "Acme Corp"})

	err := c.DeleteClient(context.Background(), ClientRef{ID: "client-1", Name: "Acme Corp"})
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if len(backend.Calls()) != 0 {
		t.Errorf("expected no backend calls, got %v", backend.Calls())
	}
}

func TestRemoveAgent_RequiresExplicitMode(t *testing.T) {
	c, backend, _, _, confirmer := setup(t, Answer{Confirmed: true})

	err := c.RemoveAgent(context.Background(), RemoveAgentRequest{AgentID: "agent-1"})

	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "mode" {
		t.Fatalf("expected mode ValidationError, got %v", err)
	}
	if len(backend.Calls()) != 0 || len(confirmer.prompts) != 0 {
		t.Error("expected nothing dispatched or prompted without a mode")
	}
}

func TestRemoveAgent_RetireAndDeleteAreDistinct(t *testing.T) {
	tests := []struct {
		mode    RemovalMode
		want    string
		removes bool
	}{
		{RemovalRetire, "retire:agent-1", false},
		{RemovalDelete, "delete-agent:agent-1", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			c, backend, src, views, confirmer := setup(t, Answer{Confirmed: true})
			openAgents(t, views)

			err := c.RemoveAgent(context.Background(), RemoveAgentRequest{AgentID: "agent-1", Label: "web-1", Mode: tt.mode})
			if err != nil {
				t.Fatalf("RemoveAgent failed: %v", err)
			}
			if calls := backend.Calls(); len(calls) != 1 || calls[0] != tt.want {
				t.Errorf("expected only %s, got %v", tt.want, calls)
			}
			if (len(confirmer.prompts[0].Removes) > 0) != tt.removes {
				t.Errorf("unexpected removes list %v", confirmer.prompts[0].Removes)
			}
			if src.reads() != 2 {
				t.Errorf("expected reload after removal, got %d reads", src.reads())
			}
		})
	}
}

func TestBusy_RejectsConcurrentMutationOfSameEntity(t *testing.T) {
	c, backend, _, _, _ := setup(t, Answer{})
	backend.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- c.ToggleAgent(context.Background(), "agent-1", false)
	}()

	deadline := time.After(2 * time.Second)
	for !c.Busy(AgentEntity("agent-1")) {
		select {
		case <-deadline:
			t.Fatal("agent never became busy")
		case <-time.After(time.Millisecond):
		}
	}

	if err := c.ToggleAgent(context.Background(), "agent-1", true); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if c.Busy(AgentEntity("agent-2")) {
		t.Error("expected other agents unaffected")
	}

	close(backend.block)
	if err := <-done; err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if c.Busy(AgentEntity("agent-1")) {
		t.Error("expected busy flag cleared after completion")
	}
}

func TestForceSwitch_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   ForceSwitchRequest
		field string
	}{
		{"missing instance", ForceSwitchRequest{Target: types.ModeSpot}, "instance"},
		{"unknown target", ForceSwitchRequest{InstanceID: "i-1", Target: "reserved"}, "target"},
		{"pool with ondemand", ForceSwitchRequest{InstanceID: "i-1", Target: types.ModeOnDemand, PoolID: "pool-a"}, "pool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, backend, _, _, _ := setup(t, Answer{Confirmed: true})
			err := c.ForceSwitch(context.Background(), tt.req)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Errorf("expected %s ValidationError, got %v", tt.field, err)
			}
			if len(backend.Calls()) != 0 {
				t.Errorf("expected no dispatch, got %v", backend.Calls())
			}
		})
	}
}

func TestForceSwitch_ConfirmsAndDispatches(t *testing.T) {
	c, backend, _, _, confirmer := setup(t, Answer{Confirmed: true})

	err := c.ForceSwitch(context.Background(), ForceSwitchRequest{InstanceID: "i-1", Target: types.ModeSpot, PoolID: "pool-a"})
	if err != nil {
		t.Fatalf("ForceSwitch failed: %v", err)
	}
	if len(confirmer.prompts) != 1 || !strings.Contains(confirmer.prompts[0].Message, "pool-a") {
		t.Errorf("expected confirmation naming the pool, got %+v", confirmer.prompts)
	}
	if calls := backend.Calls(); len(calls) != 1 || calls[0] != "switch:i-1:spot" {
		t.Errorf("unexpected calls %v", calls)
	}
}

func TestReconcileError_WriteApplied(t *testing.T) {
	c, backend, src, views, _ := setup(t, Answer{Confirmed: true})
	openAgents(t, views)
	src.failReloads = true

	err := c.RemoveAgent(context.Background(), RemoveAgentRequest{AgentID: "agent-2", Mode: RemovalRetire})

	var recErr *ReconcileError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected ReconcileError, got %v", err)
	}
	var notApplied *NotAppliedError
	if errors.As(err, &notApplied) {
		t.Error("reconcile failure must not claim the write failed")
	}
	if len(backend.Calls()) != 1 {
		t.Errorf("expected the write to be sent once, got %v", backend.Calls())
	}
}

func TestRegenerateToken(t *testing.T) {
	c, _, _, _, confirmer := setup(t, Answer{Confirmed: true})

	token, err := c.RegenerateToken(context.Background(), ClientRef{ID: "client-1", Name: "Acme Corp"})
	if err != nil {
		t.Fatalf("RegenerateToken failed: %v", err)
	}
	if token != "new-token" {
		t.Errorf("unexpected token %q", token)
	}
	if len(confirmer.prompts) != 1 {
		t.Error("expected confirmation before regenerating")
	}
}

func TestCreateClient_EmptyName(t *testing.T) {
	c, backend, _, _, _ := setup(t, Answer{})
	_, err := c.CreateClient(context.Background(), "   ", "")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(backend.Calls()) != 0 {
		t.Error("expected no dispatch")
	}
}

func TestMarkNotificationRead_Patches(t *testing.T) {
	c, _, _, views, _ := setup(t, Answer{})
	if _, err := views.Open(context.Background(), view.Descriptor{Kind: view.KindNotifications}); err != nil {
		t.Fatalf("open notifications: %v", err)
	}

	if err := c.MarkNotificationRead(context.Background(), "n-1"); err != nil {
		t.Fatalf("MarkNotificationRead failed: %v", err)
	}

	st, _ := views.ActiveState()
	if !st.Snapshot.FindNotification("n-1").IsRead {
		t.Error("expected n-1 read")
	}
	if st.Snapshot.Derived.UnreadNotifications != 1 {
		t.Errorf("expected unread count recomputed to 1, got %d", st.Snapshot.Derived.UnreadNotifications)
	}
}

func TestNilConfirmerDeclines(t *testing.T) {
	backend := &mockBackend{}
	c := New(backend, nil, nil, testLogger())
	err := c.RemoveAgent(context.Background(), RemoveAgentRequest{AgentID: "agent-1", Mode: RemovalDelete})
	if !errors.Is(err, ErrDeclined) {
		t.Errorf("expected ErrDeclined, got %v", err)
	}
}
