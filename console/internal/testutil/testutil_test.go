package testutil

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/pilot-net/spot-console/pkg/types"
)

func TestFixtureAgent(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		agent := FixtureAgent()
		if agent.ID == "" {
			t.Error("expected agent to have ID")
		}
		if agent.Status != types.AgentStatusOnline || agent.Retired() {
			t.Errorf("expected active online agent, got %+v", agent)
		}
	})

	t.Run("with overrides", func(t *testing.T) {
		agent := FixtureAgent(func(a *types.Agent) {
			a.ClientID = "c-9"
		})
		if agent.ClientID != "c-9" {
			t.Errorf("expected client c-9, got %s", agent.ClientID)
		}
	})

	t.Run("retired variant", func(t *testing.T) {
		agent := FixtureAgentRetired()
		if !agent.Retired() {
			t.Error("expected retired agent")
		}
	})

	t.Run("offline variant keeps overrides", func(t *testing.T) {
		agent := FixtureAgentOffline(func(a *types.Agent) { a.Hostname = "web-1" })
		if agent.Status != types.AgentStatusOffline || agent.Hostname != "web-1" {
			t.Errorf("unexpected agent %+v", agent)
		}
	})
}

func TestFixtureInstance(t *testing.T) {
	inst := FixtureInstance()
	if inst.CurrentMode != types.ModeSpot || inst.CurrentPoolID == nil {
		t.Errorf("expected spot instance with pool, got %+v", inst)
	}

	od := FixtureInstanceOnDemand()
	if od.CurrentMode != types.ModeOnDemand || od.CurrentPoolID != nil {
		t.Errorf("expected on-demand instance without pool, got %+v", od)
	}

	if FixtureInstance().ID == inst.ID {
		t.Error("expected unique instance IDs")
	}
}

func TestFixtureClient_Valid(t *testing.T) {
	if err := FixtureClient().Validate(); err != nil {
		t.Errorf("expected valid client, got %v", err)
	}
}

func TestWriteEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteEnvelope(rec, []string{"a"})

	var body struct {
		Status string   `json:"status"`
		Data   []string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Status != "success" || len(body.Data) != 1 {
		t.Errorf("unexpected envelope %+v", body)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}
