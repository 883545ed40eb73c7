package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAmount_Unmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{`12.5`, 12.5},
		{`"12.5"`, 12.5},
		{`" 7 "`, 7},
		{`null`, 0},
		{`"n/a"`, 0},
		{`""`, 0},
		{`"NaN"`, 0},
		{`"Infinity"`, 0},
		{`true`, 0},
		{`-3`, -3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var a Amount
			if err := json.Unmarshal([]byte(tt.input), &a); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if a.Float() != tt.want {
				t.Errorf("got %v, want %v", a.Float(), tt.want)
			}
		})
	}
}

func TestAmount_MissingField(t *testing.T) {
	var c Client
	if err := json.Unmarshal([]byte(`{"id":"c-1","total_savings":"oops"}`), &c); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if c.TotalSavings.Float() != 0 || c.MonthlySavingsEstimate.Float() != 0 {
		t.Errorf("expected zero amounts, got %v and %v", c.TotalSavings, c.MonthlySavingsEstimate)
	}
}

func TestCount_Unmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  Count
	}{
		{`3`, 3},
		{`2.0`, 2},
		{`2.9`, 2},
		{`-2.9`, -2},
		{`"3"`, 3},
		{`" 4 "`, 4},
		{`null`, 0},
		{`"abc"`, 0},
		{`true`, 0},
		{`1e30`, 0},
		{`"NaN"`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var c Count
			if err := json.Unmarshal([]byte(tt.input), &c); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if c != tt.want {
				t.Errorf("got %d, want %d", c, tt.want)
			}
		})
	}
}

func TestFlag_Unmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  Flag
	}{
		{`true`, true},
		{`false`, false},
		{`1`, true},
		{`0`, false},
		{`1.0`, true},
		{`"true"`, true},
		{`"1"`, true},
		{`"0"`, false},
		{`"yes"`, false},
		{`null`, false},
		{`""`, false},
		{`{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var f Flag
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if f != tt.want {
				t.Errorf("got %v, want %v", f, tt.want)
			}
		})
	}
}

func TestUnmarshal_DriverEncodedCountsAndFlags(t *testing.T) {
	var agent Agent
	if err := json.Unmarshal([]byte(`{"id":"a-1","enabled":1,"auto_switch_enabled":"0","instance_count":"2"}`), &agent); err != nil {
		t.Fatalf("Unmarshal Agent failed: %v", err)
	}
	if !agent.Enabled || agent.AutoSwitchEnabled || agent.InstanceCount != 2 {
		t.Errorf("unexpected agent %+v", agent)
	}

	var clients []Client
	if err := json.Unmarshal([]byte(`[{"id":"c-1","agents_online":2.0,"agents_total":"3"}]`), &clients); err != nil {
		t.Fatalf("Unmarshal []Client failed: %v", err)
	}
	if len(clients) != 1 || clients[0].AgentsOnline != 2 || clients[0].AgentsTotal != 3 {
		t.Errorf("unexpected clients %+v", clients)
	}

	var note Notification
	if err := json.Unmarshal([]byte(`{"id":"n-1","is_read":1}`), &note); err != nil {
		t.Fatalf("Unmarshal Notification failed: %v", err)
	}
	if !note.IsRead {
		t.Error("expected is_read 1 to decode as read")
	}

	var stats GlobalStats
	if err := json.Unmarshal([]byte(`{"totals":{"clients":"4","agents":7.0},"switches":{"total_24h":null}}`), &stats); err != nil {
		t.Fatalf("Unmarshal GlobalStats failed: %v", err)
	}
	if stats.Totals.Clients != 4 || stats.Totals.Agents != 7 || stats.Switches.Total24h != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestLiveSample_RoundTripKeepsFields(t *testing.T) {
	var s LiveSample
	if err := json.Unmarshal([]byte(`{"agent_id":"a-1","seconds_ago":"5","cpu":3}`), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var again LiveSample
	if err := json.Unmarshal(data, &again); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if again.SecondsAgo != 5 || again.Fields["cpu"] != float64(3) || len(again.Fields) != 1 {
		t.Errorf("unexpected sample %+v", again)
	}
}

func TestTime_Layouts(t *testing.T) {
	want := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	tests := []string{
		`"2024-03-05T14:30:00Z"`,
		`"2024-03-05T14:30:00"`,
		`"2024-03-05T14:30:00.000000"`,
		`"2024-03-05 14:30:00"`,
		`"Tue, 05 Mar 2024 14:30:00 UTC"`,
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			var ts Time
			if err := json.Unmarshal([]byte(input), &ts); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if !ts.Equal(want) {
				t.Errorf("got %v, want %v", ts.Time, want)
			}
		})
	}
}

func TestTime_Invalid(t *testing.T) {
	for _, input := range []string{`null`, `"yesterday"`, `42`} {
		var ts Time
		if err := json.Unmarshal([]byte(input), &ts); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", input, err)
		}
		if !ts.IsZero() {
			t.Errorf("Unmarshal(%s) expected zero time, got %v", input, ts.Time)
		}
		out, _ := json.Marshal(ts)
		if string(out) != "null" {
			t.Errorf("expected zero time to marshal as null, got %s", out)
		}
	}
}

func TestAgent_Retired(t *testing.T) {
	var a Agent
	if err := json.Unmarshal([]byte(`{"id":"a-1","retired_at":null}`), &a); err != nil {
		t.Fatal(err)
	}
	if a.Retired() {
		t.Error("expected agent with null retired_at to be active")
	}
	a.RetiredAt = NewTime(time.Now())
	if !a.Retired() {
		t.Error("expected agent to be retired")
	}
}

func TestClient_Validate(t *testing.T) {
	tests := []struct {
		name    string
		client  Client
		wantErr bool
	}{
		{"valid", Client{ID: "c-1", AgentsOnline: 2, AgentsTotal: 3}, false},
		{"missing id", Client{AgentsTotal: 1}, true},
		{"online exceeds total", Client{ID: "c-1", AgentsOnline: 4, AgentsTotal: 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.client.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAgentConfig_Validate(t *testing.T) {
	if err := DefaultAgentConfig().Validate(); err != nil {
		t.Errorf("expected defaults to be valid, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*AgentConfig)
	}{
		{"savings over 100", func(c *AgentConfig) { c.MinSavingsPercent = 101 }},
		{"negative savings", func(c *AgentConfig) { c.MinSavingsPercent = -1 }},
		{"risk over 1", func(c *AgentConfig) { c.RiskThreshold = 1.5 }},
		{"negative switches", func(c *AgentConfig) { c.MaxSwitchesPerWeek = -1 }},
		{"negative duration", func(c *AgentConfig) { c.MinPoolDurationHours = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAgentConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]Mode{
		"spot":      ModeSpot,
		" SPOT ":    ModeSpot,
		"ondemand":  ModeOnDemand,
		"on-demand": ModeOnDemand,
		"od":        ModeOnDemand,
	} {
		got, err := ParseMode(input)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseMode("reserved"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestFilterValues(t *testing.T) {
	if v := (AgentFilter{}).Values(); len(v) != 0 {
		t.Errorf("expected empty agent filter to encode nothing, got %v", v)
	}

	v := AgentFilter{IncludeRetired: true, Status: AgentStatusOnline}.Values()
	if v.Get("include_retired") != "true" || v.Get("status") != "online" || v.Has("search") {
		t.Errorf("unexpected agent filter values %v", v)
	}

	h := HistoryFilter{Start: "2024-01-01", End: "2024-01-31", Trigger: TriggerManual, Limit: 50}.Values()
	if h.Get("start_date") != "2024-01-01" || h.Get("end_date") != "2024-01-31" ||
		h.Get("trigger_type") != "manual" || h.Get("limit") != "50" || h.Has("range") {
		t.Errorf("unexpected history filter values %v", h)
	}

	n := NotificationFilter{ClientID: "c-1", UnreadOnly: true}.Values()
	if n.Get("client_id") != "c-1" || n.Get("unread") != "true" {
		t.Errorf("unexpected notification filter values %v", n)
	}
}
