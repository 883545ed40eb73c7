package types

import "encoding/json"

// =============================================================================
// LIVE DATA
// =============================================================================

// LiveSample is one telemetry row an agent reported in the last hour.
// Columns the console does not model are kept in Fields.
type LiveSample struct {
	AgentID        string `json:"agent_id"`
	ClientID       string `json:"client_id"`
	LogicalAgentID string `json:"logical_agent_id"`
	Hostname       string `json:"hostname"`
	ReceivedAt     Time   `json:"received_at"`
	SecondsAgo     Count  `json:"seconds_ago"`

	Fields map[string]any `json:"fields,omitempty"`
}

var liveSampleColumns = []string{
	"agent_id", "client_id", "logical_agent_id", "hostname", "received_at", "seconds_ago", "fields",
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *LiveSample) UnmarshalJSON(data []byte) error {
	type plain LiveSample
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range liveSampleColumns {
		delete(raw, k)
	}
	if len(raw) > 0 {
		if p.Fields == nil {
			p.Fields = make(map[string]any, len(raw))
		}
		for k, v := range raw {
			p.Fields[k] = v
		}
	}
	*l = LiveSample(p)
	return nil
}

// =============================================================================
// SYSTEM HEALTH
// =============================================================================

// DatabaseStatus is the backend's view of its database.
type DatabaseStatus struct {
	Status      string `json:"status"`
	Connections Count  `json:"connections"`
	Clients     Count  `json:"clients"`
	Agents      Count  `json:"agents"`
}

// BackendStatus is the backend's self-reported status.
type BackendStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// EngineRecord is one registration of a decision engine. The zero value
// means no engine is registered.
type EngineRecord struct {
	EngineType     string  `json:"engine_type"`
	Region         string  `json:"region"`
	ModelVersion   *string `json:"model_version"`
	ModelPath      *string `json:"model_path"`
	IsActive       Flag    `json:"is_active"`
	LoadedAt       Time    `json:"loaded_at"`
	DecisionsCount Count   `json:"decisions_count"`
}

// Registered reports whether r describes an engine.
func (r EngineRecord) Registered() bool {
	return r.EngineType != ""
}

// SystemEvent is an error or critical event the backend recorded.
type SystemEvent struct {
	EventType string   `json:"event_type"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	CreatedAt Time     `json:"created_at"`
}

// BackgroundJob is one run of a backend maintenance job.
type BackgroundJob struct {
	JobType        string `json:"job_type"`
	Status         string `json:"status"`
	ItemsProcessed Count  `json:"items_processed"`
	StartedAt      Time   `json:"started_at"`
	CompletedAt    Time   `json:"completed_at"`
}

// SystemHealth is the detailed system health payload.
type SystemHealth struct {
	Database       DatabaseStatus  `json:"database"`
	Backend        BackendStatus   `json:"backend"`
	DecisionEngine EngineRecord    `json:"decision_engine"`
	RecentErrors   []SystemEvent   `json:"recent_errors"`
	BackgroundJobs []BackgroundJob `json:"background_jobs"`
}

// EngineConfig is the engine configuration the backend was started with.
type EngineConfig struct {
	EngineType string `json:"engine_type"`
	Region     string `json:"region"`
	ModelDir   string `json:"model_dir"`
}

// ModelsStatus lists every engine registration, newest first.
type ModelsStatus struct {
	Models []EngineRecord `json:"models"`
	Config EngineConfig   `json:"config"`
}

// Active returns the newest active registration, or nil.
func (m *ModelsStatus) Active() *EngineRecord {
	for i := range m.Models {
		if m.Models[i].IsActive {
			return &m.Models[i]
		}
	}
	return nil
}
