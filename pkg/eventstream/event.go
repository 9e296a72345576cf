package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeRunCompleted is emitted after an experiment run finishes,
	// successfully or not.
	EventTypeRunCompleted = "echotext.run.completed"
)

// RunCompletedEvent is a transport-neutral event payload for a finished run.
type RunCompletedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	Run           RunMeta   `json:"run"`
}

// RunMeta identifies the run and captures its lifecycle metadata.
type RunMeta struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	ArtifactDir string    `json:"artifact_dir,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`

	// Documents is the number of documents the run processed.
	Documents int `json:"documents,omitempty"`
}
