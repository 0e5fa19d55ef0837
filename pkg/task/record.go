package task

import "time"

// Record is Task's flattened, serializable representation — what SQL
// backends marshal to/from columns, since Task's fields are private and
// mutex-guarded.
type Record struct {
	ID           string
	AgentID      string
	TenantID     string
	UserID       string
	State        State
	Messages     []Message
	Artifacts    []Artifact
	Error        string
	ParentTaskID *string
	SkillName    string
	Labels       map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Record snapshots t's current state.
func (t *Task) Record() Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	messages := make([]Message, len(t.messages))
	copy(messages, t.messages)
	artifacts := make([]Artifact, len(t.artifacts))
	copy(artifacts, t.artifacts)
	labels := make(map[string]string, len(t.labels))
	for k, v := range t.labels {
		labels[k] = v
	}

	return Record{
		ID:           t.id,
		AgentID:      t.agentID,
		TenantID:     t.tenantID,
		UserID:       t.userID,
		State:        t.state,
		Messages:     messages,
		Artifacts:    artifacts,
		Error:        t.taskErr,
		ParentTaskID: t.parentTaskID,
		SkillName:    t.skillName,
		Labels:       labels,
		CreatedAt:    t.createdAt,
		UpdatedAt:    t.updatedAt,
	}
}

// FromRecord rehydrates a Task from a Record, e.g. after loading from a
// SQL backend.
func FromRecord(r Record) *Task {
	labels := r.Labels
	if labels == nil {
		labels = make(map[string]string)
	}
	return &Task{
		id:           r.ID,
		agentID:      r.AgentID,
		tenantID:     r.TenantID,
		userID:       r.UserID,
		state:        r.State,
		messages:     r.Messages,
		artifacts:    r.Artifacts,
		taskErr:      r.Error,
		parentTaskID: r.ParentTaskID,
		skillName:    r.SkillName,
		labels:       labels,
		createdAt:    r.CreatedAt,
		updatedAt:    r.UpdatedAt,
	}
}
