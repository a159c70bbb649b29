// Package models holds the shared entities of the task-management store:
// users, tasks, subtasks, feedback and the derived views agents exchange.
package models

import "time"

// Status is the lifecycle state of a Task or Subtask.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// Preferences captures the scheduling and energy profile of a user.
type Preferences struct {
	WorkWindowStart  string `json:"work_window_start"` // "HH:MM" local time
	WorkWindowEnd    string `json:"work_window_end"`
	PeakEnergyWindow string `json:"peak_energy_window"` // morning|afternoon|evening
	PreferredSession int    `json:"preferred_session_minutes"`
	MaxSession       int    `json:"max_session_minutes"`
}

// DefaultPreferences mirrors a reasonable office worker's day.
func DefaultPreferences() Preferences {
	return Preferences{
		WorkWindowStart:  "09:00",
		WorkWindowEnd:    "17:00",
		PeakEnergyWindow: "morning",
		PreferredSession: 25,
		MaxSession:       30,
	}
}

// CalendarEvent is the cached handle to an externally-scheduled event.
type CalendarEvent struct {
	EventID string    `json:"event_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Summary string    `json:"summary"`
}

// Subtask is a one-level-nested unit of work. Schedulable iff 0 < TimeEstimateMinutes <= 30.
type Subtask struct {
	ID                  string         `json:"id"`
	Heading             string         `json:"heading"`
	Details             string         `json:"details,omitempty"`
	Status              Status         `json:"status"`
	Deadline            *time.Time     `json:"deadline,omitempty"`
	TimeEstimateMinutes int            `json:"time_estimate_minutes,omitempty"`
	ResourceURL         string         `json:"resource_url,omitempty"`
	ResourceFocus       string         `json:"resource_focus,omitempty"`
	Event               *CalendarEvent `json:"event,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// Schedulable reports whether the subtask's estimate fits the 30-minute scheduling granule.
func (s *Subtask) Schedulable() bool {
	return s.TimeEstimateMinutes > 0 && s.TimeEstimateMinutes <= 30
}

// Task is the top-level unit of work a user owns.
type Task struct {
	ID              string     `json:"id"`
	Heading         string     `json:"heading"`
	Details         string     `json:"details,omitempty"`
	Status          Status     `json:"status"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	TimeEstimate    int        `json:"time_estimate_minutes,omitempty"`
	ResourceLink    string     `json:"resource_link,omitempty"`
	Subtasks        []Subtask  `json:"subtasks"`
	NeedsPlanning   bool       `json:"needs_planning,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AllSubtasksResolved reports whether every subtask is done or cancelled.
func (t *Task) AllSubtasksResolved() bool {
	for i := range t.Subtasks {
		st := t.Subtasks[i].Status
		if st != StatusDone && st != StatusCancelled {
			return false
		}
	}
	return true
}

// FeedbackKind classifies a Feedback record.
type FeedbackKind string

const (
	FeedbackTaskCompletion FeedbackKind = "task_completion"
	FeedbackScheduling     FeedbackKind = "scheduling"
	FeedbackDifficulty     FeedbackKind = "difficulty"
	FeedbackEnergy         FeedbackKind = "energy"
)

// Feedback is an append-only record of how a task/subtask actually went.
type Feedback struct {
	Kind           FeedbackKind `json:"kind"`
	TaskID         string       `json:"task_id,omitempty"`
	SubtaskID      string       `json:"subtask_id,omitempty"`
	ActualMinutes  int          `json:"actual_minutes,omitempty"`
	Difficulty     int          `json:"difficulty,omitempty"` // 1-10
	Energy         int          `json:"energy,omitempty"`     // 1-10
	Timestamp      time.Time    `json:"timestamp"`
}

// EnergyPattern is a moving-average energy score observed per hour-of-day (0-23).
type EnergyPattern struct {
	HourlyAverage [24]float64 `json:"hourly_average"`
	HourlyCount   [24]int     `json:"hourly_count"`
}

// Observe folds a new energy sample into the hour's moving average.
func (e *EnergyPattern) Observe(hour int, energy int) {
	if hour < 0 || hour > 23 {
		return
	}
	n := e.HourlyCount[hour]
	avg := e.HourlyAverage[hour]
	e.HourlyAverage[hour] = (avg*float64(n) + float64(energy)) / float64(n+1)
	e.HourlyCount[hour] = n + 1
}

// SessionMeta tracks bookkeeping about a user's persisted session.
type SessionMeta struct {
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
	Version     int       `json:"version"`
}

// Analytics is a derived, read-only view over a user's state.
type Analytics struct {
	TotalTasks         int                `json:"total_tasks"`
	CountByStatus      map[Status]int     `json:"count_by_status"`
	MeanActualVsEstimate float64          `json:"mean_actual_vs_estimate_ratio"`
	EnergyHistogram    [24]float64        `json:"energy_histogram"`
}

// UserState is everything Genie tracks for a single user.
type UserState struct {
	Session       SessionMeta          `json:"session"`
	Tasks         map[string]*Task     `json:"tasks"`
	Feedback      []Feedback           `json:"feedback"`
	Preferences   Preferences          `json:"preferences"`
	EnergyPattern EnergyPattern        `json:"energy_pattern"`
	LastTaskID    string               `json:"last_task_id,omitempty"`
}

// SystemSettings controls store-wide persistence behavior.
type SystemSettings struct {
	AutoBackup          bool `json:"auto_backup"`
	BackupRetentionDays int  `json:"backup_retention_days"`
}

// SystemMeta is the document-wide bookkeeping block.
type SystemMeta struct {
	Version    int            `json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	LastBackup time.Time      `json:"last_backup,omitempty"`
	Settings   SystemSettings `json:"settings"`
}

// Document is the full persisted shape: { users: {...}, system: {...} }.
type Document struct {
	Users  map[string]*UserState `json:"users"`
	System SystemMeta            `json:"system"`
}

// NewDocument returns an empty, well-formed document.
func NewDocument() *Document {
	return &Document{
		Users: make(map[string]*UserState),
		System: SystemMeta{
			Version:   1,
			CreatedAt: time.Now().UTC(),
			Settings: SystemSettings{
				AutoBackup:          true,
				BackupRetentionDays: 14,
			},
		},
	}
}

// DefaultUserKey is the synthetic owner assigned to legacy flat-map documents.
const DefaultUserKey = "default_user"
