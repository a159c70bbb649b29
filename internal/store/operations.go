package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jony/genie/internal/models"
)

// UserLock returns the per-user mutex used by the Pipeline to serialize
// handleUtterance steps 1-4 for a given userId, creating it on first use.
func (s *Store) UserLock(userID string) *sync.Mutex {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// GetOrCreateUser returns a deep-copied snapshot of userID's state,
// creating a fresh UserState (with default preferences) if none exists.
func (s *Store) GetOrCreateUser(userID string) (*models.UserState, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.Users[userID]
	if !ok {
		now := time.Now().UTC()
		u = &models.UserState{
			Session:     models.SessionMeta{CreatedAt: now, LastUpdated: now, Version: 1},
			Tasks:       make(map[string]*models.Task),
			Preferences: models.DefaultPreferences(),
		}
		s.doc.Users[userID] = u
		if err := s.persist(s.doc); err != nil {
			return nil, err
		}
	}
	return cloneUserState(u), nil
}

// AddTask assigns a new UUID, stamps timestamps, inserts the task, and
// persists. It also records the new task as the user's last_task.
func (s *Store) AddTask(userID string, task *models.Task) (string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.ensureUser(userID)
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	u.Tasks[task.ID] = task
	u.LastTaskID = task.ID
	u.Session.LastUpdated = now
	u.Session.Version++

	if err := s.persist(s.doc); err != nil {
		return "", err
	}
	return task.ID, nil
}

// GetTask returns a copy of the named task, or NotFound.
func (s *Store) GetTask(userID, taskID string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.doc.Users[userID]
	if !ok {
		return nil, models.NotFound("user", userID)
	}
	t, ok := u.Tasks[taskID]
	if !ok {
		return nil, models.NotFound("task", taskID)
	}
	return cloneTask(t), nil
}

// Patch describes a partial update to a Task; nil fields are left alone.
type Patch struct {
	Heading  *string
	Details  *string
	Status   *models.Status
	Deadline **time.Time
	Estimate *int
}

// UpdateTask applies patch to the named task, cascading completion to
// subtasks when Status transitions to done, and persists the result.
func (s *Store) UpdateTask(userID, taskID string, patch Patch) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.Users[userID]
	if !ok {
		return false, models.NotFound("user", userID)
	}
	t, ok := u.Tasks[taskID]
	if !ok {
		return false, models.NotFound("task", taskID)
	}

	if patch.Heading != nil {
		t.Heading = *patch.Heading
	}
	if patch.Details != nil {
		t.Details = *patch.Details
	}
	if patch.Deadline != nil {
		t.Deadline = *patch.Deadline
	}
	if patch.Estimate != nil {
		t.TimeEstimate = *patch.Estimate
	}
	if patch.Status != nil {
		t.Status = *patch.Status
		if *patch.Status == models.StatusDone {
			for i := range t.Subtasks {
				if t.Subtasks[i].Status == models.StatusPending || t.Subtasks[i].Status == models.StatusInProgress {
					t.Subtasks[i].Status = models.StatusDone
					t.Subtasks[i].UpdatedAt = time.Now().UTC()
				}
			}
		}
	}
	t.UpdatedAt = time.Now().UTC()
	u.Session.LastUpdated = t.UpdatedAt
	u.Session.Version++

	if err := s.persist(s.doc); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteTask removes a task entirely.
func (s *Store) DeleteTask(userID, taskID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.Users[userID]
	if !ok {
		return models.NotFound("user", userID)
	}
	if _, ok := u.Tasks[taskID]; !ok {
		return models.NotFound("task", taskID)
	}
	delete(u.Tasks, taskID)
	u.Session.LastUpdated = time.Now().UTC()
	u.Session.Version++
	return s.persist(s.doc)
}

// ListTasks returns tasks ordered by CreatedAt, optionally filtered by status.
func (s *Store) ListTasks(userID string, status *models.Status) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.doc.Users[userID]
	if !ok {
		return nil, models.NotFound("user", userID)
	}
	var out []*models.Task
	for _, t := range u.Tasks {
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AddFeedback appends a feedback record and folds it into EnergyPattern
// when it carries an energy sample.
func (s *Store) AddFeedback(userID string, fb models.Feedback) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.ensureUser(userID)
	if fb.Timestamp.IsZero() {
		fb.Timestamp = time.Now().UTC()
	}
	u.Feedback = append(u.Feedback, fb)
	if fb.Kind == models.FeedbackEnergy && fb.Energy > 0 {
		u.EnergyPattern.Observe(fb.Timestamp.Local().Hour(), fb.Energy)
	}
	u.Session.LastUpdated = time.Now().UTC()
	u.Session.Version++
	return s.persist(s.doc)
}

// GetAnalytics derives counts-by-status, mean actual-vs-estimate ratio,
// and the energy histogram for userID.
func (s *Store) GetAnalytics(userID string) (models.Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.doc.Users[userID]
	if !ok {
		return models.Analytics{}, models.NotFound("user", userID)
	}

	an := models.Analytics{CountByStatus: make(map[models.Status]int)}
	for _, t := range u.Tasks {
		an.TotalTasks++
		an.CountByStatus[t.Status]++
	}

	var ratioSum float64
	var ratioCount int
	for _, fb := range u.Feedback {
		if fb.Kind != models.FeedbackTaskCompletion || fb.ActualMinutes <= 0 {
			continue
		}
		est := estimateFor(u, fb.TaskID, fb.SubtaskID)
		if est <= 0 {
			continue
		}
		ratioSum += float64(fb.ActualMinutes) / float64(est)
		ratioCount++
	}
	if ratioCount > 0 {
		an.MeanActualVsEstimate = ratioSum / float64(ratioCount)
	}
	an.EnergyHistogram = u.EnergyPattern.HourlyAverage
	return an, nil
}

func estimateFor(u *models.UserState, taskID, subtaskID string) int {
	t, ok := u.Tasks[taskID]
	if !ok {
		return 0
	}
	if subtaskID == "" {
		return t.TimeEstimate
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subtaskID {
			return t.Subtasks[i].TimeEstimateMinutes
		}
	}
	return 0
}

// ExportUser returns a deep copy of userID's state for external transfer.
func (s *Store) ExportUser(userID string) (*models.UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.doc.Users[userID]
	if !ok {
		return nil, models.NotFound("user", userID)
	}
	return cloneUserState(u), nil
}

// ImportUser overwrites (or creates) userID's state with payload.
func (s *Store) ImportUser(userID string, payload *models.UserState) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Users[userID] = cloneUserState(payload)
	return s.persist(s.doc)
}

// ensureUser returns the user's live state, creating it if absent.
// Caller must already hold s.mu for writing.
func (s *Store) ensureUser(userID string) *models.UserState {
	u, ok := s.doc.Users[userID]
	if !ok {
		now := time.Now().UTC()
		u = &models.UserState{
			Session:     models.SessionMeta{CreatedAt: now, LastUpdated: now, Version: 1},
			Tasks:       make(map[string]*models.Task),
			Preferences: models.DefaultPreferences(),
		}
		s.doc.Users[userID] = u
	}
	return u
}
