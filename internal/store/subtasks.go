package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/jony/genie/internal/models"
)

// ReplaceSubtasks overwrites taskID's subtask list wholesale, assigning
// fresh ids and timestamps to any subtask that doesn't already have one.
// The Planner uses this to fill in a newly-created task (§4.6); it also
// clears NeedsPlanning when subtasks were produced successfully.
func (s *Store) ReplaceSubtasks(userID, taskID string, subtasks []models.Subtask) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.Users[userID]
	if !ok {
		return models.NotFound("user", userID)
	}
	t, ok := u.Tasks[taskID]
	if !ok {
		return models.NotFound("task", taskID)
	}

	now := time.Now().UTC()
	for i := range subtasks {
		if subtasks[i].ID == "" {
			subtasks[i].ID = uuid.NewString()
		}
		if subtasks[i].Status == "" {
			subtasks[i].Status = models.StatusPending
		}
		if subtasks[i].CreatedAt.IsZero() {
			subtasks[i].CreatedAt = now
		}
		subtasks[i].UpdatedAt = now
	}
	t.Subtasks = subtasks
	if len(subtasks) > 0 {
		t.NeedsPlanning = false
	}
	t.UpdatedAt = now
	u.Session.LastUpdated = now
	u.Session.Version++
	return s.persist(s.doc)
}

// SetNeedsPlanning flags taskID as still awaiting a Planner pass, per the
// "Planner failures do not abort the add" rule in §4.9 step 3.
func (s *Store) SetNeedsPlanning(userID, taskID string, flag bool) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.Users[userID]
	if !ok {
		return models.NotFound("user", userID)
	}
	t, ok := u.Tasks[taskID]
	if !ok {
		return models.NotFound("task", taskID)
	}
	t.NeedsPlanning = flag
	t.UpdatedAt = time.Now().UTC()
	u.Session.Version++
	return s.persist(s.doc)
}

// AddSubtask appends one subtask to taskID (the add_subtask action) and
// returns its assigned id.
func (s *Store) AddSubtask(userID, taskID string, seed models.Subtask) (string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.Users[userID]
	if !ok {
		return "", models.NotFound("user", userID)
	}
	t, ok := u.Tasks[taskID]
	if !ok {
		return "", models.NotFound("task", taskID)
	}

	now := time.Now().UTC()
	if seed.ID == "" {
		seed.ID = uuid.NewString()
	}
	if seed.Status == "" {
		seed.Status = models.StatusPending
	}
	seed.CreatedAt = now
	seed.UpdatedAt = now
	t.Subtasks = append(t.Subtasks, seed)
	t.UpdatedAt = now
	u.Session.LastUpdated = now
	u.Session.Version++
	if err := s.persist(s.doc); err != nil {
		return "", err
	}
	return seed.ID, nil
}

// SubtaskPatch describes a partial update to one subtask.
type SubtaskPatch struct {
	Status   *models.Status
	Deadline **time.Time
	Event    **models.CalendarEvent
}

// UpdateSubtask applies patch to the named subtask within taskID.
func (s *Store) UpdateSubtask(userID, taskID, subtaskID string, patch SubtaskPatch) (bool, error) {
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
	now := time.Now().UTC()
	found := false
	for i := range t.Subtasks {
		if t.Subtasks[i].ID != subtaskID {
			continue
		}
		found = true
		if patch.Status != nil {
			t.Subtasks[i].Status = *patch.Status
		}
		if patch.Deadline != nil {
			t.Subtasks[i].Deadline = *patch.Deadline
		}
		if patch.Event != nil {
			t.Subtasks[i].Event = *patch.Event
		}
		t.Subtasks[i].UpdatedAt = now
		break
	}
	if !found {
		return false, models.NotFound("subtask", subtaskID)
	}
	t.UpdatedAt = now
	u.Session.Version++
	if err := s.persist(s.doc); err != nil {
		return false, err
	}
	return true, nil
}

// ClearTaskEvents removes every subtask's cached calendar handle under
// taskID and returns the eventIds that were cleared, so the caller can
// delete them on the Calendar Client. Used by reschedule (§3 invariant:
// "invalidates any calendar placement").
func (s *Store) ClearTaskEvents(userID, taskID string) ([]string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.Users[userID]
	if !ok {
		return nil, models.NotFound("user", userID)
	}
	t, ok := u.Tasks[taskID]
	if !ok {
		return nil, models.NotFound("task", taskID)
	}
	var cleared []string
	now := time.Now().UTC()
	for i := range t.Subtasks {
		if t.Subtasks[i].Event != nil {
			cleared = append(cleared, t.Subtasks[i].Event.EventID)
			t.Subtasks[i].Event = nil
			t.Subtasks[i].UpdatedAt = now
		}
	}
	if len(cleared) == 0 {
		return nil, nil
	}
	t.UpdatedAt = now
	u.Session.Version++
	if err := s.persist(s.doc); err != nil {
		return nil, err
	}
	return cleared, nil
}
