package store

import "github.com/jony/genie/internal/models"

// cloneTask returns a deep copy so callers can never mutate the Store's
// live state through a returned pointer.
func cloneTask(t *models.Task) *models.Task {
	cp := *t
	if t.Deadline != nil {
		d := *t.Deadline
		cp.Deadline = &d
	}
	cp.Subtasks = make([]models.Subtask, len(t.Subtasks))
	copy(cp.Subtasks, t.Subtasks)
	for i := range cp.Subtasks {
		if t.Subtasks[i].Deadline != nil {
			d := *t.Subtasks[i].Deadline
			cp.Subtasks[i].Deadline = &d
		}
		if t.Subtasks[i].Event != nil {
			ev := *t.Subtasks[i].Event
			cp.Subtasks[i].Event = &ev
		}
	}
	return &cp
}

// cloneUserState returns a deep copy of a UserState.
func cloneUserState(u *models.UserState) *models.UserState {
	cp := *u
	cp.Tasks = make(map[string]*models.Task, len(u.Tasks))
	for id, t := range u.Tasks {
		cp.Tasks[id] = cloneTask(t)
	}
	cp.Feedback = make([]models.Feedback, len(u.Feedback))
	copy(cp.Feedback, u.Feedback)
	return &cp
}
