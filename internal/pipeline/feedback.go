package pipeline

import "github.com/jony/genie/internal/models"

// RecordFeedback appends fb to the Store; feedback records are
// append-only and the Store folds energy samples into EnergyPattern
// itself (§4.9's feedback path).
func (p *Pipeline) RecordFeedback(userID string, fb models.Feedback) error {
	return p.store.AddFeedback(userID, fb)
}
