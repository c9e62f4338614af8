package dto

import "github.com/noah-isme/sma-unit-gateway/internal/models"

// GradingSessionResponse is the rendered grading sheet of one activity.
type GradingSessionResponse struct {
	Unit              models.Unit            `json:"unit"`
	Activity          models.Activity        `json:"activity"`
	State             models.GradingState    `json:"state"`
	Editable          bool                   `json:"editable"`
	ReopenRequestable bool                   `json:"reopen_requestable"`
	ZoneGaps          []models.ZoneGap       `json:"zone_gaps"`
	Rows              []models.GradeRow      `json:"rows"`
	Statistics        models.GradeStatistics `json:"statistics"`
	PassingScore      float64                `json:"passing_score"`
}

// NewGradingSessionResponse renders a session snapshot.
func NewGradingSessionResponse(session models.GradingSession) GradingSessionResponse {
	gaps := session.ZoneGaps()
	if gaps == nil {
		gaps = []models.ZoneGap{}
	}
	return GradingSessionResponse{
		Unit:              session.Unit(),
		Activity:          session.Activity(),
		State:             session.State(),
		Editable:          session.State() == models.StateEditable,
		ReopenRequestable: session.ReopenRequestable(),
		ZoneGaps:          gaps,
		Rows:              session.Rows(),
		Statistics:        session.Statistics(),
		PassingScore:      models.PassingScore,
	}
}
