package calibration

import (
	"time"

	domain "github.com/oshokin/calibration-helper/internal/domain/calibration"
)

// manualInputRequest is the body of POST /manual-input.
type manualInputRequest struct {
	DistanceTS  *float64 `json:"distance_ts"`
	DistanceIFM *float64 `json:"distance_ifm"`
	Note        *string  `json:"note"`
}

// measureRequest is the optional body of POST /measure.
type measureRequest struct {
	Note *string `json:"note"`
}

// recordResponse is the JSON shape of a stored record.
type recordResponse struct {
	ID          string    `json:"id"`
	DistanceTS  float64   `json:"distance_ts"`
	DistanceIFM float64   `json:"distance_ifm"`
	Difference  float64   `json:"difference"`
	Status      string    `json:"status"`
	Note        *string   `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}

// instrumentResponse is one entry of GET /instruments.
type instrumentResponse struct {
	Name       string `json:"name"`
	Instrument string `json:"instrument"`
	State      string `json:"state"`
}

// errorResponse is the body of every error reply.
type errorResponse struct {
	Detail string `json:"detail"`
}

// toRecordResponse converts a domain record into its JSON representation.
func toRecordResponse(record *domain.Record) recordResponse {
	return recordResponse{
		ID:          record.ID,
		DistanceTS:  record.TotalStation.Distance,
		DistanceIFM: record.Interferometer.Distance,
		Difference:  record.Difference,
		Status:      string(record.Verdict),
		Note:        record.Note,
		CreatedAt:   record.CreatedAt,
	}
}

func toRecordResponses(records []*domain.Record) []recordResponse {
	responses := make([]recordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, toRecordResponse(record))
	}

	return responses
}

func toInstrumentResponses(statuses []domain.InstrumentStatus) []instrumentResponse {
	responses := make([]instrumentResponse, 0, len(statuses))
	for _, status := range statuses {
		responses = append(responses, instrumentResponse{
			Name:       status.Name,
			Instrument: string(status.Kind),
			State:      status.State,
		})
	}

	return responses
}
