package api

import "github.com/voxtui/vox/internal/domain"

// apiEnvelope is the backend's generic {success, error} response wrapper.
type apiEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// downloadRequest is the POST /api/download body.
type downloadRequest struct {
	Tasks []domain.Submission `json:"tasks"`
}

// filesResponse is the GET /api/files response.
type filesResponse struct {
	Success bool          `json:"success"`
	Files   []domain.File `json:"files"`
	Count   int           `json:"count"`
	Error   string        `json:"error"`
}
