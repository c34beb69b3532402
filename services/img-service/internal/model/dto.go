package model

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// UploadImageResponse is returned by POST /api/upload.
type UploadImageResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
