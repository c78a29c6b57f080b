package dtos

type ChatMessageRequest struct {
	Message string `json:"message"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}
