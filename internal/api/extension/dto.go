package extension

type InjectRequest struct {
	ClientID string `json:"clientId" validate:"required,max=128"`
}

type InjectResponse struct {
	ClientID  string `json:"clientId"`
	RequestID string `json:"requestId"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
}

type ClientsResponse struct {
	Clients []string `json:"clients"`
}
