package models

type DecisionConnection struct {
	IPAddress string `json:"ipAddress" validate:"omitempty,ip"`
	Port      int    `json:"port" validate:"gte=0,lte=65535"`
}

// DecisionRequest describes the call a caller wants authorized. The source
// of the call is taken from the connection, not the body.
type DecisionRequest struct {
	Scheme       string              `json:"scheme" validate:"omitempty,oneof=http https"`
	Method       string              `json:"method" validate:"required"`
	Path         string              `json:"path" validate:"required,startswith=/"`
	Query        map[string][]string `json:"query"`
	Headers      map[string]string   `json:"headers"`
	Requirements []string            `json:"requirements"`
	Attributes   map[string]string   `json:"attributes"`
	Destination  DecisionConnection  `json:"destination"`
}

type DecisionResponse struct {
	DecisionID string      `json:"decision_id"`
	StatusCode int         `json:"status_code"`
	Result     interface{} `json:"result"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Endpoint string `json:"endpoint"`
}
