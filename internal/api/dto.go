package api

// SimulateRequest carries one widget submission.
type SimulateRequest struct {
	Role         string   `json:"role"`
	Location     string   `json:"location"`
	Industry     string   `json:"industry"`
	Experience   string   `json:"experience"`
	Gender       string   `json:"gender"`
	ActualSalary *float64 `json:"actual_salary"`
}

// SimulateResponse reports where the submission flow ended.
type SimulateResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Redirect  string `json:"redirect"`
}

// MarketDTO is the enrichment block attached to prediction responses.
type MarketDTO struct {
	AverageSalary float64 `json:"average_salary"`
	Source        string  `json:"source,omitempty"`
}

// PredictResponse is the prediction contract the widget consumes.
type PredictResponse struct {
	Predicted float64    `json:"predicted_salary"`
	Adjusted  float64    `json:"gender_adjusted_salary"`
	PayGap    float64    `json:"pay_gap"`
	Market    *MarketDTO `json:"tavily_data,omitempty"`
}

// ConfigResponse describes the running configuration to clients.
type ConfigResponse struct {
	PredictBase      string   `json:"predict_base"`
	FailurePolicy    string   `json:"failure_policy"`
	RolePolicy       string   `json:"role_policy"`
	PredictorEnabled bool     `json:"predictor_enabled"`
	MarketEnabled    bool     `json:"market_enabled"`
	Roles            []string `json:"roles,omitempty"`
	Genders          []string `json:"genders,omitempty"`
}
