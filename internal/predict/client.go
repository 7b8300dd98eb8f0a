package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/FathimaMehrinVS/FixTheGap/internal/mapping"
)

// Config drives prediction client behaviour.
type Config struct {
	BaseURL    string
	RolePolicy mapping.RolePolicy
}

// Input carries the raw UI-facing submission fields. Mapping to the backend
// vocabulary happens inside the client.
type Input struct {
	Role       string
	Location   string
	Experience string
	Gender     string
}

// Prediction is the client's view of one successful /predict response.
type Prediction struct {
	Result      Estimate
	Source      string
	BackendRole string
	Raw         json.RawMessage
}

// Client issues single-attempt prediction requests. It imposes no timeout of
// its own; callers wanting cancellation wrap the context.
type Client struct {
	httpClient *http.Client
	baseURL    string
	rolePolicy mapping.RolePolicy
}

// DefaultBaseURL is used when no API base is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

// NewClient constructs a prediction client with defaulted configuration.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		rolePolicy: cfg.RolePolicy,
	}
}

// BaseURL reports the resolved prediction endpoint base.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch requests one prediction. It fails on transport errors, non-2xx
// statuses, and payloads carrying a non-empty error field. No retries.
func (c *Client) Fetch(ctx context.Context, input Input) (Prediction, error) {
	backendRole := mapping.MapRole(input.Role, c.rolePolicy)

	params := url.Values{}
	params.Set("gender", mapping.MapGender(input.Gender))
	params.Set("role", backendRole)
	params.Set("experience", strings.TrimSpace(input.Experience))
	params.Set("location", mapping.MapLocation(input.Location))

	endpoint := c.baseURL + "/predict?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("prediction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Prediction{}, fmt.Errorf("prediction api status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, fmt.Errorf("read prediction response: %w", err)
	}

	payload, err := ParsePayload(body)
	if err != nil {
		return Prediction{}, err
	}
	if payload.Error != "" {
		return Prediction{}, &BackendError{Message: payload.Error}
	}

	result, source := Normalize(payload)
	return Prediction{
		Result:      result,
		Source:      source,
		BackendRole: backendRole,
		Raw:         body,
	}, nil
}

// BackendError reports a payload whose body carried an error field despite a
// successful transport.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}
