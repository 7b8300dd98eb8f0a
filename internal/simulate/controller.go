package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/FathimaMehrinVS/FixTheGap/internal/mapping"
	"github.com/FathimaMehrinVS/FixTheGap/internal/predict"
	"github.com/FathimaMehrinVS/FixTheGap/internal/salary"
	"github.com/FathimaMehrinVS/FixTheGap/internal/session"
	"github.com/FathimaMehrinVS/FixTheGap/internal/util"
)

// FailurePolicy selects how transport and timeout failures are handled.
type FailurePolicy string

const (
	// FailureSurfaceError persists a human-readable error for the results
	// view. This is the superseding behaviour.
	FailureSurfaceError FailurePolicy = "surface-error"
	// FailureLocalFallback substitutes a locally computed estimate instead
	// of surfacing the failure.
	FailureLocalFallback FailurePolicy = "local-fallback"
)

// ParseFailurePolicy resolves a configured policy name, defaulting to
// FailureSurfaceError for unrecognized values.
func ParseFailurePolicy(value string) FailurePolicy {
	if value == string(FailureLocalFallback) {
		return FailureLocalFallback
	}
	return FailureSurfaceError
}

// Messages persisted for the results view.
const (
	MsgMissingFields  = "Please select Job Role, Location, and Industry."
	MsgBackendUnreach = "Could not reach backend. Please try again."
)

// Status is the terminal state of one submission.
type Status string

const (
	StatusRejected      Status = "rejected"
	StatusSucceeded     Status = "succeeded"
	StatusBackendError  Status = "backend_error"
	StatusNetworkError  Status = "network_error"
	StatusLocalFallback Status = "local_fallback"
)

// Form carries one submission's raw field values.
type Form struct {
	Role         string
	Location     string
	Industry     string
	Experience   string
	Gender       string
	ActualSalary *float64
}

// Outcome reports where the flow ended. Every run navigates to the results
// view regardless of status.
type Outcome struct {
	Status   Status
	Redirect string
}

// Event describes a submission state change for the status stream.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Status    Status    `json:"status,omitempty"`
	Message   string    `json:"message,omitempty"`
	ElapsedMs int64     `json:"elapsed_ms,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives submission lifecycle events.
type Notifier interface {
	Broadcast(Event)
}

// Config wires controller dependencies.
type Config struct {
	Store         *session.Store
	Client        *predict.Client
	FallbackModel *salary.Model
	Policy        FailurePolicy
	Notifier      Notifier
	Timeout       time.Duration
}

// Controller runs one end-to-end submission: validate, predict, persist.
type Controller struct {
	store    *session.Store
	client   *predict.Client
	fallback *salary.Model
	policy   FailurePolicy
	notifier Notifier
	timeout  time.Duration
}

const defaultTimeout = 10 * time.Second

// NewController constructs a controller with defaulted configuration.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, errors.New("session store required")
	}
	if cfg.Client == nil {
		return nil, errors.New("prediction client required")
	}
	if cfg.Policy == FailureLocalFallback && cfg.FallbackModel == nil {
		return nil, errors.New("local-fallback policy requires a salary model")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Controller{
		store:    cfg.Store,
		client:   cfg.Client,
		fallback: cfg.FallbackModel,
		policy:   cfg.Policy,
		notifier: cfg.Notifier,
		timeout:  timeout,
	}, nil
}

// Run executes the submission state machine for one session. Missing
// required fields short-circuit before any network call; all terminal states
// persist an outcome and navigate to results.
func (c *Controller) Run(ctx context.Context, sessionID string, form Form) (Outcome, error) {
	timer := util.StartTimer()
	form.Role = strings.TrimSpace(form.Role)
	form.Location = strings.TrimSpace(form.Location)
	form.Industry = strings.TrimSpace(form.Industry)
	form.Experience = strings.TrimSpace(form.Experience)
	form.Gender = strings.TrimSpace(form.Gender)

	c.emit(Event{Type: "started", SessionID: sessionID})

	var status Status
	defer func() {
		// Terminal event always fires, mirroring the submit control being
		// re-enabled whatever the outcome.
		c.emit(Event{Type: "finished", SessionID: sessionID, Status: status, ElapsedMs: timer.ElapsedMs()})
	}()

	if form.Role == "" || form.Location == "" || form.Industry == "" {
		status = StatusRejected
		if err := c.persist(sessionID, form, errorPayload(MsgMissingFields), "validation"); err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: StatusRejected, Redirect: "results"}, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prediction, err := c.client.Fetch(reqCtx, predict.Input{
		Role:       form.Role,
		Location:   form.Location,
		Experience: form.Experience,
		Gender:     form.Gender,
	})

	switch {
	case err == nil:
		status = StatusSucceeded
		if persistErr := c.persist(sessionID, form, prediction.Raw, "api"); persistErr != nil {
			return Outcome{}, persistErr
		}

	case isBackendError(err):
		status = StatusBackendError
		logrus.WithField("session", sessionID).WithError(err).Warn("backend rejected prediction")
		if persistErr := c.persist(sessionID, form, errorPayload(err.Error()), "api"); persistErr != nil {
			return Outcome{}, persistErr
		}

	case c.policy == FailureLocalFallback:
		status = StatusLocalFallback
		logrus.WithField("session", sessionID).WithError(err).Warn("prediction unreachable, using local model")
		if persistErr := c.persist(sessionID, form, c.localPayload(form), "local"); persistErr != nil {
			return Outcome{}, persistErr
		}

	default:
		status = StatusNetworkError
		logrus.WithField("session", sessionID).WithError(err).Warn("prediction request failed")
		if persistErr := c.persist(sessionID, form, errorPayload(MsgBackendUnreach), "api"); persistErr != nil {
			return Outcome{}, persistErr
		}
	}

	return Outcome{Status: status, Redirect: "results"}, nil
}

func (c *Controller) persist(sessionID string, form Form, payload []byte, source string) error {
	location := form.Location
	if location == "" {
		location = mapping.MapLocation(form.Location)
	}
	if err := c.store.SaveOutcome(&session.Outcome{
		SessionID:   sessionID,
		PayloadJSON: string(payload),
		Source:      source,
	}); err != nil {
		return fmt.Errorf("persist outcome: %w", err)
	}
	if err := c.store.SaveSubmission(&session.Submission{
		SessionID:    sessionID,
		Role:         form.Role,
		Location:     location,
		Industry:     form.Industry,
		Experience:   form.Experience,
		Gender:       form.Gender,
		ActualSalary: form.ActualSalary,
	}); err != nil {
		return fmt.Errorf("persist form context: %w", err)
	}
	return nil
}

// localPayload renders a fallback estimate in the legacy result shape.
func (c *Controller) localPayload(form Form) []byte {
	years, _ := strconv.ParseFloat(form.Experience, 64)
	estimate := c.fallback.Compute(form.Role, form.Location, years, form.Gender)
	payload, _ := json.Marshal(map[string]any{
		"role":       form.Role,
		"location":   form.Location,
		"industry":   form.Industry,
		"experience": form.Experience,
		"result":     estimate,
		"apiSource":  "local",
	})
	return payload
}

func (c *Controller) emit(event Event) {
	if c.notifier == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	c.notifier.Broadcast(event)
}

func errorPayload(message string) []byte {
	payload, _ := json.Marshal(map[string]string{"error": message})
	return payload
}

func isBackendError(err error) bool {
	var backendErr *predict.BackendError
	return errors.As(err, &backendErr)
}
