package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/FathimaMehrinVS/FixTheGap/internal/simulate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func writeModelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"linear_model_params.json": `{"coef": [2000, 10000, 15000], "intercept": 80000, "features": ["experience", "role", "gender"]}`,
		"gender_encoder.json":      `{"classes": ["female", "male"]}`,
		"role_encoder.json":        `{"classes": ["Data Analyst", "Data Engineer", "Data Scientist"]}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func newTestRouter(t *testing.T, predictBase string) *gin.Engine {
	t.Helper()
	server, err := NewServer(Config{
		DBPath:         filepath.Join(t.TempDir(), "session.db"),
		PredictBaseURL: predictBase,
		ModelDir:       writeModelDir(t),
		SilentDB:       true,
		FailurePolicy:  simulate.FailureSurfaceError,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = server.Close() })

	router, err := server.Router()
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return router
}

func TestPredictEndpoint(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/predict?gender=female&role=Data+Scientist&experience=4", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var resp PredictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// female: 80000 + 2000*4 + 10000*2; male baseline adds the gender coefficient.
	if resp.Adjusted != 108000 || resp.Predicted != 123000 || resp.PayGap != 15000 {
		t.Fatalf("unexpected prediction: %+v", resp)
	}
}

func TestPredictUnknownRole(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/predict?gender=male&role=Chef&experience=2", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("model errors must keep a 200 contract, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] != "y contains previously unseen labels: ['Chef']" {
		t.Fatalf("unexpected error %q", resp["error"])
	}
}

func TestPredictInvalidExperience(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/predict?gender=male&role=Data+Analyst&experience=lots", nil)
	router.ServeHTTP(rec, req)

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp["error"], "invalid experience") {
		t.Fatalf("unexpected error %q", resp["error"])
	}
}

func TestSimulateThenResultsFlow(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"predicted_salary": 150000, "gender_adjusted_salary": 132000, "pay_gap": 18000}`))
	}))
	defer backend.Close()

	router := newTestRouter(t, backend.URL)

	body := `{"role": "Data Scientist", "location": "Germany (DE)", "industry": "Tech / Software", "experience": "4", "gender": "Female"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("simulate status %d: %s", rec.Code, rec.Body.String())
	}
	var sim SimulateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sim); err != nil {
		t.Fatal(err)
	}
	if sim.Status != string(simulate.StatusSucceeded) || sim.Redirect != "results" {
		t.Fatalf("unexpected simulate response: %+v", sim)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie to be set")
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/results", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("results status %d", rec.Code)
	}
	var view struct {
		Demo   bool   `json:"demo"`
		GapPct string `json:"gap_pct"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Demo {
		t.Fatal("stored submission must not render the demo dataset")
	}
	if view.GapPct != "12.0" {
		t.Fatalf("unexpected gap pct %q", view.GapPct)
	}
}

func TestSimulateValidationRejected(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(`{"role": "Data Scientist"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var sim SimulateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sim); err != nil {
		t.Fatal(err)
	}
	if sim.Status != string(simulate.StatusRejected) {
		t.Fatalf("expected rejected, got %q", sim.Status)
	}
}

func TestResultsWithoutSessionServesDemo(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/results", nil)
	router.ServeHTTP(rec, req)

	var view struct {
		Demo   bool    `json:"demo"`
		Market float64 `json:"market"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if !view.Demo || view.Market != 195000 {
		t.Fatalf("expected demo dataset, got %+v", view)
	}
}
