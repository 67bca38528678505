package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veridex/veridex/internal/job"
	"github.com/veridex/veridex/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeEngine serves canned jobs so handler behavior is deterministic
type fakeEngine struct {
	jobs      map[string]*model.FactCheckJob
	submitErr error
	healthErr error
}

func (f *fakeEngine) Submit(req job.SubmitRequest) (*model.FactCheckJob, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	j := &model.FactCheckJob{
		JobID:     "job-1",
		SourceURL: req.SourceURL,
		Mode:      req.Mode,
		Status:    model.StatusSubmitted,
		CreatedAt: time.Now().UTC(),
	}
	return j, nil
}

func (f *fakeEngine) Get(id string) (*model.FactCheckJob, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, model.ErrJobNotFound
	}
	return j, nil
}

func (f *fakeEngine) List() []*model.FactCheckJob {
	var jobs []*model.FactCheckJob
	for _, j := range f.jobs {
		jobs = append(jobs, j)
	}
	return jobs
}

func (f *fakeEngine) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeEngine) Mode() model.EngineMode { return model.EngineLive }

func do(t *testing.T, engine Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	srv := NewServer(engine)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return resp
}

func TestSubmit_Accepted(t *testing.T) {
	w := do(t, &fakeEngine{}, http.MethodPost, "/api/v1/factcheck",
		`{"url": "https://news.example.com/a", "mode": "thorough"}`)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status: got %d (%s)", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["job_id"] != "job-1" {
		t.Errorf("job_id: %v", resp["job_id"])
	}
	if resp["status_url"] != "/api/v1/factcheck/job-1/status" {
		t.Errorf("status_url: %v", resp["status_url"])
	}
	if resp["result_url"] != "/api/v1/factcheck/job-1/result" {
		t.Errorf("result_url: %v", resp["result_url"])
	}
	if resp["estimated_time_seconds"] != float64(model.EstimatedSeconds(model.ModeThorough)) {
		t.Errorf("estimated_time_seconds: %v", resp["estimated_time_seconds"])
	}
}

func TestSubmit_BadRequests(t *testing.T) {
	if w := do(t, &fakeEngine{}, http.MethodPost, "/api/v1/factcheck", `{not json`); w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: got %d", w.Code)
	}

	rejecting := &fakeEngine{submitErr: errors.New("either source_url or article_text is required")}
	if w := do(t, rejecting, http.MethodPost, "/api/v1/factcheck", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("rejected submission: got %d", w.Code)
	}
}

func TestStatus_UnknownJob(t *testing.T) {
	w := do(t, &fakeEngine{jobs: map[string]*model.FactCheckJob{}}, http.MethodGet, "/api/v1/factcheck/nope/status", "")

	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestStatus_RunningJob(t *testing.T) {
	engine := &fakeEngine{jobs: map[string]*model.FactCheckJob{
		"j1": {
			JobID:     "j1",
			Status:    model.StatusValidating,
			Phase:     "validating claims",
			Progress:  0.4,
			CreatedAt: time.Now().UTC().Add(-3 * time.Second),
		},
	}}

	w := do(t, engine, http.MethodGet, "/api/v1/factcheck/j1/status", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["status"] != "validating" || resp["phase"] != "validating claims" {
		t.Errorf("body: %v", resp)
	}
	if resp["elapsed_time_seconds"].(float64) < 2 {
		t.Errorf("elapsed_time_seconds: %v", resp["elapsed_time_seconds"])
	}
}

func TestResult_NotReadyConflicts(t *testing.T) {
	engine := &fakeEngine{jobs: map[string]*model.FactCheckJob{
		"j1": {JobID: "j1", Status: model.StatusValidating, CreatedAt: time.Now().UTC()},
	}}

	w := do(t, engine, http.MethodGet, "/api/v1/factcheck/j1/result", "")

	if w.Code != http.StatusConflict {
		t.Fatalf("status: got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["status_url"] != "/api/v1/factcheck/j1/status" {
		t.Errorf("conflict should point back at the status endpoint: %v", resp)
	}
}

func TestResult_FinishedJob(t *testing.T) {
	engine := &fakeEngine{jobs: map[string]*model.FactCheckJob{
		"j1": {
			JobID:            "j1",
			Status:           model.StatusFinished,
			CredibilityScore: 85,
			Assessment:       &model.ArticleAccuracyAssessment{Verdict: "MOSTLY TRUE"},
			CreatedAt:        time.Now().UTC(),
		},
	}}

	w := do(t, engine, http.MethodGet, "/api/v1/factcheck/j1/result", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["credibility_score"] != float64(85) {
		t.Errorf("credibility_score: %v", resp["credibility_score"])
	}
}

func TestList(t *testing.T) {
	engine := &fakeEngine{jobs: map[string]*model.FactCheckJob{
		"j1": {JobID: "j1", Status: model.StatusFinished, CreatedAt: time.Now().UTC()},
		"j2": {JobID: "j2", Status: model.StatusValidating, CreatedAt: time.Now().UTC()},
	}}

	w := do(t, engine, http.MethodGet, "/api/v1/factcheck", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["count"] != float64(2) {
		t.Errorf("count: %v", resp["count"])
	}
}

func TestHealthz(t *testing.T) {
	if w := do(t, &fakeEngine{}, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("healthy: got %d", w.Code)
	}

	sick := &fakeEngine{healthErr: errors.New("evidence provider search: 401")}
	w := do(t, sick, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "401") {
		t.Errorf("error should surface: %s", w.Body.String())
	}
}
