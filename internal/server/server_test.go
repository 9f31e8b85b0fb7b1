package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	mid "github.com/OFFIS-RIT/studymap/internal/server/middleware"
	"github.com/OFFIS-RIT/studymap/internal/storage"
	"github.com/OFFIS-RIT/studymap/pkg/common"
	"github.com/OFFIS-RIT/studymap/pkg/graph"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rabbitmq/amqp091-go"
)

const buildBody = `{
	"concepts": {
		"core_ideas": [{"text": "Photosynthesis", "priority": "High"}],
		"supporting_ideas": ["Chlorophyll", "Sunlight"],
		"examples": [{"text": "Oak leaves"}]
	},
	"relationships": [
		["Photosynthesis", "uses", "Chlorophyll"],
		{"source": "Chlorophyll", "relation": "found in", "target": "Oak leaves"}
	],
	"complexity": "Medium"
}`

type fakeChannel struct {
	mu        sync.Mutex
	published [][]byte
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp091.Table) (amqp091.Queue, error) {
	return amqp091.Queue{Name: name}, nil
}

func (f *fakeChannel) ExchangeDeclare(string, string, bool, bool, bool, bool, amqp091.Table) error {
	return nil
}

func (f *fakeChannel) Publish(_, _ string, _, _ bool, msg amqp091.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, msg.Body)
	return nil
}

type fakeResults struct {
	mu      sync.Mutex
	results map[string]common.MindMapJobResult
}

func (f *fakeResults) PutResult(_ context.Context, r *common.MindMapJobResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[r.JobID] = *r
	return nil
}

func (f *fakeResults) GetResult(_ context.Context, id string) (*common.MindMapJobResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.results[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &r, nil
}

func (f *fakeResults) DeleteResult(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.results, id)
	return nil
}

func (f *fakeResults) ListJobs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.results))
	for id := range f.results {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeResults) DownloadLink(_ context.Context, id string) (string, error) {
	return "https://files.example.com/mindmaps/" + id + ".json", nil
}

func newTestApp() *mid.App {
	return &mid.App{Builder: graph.NewGraphBuilder(graph.NewGraphBuilderParams{})}
}

func withJobs(app *mid.App) (*fakeChannel, *fakeResults) {
	ch := &fakeChannel{}
	results := &fakeResults{results: map[string]common.MindMapJobResult{}}
	app.Queue = ch
	app.Results = results
	return ch, results
}

func do(t *testing.T, app *mid.App, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	New(app).ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestApp(), http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestBuildMindMap(t *testing.T) {
	rec := do(t, newTestApp(), http.MethodPost, "/api/mindmaps", buildBody, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decode[common.MindMapResponse](t, rec)
	if resp.MindMap.Root != "Photosynthesis" {
		t.Fatalf("unexpected root %q", resp.MindMap.Root)
	}
	if len(resp.MindMap.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %+v", resp.MindMap.Nodes)
	}
	if resp.Report.Complexity != "Medium" || resp.Report.Candidates != 4 {
		t.Fatalf("unexpected report %+v", resp.Report)
	}

	parents := map[string]string{}
	for _, e := range resp.MindMap.Edges {
		parents[e.To] = e.From
	}
	if parents["Oak leaves"] != "Chlorophyll" || parents["Chlorophyll"] != "Photosynthesis" {
		t.Fatalf("unexpected edges %+v", resp.MindMap.Edges)
	}
	if parents["Sunlight"] != "Photosynthesis" {
		t.Fatalf("orphan should hang under the root, got %+v", resp.MindMap.Edges)
	}
}

func TestBuildMindMapAcceptsFencedBody(t *testing.T) {
	body := "```json\n" + buildBody + "\n```"

	rec := do(t, newTestApp(), http.MethodPost, "/api/mindmaps", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBuildMindMapRejects(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
	}{
		{name: "empty body", target: "/api/mindmaps", body: ""},
		{name: "no concepts", target: "/api/mindmaps", body: `{"concepts": {"core_ideas": ["  "]}}`},
		{name: "unknown complexity", target: "/api/mindmaps", body: strings.Replace(buildBody, "Medium", "Extreme", 1)},
		{name: "unknown complexity query", target: "/api/mindmaps?complexity=huge", body: buildBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestApp(), http.MethodPost, tt.target, tt.body, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestBuildMindMapComplexityQueryOverridesBody(t *testing.T) {
	rec := do(t, newTestApp(), http.MethodPost, "/api/mindmaps?complexity=low", buildBody, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decode[common.MindMapResponse](t, rec); resp.Report.Complexity != "Low" {
		t.Fatalf("expected Low, got %q", resp.Report.Complexity)
	}
}

func TestSchema(t *testing.T) {
	rec := do(t, newTestApp(), http.MethodGet, "/api/mindmaps/schema", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	schema := decode[map[string]any](t, rec)
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema without properties: %v", schema)
	}
	for _, key := range []string{"concepts", "relationships", "complexity"} {
		if _, ok := props[key]; !ok {
			t.Fatalf("schema misses %q: %v", key, props)
		}
	}
}

func TestMasterAPIKey(t *testing.T) {
	app := newTestApp()
	app.MasterAPIKey = "master-secret"

	if rec := do(t, app, http.MethodPost, "/api/mindmaps", buildBody, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := do(t, app, http.MethodPost, "/api/mindmaps", buildBody, "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}
	if rec := do(t, app, http.MethodPost, "/api/mindmaps", buildBody, "master-secret"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with master key, got %d", rec.Code)
	}
	if rec := do(t, app, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health must stay public, got %d", rec.Code)
	}
}

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestJWTPermissions(t *testing.T) {
	secret := []byte("test-secret")
	app := newTestApp()
	withJobs(app)
	app.KeyFunc = func(*jwt.Token) (any, error) { return secret, nil }

	builder := signToken(t, secret, jwt.MapClaims{"sub": "u1", "permissions": []string{mid.PermBuild}})
	admin := signToken(t, secret, jwt.MapClaims{"id": float64(7), "role": "admin"})
	noID := signToken(t, secret, jwt.MapClaims{"role": "admin"})
	forged := signToken(t, []byte("other"), jwt.MapClaims{"sub": "u1", "role": "admin"})

	tests := []struct {
		name   string
		method string
		target string
		token  string
		want   int
	}{
		{name: "build allowed", method: http.MethodPost, target: "/api/mindmaps", token: builder, want: http.StatusOK},
		{name: "job create forbidden", method: http.MethodPost, target: "/api/mindmaps/jobs", token: builder, want: http.StatusForbidden},
		{name: "admin creates job", method: http.MethodPost, target: "/api/mindmaps/jobs", token: admin, want: http.StatusAccepted},
		{name: "missing id claim", method: http.MethodPost, target: "/api/mindmaps", token: noID, want: http.StatusUnauthorized},
		{name: "forged signature", method: http.MethodPost, target: "/api/mindmaps", token: forged, want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, app, tt.method, tt.target, buildBody, tt.token)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestJobsNotConfigured(t *testing.T) {
	app := newTestApp()

	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/api/mindmaps/jobs"},
		{http.MethodGet, "/api/mindmaps/jobs"},
		{http.MethodGet, "/api/mindmaps/jobs/abc"},
		{http.MethodDelete, "/api/mindmaps/jobs/abc"},
	} {
		rec := do(t, app, tc.method, tc.target, buildBody, "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s %s: expected 503, got %d", tc.method, tc.target, rec.Code)
		}
	}
}

func TestJobLifecycle(t *testing.T) {
	app := newTestApp()
	ch, results := withJobs(app)

	rec := do(t, app, http.MethodPost, "/api/mindmaps/jobs", buildBody, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[common.MindMapJobResult](t, rec)
	if created.JobID == "" || created.Status != common.JobPending {
		t.Fatalf("unexpected job %+v", created)
	}
	if len(ch.published) != 1 {
		t.Fatalf("expected one queued job, got %d", len(ch.published))
	}

	jobURL := "/api/mindmaps/jobs/" + created.JobID

	rec = do(t, app, http.MethodGet, jobURL, "", "")
	if got := decode[common.MindMapJobResult](t, rec); rec.Code != http.StatusOK || got.Status != common.JobPending {
		t.Fatalf("expected pending job, got %d %+v", rec.Code, got)
	}
	if rec = do(t, app, http.MethodGet, jobURL+"?download=true", "", ""); rec.Code != http.StatusConflict {
		t.Fatalf("download of pending job: expected 409, got %d", rec.Code)
	}

	results.results[created.JobID] = common.MindMapJobResult{
		JobID:   created.JobID,
		Status:  common.JobCompleted,
		MindMap: &common.MindMap{Root: "Photosynthesis"},
	}
	rec = do(t, app, http.MethodGet, jobURL+"?download=true", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if link := decode[map[string]string](t, rec)["url"]; !strings.HasSuffix(link, created.JobID+".json") {
		t.Fatalf("unexpected link %q", link)
	}

	rec = do(t, app, http.MethodGet, "/api/mindmaps/jobs", "", "")
	if jobs := decode[map[string][]string](t, rec)["jobs"]; len(jobs) != 1 || jobs[0] != created.JobID {
		t.Fatalf("unexpected job list %v", jobs)
	}

	if rec = do(t, app, http.MethodDelete, jobURL, "", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec = do(t, app, http.MethodGet, jobURL, "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if rec = do(t, app, http.MethodDelete, jobURL, "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", rec.Code)
	}
}
