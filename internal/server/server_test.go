package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/beadscope/beadscope/internal/engine"
	"github.com/beadscope/beadscope/internal/model"
	"github.com/beadscope/beadscope/internal/tracker"
)

// fakeTracker serves a fixed bulk payload and records mutations.
type fakeTracker struct {
	payload   string
	setStatus func(id string, status model.Status) error
	create    func(req tracker.CreateRequest) (*model.GraphNode, error)
	addDep    func(fromID, toID string, typ model.RelationType) error
	removeDep func(fromID, toID string, typ model.RelationType) error
}

func (f *fakeTracker) TreeListRaw(ctx context.Context, rootID string) ([]byte, error) {
	return []byte(f.payload), nil
}

func (f *fakeTracker) Show(ctx context.Context, id string) (*model.GraphNode, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeTracker) Create(ctx context.Context, req tracker.CreateRequest) (*model.GraphNode, error) {
	if f.create == nil {
		return nil, errors.New("not scripted")
	}
	return f.create(req)
}

func (f *fakeTracker) SetStatus(ctx context.Context, id string, status model.Status) error {
	if f.setStatus == nil {
		return errors.New("not scripted")
	}
	return f.setStatus(id, status)
}

func (f *fakeTracker) AddDependency(ctx context.Context, fromID, toID string, typ model.RelationType) error {
	if f.addDep == nil {
		return errors.New("not scripted")
	}
	return f.addDep(fromID, toID, typ)
}

func (f *fakeTracker) RemoveDependency(ctx context.Context, fromID, toID string, typ model.RelationType) error {
	if f.removeDep == nil {
		return errors.New("not scripted")
	}
	return f.removeDep(fromID, toID, typ)
}

const testPayload = `[
  {"id":"bd-1","title":"root","status":"in_progress"},
  {"id":"bd-2","title":"done","status":"closed","parent_id":"bd-1"},
  {"id":"bd-3","title":"todo","status":"open","parent_id":"bd-1"}
]`

func newTestServer(t *testing.T, ft *fakeTracker) (*httptest.Server, *engine.Engine) {
	t.Helper()
	e := engine.New(ft, engine.Options{PollInterval: time.Hour})
	t.Cleanup(e.Close)
	srv := httptest.NewServer(New(e, nil).NewHTTPHandler())
	t.Cleanup(srv.Close)
	return srv, e
}

func trackAndWait(t *testing.T, e *engine.Engine, rootID string) {
	t.Helper()
	if err := e.Track(rootID); err != nil {
		t.Fatalf("Track: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := e.Snapshot(rootID); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("snapshot never populated")
}

func TestGetSnapshot(t *testing.T) {
	srv, e := newTestServer(t, &fakeTracker{payload: testPayload})

	// Never polled: 404.
	resp, err := http.Get(srv.URL + "/v1/roots/bd-1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status before poll = %d, want 404", resp.StatusCode)
	}

	trackAndWait(t, e, "bd-1")

	resp, err = http.Get(srv.URL + "/v1/roots/bd-1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var snap model.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.RootID != "bd-1" || snap.Progress.Total != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSetStatusEndpoint(t *testing.T) {
	var gotID string
	ft := &fakeTracker{
		payload: testPayload,
		setStatus: func(id string, status model.Status) error {
			gotID = id
			return nil
		},
	}
	srv, e := newTestServer(t, ft)
	trackAndWait(t, e, "bd-1")

	body := `{"root_id":"bd-1","status":"in_progress"}`
	resp, err := http.Post(srv.URL+"/v1/nodes/bd-3/status", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if gotID != "bd-3" {
		t.Errorf("tracker saw id %q, want bd-3", gotID)
	}
}

func TestSetStatusEndpoint_InvalidStatus(t *testing.T) {
	srv, e := newTestServer(t, &fakeTracker{payload: testPayload})
	trackAndWait(t, e, "bd-1")

	body := `{"root_id":"bd-1","status":"bogus"}`
	resp, err := http.Post(srv.URL+"/v1/nodes/bd-3/status", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateChildEndpoint_PartialFailure(t *testing.T) {
	ft := &fakeTracker{
		payload: testPayload,
		create: func(req tracker.CreateRequest) (*model.GraphNode, error) {
			return &model.GraphNode{ID: "bd-9", Title: req.Title}, nil
		},
		addDep: func(string, string, model.RelationType) error {
			return errors.New("link refused")
		},
	}
	srv, e := newTestServer(t, ft)
	trackAndWait(t, e, "bd-1")

	body := `{"root_id":"bd-1","title":"new child"}`
	resp, err := http.Post(srv.URL+"/v1/nodes/bd-3/children", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var out struct {
		Node    *model.GraphNode `json:"node"`
		Partial string           `json:"partial"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if out.Node == nil || out.Node.ID != "bd-9" {
		t.Errorf("node = %+v, want created bd-9", out.Node)
	}
	if out.Partial == "" {
		t.Error("partial failure not surfaced")
	}
}

func TestReparentEndpoint(t *testing.T) {
	var added [2]string
	ft := &fakeTracker{
		payload:   testPayload,
		removeDep: func(string, string, model.RelationType) error { return tracker.ErrNotFound },
		addDep: func(fromID, toID string, typ model.RelationType) error {
			added = [2]string{fromID, toID}
			return nil
		},
	}
	srv, e := newTestServer(t, ft)
	trackAndWait(t, e, "bd-1")

	body := `{"root_id":"bd-1","new_parent_id":"bd-2"}`
	resp, err := http.Post(srv.URL+"/v1/nodes/bd-3/reparent", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if added != [2]string{"bd-3", "bd-2"} {
		t.Errorf("added edge = %v, want [bd-3 bd-2]", added)
	}
}

func TestEventStream_InitialSnapshotPush(t *testing.T) {
	srv, e := newTestServer(t, &fakeTracker{payload: testPayload})
	trackAndWait(t, e, "bd-1")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/roots/bd-1/events", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	var eventLine, dataLine string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") {
			eventLine = line
		}
		if strings.HasPrefix(line, "data:") {
			dataLine = line
			break
		}
	}

	if eventLine != "event:snapshot" {
		t.Errorf("event line = %q, want event:snapshot", eventLine)
	}
	var ev struct {
		Kind     string          `json:"kind"`
		Snapshot *model.Snapshot `json:"snapshot"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(dataLine, "data:")), &ev); err != nil {
		t.Fatalf("decoding event payload: %v", err)
	}
	if ev.Kind != "snapshot" || ev.Snapshot == nil || ev.Snapshot.RootID != "bd-1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestListRoots(t *testing.T) {
	srv, e := newTestServer(t, &fakeTracker{payload: testPayload})

	resp, err := http.Get(srv.URL + "/v1/roots")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var out struct {
		Roots []string `json:"roots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	resp.Body.Close()
	if len(out.Roots) != 0 {
		t.Errorf("roots before tracking = %v, want empty", out.Roots)
	}

	trackAndWait(t, e, "bd-1")

	resp, err = http.Get(srv.URL + "/v1/roots")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	resp.Body.Close()
	if len(out.Roots) != 1 || out.Roots[0] != "bd-1" {
		t.Errorf("roots = %v, want [bd-1]", out.Roots)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTracker{payload: testPayload})
	resp, err := http.Get(srv.URL + "/v1/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
