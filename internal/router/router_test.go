package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shelter-partner/internal/adapters/storage/memory"
	"shelter-partner/internal/domain/animals"
	"shelter-partner/internal/ports/docstore"
	"shelter-partner/internal/router"
)

type testClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

func newServer(t *testing.T) (*httptest.Server, *testClock) {
	t.Helper()
	clock := &testClock{cur: time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)}
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier:   nil, // modo dev, umbral por defecto (5 min)
		TrackerOptions: []animals.Option{animals.WithClock(clock.now)},
	}))
	t.Cleanup(ts.Close)
	return ts, clock
}

func TestHTTP_EndToEnd_CheckOutCheckIn(t *testing.T) {
	ts, clock := newServer(t)
	userID := "volunteer-1"

	// 1) Sin society asignada => 404
	{
		st, body := doReq(t, ts.URL, "GET", "/animals?type=dog", userID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 without society, got %d body=%s", st, string(body))
		}
		if !bytes.Contains(body, []byte("SocietyID not found.")) {
			t.Fatalf("unexpected body %s", string(body))
		}
	}

	// 2) Asignar society
	{
		st, body := doReq(t, ts.URL, "PUT", "/me/society", userID, map[string]any{"society_id": "soc-1"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 assign society, got %d body=%s", st, string(body))
		}
	}

	// 3) Registrar animal
	animalID := registerAnimal(t, ts.URL, userID, "Milo", "dog")

	// 4) Check-out
	{
		st, body := doReq(t, ts.URL, "POST", "/animals/dog/"+animalID+"/checkout", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 checkout, got %d body=%s", st, string(body))
		}
		var a map[string]any
		mustJSON(t, body, &a)
		if a["in_cage"] != false || a["start_time"] == nil {
			t.Fatalf("unexpected animal after checkout %#v", a)
		}
	}

	// 5) Check-in corto => sin visita
	clock.advance(3 * time.Minute)
	{
		st, body := doReq(t, ts.URL, "POST", "/animals/dog/"+animalID+"/checkin", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 checkin, got %d body=%s", st, string(body))
		}
		var res map[string]any
		mustJSON(t, body, &res)
		if res["outcome"] != "visit_too_short" {
			t.Fatalf("expected visit_too_short, got %#v", res)
		}
	}

	// 6) Nuevo paseo de 6 minutos => visita registrada
	doReq(t, ts.URL, "POST", "/animals/dog/"+animalID+"/checkout", userID, nil)
	clock.advance(6 * time.Minute)
	{
		st, body := doReq(t, ts.URL, "POST", "/animals/dog/"+animalID+"/checkin", userID, map[string]any{})
		if st != http.StatusOK {
			t.Fatalf("expected 200 checkin, got %d body=%s", st, string(body))
		}
		var res struct {
			Outcome string `json:"outcome"`
			Visit   *struct {
				DurationMinutes int64 `json:"duration_minutes"`
			} `json:"visit"`
		}
		mustJSON(t, body, &res)
		if res.Outcome != "logged_visit" || res.Visit == nil || res.Visit.DurationMinutes != 6 {
			t.Fatalf("expected logged 6m visit, got %s", string(body))
		}
	}

	// 7) Reintento del check-in => already_in_cage, sin visita duplicada
	{
		st, body := doReq(t, ts.URL, "POST", "/animals/dog/"+animalID+"/checkin", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 repeated checkin, got %d body=%s", st, string(body))
		}
		var res map[string]any
		mustJSON(t, body, &res)
		if res["outcome"] != "already_in_cage" {
			t.Fatalf("expected already_in_cage, got %#v", res)
		}
	}

	// 8) Check-in silencioso tras un paseo largo => sin visita
	doReq(t, ts.URL, "POST", "/animals/dog/"+animalID+"/checkout", userID, nil)
	clock.advance(time.Hour)
	{
		st, body := doReq(t, ts.URL, "POST", "/animals/dog/"+animalID+"/checkin", userID, map[string]any{"silent": true})
		if st != http.StatusOK {
			t.Fatalf("expected 200 silent checkin, got %d body=%s", st, string(body))
		}
	}

	// 9) Logs: exactamente una visita
	{
		st, body := doReq(t, ts.URL, "GET", "/animals/dog/"+animalID+"/logs", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 logs, got %d body=%s", st, string(body))
		}
		var logs []map[string]any
		mustJSON(t, body, &logs)
		if len(logs) != 1 {
			t.Fatalf("expected 1 visit, got %d body=%s", len(logs), string(body))
		}
	}

	// 10) Listado por tipo
	{
		st, body := doReq(t, ts.URL, "GET", "/animals?type=dog", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list, got %d body=%s", st, string(body))
		}
		var items []map[string]any
		mustJSON(t, body, &items)
		if len(items) != 1 || items[0]["in_cage"] != true {
			t.Fatalf("unexpected list %s", string(body))
		}
	}
}

func TestHTTP_Errors(t *testing.T) {
	ts, _ := newServer(t)
	userID := "volunteer-2"

	if st, _ := doReq(t, ts.URL, "GET", "/me/society", "", nil); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", st)
	}

	doReq(t, ts.URL, "PUT", "/me/society", userID, map[string]any{"society_id": "soc-2"})

	if st, _ := doReq(t, ts.URL, "POST", "/animals/dog/nope/checkout", userID, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 unknown animal, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/animals/horse/a-1", userID, nil); st != http.StatusBadRequest {
		t.Fatalf("expected 400 bad animal type, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "POST", "/animals", userID, map[string]any{"name": "X", "animal_type": "horse"}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid register, got %d", st)
	}

	id := registerAnimal(t, ts.URL, userID, "Tom", "cat")
	if st, _ := doReq(t, ts.URL, "POST", "/animals", userID, map[string]any{"id": id, "name": "Tom", "animal_type": "cat"}); st != http.StatusConflict {
		t.Fatalf("expected 409 duplicate, got %d", st)
	}

	// Nunca salió de la jaula => no hay startTime para el log manual
	if st, _ := doReq(t, ts.URL, "POST", "/animals/cat/"+id+"/logs", userID, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 create log without startTime, got %d", st)
	}
}

// flakyStore falla las escrituras marcadas sobre un store in-memory.
type flakyStore struct {
	docstore.Store
	failFlag   atomic.Bool
	failAppend atomic.Bool
}

var errStoreDown = errors.New("store down")

func (s *flakyStore) UpdateFieldsIf(ctx context.Context, path string, expect, fields map[string]any) error {
	if s.failFlag.Load() {
		return errStoreDown
	}
	return s.Store.UpdateFieldsIf(ctx, path, expect, fields)
}

func (s *flakyStore) AppendToArrayField(ctx context.Context, path, field string, elem map[string]any) error {
	if s.failAppend.Load() {
		return errStoreDown
	}
	return s.Store.AppendToArrayField(ctx, path, field, elem)
}

func TestHTTP_CheckIn_LogFailureReportsAnimalInCage(t *testing.T) {
	clock := &testClock{cur: time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)}
	store := &flakyStore{Store: memory.NewDocStore()}
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Store:          store,
		TrackerOptions: []animals.Option{animals.WithClock(clock.now)},
	}))
	t.Cleanup(ts.Close)

	userID := "volunteer-3"
	doReq(t, ts.URL, "PUT", "/me/society", userID, map[string]any{"society_id": "soc-3"})
	id := registerAnimal(t, ts.URL, userID, "Rex", "dog")

	// 1) Falla la escritura del flag => 502, sigue fuera
	doReq(t, ts.URL, "POST", "/animals/dog/"+id+"/checkout", userID, nil)
	clock.advance(10 * time.Minute)
	store.failFlag.Store(true)
	if st, body := doReq(t, ts.URL, "POST", "/animals/dog/"+id+"/checkin", userID, nil); st != http.StatusBadGateway {
		t.Fatalf("expected 502 when the flag write fails, got %d body=%s", st, string(body))
	}
	store.failFlag.Store(false)

	// 2) Flag guardado, falla el log => 200 failed con el animal en jaula
	store.failAppend.Store(true)
	st, body := doReq(t, ts.URL, "POST", "/animals/dog/"+id+"/checkin", userID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 when only the visit log fails, got %d body=%s", st, string(body))
	}
	var res struct {
		Outcome string `json:"outcome"`
		Reason  string `json:"reason"`
		Visit   any    `json:"visit"`
		Animal  struct {
			InCage bool  `json:"in_cage"`
			Logs   []any `json:"logs"`
		} `json:"animal"`
	}
	mustJSON(t, body, &res)
	if res.Outcome != "failed" || res.Reason == "" || res.Visit != nil {
		t.Fatalf("expected failed outcome with reason, got %s", string(body))
	}
	if !res.Animal.InCage || len(res.Animal.Logs) != 0 {
		t.Fatalf("expected animal in cage without visits, got %s", string(body))
	}
}

func TestHTTP_Health(t *testing.T) {
	ts, _ := newServer(t)

	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health %d %q", st, string(body))
	}
}

// -------------------------
// Helpers
// -------------------------

func registerAnimal(t *testing.T, baseURL, userID, name, typ string) string {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/animals", userID, map[string]any{
		"name":        name,
		"animal_type": typ,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register animal, got %d body=%s", st, string(body))
	}
	var a map[string]any
	mustJSON(t, body, &a)
	id, _ := a["id"].(string)
	if id == "" {
		t.Fatalf("expected animal id, body=%s", string(body))
	}
	return id
}

func doReq(t *testing.T, baseURL, method, path, userID string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func mustJSON(t *testing.T, b []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("invalid json: %v body=%s", err, string(b))
	}
}
