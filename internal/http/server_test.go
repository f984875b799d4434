package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"bills/internal/cache"
	"bills/internal/core"
	"bills/internal/log"
	"bills/internal/memory"
	"bills/internal/services"

	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T, budget string, rpm int) *Server {
	t.Helper()
	store := memory.New(decimal.RequireFromString(budget))
	summaries := cache.NewLRUCache[core.BudgetSummary](16, time.Minute)
	svc := services.NewBillService(store, nil, summaries)

	srv, err := NewServer(Options{
		Addr:               ":0",
		RateLimitPerMinute: rpm,
		Logger:             log.New(log.Config{Output: io.Discard, Component: log.ComponentHTTP}),
	}, svc)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return req
}

func sendJSON(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func createBill(t *testing.T, srv *Server, desc, category, amount, date string) int64 {
	t.Helper()
	rec := serve(srv, postForm("/bills", url.Values{
		"description": {desc}, "category": {category}, "amount": {amount}, "date": {date},
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create %s: status=%d body=%s", desc, rec.Code, rec.Body.String())
	}
	var trigger map[string]map[string]int64
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &trigger); err != nil {
		t.Fatalf("decode HX-Trigger: %v", err)
	}
	return trigger["bill:created"]["id"]
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestIndexAndProbes(t *testing.T) {
	srv := newTestServer(t, "100", 0)
	createBill(t, srv, "Rent", "Housing", "80", "2025-03-01")
	createBill(t, srv, "Gym", "Health", "thirty", "2025-03-05")

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("index status=%d body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Add a bill", `id="bill-1" class="affordable"`, "$80.00", "unparseable", `data-theme="light"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers not applied")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request id header not set")
	}

	for path, want := range map[string]string{"/healthz": "ok", "/readyz": "ready"} {
		rec := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("%s status=%d body=%q", path, rec.Code, rec.Body.String())
		}
	}

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "bills_affordable_runs_total") ||
		!strings.Contains(rec.Body.String(), "bills_http_requests_total") {
		t.Fatalf("metrics missing collectors:\n%s", rec.Body.String())
	}

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Cache-Control") == "" {
		t.Fatalf("static asset status=%d headers=%v", rec.Code, rec.Header())
	}
}

func TestCreateBill(t *testing.T) {
	srv := newTestServer(t, "100", 0)

	rec := serve(srv, postForm("/bills", url.Values{
		"description": {"Power"}, "category": {"Utilities"}, "amount": {"45.10"}, "date": {"2025-03-02"},
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "bill:created") {
		t.Errorf("HX-Trigger = %q", rec.Header().Get("HX-Trigger"))
	}
	if !strings.Contains(rec.Body.String(), `class="success"`) {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = serve(srv, sendJSON(http.MethodPost, "/bills",
		`{"description":"Water","category":"Utilities","amount":12.50,"date":"2025-03-03"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("json create status=%d body=%s", rec.Code, rec.Body.String())
	}
	row := decodeJSON[billRow](t, rec)
	if row.ID != 2 || row.Amount != "12.50" {
		t.Errorf("created = %+v", row)
	}
}

func TestCreateBill_Errors(t *testing.T) {
	srv := newTestServer(t, "100", 0)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantBody   string
	}{
		{
			name:       "empty description htmx",
			req:        postForm("/bills", url.Values{"category": {"Utilities"}, "amount": {"1"}, "date": {"2025-03-01"}}),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="error">`,
		},
		{
			name:       "bad date json",
			req:        sendJSON(http.MethodPost, "/bills", `{"description":"x","category":"y","amount":"1","date":"03/01/2025"}`),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `"error"`,
		},
		{
			name:       "malformed json",
			req:        sendJSON(http.MethodPost, "/bills", `{"description":`),
			wantStatus: http.StatusBadRequest,
			wantBody:   "Malformed request",
		},
		{
			name:       "wrong method",
			req:        httptest.NewRequest(http.MethodGet, "/bills", nil),
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv, tt.req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q missing %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestUpdateAndDeleteBill(t *testing.T) {
	srv := newTestServer(t, "100", 0)
	id := createBill(t, srv, "Rent", "Housing", "1200", "2025-03-01")

	rec := serve(srv, sendJSON(http.MethodPut, "/bills/1",
		`{"description":"Rent","category":"Housing","amount":"1250","date":"2025-04-01"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/ui/bills/1/edit", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `value="1250"`) {
		t.Fatalf("edit form status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(srv, postForm("/bills/99", url.Values{
		"description": {"x"}, "category": {"y"}, "amount": {"1"}, "date": {"2025-01-01"},
	}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("update unknown status=%d", rec.Code)
	}

	rec = serve(srv, postForm("/bills/1/delete", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("HX-Trigger"), "bill:deleted") {
		t.Fatalf("delete status=%d trigger=%q", rec.Code, rec.Header().Get("HX-Trigger"))
	}
	if id != 1 {
		t.Fatalf("unexpected id %d", id)
	}

	rec = serve(srv, httptest.NewRequest(http.MethodDelete, "/bills/1", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rec.Code)
	}
	rec = serve(srv, httptest.NewRequest(http.MethodDelete, "/bills/abc/delete", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status=%d", rec.Code)
	}
}

func TestBudgetAndAffordable(t *testing.T) {
	srv := newTestServer(t, "0", 0)
	createBill(t, srv, "A", "Misc", "50", "2025-03-01")
	createBill(t, srv, "B", "Misc", "20", "2025-03-02")
	createBill(t, srv, "C", "Misc", "40", "2025-03-03")

	rec := serve(srv, postForm("/budget", url.Values{"budget": {"-5"}}))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative budget status=%d", rec.Code)
	}
	rec = serve(srv, postForm("/budget", url.Values{"budget": {"65"}}))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("HX-Trigger"), "budget:changed") {
		t.Fatalf("set budget status=%d trigger=%q", rec.Code, rec.Header().Get("HX-Trigger"))
	}

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/api/affordable", nil))
	got := decodeJSON[affordableJSON](t, rec)
	if got.Budget != "65" || got.Total != "60" || len(got.IDs) != 2 || got.IDs[0] != 2 || got.IDs[1] != 3 {
		t.Fatalf("affordable = %+v", got)
	}

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/api/affordable?budget=110", nil))
	if got := decodeJSON[affordableJSON](t, rec); len(got.IDs) != 3 || got.Total != "110" {
		t.Fatalf("override budget = %+v", got)
	}

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/api/affordable?budget=abc", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid override status=%d", rec.Code)
	}
}

func TestSummaryAndFilter(t *testing.T) {
	srv := newTestServer(t, "100", 0)
	createBill(t, srv, "Rent", "Housing", "80", "2025-03-01")
	createBill(t, srv, "Power", "Utilities", "45", "2025-04-01")

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/summary?year=2025&month=3", nil))
	sum := decodeJSON[summaryJSON](t, rec)
	if sum.Total != "80" || sum.Bills != 1 || sum.OverBudget {
		t.Fatalf("march summary = %+v", sum)
	}

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	if sum := decodeJSON[summaryJSON](t, rec); sum.Total != "125" || !sum.OverBudget || len(sum.ByCategory) != 2 {
		t.Fatalf("overall summary = %+v", sum)
	}

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/ui/summary?year=2025&month=4", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "April 2025") {
		t.Fatalf("summary partial status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/ui/summary?year=2025&month=13", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("month 13 status=%d", rec.Code)
	}
	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/ui/summary?month=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("month abc status=%d", rec.Code)
	}

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/ui/bills?category=Housing", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "Rent") || strings.Contains(body, "Power</td>") {
		t.Fatalf("filtered table wrong:\n%s", body)
	}
	if !strings.Contains(body, `hx-swap-oob="true"`) {
		t.Error("category filter should be swapped out of band")
	}

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/api/bills?category=all", nil))
	if got := decodeJSON[billsJSON](t, rec); len(got.Bills) != 2 || len(got.Categories) != 2 {
		t.Fatalf("api bills = %+v", got)
	}
}

func TestThemeToggle(t *testing.T) {
	srv := newTestServer(t, "0", 0)

	rec := serve(srv, postForm("/theme", url.Values{"theme": {"toggle"}}))
	if rec.Code != http.StatusNoContent || !strings.Contains(rec.Header().Get("HX-Trigger"), `"theme":"dark"`) {
		t.Fatalf("toggle status=%d trigger=%q", rec.Code, rec.Header().Get("HX-Trigger"))
	}
	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), `data-theme="dark"`) {
		t.Fatal("theme not persisted")
	}

	rec = serve(srv, sendJSON(http.MethodPost, "/theme", `{"theme":"neon"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid theme status=%d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, "0", 6)

	form := url.Values{"description": {"x"}, "category": {"y"}, "amount": {"1"}, "date": {"2025-01-01"}}
	if rec := serve(srv, postForm("/bills", form)); rec.Code != http.StatusCreated {
		t.Fatalf("first request status=%d", rec.Code)
	}
	rec := serve(srv, postForm("/bills", form))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status=%d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}

	// reads are not limited
	if rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/bills", nil)); rec.Code != http.StatusOK {
		t.Fatalf("GET status=%d", rec.Code)
	}
}
