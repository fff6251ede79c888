package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/filestore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("filestore.New: %v", err)
	}
	srv := NewServer(":0", store, cache.NewLRU(16, time.Minute))
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, owner, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if owner != "" {
		req.Header.Set("X-Owner-ID", owner)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestMissingOwnerHeader(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTransactionCRUD(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", "alice",
		`{"kind":"expense","amount":"42.50","category":"Groceries","date":"2025-03-12","description":"weekly shop","recurrence":"none"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created transactionResponse
	decodeInto(t, rec, &created)
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.AmountCents != 4250 || created.Amount != "42.50" {
		t.Errorf("amount = %d/%s, want 4250/42.50", created.AmountCents, created.Amount)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []transactionResponse
	decodeInto(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("list has %d items, want 1", len(list))
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions/"+created.ID, "alice", "")
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions/"+created.ID, "bob", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign owner get status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, "alice", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
}

func TestTransactionValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "zero amount",
			body: `{"kind":"expense","amount":"0","category":"X","date":"2025-01-01","description":"d"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad kind",
			body: `{"kind":"transfer","amount":"10.00","category":"X","date":"2025-01-01","description":"d"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad recurrence",
			body: `{"kind":"expense","amount":"10.00","category":"X","date":"2025-01-01","description":"d","recurrence":"daily"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad date",
			body: `{"kind":"expense","amount":"10.00","category":"X","date":"01/01/2025","description":"d"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown field",
			body: `{"kind":"expense","amount":"10.00","category":"X","date":"2025-01-01","description":"d","extra":true}`,
			want: http.StatusBadRequest,
		},
		{
			name: "not json",
			body: `kind=expense`,
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPost, "/api/transactions", "alice", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCardValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/cards", "alice",
		`{"name":"Visa","limit":"5000.00","dueDay":5,"closingDay":32}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestPurchaseRequiresOwnedCard(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/cards", "alice",
		`{"name":"Visa","limit":"5000.00","dueDay":5,"closingDay":25}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card status = %d", rec.Code)
	}
	var card cardResponse
	decodeInto(t, rec, &card)

	// Another owner cannot attach purchases to alice's card.
	rec = doRequest(t, srv, http.MethodPost, "/api/purchases", "bob",
		fmt.Sprintf(`{"cardId":"%s","date":"2025-01-20","description":"tv","category":"Electronics","total":"300.00","installments":3}`, card.ID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign card purchase status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/purchases", "alice",
		fmt.Sprintf(`{"cardId":"%s","date":"2025-01-20","description":"tv","category":"Electronics","total":"300.00","installments":3}`, card.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("purchase status = %d, body %s", rec.Code, rec.Body.String())
	}
	var p purchaseResponse
	decodeInto(t, rec, &p)
	if p.InstallmentCents != 10000 {
		t.Errorf("installment share = %d, want 10000", p.InstallmentCents)
	}
}

func TestLoanEndDateReturned(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/loans", "alice",
		`{"bank":"ACME","description":"car","installment":"500.00","installments":24,"startDate":"2024-06-15"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var loan loanResponse
	decodeInto(t, rec, &loan)
	if loan.EndDate != "2026-05-15" {
		t.Errorf("endDate = %s, want 2026-05-15", loan.EndDate)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", "alice",
		`{"kind":"income","amount":"5000.00","category":"Salary","date":"2025-01-05","description":"salary","recurrence":"monthly"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create income status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/cards", "alice",
		`{"name":"Visa Gold","limit":"10000.00","dueDay":5,"closingDay":25}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card status = %d", rec.Code)
	}
	var card cardResponse
	decodeInto(t, rec, &card)

	rec = doRequest(t, srv, http.MethodPost, "/api/purchases", "alice",
		fmt.Sprintf(`{"cardId":"%s","date":"2025-01-20","description":"headphones","category":"Electronics","total":"300.00","installments":3}`, card.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create purchase status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/summary?year=2025&month=3", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d, body %s", rec.Code, rec.Body.String())
	}

	var summary struct {
		Year              int `json:"year"`
		Month             int `json:"month"`
		IncomeCents       int64
		CardExpenseCents  int64 `json:"cardExpenseCents"`
		TotalExpenseCents int64 `json:"totalExpenseCents"`
		Scheduled         []struct {
			SourceKind string `json:"sourceKind"`
			Date       string `json:"date"`
		} `json:"scheduled"`
	}
	decodeInto(t, rec, &summary)

	if summary.Year != 2025 || summary.Month != 3 {
		t.Errorf("year/month = %d/%d", summary.Year, summary.Month)
	}
	if summary.CardExpenseCents != 10000 {
		t.Errorf("cardExpenseCents = %d, want 10000", summary.CardExpenseCents)
	}
	if summary.TotalExpenseCents != 10000 {
		t.Errorf("totalExpenseCents = %d, want 10000", summary.TotalExpenseCents)
	}
	if len(summary.Scheduled) != 2 {
		t.Fatalf("scheduled has %d items, want 2", len(summary.Scheduled))
	}
	// Both the salary occurrence and the invoice land on March 5; the
	// invoice sorts first.
	if summary.Scheduled[0].SourceKind != "invoice" || summary.Scheduled[1].SourceKind != "transaction" {
		t.Errorf("scheduled order = %s, %s", summary.Scheduled[0].SourceKind, summary.Scheduled[1].SourceKind)
	}
}

func TestSummaryCacheInvalidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/summary?year=2025&month=3", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}

	// A write must invalidate the cached (empty) summary.
	rec = doRequest(t, srv, http.MethodPost, "/api/transactions", "alice",
		`{"kind":"expense","amount":"100.00","category":"Rent","date":"2025-03-01","description":"rent","recurrence":"none"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/summary?year=2025&month=3", "alice", "")
	var summary struct {
		DirectExpenseCents int64 `json:"directExpenseCents"`
	}
	decodeInto(t, rec, &summary)
	if summary.DirectExpenseCents != 10000 {
		t.Errorf("directExpenseCents = %d, want 10000 after invalidation", summary.DirectExpenseCents)
	}
}

func TestSummaryBadMonth(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/summary?year=2025&month=13", "alice", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/summary?year=2025&month=abc", "alice", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBalanceEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", "alice",
		`{"kind":"income","amount":"100.00","category":"Gift","date":"2000-01-01","description":"old gift","recurrence":"none"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/balance", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("balance status = %d", rec.Code)
	}
	var resp balanceResponse
	decodeInto(t, rec, &resp)
	if resp.BalanceCents != 10000 {
		t.Errorf("balanceCents = %d, want 10000", resp.BalanceCents)
	}
	if resp.AsOf == "" {
		t.Error("asOf should be set")
	}
}

func TestPaceEndpointQuiet(t *testing.T) {
	srv := newTestServer(t)

	// No spending history: the comparator stays silent and the endpoint
	// answers with no content.
	rec := doRequest(t, srv, http.MethodGet, "/api/pace", "alice", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("pace status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions", "alice", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < requestsPerMinute; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request over the budget should be rejected")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other clients should be unaffected")
	}
}
