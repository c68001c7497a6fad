package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/BennettSmith/insurance-intake-api/internal/adapters/gormstore"
	"github.com/BennettSmith/insurance-intake-api/internal/adapters/httpapi"
	memapplicationrepo "github.com/BennettSmith/insurance-intake-api/internal/adapters/memory/applicationrepo"
	memclock "github.com/BennettSmith/insurance-intake-api/internal/adapters/memory/clock"
	memidempotency "github.com/BennettSmith/insurance-intake-api/internal/adapters/memory/idempotency"
	pgapplicationrepo "github.com/BennettSmith/insurance-intake-api/internal/adapters/postgres/applicationrepo"
	pgidempotency "github.com/BennettSmith/insurance-intake-api/internal/adapters/postgres/idempotency"
	postgres_testutil "github.com/BennettSmith/insurance-intake-api/internal/adapters/postgres/testutil"
	"github.com/BennettSmith/insurance-intake-api/internal/adapters/quoter"
	"github.com/BennettSmith/insurance-intake-api/internal/app/applications"
	"github.com/BennettSmith/insurance-intake-api/internal/platform/logging"
	"github.com/BennettSmith/insurance-intake-api/internal/platform/metrics"
	applicationrepoport "github.com/BennettSmith/insurance-intake-api/internal/ports/out/applicationrepo"
	idempotencyport "github.com/BennettSmith/insurance-intake-api/internal/ports/out/idempotency"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
	backendGorm     backend = "gorm"
)

// testQuote is the fixed quote returned on submit in integration tests.
const testQuote = 421.5

func backendsFromEnv(t testing.TB) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "gorm":
		return []backend{backendGorm}
	case "all":
		return []backend{backendMemory, backendPostgres, backendGorm}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|gorm|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	var (
		repo      applicationrepoport.Repository
		idemStore idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		repo = pgapplicationrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool, 24*time.Hour)
	case backendGorm:
		db, err := gormstore.Open(postgres_testutil.DSN(t))
		if err != nil {
			t.Fatalf("open gorm: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			t.Fatalf("raw db: %v", err)
		}
		t.Cleanup(func() { _ = sqlDB.Close() })
		repo = gormstore.NewRepo(db)
		idemStore = pgidempotency.NewStore(postgres_testutil.OpenMigratedPool(t), 24*time.Hour)
	case backendMemory:
		repo = memapplicationrepo.NewRepo()
		idemStore = memidempotency.NewStore(24 * time.Hour)
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	m := metrics.New()
	svc := applications.NewService(repo, quoter.Fixed(testQuote), clk)
	svc.ResumeRouteTemplate = "/resume/{id}"
	svc.Recorder = m

	api := httpapi.NewServer(svc, idemStore, logging.Discard())
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{Metrics: m})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) do(method string, path string, body any, headers map[string]string) (int, []byte, http.Header, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		return 0, nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header, err
}

func (s *testServer) doJSON(t *testing.T, method string, path string, body any, headers map[string]string) (int, []byte, http.Header) {
	t.Helper()
	status, out, h, err := s.do(method, path, body, headers)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return status, out, h
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Fields  []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	} `json:"error"`
}

type application struct {
	ID          string   `json:"id"`
	MemberID    *string  `json:"memberId"`
	Status      string   `json:"status"`
	QuoteNumber *float64 `json:"quoteNumber"`
	Member      *struct {
		FirstName   string  `json:"firstName"`
		LastName    string  `json:"lastName"`
		DateOfBirth *string `json:"dateOfBirth"`
	} `json:"member"`
	Address *struct {
		Street  string `json:"street"`
		ZipCode *int   `json:"zipCode"`
	} `json:"address"`
	Vehicles []struct {
		VIN  string `json:"vin"`
		Year *int   `json:"year"`
	} `json:"vehicles"`
	AdditionalMembers []struct {
		FirstName    string  `json:"firstName"`
		Relationship *string `json:"relationship"`
	} `json:"additionalMembers"`
}

type createResponse struct {
	Message     string      `json:"message"`
	Application application `json:"application"`
	ResumeRoute string      `json:"resumeRoute"`
}

type submitResponse struct {
	Message          string      `json:"message"`
	Application      application `json:"application"`
	ValidationNumber float64     `json:"validationNumber"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) errorResponse {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
	return got
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}

// completeBody is a draft/submit body that passes the submit checks as of 2024-06-15.
func completeBody(vehicles int, additional ...map[string]any) map[string]any {
	vs := make([]any, 0, vehicles)
	for i := 0; i < vehicles; i++ {
		vs = append(vs, map[string]any{"vin": "1HGCM8263" + string(rune('A'+i)), "year": "2020", "make": "Honda", "model": "Civic"})
	}
	ams := make([]any, 0, len(additional))
	for _, a := range additional {
		ams = append(ams, a)
	}
	return map[string]any{
		"userData":              map[string]any{"firstName": "  Ada ", "lastName": "Lovelace  ", "dateOfBirth": "1990-05-17"},
		"addressData":           map[string]any{"street": "1 Main St", "city": "Springfield", "state": "IL", "zipCode": "62701"},
		"vehiclesData":          vs,
		"additionalMembersData": ams,
	}
}
