package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BennettSmith/insurance-intake-api/internal/adapters/httpapi"
	memapplicationrepo "github.com/BennettSmith/insurance-intake-api/internal/adapters/memory/applicationrepo"
	memclock "github.com/BennettSmith/insurance-intake-api/internal/adapters/memory/clock"
	memidempotency "github.com/BennettSmith/insurance-intake-api/internal/adapters/memory/idempotency"
	"github.com/BennettSmith/insurance-intake-api/internal/adapters/quoter"
	"github.com/BennettSmith/insurance-intake-api/internal/app/applications"
	"github.com/BennettSmith/insurance-intake-api/internal/platform/logging"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	clk := memclock.NewManualClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	svc := applications.NewService(memapplicationrepo.NewRepo(), quoter.Fixed(812.25), clk)
	api := httpapi.NewServer(svc, memidempotency.NewStore(0), logging.Discard())
	srv := httptest.NewServer(httpapi.NewRouter(api))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", srv.Client(), 0)
}

func completePayload(vehicles int) Payload {
	p := Payload{
		UserData:    map[string]any{"firstName": "Ada", "lastName": "Lovelace", "dateOfBirth": "2008-06-15"},
		AddressData: map[string]any{"street": "1 Main St", "city": "Springfield", "state": "IL", "zipCode": "62701"},
	}
	for i := 0; i < vehicles; i++ {
		p.VehiclesData = append(p.VehiclesData, map[string]any{"vin": "VIN", "year": "2021", "make": "Mazda", "model": "3"})
	}
	return p
}

func TestClient_Flow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newClient(t)

	created, err := c.CreateApplication(ctx)
	require.NoError(t, err)
	id := created.Application.ID
	require.NotEmpty(t, id)
	assert.Equal(t, "DRAFT", created.Application.Status)
	assert.Equal(t, "/applications/"+id, created.ResumeRoute)
	assert.False(t, created.Application.HasData())

	got, err := c.GetApplication(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	saved, err := c.PutApplication(ctx, id, completePayload(1))
	require.NoError(t, err)
	require.Len(t, saved.Vehicles, 1)
	require.NotNil(t, saved.Vehicles[0].Year)
	assert.Equal(t, 2021, *saved.Vehicles[0].Year)
	assert.True(t, saved.HasData())

	// Exactly sixteen on the reference date.
	res, err := c.SubmitApplication(ctx, id, completePayload(2))
	require.NoError(t, err)
	assert.Equal(t, 812.25, res.ValidationNumber)
	assert.Equal(t, "SUBMITTED", res.Application.Status)
	require.NotNil(t, res.Application.Member)
	require.NotNil(t, res.Application.Member.DateOfBirth)
	assert.Equal(t, "2008-06-15", *res.Application.Member.DateOfBirth)

	msg, err := c.DeleteApplication(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Deleted application with id "+id, msg)

	_, err = c.GetApplication(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_ValidationErrorDecoded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newClient(t)

	created, err := c.CreateApplication(ctx)
	require.NoError(t, err)

	_, err = c.SubmitApplication(ctx, created.Application.ID, completePayload(4))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	require.NotEmpty(t, apiErr.Fields)
	assert.Equal(t, FieldError{Field: "vehiclesData", Message: "Must have 1 to 3 vehicles"}, apiErr.Fields[0])
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestClient_CreateSendsIdempotencyKey(t *testing.T) {
	t.Parallel()
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"ok","application":{"id":"a1","status":"DRAFT"},"resumeRoute":"/r/a1"}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, srv.Client(), 0)
	n := 0
	c.newKey = func() string { n++; return "key-" + string(rune('0'+n)) }

	for i := 0; i < 2; i++ {
		_, err := c.CreateApplication(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"key-1", "key-2"}, keys)
}

func TestClient_NonEnvelopeError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL, srv.Client(), 0).GetApplication(context.Background(), "x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestClient_EscapesApplicationID(t *testing.T) {
	t.Parallel()
	var uris []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uris = append(uris, r.RequestURI)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Deleted application with id x"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL, srv.Client(), 0).DeleteApplication(context.Background(), "a/b?x")
	require.NoError(t, err)
	assert.Equal(t, []string{"/applications/a%2Fb%3Fx"}, uris)

	_, err = newClient(t).GetApplication(context.Background(), "../healthz")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "APPLICATION_NOT_FOUND", apiErr.Code)
}
