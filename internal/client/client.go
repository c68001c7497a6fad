// Package client talks to the applications HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the server has no application for the id.
var ErrNotFound = errors.New("application not found")

// FieldError is one entry of the server's per-field error list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response decoded from the server error envelope.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Fields    []FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s: %s", e.Status, e.Code, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Payload is the body of a draft save or submit.
type Payload struct {
	UserData              map[string]any   `json:"userData"`
	AddressData           map[string]any   `json:"addressData"`
	VehiclesData          []map[string]any `json:"vehiclesData"`
	AdditionalMembersData []map[string]any `json:"additionalMembersData"`
}

type Member struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	DateOfBirth *string `json:"dateOfBirth"`
}

type AdditionalMember struct {
	ID                      string  `json:"id"`
	FirstName               string  `json:"firstName"`
	LastName                string  `json:"lastName"`
	DateOfBirth             *string `json:"dateOfBirth"`
	Relationship            *string `json:"relationship"`
	AdditionalApplicationID string  `json:"additionalApplicationId"`
}

type Address struct {
	ID      string `json:"id"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode *int   `json:"zipCode"`
}

type Vehicle struct {
	ID    string `json:"id"`
	VIN   string `json:"vin"`
	Year  *int   `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

// Application is the aggregate returned by the server.
type Application struct {
	ID                string             `json:"id"`
	MemberID          *string            `json:"memberId"`
	Status            string             `json:"status"`
	QuoteNumber       *float64           `json:"quoteNumber"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
	SubmittedAt       *time.Time         `json:"submittedAt"`
	Member            *Member            `json:"member"`
	Address           *Address           `json:"address"`
	Vehicles          []Vehicle          `json:"vehicles"`
	AdditionalMembers []AdditionalMember `json:"additionalMembers"`
}

// HasData reports whether any of the four records carries data.
func (a Application) HasData() bool {
	return a.Member != nil || a.Address != nil || len(a.Vehicles) > 0 || len(a.AdditionalMembers) > 0
}

type CreateResult struct {
	Message     string      `json:"message"`
	Application Application `json:"application"`
	ResumeRoute string      `json:"resumeRoute"`
}

type SubmitResult struct {
	Message          string      `json:"message"`
	Application      Application `json:"application"`
	ValidationNumber float64     `json:"validationNumber"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	newKey func() string
}

// New returns a client for the API at baseURL. A nil httpClient uses one with timeout.
func New(baseURL string, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		newKey:  uuid.NewString,
	}
}

// CreateApplication starts an empty application. Each call sends a fresh Idempotency-Key
// so a transport-level resend of the same request does not create a second application.
func (c *Client) CreateApplication(ctx context.Context) (CreateResult, error) {
	body := map[string]any{
		"member":            nil,
		"address":           nil,
		"vehicles":          []any{},
		"additionalMembers": []any{},
	}
	var out CreateResult
	err := c.do(ctx, http.MethodPost, "/applications", body, map[string]string{"Idempotency-Key": c.newKey()}, http.StatusCreated, &out)
	return out, err
}

func (c *Client) GetApplication(ctx context.Context, id string) (Application, error) {
	var out Application
	err := c.do(ctx, http.MethodGet, applicationPath(id), nil, nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) PutApplication(ctx context.Context, id string, p Payload) (Application, error) {
	var out Application
	err := c.do(ctx, http.MethodPut, applicationPath(id), p.normalized(), nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) SubmitApplication(ctx context.Context, id string, p Payload) (SubmitResult, error) {
	var out SubmitResult
	err := c.do(ctx, http.MethodPost, applicationPath(id)+"/submit", p.normalized(), nil, http.StatusOK, &out)
	return out, err
}

// DeleteApplication removes the application and returns the server's message.
func (c *Client) DeleteApplication(ctx context.Context, id string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodDelete, applicationPath(id), nil, nil, http.StatusOK, &out)
	return out.Message, err
}

func applicationPath(id string) string {
	return "/applications/" + url.PathEscape(id)
}

// normalized sends empty lists instead of null so the server replaces child sets.
func (p Payload) normalized() Payload {
	if p.VehiclesData == nil {
		p.VehiclesData = []map[string]any{}
	}
	if p.AdditionalMembersData == nil {
		p.AdditionalMembersData = []map[string]any{}
	}
	return p
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, want int, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != want {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	var env struct {
		Error struct {
			Code      string       `json:"code"`
			Message   string       `json:"message"`
			RequestID string       `json:"requestId"`
			Fields    []FieldError `json:"fields"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(raw, &env); err == nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.RequestID = env.Error.RequestID
		apiErr.Fields = env.Error.Fields
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
