package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/BennettSmith/insurance-intake-api/internal/client"
	"github.com/BennettSmith/insurance-intake-api/internal/draft"
)

var testNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

type fakeAPI struct {
	app       client.Application
	getErr    error
	putErr    error
	submitErr error
	quote     float64
	puts      []client.Payload
	submits   []client.Payload
	createdID string
}

func (f *fakeAPI) CreateApplication(context.Context) (client.CreateResult, error) {
	f.createdID = "app-new"
	return client.CreateResult{Message: "Start a new insurance application with id app-new", Application: client.Application{ID: "app-new", Status: "DRAFT"}}, nil
}

func (f *fakeAPI) GetApplication(_ context.Context, id string) (client.Application, error) {
	if f.getErr != nil {
		return client.Application{}, f.getErr
	}
	app := f.app
	app.ID = id
	return app, nil
}

func (f *fakeAPI) PutApplication(_ context.Context, id string, p client.Payload) (client.Application, error) {
	f.puts = append(f.puts, p)
	return client.Application{ID: id}, f.putErr
}

func (f *fakeAPI) SubmitApplication(_ context.Context, id string, p client.Payload) (client.SubmitResult, error) {
	f.submits = append(f.submits, p)
	if f.submitErr != nil {
		return client.SubmitResult{}, f.submitErr
	}
	return client.SubmitResult{Message: "Updated insurance application with id " + id, ValidationNumber: f.quote}, nil
}

func newTestApp(t *testing.T, api *fakeAPI, store *draft.Store, id string) *App {
	t.Helper()
	app := NewApp(api, store, Options{ApplicationID: id, Now: func() time.Time { return testNow }})
	cmd := app.Init()
	if cmd == nil {
		t.Fatalf("Init must return a command")
	}
	app.Update(cmd())
	if app.loading {
		t.Fatalf("app still loading after init")
	}
	return app
}

func press(a *App, k tea.KeyType) tea.Cmd {
	_, cmd := a.Update(tea.KeyMsg{Type: k})
	return cmd
}

func typeText(a *App, s string) {
	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// fill types values into the current form, one field per value.
func fill(a *App, values ...string) {
	for i, v := range values {
		if i > 0 {
			press(a, tea.KeyTab)
		}
		if v != "" {
			typeText(a, v)
		}
	}
}

func newStore() *draft.Store {
	return draft.NewStore(draft.NewMemoryBackend(), "test")
}

func TestNewApplication_StartsAtUserStep(t *testing.T) {
	api := &fakeAPI{}
	a := newTestApp(t, api, newStore(), "")
	if a.appID != "app-new" {
		t.Fatalf("appID=%q", a.appID)
	}
	if a.step != stepUser || len(a.inputs) != len(userFields) {
		t.Fatalf("expected user step, got %d with %d inputs", a.step, len(a.inputs))
	}
	if !strings.Contains(a.View(), "Your information") {
		t.Fatalf("view missing step title:\n%s", a.View())
	}
}

func TestStepGating(t *testing.T) {
	a := newTestApp(t, &fakeAPI{}, newStore(), "")

	press(a, tea.KeyEnter)
	if a.step != stepUser {
		t.Fatalf("empty user step must not advance")
	}
	if got := a.errs.User["firstName"]; got != "Field is required" {
		t.Fatalf("firstName error=%q", got)
	}

	fill(a, "Ada", "Lovelace", "2010-01-01")
	press(a, tea.KeyEnter)
	if a.step != stepUser {
		t.Fatalf("underage user must not advance")
	}
	if got := a.errs.User["dateOfBirth"]; got != "Age must be at least 16 years." {
		t.Fatalf("dateOfBirth error=%q", got)
	}
	if !strings.Contains(a.View(), "Age must be at least 16 years.") {
		t.Fatalf("view missing error")
	}
}

func TestWriteThroughAndResumeFromLocalDraft(t *testing.T) {
	store := newStore()
	a := newTestApp(t, &fakeAPI{}, store, "")
	fill(a, "Ada", "Lovelace", "1990-05-17")
	press(a, tea.KeyEnter)
	if a.step != stepAddress {
		t.Fatalf("expected address step, got %d", a.step)
	}
	fill(a, "1 Main St", "Springfield")

	d, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.User.LastName != "Lovelace" || d.Address.City != "Springfield" || d.Step != int(stepAddress) {
		t.Fatalf("draft not written through: %+v", d)
	}

	// The server has nothing for this id yet, so the local draft wins.
	b := newTestApp(t, &fakeAPI{}, store, "app-new")
	if b.step != stepAddress || b.draft.Address.Street != "1 Main St" {
		t.Fatalf("expected resumed address step, got step=%d draft=%+v", b.step, b.draft)
	}
	if got := b.inputs[0].Value(); got != "1 Main St" {
		t.Fatalf("input not restored: %q", got)
	}
}

func TestResume_ServerDataWins(t *testing.T) {
	store := newStore()
	if err := store.SaveUser(draft.User{FirstName: "Local"}); err != nil {
		t.Fatal(err)
	}
	dob, year, zip := "1980-02-02", 2018, 10001
	api := &fakeAPI{app: client.Application{
		Member:   &client.Member{FirstName: "Server", LastName: "Side", DateOfBirth: &dob},
		Address:  &client.Address{Street: "5 Elm", ZipCode: &zip},
		Vehicles: []client.Vehicle{{VIN: "V1", Year: &year, Make: "Ford", Model: "Focus"}},
	}}

	a := newTestApp(t, api, store, "app-1")
	if a.draft.User.FirstName != "Server" || a.draft.Address.ZipCode != "10001" || a.draft.Vehicles[0].Year != "2018" {
		t.Fatalf("server data not applied: %+v", a.draft)
	}
	d, _ := store.Load()
	if d.User.FirstName != "Server" || len(d.AdditionalMembers) != 0 {
		t.Fatalf("server data not persisted locally: %+v", d)
	}
}

func TestResume_FetchErrorFallsBackToLocalDraft(t *testing.T) {
	store := newStore()
	_ = store.SaveUser(draft.User{FirstName: "Local"})
	_ = store.SaveStep(int(stepVehicles))

	a := newTestApp(t, &fakeAPI{getErr: errors.New("connection refused")}, store, "app-1")
	if a.step != stepVehicles || a.draft.User.FirstName != "Local" {
		t.Fatalf("expected local draft at vehicles step, got step=%d draft=%+v", a.step, a.draft)
	}
	if !strings.Contains(a.statusMsg, "connection refused") {
		t.Fatalf("status=%q", a.statusMsg)
	}
}

func TestVehicleRows(t *testing.T) {
	store := newStore()
	_ = store.SaveStep(int(stepVehicles))
	a := newTestApp(t, &fakeAPI{}, store, "")

	if a.step != stepVehicles || len(a.draft.Vehicles) != 1 {
		t.Fatalf("expected one blank vehicle row, got %+v", a.draft.Vehicles)
	}
	press(a, tea.KeyEnter)
	if a.step != stepVehicles || a.errs.Vehicles[0]["vin"] != "Field is required" {
		t.Fatalf("blank vehicle must not advance: %+v", a.errs)
	}

	fill(a, "V1", "2020", "Honda", "Civic")
	press(a, tea.KeyCtrlN)
	fill(a, "V2", "2025", "Kia", "Soul")
	if a.row != 1 || len(a.draft.Vehicles) != 2 {
		t.Fatalf("row=%d vehicles=%d", a.row, len(a.draft.Vehicles))
	}
	press(a, tea.KeyEnter)
	if got := a.errs.Vehicles[1]["year"]; got != "Maximum value is 2024" {
		t.Fatalf("year error=%q", got)
	}

	press(a, tea.KeyCtrlX)
	if len(a.draft.Vehicles) != 1 || a.row != 0 || a.inputs[0].Value() != "V1" {
		t.Fatalf("remove failed: row=%d vehicles=%+v", a.row, a.draft.Vehicles)
	}
	press(a, tea.KeyCtrlX)
	press(a, tea.KeyEnter)
	if a.errs.VehicleCount != "Must have 1 to 3 vehicles" {
		t.Fatalf("vehicle count error=%q", a.errs.VehicleCount)
	}
	d, _ := store.Load()
	if len(d.Vehicles) != 0 {
		t.Fatalf("removal not written through: %+v", d.Vehicles)
	}
}

func TestSaveDraft(t *testing.T) {
	api := &fakeAPI{}
	a := newTestApp(t, api, newStore(), "")
	fill(a, "Ada", "", "2015-01-01")

	if cmd := press(a, tea.KeyCtrlS); cmd != nil {
		t.Fatalf("invalid draft must not be sent")
	}
	if len(api.puts) != 0 || a.errs.User["dateOfBirth"] == "" {
		t.Fatalf("expected lenient error, got %+v", a.errs)
	}

	a.inputs[2].SetValue("")
	a.syncInputs()
	cmd := press(a, tea.KeyCtrlS)
	if cmd == nil {
		t.Fatalf("expected save command")
	}
	a.Update(cmd())
	if len(api.puts) != 1 || a.statusMsg != "Draft saved." {
		t.Fatalf("puts=%d status=%q", len(api.puts), a.statusMsg)
	}
	if got := api.puts[0].UserData["firstName"]; got != "Ada" {
		t.Fatalf("payload firstName=%v", got)
	}

	api.putErr = &client.APIError{Status: 500, Code: "INTERNAL_ERROR", Message: "Updating application failed, please try again."}
	cmd = press(a, tea.KeyCtrlS)
	a.Update(cmd())
	if !strings.Contains(a.statusMsg, "Saving failed") || a.draft.User.FirstName != "Ada" {
		t.Fatalf("status=%q", a.statusMsg)
	}
}

func TestFullFlowSubmitsAndClearsDraft(t *testing.T) {
	api := &fakeAPI{quote: 421.5}
	store := newStore()
	a := newTestApp(t, api, store, "")

	fill(a, "Ada", "Lovelace", "2008-06-15")
	press(a, tea.KeyEnter)
	fill(a, "1 Main St", "Springfield", "IL", "62701")
	press(a, tea.KeyEnter)
	fill(a, "V1", "2020", "Honda", "Civic")
	press(a, tea.KeyEnter)
	press(a, tea.KeyCtrlN)
	fill(a, "Grace", "Hopper", "1991-12-09", "Spouse")
	press(a, tea.KeyEnter)
	if a.step != stepReview {
		t.Fatalf("expected review step, got %d (errs=%+v)", a.step, a.errs)
	}
	if v := a.View(); !strings.Contains(v, "Ada Lovelace") || !strings.Contains(v, "Grace Hopper") {
		t.Fatalf("review missing data:\n%s", v)
	}

	press(a, tea.KeyEsc)
	if a.step != stepAdditionalMembers {
		t.Fatalf("esc should go back, got %d", a.step)
	}
	press(a, tea.KeyEnter)

	cmd := press(a, tea.KeyEnter)
	if cmd == nil {
		t.Fatalf("expected submit command")
	}
	a.Update(cmd())
	if a.step != stepQuote || a.Quote() != 421.5 || !a.Submitted() {
		t.Fatalf("step=%d quote=%v status=%q", a.step, a.Quote(), a.statusMsg)
	}
	if !strings.Contains(a.View(), "421.50") {
		t.Fatalf("quote view:\n%s", a.View())
	}
	sub := api.submits[0]
	if len(sub.VehiclesData) != 1 || sub.AdditionalMembersData[0]["relationship"] != "Spouse" || sub.AddressData["zipCode"] != "62701" {
		t.Fatalf("unexpected submit payload: %+v", sub)
	}

	d, _ := store.Load()
	if d.User.FirstName != "" || d.Step != 0 {
		t.Fatalf("draft not cleared: %+v", d)
	}
	if cmd := press(a, tea.KeyEnter); cmd == nil {
		t.Fatalf("enter on the quote step should quit")
	}
}

// fillToReview walks a fresh app through every step with valid data.
func fillToReview(t *testing.T, a *App) {
	t.Helper()
	fill(a, "Ada", "Lovelace", "2008-06-15")
	press(a, tea.KeyEnter)
	fill(a, "1 Main St", "Springfield", "IL", "62701")
	press(a, tea.KeyEnter)
	fill(a, "V1", "2020", "Honda", "Civic")
	press(a, tea.KeyEnter)
	press(a, tea.KeyEnter)
	if a.step != stepReview {
		t.Fatalf("expected review step, got %d (errs=%+v)", a.step, a.errs)
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "transport", err: errors.New("dial tcp 127.0.0.1:8080: connect: connection refused")},
		{name: "server", err: &client.APIError{Status: 500, Code: "INTERNAL_ERROR", Message: "Submitting application failed, please try again."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{submitErr: tt.err}
			store := newStore()
			a := newTestApp(t, api, store, "")
			fillToReview(t, a)

			cmd := press(a, tea.KeyEnter)
			if cmd == nil {
				t.Fatalf("expected submit command")
			}
			a.Update(cmd())

			if len(api.submits) != 1 {
				t.Fatalf("submits=%d", len(api.submits))
			}
			if a.step != stepReview || a.Submitted() {
				t.Fatalf("step=%d submitted=%v", a.step, a.Submitted())
			}
			if !strings.Contains(a.statusMsg, "Submitting failed") {
				t.Fatalf("status=%q", a.statusMsg)
			}

			d, err := store.Load()
			if err != nil {
				t.Fatalf("Load() err=%v", err)
			}
			if d.User.FirstName != "Ada" || d.Address.City != "Springfield" {
				t.Fatalf("draft lost: %+v", d)
			}
			if len(d.Vehicles) != 1 || d.Vehicles[0].VIN != "V1" {
				t.Fatalf("vehicles lost: %+v", d.Vehicles)
			}

			// Retrying after the failure goes through.
			api.submitErr = nil
			cmd = press(a, tea.KeyEnter)
			if cmd == nil {
				t.Fatalf("expected retry submit command")
			}
			a.Update(cmd())
			if !a.Submitted() || a.step != stepQuote {
				t.Fatalf("retry: step=%d status=%q", a.step, a.statusMsg)
			}
		})
	}
}

func TestSubmitWithZeroQuoteIsStillSubmitted(t *testing.T) {
	api := &fakeAPI{quote: 0}
	a := newTestApp(t, api, newStore(), "")
	fillToReview(t, a)

	a.Update(press(a, tea.KeyEnter)())
	if !a.Submitted() || a.Quote() != 0 || a.step != stepQuote {
		t.Fatalf("submitted=%v quote=%v step=%d", a.Submitted(), a.Quote(), a.step)
	}
}
