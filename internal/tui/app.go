// Package tui is the terminal intake wizard. It walks an applicant through
// the user, address, vehicle and household steps, keeps a local draft in
// step with every edit and submits the application for a quote.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/BennettSmith/insurance-intake-api/internal/client"
	"github.com/BennettSmith/insurance-intake-api/internal/draft"
	"github.com/BennettSmith/insurance-intake-api/internal/forms"
)

// API is the part of the applications client the wizard uses.
type API interface {
	CreateApplication(ctx context.Context) (client.CreateResult, error)
	GetApplication(ctx context.Context, id string) (client.Application, error)
	PutApplication(ctx context.Context, id string, p client.Payload) (client.Application, error)
	SubmitApplication(ctx context.Context, id string, p client.Payload) (client.SubmitResult, error)
}

type step int

const (
	stepUser step = iota
	stepAddress
	stepVehicles
	stepAdditionalMembers
	stepReview
	stepQuote
)

// lastEditable is the final step that can be resumed into.
const lastEditable = stepReview

var stepTitles = map[step]string{
	stepUser:              "Your information",
	stepAddress:           "Address",
	stepVehicles:          "Vehicles",
	stepAdditionalMembers: "Additional members",
	stepReview:            "Review",
	stepQuote:             "Quote",
}

type fieldSpec struct {
	key         string
	label       string
	placeholder string
}

var (
	userFields = []fieldSpec{
		{key: "firstName", label: "First name"},
		{key: "lastName", label: "Last name"},
		{key: "dateOfBirth", label: "Date of birth", placeholder: "YYYY-MM-DD"},
	}
	addressFields = []fieldSpec{
		{key: "street", label: "Street"},
		{key: "city", label: "City"},
		{key: "state", label: "State"},
		{key: "zipCode", label: "Zip code"},
	}
	vehicleFields = []fieldSpec{
		{key: "vin", label: "VIN"},
		{key: "year", label: "Year"},
		{key: "make", label: "Make"},
		{key: "model", label: "Model"},
	}
	memberFields = []fieldSpec{
		{key: "firstName", label: "First name"},
		{key: "lastName", label: "Last name"},
		{key: "dateOfBirth", label: "Date of birth", placeholder: "YYYY-MM-DD"},
		{key: "relationship", label: "Relationship", placeholder: "Spouse, Sibling, Parent, Friend or Other"},
	}
)

type createdMsg struct {
	res client.CreateResult
	err error
}

type fetchedMsg struct {
	app client.Application
	err error
}

type savedMsg struct {
	err error
}

type submittedMsg struct {
	res client.SubmitResult
	err error
}

// Options configures a wizard run.
type Options struct {
	// ApplicationID resumes an existing application. Empty starts a new one.
	ApplicationID string
	// Now is the reference clock for age and year rules.
	Now func() time.Time
}

// App is the wizard model.
type App struct {
	api   API
	store *draft.Store
	now   func() time.Time

	appID   string
	loading bool
	busy    bool

	draft  draft.Draft
	step   step
	row    int
	inputs []textinput.Model
	focus  int

	errs      forms.DraftErrors
	statusMsg string
	err       error
	quote     float64
	submitted bool

	width int
}

func NewApp(api API, store *draft.Store, opts Options) *App {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &App{
		api:     api,
		store:   store,
		now:     now,
		appID:   opts.ApplicationID,
		loading: true,
		draft:   draft.Default(),
	}
}

// Init starts a new application or fetches the one being resumed.
func (a *App) Init() tea.Cmd {
	if a.appID == "" {
		a.statusMsg = "Starting a new application..."
		return a.createApplication()
	}
	a.statusMsg = "Loading application " + a.appID + "..."
	return a.fetchApplication(a.appID)
}

func (a *App) createApplication() tea.Cmd {
	api := a.api
	return func() tea.Msg {
		res, err := api.CreateApplication(context.Background())
		return createdMsg{res: res, err: err}
	}
}

func (a *App) fetchApplication(id string) tea.Cmd {
	api := a.api
	return func() tea.Msg {
		app, err := api.GetApplication(context.Background(), id)
		return fetchedMsg{app: app, err: err}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil

	case createdMsg:
		a.loading = false
		if msg.err != nil {
			a.err = msg.err
			a.statusMsg = "Could not start an application: " + msg.err.Error()
			return a, tea.Quit
		}
		a.appID = msg.res.Application.ID
		a.statusMsg = msg.res.Message
		// A new application has nothing on the server yet.
		return a, a.useLocalDraft()

	case fetchedMsg:
		a.loading = false
		if msg.err != nil {
			a.statusMsg = "Could not load the application, continuing from the local draft: " + msg.err.Error()
			return a, a.useLocalDraft()
		}
		if !msg.app.HasData() {
			return a, a.useLocalDraft()
		}
		a.draft = fromApplication(msg.app)
		if err := a.store.Save(a.draft); err != nil {
			a.statusMsg = "Could not write the local draft: " + err.Error()
		}
		return a, a.enterStep(stepUser)

	case savedMsg:
		a.busy = false
		if msg.err != nil {
			a.statusMsg = describeAPIError("Saving failed", msg.err)
			return a, nil
		}
		a.statusMsg = "Draft saved."
		return a, nil

	case submittedMsg:
		a.busy = false
		if msg.err != nil {
			a.statusMsg = describeAPIError("Submitting failed", msg.err)
			return a, nil
		}
		a.quote = msg.res.ValidationNumber
		a.submitted = true
		if err := a.store.Clear(); err != nil {
			a.statusMsg = "Submitted, but the local draft could not be cleared: " + err.Error()
		} else {
			a.statusMsg = msg.res.Message
		}
		a.step = stepQuote
		a.inputs = nil
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if a.loading {
		return a, nil
	}
	if a.step == stepQuote {
		switch key {
		case "enter", "q", "esc":
			return a, tea.Quit
		}
		return a, nil
	}

	switch key {
	case "enter":
		if a.step == stepReview {
			return a, a.submit()
		}
		return a, a.next()
	case "esc":
		return a, a.back()
	case "tab", "down":
		return a, a.moveFocus(1)
	case "shift+tab", "up":
		return a, a.moveFocus(-1)
	case "ctrl+s":
		return a, a.save()
	case "ctrl+n":
		return a, a.addRow()
	case "ctrl+x":
		return a, a.removeRow()
	case "pgdown":
		return a, a.selectRow(a.row + 1)
	case "pgup":
		return a, a.selectRow(a.row - 1)
	}

	if len(a.inputs) == 0 {
		return a, nil
	}
	before := a.inputs[a.focus].Value()
	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	if a.inputs[a.focus].Value() != before {
		a.syncInputs()
	}
	return a, cmd
}

func (a *App) useLocalDraft() tea.Cmd {
	d, err := a.store.Load()
	if err != nil {
		a.statusMsg = "Could not read the local draft: " + err.Error()
	}
	a.draft = d
	s := step(d.Step)
	if s < stepUser || s > lastEditable {
		s = stepUser
	}
	return a.enterStep(s)
}

// enterStep shows s and records it in the draft.
func (a *App) enterStep(s step) tea.Cmd {
	a.step = s
	a.row = 0
	a.errs = forms.DraftErrors{}
	a.draft.Step = int(s)
	if err := a.store.SaveStep(int(s)); err != nil {
		a.statusMsg = "Could not write the local draft: " + err.Error()
	}
	return a.loadInputs()
}

// loadInputs rebuilds the text inputs for the current step and row.
func (a *App) loadInputs() tea.Cmd {
	specs, values := a.currentForm()
	a.inputs = make([]textinput.Model, len(specs))
	for i, spec := range specs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = spec.placeholder
		ti.CharLimit = 64
		ti.SetValue(values[spec.key])
		a.inputs[i] = ti
	}
	a.focus = 0
	if len(a.inputs) == 0 {
		return nil
	}
	return a.inputs[0].Focus()
}

// currentForm returns the field specs and values of the current step and row.
func (a *App) currentForm() ([]fieldSpec, map[string]string) {
	switch a.step {
	case stepUser:
		u := a.draft.User
		return userFields, map[string]string{"firstName": u.FirstName, "lastName": u.LastName, "dateOfBirth": u.DateOfBirth}
	case stepAddress:
		ad := a.draft.Address
		return addressFields, map[string]string{"street": ad.Street, "city": ad.City, "state": ad.State, "zipCode": string(ad.ZipCode)}
	case stepVehicles:
		if a.row >= len(a.draft.Vehicles) {
			return nil, nil
		}
		v := a.draft.Vehicles[a.row]
		return vehicleFields, map[string]string{"vin": v.VIN, "year": string(v.Year), "make": v.Make, "model": v.Model}
	case stepAdditionalMembers:
		if a.row >= len(a.draft.AdditionalMembers) {
			return nil, nil
		}
		m := a.draft.AdditionalMembers[a.row]
		return memberFields, map[string]string{"firstName": m.FirstName, "lastName": m.LastName, "dateOfBirth": m.DateOfBirth, "relationship": m.Relationship}
	}
	return nil, nil
}

// syncInputs copies the input values into the draft and writes the changed
// entity through to the store.
func (a *App) syncInputs() {
	val := func(i int) string { return a.inputs[i].Value() }
	var err error
	switch a.step {
	case stepUser:
		a.draft.User = draft.User{FirstName: val(0), LastName: val(1), DateOfBirth: val(2)}
		err = a.store.SaveUser(a.draft.User)
	case stepAddress:
		a.draft.Address = draft.Address{Street: val(0), City: val(1), State: val(2), ZipCode: draft.Numeric(val(3))}
		err = a.store.SaveAddress(a.draft.Address)
	case stepVehicles:
		a.draft.Vehicles[a.row] = draft.Vehicle{VIN: val(0), Year: draft.Numeric(val(1)), Make: val(2), Model: val(3)}
		err = a.store.SaveVehicles(a.draft.Vehicles)
	case stepAdditionalMembers:
		a.draft.AdditionalMembers[a.row] = draft.AdditionalMember{FirstName: val(0), LastName: val(1), DateOfBirth: val(2), Relationship: val(3)}
		err = a.store.SaveAdditionalMembers(a.draft.AdditionalMembers)
	}
	if err != nil {
		a.statusMsg = "Could not write the local draft: " + err.Error()
	}
}

func (a *App) moveFocus(delta int) tea.Cmd {
	if len(a.inputs) == 0 {
		return nil
	}
	a.inputs[a.focus].Blur()
	a.focus = (a.focus + delta + len(a.inputs)) % len(a.inputs)
	return a.inputs[a.focus].Focus()
}

func (a *App) selectRow(row int) tea.Cmd {
	n := a.rowCount()
	if n == 0 || row < 0 || row >= n {
		return nil
	}
	a.row = row
	return a.loadInputs()
}

func (a *App) rowCount() int {
	switch a.step {
	case stepVehicles:
		return len(a.draft.Vehicles)
	case stepAdditionalMembers:
		return len(a.draft.AdditionalMembers)
	}
	return 0
}

func (a *App) addRow() tea.Cmd {
	var err error
	switch a.step {
	case stepVehicles:
		a.draft.Vehicles = append(a.draft.Vehicles, draft.Vehicle{})
		a.row = len(a.draft.Vehicles) - 1
		err = a.store.SaveVehicles(a.draft.Vehicles)
	case stepAdditionalMembers:
		a.draft.AdditionalMembers = append(a.draft.AdditionalMembers, draft.AdditionalMember{})
		a.row = len(a.draft.AdditionalMembers) - 1
		err = a.store.SaveAdditionalMembers(a.draft.AdditionalMembers)
	default:
		return nil
	}
	if err != nil {
		a.statusMsg = "Could not write the local draft: " + err.Error()
	}
	a.errs = forms.DraftErrors{}
	return a.loadInputs()
}

func (a *App) removeRow() tea.Cmd {
	var err error
	switch a.step {
	case stepVehicles:
		if a.row >= len(a.draft.Vehicles) {
			return nil
		}
		a.draft.Vehicles = append(a.draft.Vehicles[:a.row], a.draft.Vehicles[a.row+1:]...)
		err = a.store.SaveVehicles(a.draft.Vehicles)
	case stepAdditionalMembers:
		if a.row >= len(a.draft.AdditionalMembers) {
			return nil
		}
		a.draft.AdditionalMembers = append(a.draft.AdditionalMembers[:a.row], a.draft.AdditionalMembers[a.row+1:]...)
		err = a.store.SaveAdditionalMembers(a.draft.AdditionalMembers)
	default:
		return nil
	}
	if err != nil {
		a.statusMsg = "Could not write the local draft: " + err.Error()
	}
	if n := a.rowCount(); a.row >= n && n > 0 {
		a.row = n - 1
	}
	if a.row < 0 {
		a.row = 0
	}
	a.errs = forms.DraftErrors{}
	return a.loadInputs()
}

// next moves forward once the current step passes the strict checks.
func (a *App) next() tea.Cmd {
	errs := a.validateStep(a.step)
	if !errs.Valid() {
		a.errs = errs
		a.statusMsg = "Please fix the highlighted fields."
		return nil
	}
	a.statusMsg = ""
	return a.enterStep(a.step + 1)
}

func (a *App) back() tea.Cmd {
	if a.step == stepUser {
		return nil
	}
	a.statusMsg = ""
	return a.enterStep(a.step - 1)
}

// validateStep applies the strict schemas to the records shown on s.
func (a *App) validateStep(s step) forms.DraftErrors {
	today := a.now()
	var out forms.DraftErrors
	switch s {
	case stepUser:
		_, out.User = forms.ValidateFormAt(today, a.draft.User.Fields(), forms.EntityUser)
	case stepAddress:
		_, out.Address = forms.ValidateFormAt(today, a.draft.Address.Fields(), forms.EntityAddress)
	case stepVehicles:
		full := forms.ValidateSubmission(today, a.input())
		out.Vehicles = full.Vehicles
		out.VehicleCount = full.VehicleCount
	case stepAdditionalMembers:
		full := forms.ValidateSubmission(today, a.input())
		out.AdditionalMembers = full.AdditionalMembers
	}
	return out
}

func (a *App) input() forms.Input {
	return forms.Input{
		User:              a.draft.User.Fields(),
		Address:           a.draft.Address.Fields(),
		Vehicles:          a.draft.VehicleFields(),
		AdditionalMembers: a.draft.AdditionalMemberFields(),
	}
}

// save sends the draft to the server after the lenient checks pass.
func (a *App) save() tea.Cmd {
	if a.busy || a.appID == "" {
		return nil
	}
	errs := forms.ValidateDraft(a.now(), a.input())
	if !errs.Valid() {
		a.errs = errs
		a.statusMsg = "The draft has invalid fields and was not saved."
		return nil
	}
	a.busy = true
	a.statusMsg = "Saving..."
	api, id, payload := a.api, a.appID, toPayload(a.draft)
	return func() tea.Msg {
		_, err := api.PutApplication(context.Background(), id, payload)
		return savedMsg{err: err}
	}
}

// submit sends the application once every record passes the strict checks.
func (a *App) submit() tea.Cmd {
	if a.busy {
		return nil
	}
	errs := forms.ValidateSubmission(a.now(), a.input())
	if !errs.Valid() {
		a.errs = errs
		a.statusMsg = "Some steps are incomplete. Go back and fix the highlighted fields."
		return nil
	}
	a.busy = true
	a.statusMsg = "Submitting..."
	api, id, payload := a.api, a.appID, toPayload(a.draft)
	return func() tea.Msg {
		res, err := api.SubmitApplication(context.Background(), id, payload)
		return submittedMsg{res: res, err: err}
	}
}

// Err is the error that ended the run, if any.
func (a *App) Err() error { return a.err }

// Quote is the validation number returned on submit.
func (a *App) Quote() float64 { return a.quote }

// Submitted reports whether the application was accepted by the server.
func (a *App) Submitted() bool { return a.submitted }

func describeAPIError(prefix string, err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		f := apiErr.Fields[0]
		return fmt.Sprintf("%s: %s (%s: %s)", prefix, apiErr.Message, f.Field, f.Message)
	}
	return fmt.Sprintf("%s: %v. Your draft is kept locally.", prefix, err)
}
