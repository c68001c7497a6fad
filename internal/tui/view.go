package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/BennettSmith/insurance-intake-api/internal/forms"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color("#AAAAAA"))
	focusStyle = lipgloss.NewStyle().Width(16).Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	quoteStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(1, 3).
			Bold(true)
)

func (a *App) View() string {
	if a.loading {
		return hintStyle.Render(a.statusMsg) + "\n"
	}

	var b strings.Builder
	if a.step == stepQuote {
		b.WriteString(titleStyle.Render("Quote") + "\n\n")
		b.WriteString(quoteStyle.Render(fmt.Sprintf("Your quote: %.2f", a.quote)) + "\n\n")
		b.WriteString(hintStyle.Render(a.statusMsg) + "\n")
		b.WriteString(hintStyle.Render("enter/q: quit") + "\n")
		return b.String()
	}

	header := fmt.Sprintf("Step %d of %d · %s", int(a.step)+1, int(lastEditable)+1, stepTitles[a.step])
	if a.appID != "" {
		header += hintStyle.Render("  application " + a.appID)
	}
	b.WriteString(titleStyle.Render(header) + "\n\n")

	switch a.step {
	case stepUser:
		b.WriteString(a.renderForm(userFields, a.errs.User))
	case stepAddress:
		b.WriteString(a.renderForm(addressFields, a.errs.Address))
	case stepVehicles:
		if a.errs.VehicleCount != "" {
			b.WriteString(errorStyle.Render(a.errs.VehicleCount) + "\n\n")
		}
		b.WriteString(a.renderRows("Vehicle", len(a.draft.Vehicles), vehicleFields, a.errs.Vehicles))
	case stepAdditionalMembers:
		b.WriteString(a.renderRows("Member", len(a.draft.AdditionalMembers), memberFields, a.errs.AdditionalMembers))
	case stepReview:
		b.WriteString(a.renderReview())
	}

	if a.statusMsg != "" {
		b.WriteString("\n" + hintStyle.Render(a.statusMsg) + "\n")
	}
	b.WriteString("\n" + hintStyle.Render(a.helpLine()) + "\n")
	return b.String()
}

func (a *App) renderForm(specs []fieldSpec, errs forms.Errors) string {
	var b strings.Builder
	for i, spec := range specs {
		if i >= len(a.inputs) {
			break
		}
		label := labelStyle
		if i == a.focus {
			label = focusStyle
		}
		b.WriteString(label.Render(spec.label) + a.inputs[i].View() + "\n")
		if msg := errs[spec.key]; msg != "" {
			b.WriteString(strings.Repeat(" ", 16) + errorStyle.Render(msg) + "\n")
		}
	}
	return b.String()
}

func (a *App) renderRows(noun string, n int, specs []fieldSpec, errs []forms.Errors) string {
	if n == 0 {
		return hintStyle.Render(fmt.Sprintf("No %ss. Press ctrl+n to add one.", strings.ToLower(noun))) + "\n"
	}
	var rowErrs forms.Errors
	if a.row < len(errs) {
		rowErrs = errs[a.row]
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %d of %d\n\n", noun, a.row+1, n))
	b.WriteString(a.renderForm(specs, rowErrs))
	for i, e := range errs {
		if i != a.row && len(e) > 0 {
			b.WriteString(errorStyle.Render(fmt.Sprintf("%s %d has errors", noun, i+1)) + "\n")
		}
	}
	return b.String()
}

func (a *App) renderReview() string {
	d := a.draft
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Name:          %s %s\n", d.User.FirstName, d.User.LastName))
	b.WriteString(fmt.Sprintf("Date of birth: %s\n", d.User.DateOfBirth))
	b.WriteString(fmt.Sprintf("Address:       %s, %s, %s %s\n", d.Address.Street, d.Address.City, d.Address.State, d.Address.ZipCode))
	b.WriteString("\nVehicles:\n")
	for i, v := range d.Vehicles {
		b.WriteString(fmt.Sprintf("  %d. %s %s %s (VIN %s)\n", i+1, v.Year, v.Make, v.Model, v.VIN))
	}
	if len(d.AdditionalMembers) > 0 {
		b.WriteString("\nAdditional members:\n")
		for i, m := range d.AdditionalMembers {
			b.WriteString(fmt.Sprintf("  %d. %s %s, %s, born %s\n", i+1, m.FirstName, m.LastName, m.Relationship, m.DateOfBirth))
		}
	}
	if msgs := errorSummary(a.errs); len(msgs) > 0 {
		b.WriteString("\n" + errorStyle.Render(strings.Join(msgs, "\n")) + "\n")
	}
	return b.String()
}

// errorSummary flattens errors for the review step.
func errorSummary(e forms.DraftErrors) []string {
	var out []string
	add := func(prefix string, errs forms.Errors, specs []fieldSpec) {
		for _, spec := range specs {
			if msg, ok := errs[spec.key]; ok {
				out = append(out, fmt.Sprintf("%s %s: %s", prefix, strings.ToLower(spec.label), msg))
			}
		}
	}
	add("Your", e.User, userFields)
	add("Address", e.Address, addressFields)
	if e.VehicleCount != "" {
		out = append(out, e.VehicleCount)
	}
	for i, v := range e.Vehicles {
		add(fmt.Sprintf("Vehicle %d", i+1), v, vehicleFields)
	}
	for i, m := range e.AdditionalMembers {
		add(fmt.Sprintf("Member %d", i+1), m, memberFields)
	}
	return out
}

func (a *App) helpLine() string {
	keys := []string{"tab: next field", "ctrl+s: save"}
	switch a.step {
	case stepVehicles, stepAdditionalMembers:
		keys = append(keys, "ctrl+n: add", "ctrl+x: remove", "pgup/pgdown: switch")
	}
	if a.step == stepReview {
		keys = append(keys, "enter: submit")
	} else {
		keys = append(keys, "enter: continue")
	}
	if a.step != stepUser {
		keys = append(keys, "esc: back")
	}
	keys = append(keys, "ctrl+c: quit")
	return strings.Join(keys, " · ")
}
