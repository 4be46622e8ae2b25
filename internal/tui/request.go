package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/gatepass/internal/locate"
	"github.com/naveenspark/gatepass/pkg/client"
	"github.com/naveenspark/gatepass/pkg/domain"
)

// requestDateLayout is how the visit date is typed into the form.
const requestDateLayout = "2006-01-02 15:04"

// createLocationWait bounds how long a submit waits for the location fix.
const createLocationWait = 2 * time.Second

type optionsLoadedMsg struct {
	options *domain.VisitOptions
	err     error
}

type visitCreatedMsg struct {
	id  string
	err error
}

const (
	reqCategory = iota
	reqGate
	reqDate
	reqPurpose
	reqDestination
	reqVisitor
	reqCNIC
	reqPhone
	reqAdults
	reqChildren
	reqVehicleType
	reqPlate
	numReqFields
)

func isChoice(i int) bool {
	return i == reqCategory || i == reqGate || i == reqVehicleType
}

type requestModel struct {
	visits  Visits
	loc     *locate.Pending
	options *domain.VisitOptions
	form    form
	choice  [numReqFields]int
	loading bool
	busy    bool
	err     string
}

func newRequestModel(v Visits, loc *locate.Pending) requestModel {
	fields := make([]textField, numReqFields)
	fields[reqCategory] = textField{label: "Category"}
	fields[reqGate] = textField{label: "Entry gate"}
	fields[reqDate] = textField{label: "Date", placeholder: "YYYY-MM-DD HH:MM", limit: 16}
	fields[reqPurpose] = textField{label: "Purpose", limit: 120}
	fields[reqDestination] = textField{label: "Destination", placeholder: "house / street", limit: 120}
	fields[reqVisitor] = textField{label: "Visitor name", limit: 80}
	fields[reqCNIC] = textField{label: "Visitor CNIC", placeholder: "12345-1234567-1", limit: 15}
	fields[reqPhone] = textField{label: "Visitor phone", limit: 20}
	fields[reqAdults] = textField{label: "Adults", placeholder: "names, comma separated"}
	fields[reqChildren] = textField{label: "Children", placeholder: "names, comma separated"}
	fields[reqVehicleType] = textField{label: "Vehicle type"}
	fields[reqPlate] = textField{label: "Plate no.", placeholder: "optional", limit: 12}
	fields[reqDate].value = time.Now().Add(time.Hour).Truncate(time.Hour).Format(requestDateLayout)
	return requestModel{visits: v, loc: loc, form: form{fields: fields}, loading: true}
}

func (m requestModel) Init() tea.Cmd {
	v := m.visits
	if v == nil {
		return nil
	}
	return func() tea.Msg {
		opts, err := v.VisitOptions(context.Background())
		return optionsLoadedMsg{options: opts, err: err}
	}
}

func (m requestModel) choices(i int) []string {
	if m.options == nil {
		return nil
	}
	var out []string
	switch i {
	case reqCategory:
		for _, c := range m.options.Categories {
			out = append(out, c.Name)
		}
	case reqGate:
		for _, c := range m.options.Checkposts {
			out = append(out, c.Name)
		}
	case reqVehicleType:
		for _, t := range m.options.VehicleTypes {
			out = append(out, t.Name)
		}
	}
	return out
}

func (m requestModel) Update(msg tea.Msg) (requestModel, tea.Cmd) {
	switch msg := msg.(type) {
	case optionsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = client.Normalize(msg.err).Message
			return m, nil
		}
		m.options = msg.options
		return m, nil

	case visitCreatedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = client.Normalize(msg.err).Message
			return m, nil
		}
		id := msg.id
		return m, func() tea.Msg { return openPassMsg{id: id} }

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		m.err = ""
		key := msg.String()
		switch key {
		case "esc":
			return m, func() tea.Msg { return showHomeMsg{} }
		case "ctrl+s":
			return m.submit()
		case "enter":
			m.form.next()
			return m, nil
		}
		if isChoice(m.form.focus) {
			n := len(m.choices(m.form.focus))
			switch key {
			case "left", "h":
				if n > 0 {
					m.choice[m.form.focus] = (m.choice[m.form.focus] - 1 + n) % n
				}
				return m, nil
			case "right", "l", " ":
				if n > 0 {
					m.choice[m.form.focus] = (m.choice[m.form.focus] + 1) % n
				}
				return m, nil
			case "tab", "down", "shift+tab", "up":
				m.form.handleKey(key)
			}
			return m, nil
		}
		m.form.handleKey(key)
	}
	return m, nil
}

// build turns the form into a visit request and validates it.
func (m requestModel) build() (domain.VisitRequest, error) {
	var req domain.VisitRequest
	if m.options == nil {
		return req, fmt.Errorf("visit options are still loading")
	}
	if cats := m.options.Categories; len(cats) > 0 {
		req.CategoryCode = cats[m.choice[reqCategory]%len(cats)].Code.String()
	}
	if gates := m.options.Checkposts; len(gates) > 0 {
		req.CheckpostID = gates[m.choice[reqGate]%len(gates)].ID
	}
	if s := m.form.value(reqDate); s != "" {
		t, err := time.ParseInLocation(requestDateLayout, s, time.Local)
		if err != nil {
			return req, fmt.Errorf("date must look like %s", requestDateLayout)
		}
		req.From = t
	}
	req.Purpose = m.form.value(reqPurpose)
	req.Destination = m.form.value(reqDestination)
	req.Visitors = append(req.Visitors, domain.Visitor{
		Kind:  domain.VisitorPrimary,
		Name:  m.form.value(reqVisitor),
		CNIC:  m.form.value(reqCNIC),
		Phone: m.form.value(reqPhone),
	})
	for _, name := range splitNames(m.form.value(reqAdults)) {
		req.Visitors = append(req.Visitors, domain.Visitor{Kind: domain.VisitorAdult, Name: name})
	}
	for _, name := range splitNames(m.form.value(reqChildren)) {
		req.Visitors = append(req.Visitors, domain.Visitor{Kind: domain.VisitorUnder18, Name: name})
	}
	if plate := m.form.value(reqPlate); plate != "" {
		v := domain.Vehicle{PlateNo: strings.ToUpper(plate)}
		if types := m.options.VehicleTypes; len(types) > 0 {
			v.TypeCode = types[m.choice[reqVehicleType]%len(types)].Code
		}
		req.Vehicles = append(req.Vehicles, v)
	}
	return req, req.Validate()
}

func splitNames(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (m requestModel) submit() (requestModel, tea.Cmd) {
	req, err := m.build()
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.busy = true
	v, loc := m.visits, m.loc
	return m, func() tea.Msg {
		ctx := context.Background()
		var fix *domain.LocationFix
		if loc != nil {
			fix = loc.WaitTimeout(ctx, createLocationWait)
		}
		id, err := v.CreateVisit(ctx, req, fix)
		return visitCreatedMsg{id: id, err: err}
	}
}

func (m requestModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", titleStyle.Render("New visit request"))
	if m.loading {
		b.WriteString("  " + dimStyle.Render("loading options..."))
		return b.String()
	}

	width := 0
	for _, f := range m.form.fields {
		width = max(width, len(f.label))
	}
	for i, f := range m.form.fields {
		focused := i == m.form.focus
		if isChoice(i) {
			opts := m.choices(i)
			f.value = "-"
			if len(opts) > 0 {
				f.value = "‹ " + opts[m.choice[i]%len(opts)] + " ›"
			}
			if i == reqCategory && m.options != nil && len(m.options.Categories) > 0 {
				cat := m.options.Categories[m.choice[i]%len(m.options.Categories)]
				if cat.DurationHours > 0 {
					f.value += metaStyle.Render(fmt.Sprintf("  valid %dh", cat.DurationHours))
				}
			}
			// choices never show the text cursor
			line := f.render(false, width)
			if focused {
				line = accentStyle.Render("> ") + selectedStyle.Render(fmt.Sprintf("%-*s", width, f.label)) + "  " + f.value
			}
			b.WriteString(line + "\n")
			continue
		}
		b.WriteString(f.render(focused, width) + "\n")
	}
	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString("  " + dimStyle.Render("submitting..."))
	case m.err != "":
		b.WriteString("  " + errorStyle.Render(m.err))
	}
	return b.String()
}

func (m requestModel) helpKeys() string {
	return helpBar("tab", "next", "←/→", "choose", "ctrl+s", "submit", "esc", "cancel")
}
