package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/gatepass/pkg/domain"
)

func testOptions() *domain.VisitOptions {
	return &domain.VisitOptions{
		Categories: []domain.VisitCategory{
			{Code: "1", Name: "Family", DurationHours: 12},
			{Code: "2", Name: "Utility", DurationHours: 4},
		},
		Checkposts:   []domain.Checkpost{{ID: 1, Name: "Main gate"}, {ID: 2, Name: "Gate 2"}},
		VehicleTypes: []domain.VehicleType{{Code: "CAR", Name: "Car"}, {Code: "BIKE", Name: "Bike"}},
	}
}

func filledRequest() requestModel {
	m := newRequestModel(nil, nil)
	m, _ = m.Update(optionsLoadedMsg{options: testOptions()})
	m.form.fields[reqDate].value = "2026-03-01 10:00"
	m.form.fields[reqVisitor].value = "Bilal Ahmed"
	m.form.fields[reqCNIC].value = "35202-1234567-1"
	m.form.fields[reqPhone].value = "03001234567"
	return m
}

func TestRequestBuild(t *testing.T) {
	m := filledRequest()
	m.form.fields[reqAdults].value = "Sara Ahmed, , Omar"
	m.form.fields[reqChildren].value = "Ali"
	m.form.fields[reqPlate].value = "lea-1234"

	// second category, second gate, second vehicle type
	for _, field := range []int{reqCategory, reqGate, reqVehicleType} {
		m.form.focus = field
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	}

	req, err := m.build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.CategoryCode != "2" || req.CheckpostID != 2 {
		t.Errorf("category = %q gate = %d", req.CategoryCode, req.CheckpostID)
	}
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)
	if !req.From.Equal(want) {
		t.Errorf("from = %v, want %v", req.From, want)
	}
	if len(req.Visitors) != 4 {
		t.Fatalf("visitors = %d, want 4", len(req.Visitors))
	}
	if req.Visitors[0].Kind != domain.VisitorPrimary || req.Visitors[3].Kind != domain.VisitorUnder18 {
		t.Errorf("visitor kinds = %v, %v", req.Visitors[0].Kind, req.Visitors[3].Kind)
	}
	if len(req.Vehicles) != 1 || req.Vehicles[0].PlateNo != "LEA-1234" || req.Vehicles[0].TypeCode != "BIKE" {
		t.Errorf("vehicles = %+v", req.Vehicles)
	}
}

func TestRequestBuildErrors(t *testing.T) {
	m := newRequestModel(nil, nil)
	if _, err := m.build(); err == nil {
		t.Error("build with no options should fail")
	}

	m = filledRequest()
	m.form.fields[reqDate].value = "tomorrow"
	if _, err := m.build(); err == nil {
		t.Error("build with a bad date should fail")
	}

	m = filledRequest()
	m.form.fields[reqCNIC].value = ""
	if _, err := m.build(); err == nil {
		t.Error("build without a primary CNIC should fail")
	}
}

func TestRequestChoiceWraps(t *testing.T) {
	m := filledRequest()
	m.form.focus = reqGate
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.choice[reqGate] != 1 {
		t.Errorf("choice after left = %d, want 1", m.choice[reqGate])
	}
	m, _ = m.Update(keyRunes("x"))
	if m.form.fields[reqGate].value != "" {
		t.Error("typing into a choice field changed its text")
	}
}

func TestRequestSubmit(t *testing.T) {
	v := &fakeVisits{}
	m := filledRequest()
	m.visits = v
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.busy || cmd == nil {
		t.Fatalf("busy = %v cmd = %v, want a submit", m.busy, cmd != nil)
	}
	created, ok := cmd().(visitCreatedMsg)
	if !ok || created.id != "99" {
		t.Fatalf("msg = %#v", created)
	}
	if len(v.created) != 1 {
		t.Fatalf("created = %d requests", len(v.created))
	}

	m, cmd = m.Update(created)
	if cmd == nil {
		t.Fatal("created visit did not open the pass")
	}
	if open, ok := cmd().(openPassMsg); !ok || open.id != "99" {
		t.Errorf("msg = %#v", open)
	}
}
