package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/naveenspark/gatepass/pkg/domain"
)

func sampleRequest() domain.VisitRequest {
	return domain.VisitRequest{
		CategoryCode: "1",
		CheckpostID:  2,
		From:         time.Date(2026, 3, 1, 9, 5, 0, 0, time.Local),
		Purpose:      "Personal",
		Destination:  "Block A",
		Visitors: []domain.Visitor{
			{Kind: domain.VisitorUnder18, Name: "Kid"},
			{Kind: domain.VisitorPrimary, Name: "Guest", CNIC: "42101-1234567-1", Phone: "03001234567"},
		},
		Vehicles: []domain.Vehicle{{TypeCode: "CAR", PlateNo: "ABC-123", Make: "Honda", Model: "Civic", Color: "White"}},
	}
}

func TestVisitFormFields(t *testing.T) {
	got := VisitFormFields(sampleRequest(), &domain.LocationFix{Latitude: 24.5, Longitude: 67.25, Accuracy: 20})
	want := []FormField{
		{"visit_category_code", "1"},
		{"checkpost_id", "2"},
		{"from", "2026-03-01T09:05"},
		{"purpose", "Personal"},
		{"destination", "Block A"},
		{"visitor_full_name[0]", "Guest"},
		{"visitor_cnic[0]", "42101-1234567-1"},
		{"visitor_mobile_no[0]", "03001234567"},
		{"visitor_full_name[1]", "Kid"},
		{"visitor_cnic[1]", ""},
		{"visitor_mobile_no[1]", ""},
		{"vehicle_type_code[0]", "CAR"},
		{"vehicle_registration_no[0]", "ABC-123"},
		{"vehicle_make[0]", "Honda"},
		{"vehicle_model[0]", "Civic"},
		{"vehicle_color[0]", "White"},
		{"latitude", "24.5"},
		{"longitude", "67.25"},
		{"accuracy", "20"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("VisitFormFields() mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateVisit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/visit" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if got := r.FormValue("visitor_full_name[0]"); got != "Guest" {
			t.Errorf("visitor_full_name[0] = %q, want Guest", got)
		}
		if got := r.FormValue("device_id"); got != "dev-1" {
			t.Errorf("device_id = %q, want dev-1", got)
		}
		if got := r.FormValue("latitude"); got != "" {
			t.Errorf("latitude = %q, want empty without a fix", got)
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"success": true,
			"data":    map[string]any{"visit": map[string]any{"id": 42}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "dev-1")
	id, err := c.CreateVisit(context.Background(), sampleRequest(), nil)
	if err != nil {
		t.Fatalf("CreateVisit() error: %v", err)
	}
	if id != "42" {
		t.Errorf("id = %q, want 42", id)
	}
}

func TestCreateVisit_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{}}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "dev-1")
	_, err := c.CreateVisit(context.Background(), sampleRequest(), nil)
	if !errors.Is(err, ErrNoVisitID) {
		t.Fatalf("CreateVisit() error = %v, want ErrNoVisitID", err)
	}
}

func TestGetVisit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/visit/7" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"visit": map[string]any{
				"id":           7,
				"visit_code":   "VP-0007",
				"to":           "2026-03-01 18:00",
				"model_status": map[string]string{"name": "Approved"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "dev")
	v, err := c.GetVisit(context.Background(), "7")
	if err != nil {
		t.Fatalf("GetVisit() error: %v", err)
	}
	if v.Code != "VP-0007" || !v.Approved() {
		t.Errorf("GetVisit() = %+v", v)
	}
}

func TestListVisits(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"envelope", map[string]any{"data": []map[string]any{{"id": 1}, {"id": 2}}}},
		{"bare array", []map[string]any{{"id": 1}, {"id": 2}}},
		{"visits key", map[string]any{"visits": []map[string]any{{"id": 1}, {"id": 2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("record") != "20" {
					t.Errorf("record = %q, want 20", r.URL.Query().Get("record"))
				}
				json.NewEncoder(w).Encode(tt.body) //nolint:errcheck
			}))
			defer srv.Close()

			c := New(srv.URL, "dev")
			visits, err := c.ListVisits(context.Background(), 20)
			if err != nil {
				t.Fatalf("ListVisits() error: %v", err)
			}
			if len(visits) != 2 || visits[1].ID.String() != "2" {
				t.Errorf("ListVisits() = %+v", visits)
			}
		})
	}
}

func TestVisitOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"visit_categories":       []map[string]any{{"name": "Family", "code": 1, "duration": 12}},
			"checkposts":             []map[string]any{{"name": "Gate 1", "id": 2}},
			"visit_vehicle_types":    []map[string]any{{"name": "Car", "code": "CAR"}},
			"template_vehicle_makes": []string{"Honda"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "dev")
	opts, err := c.VisitOptions(context.Background())
	if err != nil {
		t.Fatalf("VisitOptions() error: %v", err)
	}
	if len(opts.Categories) != 1 || opts.Categories[0].Duration() != 12*time.Hour {
		t.Errorf("Categories = %+v", opts.Categories)
	}
	if opts.Checkposts[0].ID != 2 || opts.VehicleMakes[0] != "Honda" {
		t.Errorf("VisitOptions() = %+v", opts)
	}
}
