package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Visitor type codes used by the backend on visit_visitors entries.
const (
	VisitorTypePrimary = "1"
)

// StatusApproved is the status name of a visit whose pass can be shown at the gate.
const StatusApproved = "Approved"

// Visit is a visit request as returned by GET /visit/{id}.
type Visit struct {
	ID          json.Number    `json:"id"`
	Code        string         `json:"visit_code"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	Purpose     string         `json:"purpose,omitempty"`
	Destination string         `json:"destination,omitempty"`
	Status      VisitStatus    `json:"model_status"`
	Checkpost   *Checkpost     `json:"checkpost,omitempty"`
	Visitors    []VisitVisitor `json:"visit_visitors,omitempty"`
	Vehicles    []VisitVehicle `json:"visit_vehicles,omitempty"`
	CreatedAt   string         `json:"created_at,omitempty"`
}

// VisitStatus is the backend-owned approval status of a visit.
type VisitStatus struct {
	Name string `json:"name"`
}

// Checkpost is an entry gate.
type Checkpost struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// VisitVisitor is a visitor attached to a visit.
type VisitVisitor struct {
	FullName string `json:"full_name"`
	CNIC     string `json:"cnic,omitempty"`
	MobileNo string `json:"mobile_no,omitempty"`
	TypeCode string `json:"model_type_code"`
}

// VisitVehicle is a vehicle attached to a visit.
type VisitVehicle struct {
	RegistrationNo string `json:"registration_no"`
	TypeCode       string `json:"vehicle_type_code,omitempty"`
	Make           string `json:"make,omitempty"`
	Model          string `json:"model,omitempty"`
	Color          string `json:"color,omitempty"`
}

// Approved reports whether the visit pass is valid for entry.
func (v *Visit) Approved() bool {
	return v != nil && v.Status.Name == StatusApproved
}

// Primary returns the primary visitor, or nil if none is attached.
func (v *Visit) Primary() *VisitVisitor {
	for i := range v.Visitors {
		if v.Visitors[i].TypeCode == VisitorTypePrimary {
			return &v.Visitors[i]
		}
	}
	return nil
}

// Companions returns every visitor other than the primary one.
func (v *Visit) Companions() []VisitVisitor {
	var out []VisitVisitor
	for _, vv := range v.Visitors {
		if vv.TypeCode != VisitorTypePrimary {
			out = append(out, vv)
		}
	}
	return out
}

// ShareMessage renders the plain-text pass summary shared with visitors.
func (v *Visit) ShareMessage() string {
	var sb strings.Builder
	sb.WriteString("Visitor Pass")
	if v.Code != "" {
		sb.WriteString(" " + v.Code)
	}
	sb.WriteString("\n")
	if p := v.Primary(); p != nil {
		sb.WriteString("Visitor: " + p.FullName + "\n")
	}
	var adults, children int
	for _, c := range v.Companions() {
		if c.CNIC != "" || c.MobileNo != "" {
			adults++
		} else {
			children++
		}
	}
	if adults > 0 || children > 0 {
		sb.WriteString("Companions: ")
		sb.WriteString(pluralize(adults, "adult") + ", " + pluralize(children, "child"))
		sb.WriteString("\n")
	}
	if v.Checkpost != nil && v.Checkpost.Name != "" {
		sb.WriteString("Gate: " + v.Checkpost.Name + "\n")
	}
	if v.To != "" {
		sb.WriteString("Valid until: " + v.To + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	if word == "child" {
		return strconv.Itoa(n) + " children"
	}
	return strconv.Itoa(n) + " " + word + "s"
}

// VisitOptions are the choices offered by GET /visit/create.
type VisitOptions struct {
	Categories    []VisitCategory `json:"visit_categories"`
	Checkposts    []Checkpost     `json:"checkposts"`
	VehicleTypes  []VehicleType   `json:"visit_vehicle_types"`
	VehicleMakes  []string        `json:"template_vehicle_makes"`
	VehicleModels []string        `json:"template_vehicle_models"`
	VehicleColors []string        `json:"template_vehicle_colors"`
}

// VisitCategory is a resident type (family, utility, commercial) and how long its passes last.
type VisitCategory struct {
	Code          json.Number `json:"code"`
	Name          string      `json:"name"`
	DurationHours int         `json:"duration"`
}

// Duration returns how long a pass of this category stays valid.
func (c VisitCategory) Duration() time.Duration {
	return time.Duration(c.DurationHours) * time.Hour
}

// VehicleType is a vehicle class code such as CAR or BIKE.
type VehicleType struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
