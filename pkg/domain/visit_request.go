package domain

import (
	"errors"
	"fmt"
	"time"
)

// VisitorKind distinguishes the primary visitor from companions.
type VisitorKind string

const (
	VisitorPrimary VisitorKind = "primary"
	VisitorAdult   VisitorKind = "adult"
	VisitorUnder18 VisitorKind = "under18"
)

// VisitRequest is the resident's input for POST /visit.
type VisitRequest struct {
	CategoryCode string
	CheckpostID  int
	From         time.Time
	Purpose      string
	Destination  string
	Visitors     []Visitor
	Vehicles     []Vehicle
}

// Visitor is one person on a visit request. Under-18 visitors carry a name only.
type Visitor struct {
	Kind  VisitorKind
	Name  string
	CNIC  string
	Phone string
}

// Vehicle is one vehicle on a visit request.
type Vehicle struct {
	TypeCode string
	PlateNo  string
	Make     string
	Model    string
	Color    string
}

// ErrNoPrimaryVisitor is returned when a request has no primary visitor.
var ErrNoPrimaryVisitor = errors.New("a primary visitor is required")

// Validate checks the fields the backend rejects outright.
func (r VisitRequest) Validate() error {
	if r.CategoryCode == "" {
		return errors.New("visit category is required")
	}
	if r.CheckpostID <= 0 {
		return errors.New("entry gate is required")
	}
	if r.From.IsZero() {
		return errors.New("visit date is required")
	}
	primaries := 0
	for i, v := range r.Visitors {
		if v.Kind == VisitorPrimary {
			primaries++
			if v.Name == "" || v.CNIC == "" || v.Phone == "" {
				return errors.New("primary visitor needs name, CNIC and phone")
			}
			continue
		}
		if v.Name == "" {
			return fmt.Errorf("visitor %d: name is required", i+1)
		}
	}
	switch {
	case primaries == 0:
		return ErrNoPrimaryVisitor
	case primaries > 1:
		return errors.New("only one primary visitor is allowed")
	}
	for i, v := range r.Vehicles {
		if v.PlateNo == "" {
			return fmt.Errorf("vehicle %d: registration number is required", i+1)
		}
	}
	return nil
}

// OrderedVisitors returns the visitors with the primary visitor first.
// The relative order of the remaining visitors is preserved.
func (r VisitRequest) OrderedVisitors() []Visitor {
	out := make([]Visitor, 0, len(r.Visitors))
	for _, v := range r.Visitors {
		if v.Kind == VisitorPrimary {
			out = append(out, v)
		}
	}
	for _, v := range r.Visitors {
		if v.Kind != VisitorPrimary {
			out = append(out, v)
		}
	}
	return out
}
