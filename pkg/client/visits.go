package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/naveenspark/gatepass/pkg/domain"
)

// visitTimeLayout is the local-time layout the backend expects for "from".
const visitTimeLayout = "2006-01-02T15:04"

// ErrNoVisitID is returned when POST /visit succeeds without returning the new visit's ID.
var ErrNoVisitID = errors.New("visit ID not returned from API")

// VisitOptions returns the categories, checkposts and vehicle choices for a new visit.
func (c *Client) VisitOptions(ctx context.Context) (*domain.VisitOptions, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/visit/create", nil, &raw); err != nil {
		return nil, fmt.Errorf("client.VisitOptions: %w", err)
	}
	var opts domain.VisitOptions
	if err := json.Unmarshal(unwrap(raw), &opts); err != nil {
		return nil, fmt.Errorf("client.VisitOptions: decode response: %w", err)
	}
	return &opts, nil
}

// ListVisits returns the resident's visits. record limits how many are returned.
func (c *Client) ListVisits(ctx context.Context, record int) ([]domain.Visit, error) {
	params := url.Values{}
	params.Set("record", strconv.Itoa(record))

	var raw json.RawMessage
	if err := c.get(ctx, "/visit?"+params.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("client.ListVisits: %w", err)
	}
	visits, err := decodeVisitList(unwrap(raw))
	if err != nil {
		return nil, fmt.Errorf("client.ListVisits: %w", err)
	}
	return visits, nil
}

func decodeVisitList(data []byte) ([]domain.Visit, error) {
	var visits []domain.Visit
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &visits); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return visits, nil
	}
	var wrapped struct {
		Visits []domain.Visit `json:"visits"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return wrapped.Visits, nil
}

// GetVisit fetches a single visit by ID.
func (c *Client) GetVisit(ctx context.Context, id string) (*domain.Visit, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/visit/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, fmt.Errorf("client.GetVisit: %w", err)
	}
	v, err := decodeVisit(unwrap(raw))
	if err != nil {
		return nil, fmt.Errorf("client.GetVisit: %w", err)
	}
	return v, nil
}

func decodeVisit(data []byte) (*domain.Visit, error) {
	var wrapped struct {
		Visit *domain.Visit `json:"visit"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if wrapped.Visit != nil {
		return wrapped.Visit, nil
	}
	var v domain.Visit
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if v.ID == "" {
		return nil, errors.New("visit missing from response")
	}
	return &v, nil
}

// CreateVisit submits a visit request as multipart form data and returns the new visit's ID.
func (c *Client) CreateVisit(ctx context.Context, req domain.VisitRequest, fix *domain.LocationFix) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range VisitFormFields(req, fix) {
		if err := w.WriteField(f.Key, f.Value); err != nil {
			return "", fmt.Errorf("client.CreateVisit: write field %s: %w", f.Key, err)
		}
	}
	if c.deviceID != "" {
		if err := w.WriteField("device_id", c.deviceID); err != nil {
			return "", fmt.Errorf("client.CreateVisit: write field device_id: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("client.CreateVisit: close form: %w", err)
	}

	var raw json.RawMessage
	if err := c.send(ctx, http.MethodPost, "/visit", w.FormDataContentType(), &buf, nil, &raw); err != nil {
		return "", fmt.Errorf("client.CreateVisit: %w", err)
	}
	v, err := decodeVisit(unwrap(raw))
	if err != nil || v.ID == "" {
		return "", fmt.Errorf("client.CreateVisit: %w", ErrNoVisitID)
	}
	return v.ID.String(), nil
}

// FormField is one key/value pair of the visit multipart form.
type FormField struct {
	Key   string
	Value string
}

// VisitFormFields maps a visit request to the backend's form keys. Visitors are
// indexed with the primary visitor at 0; visitors without a name are skipped
// but keep their index. Location fields are appended when fix is non-nil.
func VisitFormFields(req domain.VisitRequest, fix *domain.LocationFix) []FormField {
	fields := []FormField{
		{"visit_category_code", req.CategoryCode},
		{"checkpost_id", strconv.Itoa(req.CheckpostID)},
	}
	if !req.From.IsZero() {
		fields = append(fields, FormField{"from", req.From.Format(visitTimeLayout)})
	}
	if req.Purpose != "" {
		fields = append(fields, FormField{"purpose", req.Purpose})
	}
	if req.Destination != "" {
		fields = append(fields, FormField{"destination", req.Destination})
	}

	for i, v := range req.OrderedVisitors() {
		if v.Name == "" {
			continue
		}
		idx := "[" + strconv.Itoa(i) + "]"
		fields = append(fields,
			FormField{"visitor_full_name" + idx, v.Name},
			FormField{"visitor_cnic" + idx, v.CNIC},
			FormField{"visitor_mobile_no" + idx, v.Phone},
		)
	}

	for i, v := range req.Vehicles {
		idx := "[" + strconv.Itoa(i) + "]"
		fields = append(fields,
			FormField{"vehicle_type_code" + idx, v.TypeCode},
			FormField{"vehicle_registration_no" + idx, v.PlateNo},
			FormField{"vehicle_make" + idx, v.Make},
			FormField{"vehicle_model" + idx, v.Model},
			FormField{"vehicle_color" + idx, v.Color},
		)
	}

	if fix != nil {
		fields = append(fields,
			FormField{"latitude", formatFloat(fix.Latitude)},
			FormField{"longitude", formatFloat(fix.Longitude)},
			FormField{"accuracy", formatFloat(fix.Accuracy)},
		)
	}
	return fields
}
