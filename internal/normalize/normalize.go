// Package normalize converts raw store documents and spreadsheet rows into typed records.
//
// Normalization never fails on bad field values. Unusable values are replaced with documented
// defaults and reported as Issues so callers can log or count them.
package normalize

import (
	"math"
	"strings"

	"github.com/listo-ph/listo/internal/model"
)

// IssueKind classifies a recovered normalization problem.
type IssueKind string

const (
	IssueMissingCoordinate IssueKind = "missing_coordinate"
	IssueUnknownCategory   IssueKind = "unknown_category"
	IssueUnparsableDate    IssueKind = "unparsable_date"
	IssueDefaultedTime     IssueKind = "defaulted_time"
	IssueUnknownStatus     IssueKind = "unknown_status"
)

// Issue records a field that was replaced with a default.
type Issue struct {
	Field  string    `json:"field"`
	Kind   IssueKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// Document field names used by the mobile client.
const (
	FieldUID            = "uid"
	FieldName           = "name"
	FieldPhone          = "phone"
	FieldCategory       = "category"
	FieldLocation       = "location"
	FieldCoordinate     = "coordinate"
	FieldAdditionalInfo = "additionalInfo"
	FieldImage          = "image"
	FieldStatus         = "status"
	FieldTimeOfCrime    = "timeOfCrime"
	FieldTimeReported   = "timeReported"
	FieldUnixTOC        = "unixTOC"
)

// FromRaw builds an IncidentRecord from a raw document.
func FromRaw(raw model.RawRecord) (model.IncidentRecord, []Issue) {
	var issues []Issue
	rec := model.IncidentRecord{
		ID:             raw.ID,
		Location:       stringField(raw, FieldLocation),
		AdditionalInfo: stringField(raw, FieldAdditionalInfo),
		OwnerID:        stringField(raw, FieldUID),
		ReporterName:   stringField(raw, FieldName),
		ReporterPhone:  stringField(raw, FieldPhone),
		ImageURL:       imageURL(raw.Get(FieldImage)),
	}

	label := stringField(raw, FieldCategory)
	rec.Category = model.ParseCategory(label)
	if rec.Category == model.CategoryUnknown && !strings.EqualFold(strings.TrimSpace(label), string(model.CategoryUnknown)) {
		issues = append(issues, Issue{Field: FieldCategory, Kind: IssueUnknownCategory, Detail: label})
	}

	coord, ok := coordinateOf(raw.Get(FieldCoordinate))
	if !ok {
		coord = model.ZeroCoordinate
		issues = append(issues, Issue{Field: FieldCoordinate, Kind: IssueMissingCoordinate})
	}
	rec.Coordinate = coord

	if t, ok := timeOf(raw.Get(FieldTimeOfCrime)); ok {
		rec.OccurredAt = t
	} else if t, ok := epochMillis(raw.Get(FieldUnixTOC)); ok {
		rec.OccurredAt = t
	} else {
		issues = append(issues, Issue{Field: FieldTimeOfCrime, Kind: IssueUnparsableDate})
	}
	if t, ok := timeOf(raw.Get(FieldTimeReported)); ok {
		rec.ReportedAt = t
	}

	status, ok := statusOf(raw.Get(FieldStatus))
	if !ok {
		issues = append(issues, Issue{Field: FieldStatus, Kind: IssueUnknownStatus})
	}
	rec.Status = status

	return Record(rec), issues
}

// Record canonicalizes an already-typed record. It is idempotent.
func Record(r model.IncidentRecord) model.IncidentRecord {
	r.ID = strings.TrimSpace(r.ID)
	r.Category = model.ParseCategory(string(r.Category))
	r.Location = strings.TrimSpace(r.Location)
	r.AdditionalInfo = strings.TrimSpace(r.AdditionalInfo)
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	r.ReporterName = strings.TrimSpace(r.ReporterName)
	r.ReporterPhone = strings.TrimSpace(r.ReporterPhone)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	if !r.Coordinate.Valid() {
		r.Coordinate = model.ZeroCoordinate
	}
	// -0 compares equal to 0 but prints differently.
	if r.Coordinate.Latitude == 0 {
		r.Coordinate.Latitude = 0
	}
	if r.Coordinate.Longitude == 0 {
		r.Coordinate.Longitude = 0
	}
	r.OccurredAt = r.OccurredAt.UTC()
	r.ReportedAt = r.ReportedAt.UTC()
	if !r.Status.Valid() {
		r.Status = model.StatusPending
	}
	return r
}

func stringField(raw model.RawRecord, key string) string {
	s, _ := raw.Get(key).(string)
	return strings.TrimSpace(s)
}

func imageURL(v any) string {
	switch img := v.(type) {
	case string:
		return img
	case map[string]any:
		s, _ := img["uri"].(string)
		return s
	}
	return ""
}

func statusOf(v any) (model.Status, bool) {
	if v == nil {
		return model.StatusPending, true
	}
	if n, ok := number(v); ok {
		if n != math.Trunc(n) {
			return model.StatusPending, false
		}
		if s, ok := model.StatusFromCode(int(n)); ok {
			return s, true
		}
		return model.StatusPending, false
	}
	if s, ok := v.(string); ok {
		if st, err := model.ParseStatus(s); err == nil {
			return st, true
		}
	}
	if s, ok := v.(model.Status); ok && s.Valid() {
		return s, true
	}
	return model.StatusPending, false
}
