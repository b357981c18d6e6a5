package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/model"
)

// Spreadsheet column headers accepted by the importer.
const (
	ColumnCategory       = "Category"
	ColumnLocation       = "Location"
	ColumnTimeOfCrime    = "Time of Crime"
	ColumnTimeReported   = "Time Reported"
	ColumnLatitude       = "Latitude"
	ColumnLongitude      = "Longitude"
	ColumnAdditionalInfo = "Additional Info"
)

// Defaults substituted for missing spreadsheet values.
const (
	UnknownLocation       = "Unknown location"
	DefaultAdditionalInfo = "No additional info"
	DefaultCategory       = "Unknown"
)

var (
	// ErrEmptyRow is returned for a row with no non-blank cells.
	ErrEmptyRow = eris.New("normalize: empty row")
	// ErrMalformedRow is returned when a row has values that cannot be recovered.
	ErrMalformedRow = eris.New("normalize: malformed row")
)

var importTimeRE = regexp.MustCompile(`(?i)^(\d{2})/(\d{2})/(\d{4}) (\d{1,2}):(\d{2})\s*(am|pm)$`)

// ParseImportTime parses the spreadsheet layout "MM/DD/YYYY hh:mm am" as wall-clock time in loc.
func ParseImportTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = model.DefaultLocation
	}
	m := importTimeRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, eris.Errorf("normalize: invalid import time %q", s)
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	if hour < 1 || hour > 12 || minute > 59 {
		return time.Time{}, eris.Errorf("normalize: invalid import time %q", s)
	}

	pm := strings.EqualFold(m[6], "pm")
	switch {
	case pm && hour != 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, eris.Errorf("normalize: invalid import date %q", s)
	}
	return t, nil
}

// FromRow converts a header-keyed spreadsheet row into a raw crime document.
// Missing values take the package defaults; missing or invalid times default to now.
// The coordinate field is set only when both latitude and longitude are present and non-zero;
// otherwise the caller is expected to geocode the location.
func FromRow(row map[string]string, now time.Time, loc *time.Location) (model.RawRecord, []Issue, error) {
	if isBlank(row) {
		return model.RawRecord{}, nil, ErrEmptyRow
	}
	var issues []Issue

	get := func(key, def string) string {
		if v := strings.TrimSpace(row[key]); v != "" {
			return v
		}
		return def
	}

	fields := map[string]any{
		FieldCategory:       strings.ToLower(get(ColumnCategory, DefaultCategory)),
		FieldLocation:       get(ColumnLocation, UnknownLocation),
		FieldAdditionalInfo: get(ColumnAdditionalInfo, DefaultAdditionalInfo),
		FieldStatus:         int(model.StatusValidated),
	}

	for _, col := range []struct{ column, field string }{
		{ColumnTimeOfCrime, FieldTimeOfCrime},
		{ColumnTimeReported, FieldTimeReported},
	} {
		t, err := ParseImportTime(row[col.column], loc)
		if err != nil {
			t = now
			issues = append(issues, Issue{Field: col.field, Kind: IssueDefaultedTime, Detail: row[col.column]})
		}
		fields[col.field] = t
		if col.field == FieldTimeOfCrime {
			fields[FieldUnixTOC] = t.UnixMilli()
		}
	}

	lat, hasLat, err := parseCoord(row[ColumnLatitude])
	if err != nil {
		return model.RawRecord{}, nil, eris.Wrapf(ErrMalformedRow, "latitude %q", row[ColumnLatitude])
	}
	lng, hasLng, err := parseCoord(row[ColumnLongitude])
	if err != nil {
		return model.RawRecord{}, nil, eris.Wrapf(ErrMalformedRow, "longitude %q", row[ColumnLongitude])
	}
	if hasLat && hasLng && lat != 0 && lng != 0 {
		c := model.Coordinate{Latitude: lat, Longitude: lng}
		if !c.Valid() {
			return model.RawRecord{}, nil, eris.Wrapf(ErrMalformedRow, "coordinate %v,%v out of range", lat, lng)
		}
		fields[FieldCoordinate] = c
	}

	return model.RawRecord{Fields: fields}, issues, nil
}

// HasCoordinate reports whether raw carries a usable coordinate.
func HasCoordinate(raw model.RawRecord) bool {
	_, ok := coordinateOf(raw.Get(FieldCoordinate))
	return ok
}

func parseCoord(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}

func isBlank(row map[string]string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
