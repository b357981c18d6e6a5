package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Status is the moderation state of a report. The numeric values match the stored codes.
type Status int

const (
	StatusArchived  Status = 0
	StatusPending   Status = 1
	StatusValidated Status = 2
)

// ErrUnknownStatus is returned by ParseStatus for input that names no status.
var ErrUnknownStatus = eris.New("model: unknown status")

// ParseStatus accepts a status name ("pending") or its numeric code ("1").
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "archived", "archive", "0":
		return StatusArchived, nil
	case "pending", "1":
		return StatusPending, nil
	case "validated", "valid", "2":
		return StatusValidated, nil
	}
	return 0, eris.Wrapf(ErrUnknownStatus, "model: parse status %q", s)
}

// StatusFromCode maps a stored numeric code to a Status.
func StatusFromCode(code int) (Status, bool) {
	switch Status(code) {
	case StatusArchived, StatusPending, StatusValidated:
		return Status(code), true
	}
	return 0, false
}

// Valid reports whether s is one of the three states.
func (s Status) Valid() bool {
	_, ok := StatusFromCode(int(s))
	return ok
}

func (s Status) String() string {
	switch s {
	case StatusArchived:
		return "archived"
	case StatusPending:
		return "pending"
	case StatusValidated:
		return "validated"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, eris.Wrapf(ErrUnknownStatus, "model: marshal status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts the same forms as ParseStatus.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
