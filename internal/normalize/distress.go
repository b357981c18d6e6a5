package normalize

import (
	"github.com/listo-ph/listo/internal/model"
)

// Distress document fields.
const (
	FieldAcknowledged  = "acknowledged"
	FieldAddInfo       = "addInfo"
	FieldBarangay      = "barangay"
	FieldAddress       = "address"
	FieldEmergencyType = "emergencyType"
	FieldTimestamp     = "timestamp"
)

// UnknownBarangay is used when a distress call carries no barangay code.
const UnknownBarangay = "Unknown"

// FromDistress builds a DistressRecord from a raw distress document.
// The address is left as stored; reverse geocoding happens in the distress package.
func FromDistress(raw model.RawRecord) model.DistressRecord {
	d := model.DistressRecord{
		ID:             raw.ID,
		AdditionalInfo: stringField(raw, FieldAddInfo),
		Barangay:       stringField(raw, FieldBarangay),
		Address:        stringField(raw, FieldAddress),
	}
	if d.AdditionalInfo == "" {
		d.AdditionalInfo = DefaultAdditionalInfo
	}
	if d.Barangay == "" {
		d.Barangay = UnknownBarangay
	}
	d.Acknowledged, _ = raw.Get(FieldAcknowledged).(bool)

	if et, ok := raw.Get(FieldEmergencyType).(map[string]any); ok {
		d.EmergencyType.Fire, _ = et["fire"].(bool)
		d.EmergencyType.Crime, _ = et["crime"].(bool)
		d.EmergencyType.Injury, _ = et["injury"].(bool)
	} else if et, ok := raw.Get(FieldEmergencyType).(model.EmergencyType); ok {
		d.EmergencyType = et
	}

	if c, ok := coordinateOf(raw.Get(FieldCoordinate)); ok {
		d.Coordinate = c
	}
	if t, ok := timeOf(raw.Get(FieldTimestamp)); ok {
		d.Timestamp = t.UTC()
	}
	return d
}
