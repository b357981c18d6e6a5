package model

import "time"

// EmergencyType flags the kinds of help a distress call asks for.
type EmergencyType struct {
	Fire   bool `json:"fire"`
	Crime  bool `json:"crime"`
	Injury bool `json:"injury"`
}

// DistressRecord is an emergency call raised from the mobile client.
type DistressRecord struct {
	ID             string        `json:"id" yaml:"id"`
	Acknowledged   bool          `json:"acknowledged" yaml:"acknowledged"`
	AdditionalInfo string        `json:"additional_info" yaml:"additional_info"`
	Barangay       string        `json:"barangay" yaml:"barangay"`
	Address        string        `json:"address" yaml:"address"`
	EmergencyType  EmergencyType `json:"emergency_type" yaml:"emergency_type"`
	Coordinate     Coordinate    `json:"coordinate" yaml:"coordinate"`
	Timestamp      time.Time     `json:"timestamp" yaml:"timestamp"`
}

var barangayNames = map[string]string{
	"HS": "Holy Spirit",
	"MB": "Matandang Balara",
}

// BarangayName expands the short barangay code used by the client.
func (d DistressRecord) BarangayName() string {
	if name, ok := barangayNames[d.Barangay]; ok {
		return name
	}
	return d.Barangay
}
