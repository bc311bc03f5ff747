package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DeviceUnknown is the explicit value stored for fields the submitting
// device did not report.
const DeviceUnknown = "Unknown"

// DeviceInfo is the descriptive record captured at submission time and
// persisted as JSONB next to the movement it describes.
type DeviceInfo struct {
	UserAgent        string `json:"user_agent"`
	Platform         string `json:"platform"`
	ScreenResolution string `json:"screen_resolution"`
	Browser          string `json:"browser"`
	OSName           string `json:"os_name"`
	Timestamp        string `json:"timestamp"`
	Timezone         string `json:"timezone"`
	Language         string `json:"language"`
}

// Value marshals the record into JSON for Postgres.
func (d DeviceInfo) Value() (driver.Value, error) {
	buf, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the record.
func (d *DeviceInfo) Scan(value interface{}) error {
	if value == nil {
		*d = DeviceInfo{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("device info: unsupported scan type %T", value)
	}

	if len(raw) == 0 {
		*d = DeviceInfo{}
		return nil
	}
	return json.Unmarshal(raw, d)
}
