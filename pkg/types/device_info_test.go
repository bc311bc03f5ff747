package types

import "testing"

func TestDeviceInfoValueScanRoundTrip(t *testing.T) {
	info := DeviceInfo{
		UserAgent:        "Mozilla/5.0",
		Platform:         "Linux x86_64",
		ScreenResolution: "1920x1080",
		Browser:          "Firefox",
		OSName:           "Linux",
		Timestamp:        "2024-03-01T10:00:00Z",
		Timezone:         "America/Caracas",
		Language:         "es-VE",
	}

	val, err := info.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded DeviceInfo
	if err := decoded.Scan(val); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if decoded != info {
		t.Fatalf("round trip mismatch: %#v", decoded)
	}
}

func TestDeviceInfoScanNilAndString(t *testing.T) {
	var info DeviceInfo
	if err := info.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if info != (DeviceInfo{}) {
		t.Fatalf("expected zero value after nil scan, got %#v", info)
	}

	if err := info.Scan(`{"browser":"Chrome"}`); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if info.Browser != "Chrome" {
		t.Fatalf("expected Chrome, got %q", info.Browser)
	}

	if err := info.Scan(42); err == nil {
		t.Fatal("expected error for unsupported scan type")
	}
}
