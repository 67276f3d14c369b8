package models

import (
	"encoding/json"
	"testing"
)

func TestRawRowUnmarshalStringValues(t *testing.T) {
	blob := `{"firstName":"LeBron","lastName":"James","points":"27","numMinutes":"36:42"}`

	var row RawRow
	if err := json.Unmarshal([]byte(blob), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if row.FirstName != "LeBron" || row.Points != "27" || row.NumMinutes != "36:42" {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestRawRowUnmarshalNativeValues(t *testing.T) {
	// Feed exports send numbers and nulls unquoted.
	blob := `{"firstName":"LeBron","lastName":"James","points":27,"home":1,"assists":null,"win":true}`

	var row RawRow
	if err := json.Unmarshal([]byte(blob), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if row.Points != "27" {
		t.Errorf("expected points %q, got %q", "27", row.Points)
	}
	if row.Home != "1" {
		t.Errorf("expected home %q, got %q", "1", row.Home)
	}
	if row.Assists != "" {
		t.Errorf("expected null assists to stay empty, got %q", row.Assists)
	}
	if row.Win != "true" {
		t.Errorf("expected win %q, got %q", "true", row.Win)
	}
}

func TestRawRowUnmarshalUnknownKeysIgnored(t *testing.T) {
	blob := `{"firstName":"LeBron","lastName":"James","someFutureColumn":42}`

	var row RawRow
	if err := json.Unmarshal([]byte(blob), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if row.FirstName != "LeBron" {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestRawRowUnmarshalRejectsNonObject(t *testing.T) {
	var row RawRow
	if err := json.Unmarshal([]byte(`[1,2,3]`), &row); err == nil {
		t.Error("expected error for non-object input")
	}
}
