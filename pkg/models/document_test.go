package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDocument_UnmarshalServiceTimestamp(t *testing.T) {
	// Arrange - the service emits isoformat() without a zone
	raw := `{"id":"d1","filename":"cv.pdf","category":"Resume","confidence":0.91,"timestamp":"2025-12-04T10:00:00.123456"}`

	// Act
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("failed to unmarshal Document: %v", err)
	}

	// Assert
	if doc.ID != "d1" {
		t.Errorf("ID mismatch: got %q, want %q", doc.ID, "d1")
	}
	if doc.Filename != "cv.pdf" {
		t.Errorf("Filename mismatch: got %q, want %q", doc.Filename, "cv.pdf")
	}
	if doc.Category != "Resume" {
		t.Errorf("Category mismatch: got %q, want %q", doc.Category, "Resume")
	}
	want := time.Date(2025, 12, 4, 10, 0, 0, 123456000, time.UTC)
	if !doc.Timestamp.Equal(want) {
		t.Errorf("Timestamp mismatch: got %v, want %v", doc.Timestamp, want)
	}
	if doc.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp location = %v, want UTC", doc.Timestamp.Location())
	}
}

func TestDocument_RoundTripKeepsTimestamp(t *testing.T) {
	doc := Document{
		ID:        "d2",
		Filename:  "report.docx",
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded Document
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if !decoded.Timestamp.Equal(doc.Timestamp) {
		t.Errorf("Timestamp mismatch: got %v, want %v", decoded.Timestamp, doc.Timestamp)
	}
}

func TestDocument_MissingTimestamp(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(`{"id":"d3","filename":"x.pdf"}`), &doc); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if !doc.Timestamp.IsZero() {
		t.Errorf("Timestamp = %v, want zero", doc.Timestamp)
	}
}

func TestSummaryResult_JSONFieldNames(t *testing.T) {
	docType := "Resume"
	data, err := json.Marshal(SummaryResult{
		Summary:      "s",
		KeyPoints:    []string{"a"},
		DocumentType: &docType,
	})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	jsonStr := string(data)
	for _, field := range []string{`"summary"`, `"key_points"`, `"document_type"`} {
		if !strings.Contains(jsonStr, field) {
			t.Errorf("JSON missing field %s: %s", field, jsonStr)
		}
	}
}

func TestSession_Valid(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{"complete", Session{Token: "t", Username: "u"}, true},
		{"no token", Session{Username: "u"}, false},
		{"no username", Session{Token: "t"}, false},
		{"empty", Session{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategoryIndex_Total(t *testing.T) {
	idx := CategoryIndex{"Resume": 3, "Report": 0, "Other": 2}
	if got := idx.Total(); got != 5 {
		t.Errorf("Total() = %d, want 5", got)
	}
	if got := (CategoryIndex{}).Total(); got != 0 {
		t.Errorf("empty Total() = %d, want 0", got)
	}
}

func TestCategoryIndex_CloneIsIndependent(t *testing.T) {
	idx := CategoryIndex{"Resume": 3}
	clone := idx.Clone()
	clone["Resume"] = 1
	if idx["Resume"] != 3 {
		t.Errorf("original mutated: got %d, want 3", idx["Resume"])
	}
}

func TestCategoryIndex_Names(t *testing.T) {
	idx := CategoryIndex{"Resume": 1, "Invoice": 0, "Academic Paper": 4}
	got := strings.Join(idx.Names(), ",")
	if got != "Academic Paper,Invoice,Resume" {
		t.Errorf("Names() = %s", got)
	}
}

func TestConfidenceBand(t *testing.T) {
	tests := []struct {
		confidence float64
		want       string
	}{
		{0.95, ConfidenceHigh},
		{0.8, ConfidenceHigh},
		{0.79, ConfidenceMedium},
		{0.6, ConfidenceMedium},
		{0.59, ConfidenceLow},
		{0, ConfidenceLow},
	}

	for _, tt := range tests {
		if got := ConfidenceBand(tt.confidence); got != tt.want {
			t.Errorf("ConfidenceBand(%v) = %q, want %q", tt.confidence, got, tt.want)
		}
	}
}
