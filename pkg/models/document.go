package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Session is the authenticated identity held by the client.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Valid reports whether the session carries both a token and a username.
func (s Session) Valid() bool {
	return s.Token != "" && s.Username != ""
}

// ClassificationResult is the service's verdict for one uploaded file.
type ClassificationResult struct {
	ID         string  `json:"id,omitempty"` // empty when the file had too little text to store
	Filename   string  `json:"filename"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Document is a classified document as listed under a category.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Category   string    `json:"category,omitempty"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts the service's timestamps, which are ISO-8601 without a
// zone, and normalizes them to UTC.
func (d *Document) UnmarshalJSON(data []byte) error {
	type alias Document
	aux := struct {
		*alias
		Timestamp string `json:"timestamp"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.Timestamp = parseTimestamp(aux.Timestamp)
	return nil
}

// CategoryIndex maps a category name to its document count.
type CategoryIndex map[string]int

// Total returns the sum of all counts.
func (c CategoryIndex) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Names returns the category names in alphabetical order.
func (c CategoryIndex) Names() []string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (c CategoryIndex) Clone() CategoryIndex {
	out := make(CategoryIndex, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// SummaryResult is an AI-generated summary of one document.
type SummaryResult struct {
	Summary      string   `json:"summary"`
	KeyPoints    []string `json:"key_points"`
	DocumentType *string  `json:"document_type,omitempty"`
}

// LLMStatus reports whether the summarization backend is configured.
type LLMStatus struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// Health is the service health report.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	LLM      string `json:"llm"`
	Version  string `json:"version"`
}

// Confidence bands used when rendering classification results.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// ConfidenceBand buckets a confidence score: >=0.8 high, >=0.6 medium, else low.
func ConfidenceBand(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return ConfidenceHigh
	case confidence >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// UploadFile is one candidate file for classification.
type UploadFile struct {
	Name     string
	MIMEType string // declared type; may be empty
	Data     []byte
}

// Size returns the file size in bytes.
func (f UploadFile) Size() int64 {
	return int64(len(f.Data))
}
