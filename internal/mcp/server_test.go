package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

type fakeLibrary struct {
	docs      []models.Document
	err       error
	lastToken string
}

func (f *fakeLibrary) Categories(ctx context.Context, token string) (models.CategoryIndex, error) {
	f.lastToken = token
	return models.CategoryIndex{"Resume": 2, "Invoice": 0}, f.err
}

func (f *fakeLibrary) Documents(ctx context.Context, token, category string) ([]models.Document, error) {
	f.lastToken = token
	return f.docs, f.err
}

func (f *fakeLibrary) Summarize(ctx context.Context, token, documentID string) (models.SummaryResult, error) {
	f.lastToken = token
	return models.SummaryResult{Summary: "summary of " + documentID, KeyPoints: []string{"one"}}, f.err
}

func (f *fakeLibrary) LLMStatus(ctx context.Context) (models.LLMStatus, error) {
	return models.LLMStatus{Available: true, Message: "ok"}, f.err
}

type staticSessions struct{ ok bool }

func (s staticSessions) Session() (models.Session, bool) {
	return models.Session{Token: "tok", Username: "alice"}, s.ok
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func TestServer_Creation(t *testing.T) {
	s, err := NewServer(Config{Name: "smart-organizer", Version: "1.0.0"}, &fakeLibrary{}, staticSessions{ok: true})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	if s.mcpServer == nil {
		t.Error("mcpServer should not be nil")
	}

	if _, err := NewServer(Config{}, &fakeLibrary{}, staticSessions{}); err == nil {
		t.Error("NewServer() without a name succeeded")
	}
}

func TestServer_ListCategories(t *testing.T) {
	lib := &fakeLibrary{}
	s, _ := NewServer(Config{Name: "test"}, lib, staticSessions{ok: true})

	result, err := s.listCategoriesHandler(context.Background(), callRequest("list_categories", nil))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}

	var index models.CategoryIndex
	if err := json.Unmarshal([]byte(resultText(t, result)), &index); err != nil {
		t.Fatal(err)
	}
	if index["Resume"] != 2 {
		t.Errorf("index = %v", index)
	}
	if lib.lastToken != "tok" {
		t.Errorf("token = %q", lib.lastToken)
	}
}

func TestServer_ListDocumentsFilters(t *testing.T) {
	lib := &fakeLibrary{docs: []models.Document{
		{ID: "1", Filename: "Resume_2024.pdf"},
		{ID: "2", Filename: "cover-letter.docx"},
	}}
	s, _ := NewServer(Config{Name: "test"}, lib, staticSessions{ok: true})

	tests := []struct {
		name    string
		args    map[string]any
		want    int
		wantErr bool
	}{
		{"no query", map[string]any{"category": "Resume"}, 2, false},
		{"query", map[string]any{"category": "Resume", "query": "resume"}, 1, false},
		{"missing category", map[string]any{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.listDocumentsHandler(context.Background(), callRequest("list_documents", tt.args))
			if err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if result.IsError != tt.wantErr {
				t.Fatalf("IsError = %v: %s", result.IsError, resultText(t, result))
			}
			if tt.wantErr {
				return
			}
			var docs []models.Document
			if err := json.Unmarshal([]byte(resultText(t, result)), &docs); err != nil {
				t.Fatal(err)
			}
			if len(docs) != tt.want {
				t.Errorf("got %d documents, want %d", len(docs), tt.want)
			}
		})
	}
}

func TestServer_Summarize(t *testing.T) {
	s, _ := NewServer(Config{Name: "test"}, &fakeLibrary{}, staticSessions{ok: true})

	result, _ := s.summarizeHandler(context.Background(), callRequest("summarize_document", map[string]any{"document_id": "abc"}))
	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "summary of abc") {
		t.Errorf("result = %s", resultText(t, result))
	}
}

func TestServer_RequiresSession(t *testing.T) {
	s, _ := NewServer(Config{Name: "test"}, &fakeLibrary{}, staticSessions{ok: false})

	result, _ := s.listCategoriesHandler(context.Background(), callRequest("list_categories", nil))
	if !result.IsError {
		t.Fatal("expected tool error without a session")
	}
	if !strings.Contains(resultText(t, result), "not signed in") {
		t.Errorf("result = %s", resultText(t, result))
	}

	// llm_status does not need a session
	result, _ = s.llmStatusHandler(context.Background(), callRequest("llm_status", nil))
	if result.IsError {
		t.Errorf("llm_status error: %s", resultText(t, result))
	}
}

func TestServer_LibraryError(t *testing.T) {
	s, _ := NewServer(Config{Name: "test"}, &fakeLibrary{err: errors.New("boom")}, staticSessions{ok: true})

	result, _ := s.listCategoriesHandler(context.Background(), callRequest("list_categories", nil))
	if !result.IsError || !strings.Contains(resultText(t, result), "boom") {
		t.Errorf("result = %+v", result)
	}
}
