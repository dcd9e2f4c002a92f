package notion

import (
	"encoding/json"
	"strings"
	"testing"

	"techdebt_export/internal/models"
)

func TestTitleInterpolatesFieldsVerbatim(t *testing.T) {
	got := Title(alice)
	if got != "LogApplet #42 created by alice about srv1,srv2" {
		t.Fatalf("Title = %q", got)
	}
}

func TestInfo(t *testing.T) {
	want := "Creation Date: 2024-01-01 00:00:00\nCreation User: alice\nRelevant Servers: srv1,srv2\nLogApplet ID: 42"
	if got := Info(alice); got != want {
		t.Fatalf("Info = %q want %q", got, want)
	}
}

func TestLogLink(t *testing.T) {
	tests := []struct {
		base string
		id   int64
		want string
	}{
		{DefaultLogApp, 42, "https://portal.eodops.com/Dashboard_LogApp/index.php?logid=42"},
		{"https://logs.example.com/index.php?tab=body", 7, "https://logs.example.com/index.php?logid=7&tab=body"},
		{"https://logs.example.com/index.php?logid=1", 9, "https://logs.example.com/index.php?logid=9"},
	}
	for _, tt := range tests {
		if got := LogLink(tt.base, tt.id); got != tt.want {
			t.Errorf("LogLink(%q, %d) = %q want %q", tt.base, tt.id, got, tt.want)
		}
	}
}

func TestBuildPageEscapesUntrustedContent(t *testing.T) {
	rec := models.DebtRecord{
		ID:      5,
		User:    `mallory", "parent": {"database_id": "evil"}`,
		Servers: "srv\n\"quoted\"\t\\",
	}
	page := BuildPage(PageOptions{DatabaseID: "db", Status: DefaultStatus, LogAppURL: DefaultLogApp}, rec)

	raw, err := json.Marshal(page)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Page
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("body is not valid JSON: %v\n%s", err, raw)
	}
	if back.Parent.DatabaseID != "db" {
		t.Fatalf("parent overridden by content: %q", back.Parent.DatabaseID)
	}
	title := back.Properties.Name.Title[0].Text.Content
	if !strings.Contains(title, rec.User) || !strings.Contains(title, rec.Servers) {
		t.Fatalf("title lost content: %q", title)
	}
	link := back.Children[2].Paragraph.Text[0].Text.Link
	if link == nil || !strings.HasSuffix(link.URL, "index.php?logid=5") {
		t.Fatalf("unexpected link: %+v", link)
	}
}
