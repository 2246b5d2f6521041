package prompt

import (
	"context"
	"strings"
	"testing"
)

func TestForVersion(t *testing.T) {
	if id, err := ForVersion(""); err != nil || id != PromptAppendixV1 {
		t.Fatalf("ForVersion(\"\") = %s, %v", id, err)
	}
	if _, err := ForVersion("v9"); err == nil {
		t.Fatal("expected error for unknown version")
	}
}

func TestAppendixTemplateFormats(t *testing.T) {
	r := NewRegistry()
	tpl, err := r.ChatTemplate(PromptAppendixV1)
	if err != nil {
		t.Fatalf("ChatTemplate: %v", err)
	}
	again, _ := r.ChatTemplate(PromptAppendixV1)
	if again != tpl {
		t.Error("template should be cached")
	}

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"allowed_topics":  "Năng lực số",
		"textbook_series": "Cánh Diều",
		"tc_level":        "TC1",
		"appendix_kind":   "PHU_LUC_III",
		"appendix_label":  "Phụ lục III",
		"table_columns":   "STT, Bài học",
		"source_text":     "Bài {1}",
		"subject":         "Tin học",
		"grade":           "Khối 6 (Mức TC1)",
	})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d", len(msgs))
	}
	if !strings.Contains(msgs[0].Content, "[1.1.TC1a]") {
		t.Error("system prompt missing compliance level example")
	}
	if !strings.Contains(msgs[1].Content, "\"\"\"\nBài {1}\n\"\"\"") {
		t.Errorf("user prompt must carry source verbatim: %q", msgs[1].Content)
	}
}

func TestUnknownPromptID(t *testing.T) {
	if _, err := NewRegistry().ChatTemplate("missing_v1"); err == nil {
		t.Fatal("expected error for unknown prompt id")
	}
}
