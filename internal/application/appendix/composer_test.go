package appendix

import (
	"context"
	"strings"
	"testing"

	"appendix-ai-api/internal/domain/catalog"
	"appendix-ai-api/internal/domain/entity"
	"appendix-ai-api/internal/workflow/prompt"
)

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	c, err := NewComposer(prompt.NewRegistry(), "v1")
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	return c
}

func TestComplianceLevel(t *testing.T) {
	cases := map[string]Level{
		"Khối 6 (Mức TC1)": LevelTC1,
		"Khối 7 (Mức TC1)": LevelTC1,
		"Khối 8 (Mức TC2)": LevelTC2,
		"Khối 9 (Mức TC2)": LevelTC2,
		"Lớp 10":           LevelTC2,
		"":                 LevelTC2,
	}
	for grade, want := range cases {
		if got := ComplianceLevel(grade); got != want {
			t.Errorf("ComplianceLevel(%q) = %s, want %s", grade, got, want)
		}
	}
}

func TestComposeAllowedTopicsAreExactlySelected(t *testing.T) {
	c := newTestComposer(t)
	cfg := entity.DefaultGenerationConfig()
	cfg.SourceText = "Bài: Tim và hệ mạch (2 tiết)"
	cfg.SelectedIntegrationKeys = []string{"KNS", "AI"}

	p, err := c.Compose(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(p.System, "[Trí tuệ nhân tạo (AI), Kỹ năng sống]") {
		t.Errorf("system prompt allowed list wrong:\n%s", p.System)
	}
	for _, tp := range catalog.IntegrationTopics() {
		if tp.Key == "AI" || tp.Key == "KNS" {
			continue
		}
		if strings.Contains(p.System, tp.Label) || strings.Contains(p.User, tp.Label) {
			t.Errorf("unselected topic %q leaked into prompt", tp.Label)
		}
	}
}

func TestComposeEmbedsContextVerbatim(t *testing.T) {
	c := newTestComposer(t)
	cfg := entity.DefaultGenerationConfig()
	cfg.SourceText = catalog.DemoData
	cfg.GradeLevel = "Khối 8 (Mức TC2)"
	cfg.SubjectName = "Khoa học tự nhiên"
	cfg.TextbookSeries = "Chân trời sáng tạo"
	cfg.AppendixKind = entity.AppendixKindI

	p, err := c.Compose(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	for _, want := range []string{
		catalog.DemoData,
		"- Môn: Khoa học tự nhiên",
		"- Khối: Khối 8 (Mức TC2)",
		"- Bộ sách: Chân trời sáng tạo",
		"- Phụ lục đích: PHU_LUC_I",
		"[NLa], [NLb], [NLc], hoặc [NLd]",
	} {
		if !strings.Contains(p.User, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
	for _, want := range []string{
		"[1.1.TC2a]",
		"[x.x.TC2[a/b/c]]",
		"[KNS[x]]",
		"[NL6a]",
		`border="1"`,
		"Times New Roman",
		"Bộ sách: Chân trời sáng tạo",
		"Yêu cầu cần đạt",
	} {
		if !strings.Contains(p.System, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if strings.Contains(p.System, "TC1") {
		t.Error("grade 8 must not produce TC1 tags")
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	c := newTestComposer(t)
	cfg := entity.DefaultGenerationConfig()
	cfg.SourceText = "x"
	a, err := c.Compose(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.SelectedIntegrationKeys = []string{"NLS"}
	b, err := c.Compose(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("same config produced different prompts")
	}
	if len(a.Messages()) != 2 {
		t.Fatal("expected system and user messages")
	}
}
