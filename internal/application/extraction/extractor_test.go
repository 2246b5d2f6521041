package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	apperrors "appendix-ai-api/pkg/errors"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>HỌC KỲ I - LỚP 8</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Bài: Tim và </w:t></w:r><w:r><w:t>hệ mạch</w:t></w:r></w:p>
<w:p><w:r><w:t>A</w:t><w:tab/><w:t>B</w:t><w:br/><w:t>C</w:t></w:r></w:p>
<w:sectPr/>
</w:body>
</w:document>`

func buildDocx(t *testing.T, document string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml":            document,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`,
	}
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFormatOf(t *testing.T) {
	cases := map[string]Format{
		"giao_an.DOCX": FormatWord,
		"old.doc":      FormatWord,
		"plan.Pdf":     FormatPDF,
		"notes.txt":    FormatText,
		"noext":        FormatText,
		"pdf.docx.md":  FormatText,
	}
	for name, want := range cases {
		if got := FormatOf(name); got != want {
			t.Errorf("FormatOf(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestExtractWord(t *testing.T) {
	svc := NewService(0, nil)
	text, err := svc.Extract(context.Background(), "giao_an.docx", bytes.NewReader(buildDocx(t, documentXML)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "HỌC KỲ I - LỚP 8\n\nBài: Tim và hệ mạch\n\nA\tB\nC\n\n"
	if text != want {
		t.Fatalf("text = %q, want %q", text, want)
	}
}

func TestExtractTextDecodesUTF8(t *testing.T) {
	svc := NewService(0, nil)
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Bài 1\xff")...)
	text, err := svc.Extract(context.Background(), "notes.txt", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "Bài 1\uFFFD" {
		t.Fatalf("text = %q", text)
	}
}

func TestExtractFailuresCollapseToOneError(t *testing.T) {
	svc := NewService(0, nil)
	cases := []struct {
		name string
		data []byte
	}{
		{"broken.docx", []byte("definitely not a zip")},
		{"legacy.doc", []byte{0xD0, 0xCF, 0x11, 0xE0}},
		{"broken.pdf", []byte("%PDF-1.4 garbage")},
		{"nobody.docx", buildDocx(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Extract(context.Background(), tc.name, bytes.NewReader(tc.data))
			appErr := apperrors.AsAppError(err)
			if appErr.Code != apperrors.CodeExtractionFailed {
				t.Fatalf("err = %v", err)
			}
			if appErr.Message != apperrors.MsgExtractionFailed {
				t.Fatalf("message = %q", appErr.Message)
			}
		})
	}
}

func TestExtractRejectsOversizedUpload(t *testing.T) {
	svc := NewService(4, nil)
	_, err := svc.Extract(context.Background(), "a.txt", strings.NewReader("12345"))
	if !apperrors.HasCode(err, apperrors.CodeUploadTooLarge) {
		t.Fatalf("err = %v", err)
	}
	text, err := svc.Extract(context.Background(), "a.txt", strings.NewReader("1234"))
	if err != nil || text != "1234" {
		t.Fatalf("text = %q, err = %v", text, err)
	}
}

type fakePages [][]string

func (f fakePages) NumPage() int             { return len(f) }
func (f fakePages) PageItems(i int) []string { return f[i-1] }

func TestJoinPages(t *testing.T) {
	cases := []struct {
		name  string
		pages fakePages
		want  string
	}{
		{"one item per page", fakePages{{"A"}, {"B"}}, "A\nB\n"},
		{"empty trailing item", fakePages{{"A", ""}}, "A \n"},
		{"items joined by space", fakePages{{"Bài", "1:", "Máu"}}, "Bài 1: Máu\n"},
		{"blank page", fakePages{{"A"}, nil, {"C"}}, "A\n\nC\n"},
		{"no pages", fakePages{}, ""},
	}
	for _, tc := range cases {
		if got := joinPages(tc.pages); got != tc.want {
			t.Errorf("%s: joinPages = %q, want %q", tc.name, got, tc.want)
		}
	}
}

// buildPDF 生成每页一个内容流的最小 PDF，交叉引用偏移按实际写入位置计算
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	n := len(pages)
	fontID := 3 + 2*n
	var objs []string
	kids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
	)
	for i, content := range pages {
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontID, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objs = append(objs, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestExtractPDFKeepsWordsTogether(t *testing.T) {
	data := buildPDF(t,
		"BT /F1 12 Tf 72 720 Td (Hello World) Tj ET",
		"BT /F1 12 Tf 72 720 Td (Bai hoc) Tj ET",
	)
	text, err := parse(FormatPDF, data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if text != "Hello World\nBai hoc\n" {
		t.Fatalf("text = %q", text)
	}
}

func TestExtractPDFJoinsLinesOnPage(t *testing.T) {
	data := buildPDF(t,
		"BT /F1 12 Tf 14 TL 72 720 Td (Bai 1) Tj T* (Mau va tim) Tj ET BT /F1 12 Tf 72 600 Td (Muc tieu) Tj ET",
		"BT ET",
		"BT /F1 12 Tf 72 720 Td [(Cau h) 120 (oi)] TJ ET",
	)
	text, err := NewService(0, nil).Extract(context.Background(), "giao_an.pdf", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "Bai 1 Mau va tim Muc tieu\n\nCau hoi\n"
	if text != want {
		t.Fatalf("text = %q, want %q", text, want)
	}
}

func TestParseRecoversFromMalformedPDF(t *testing.T) {
	for _, data := range [][]byte{[]byte("not a pdf"), []byte("%PDF-1.7\n1 0 obj << /Type /Pages /Kids [2 0 R] >>\ntrailer << /Root 1 0 R >>")} {
		if _, err := parse(FormatPDF, data); err == nil {
			t.Errorf("expected error for %q", data)
		}
	}
}

type memoryCache struct {
	data  map[string]string
	loads int
}

func (m *memoryCache) GetOrLoad(ctx context.Context, key string, load func(context.Context) (string, error)) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	m.loads++
	v, err := load(ctx)
	if err != nil {
		return "", err
	}
	m.data[key] = v
	return v, nil
}

func TestExtractUsesCacheByContent(t *testing.T) {
	cache := &memoryCache{data: map[string]string{}}
	svc := NewService(0, cache)
	for i := 0; i < 3; i++ {
		text, err := svc.Extract(context.Background(), "a.txt", strings.NewReader("same body"))
		if err != nil || text != "same body" {
			t.Fatalf("text = %q, err = %v", text, err)
		}
	}
	if cache.loads != 1 {
		t.Fatalf("loads = %d, want 1", cache.loads)
	}
	if _, err := svc.Extract(context.Background(), "b.txt", strings.NewReader("other")); err != nil {
		t.Fatal(err)
	}
	if cache.loads != 2 {
		t.Fatalf("loads = %d, want 2", cache.loads)
	}
}

func TestExtractHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService(0, nil).Extract(ctx, "a.txt", strings.NewReader("x"))
	if !apperrors.HasCode(err, apperrors.CodeExtractionFailed) {
		t.Fatalf("err = %v", err)
	}
}
