package extraction

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageSource 按页提供文本片段，页码从 1 开始
type pageSource interface {
	NumPage() int
	PageItems(i int) []string
}

// joinPages 依次输出每页：片段以单个空格连接，页尾追加换行
func joinPages(src pageSource) string {
	var b strings.Builder
	for i := 1; i <= src.NumPage(); i++ {
		b.WriteString(strings.Join(src.PageItems(i), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

type pdfPages struct {
	r     *pdf.Reader
	fonts map[string]*pdf.Font
}

func newPDFPages(r *pdf.Reader) pdfPages {
	return pdfPages{r: r, fonts: make(map[string]*pdf.Font)}
}

func (p pdfPages) NumPage() int { return p.r.NumPage() }

// PageItems 以文本行为单位返回片段
// Content().Text 逐字形返回；GetPlainText 在每个 BT 与 T* 处输出 \n，按行切分即为片段
func (p pdfPages) PageItems(i int) []string {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return nil
	}
	for _, name := range page.Fonts() {
		if _, ok := p.fonts[name]; !ok {
			f := page.Font(name)
			p.fonts[name] = &f
		}
	}
	text, err := page.GetPlainText(p.fonts)
	if err != nil {
		return nil
	}
	return splitRuns(text)
}

func splitRuns(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		items = append(items, line)
	}
	return items
}

func extractPDF(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	return joinPages(newPDFPages(reader)), nil
}
