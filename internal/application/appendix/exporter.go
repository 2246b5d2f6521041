package appendix

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"appendix-ai-api/internal/domain/entity"
)

// WordContentType Word 以 HTML 方式打开的 MIME 类型
const WordContentType = "application/msword"

const (
	wordBOM    = "\ufeff"
	wordHeader = "<html xmlns:o='urn:schemas-microsoft-com:office:office' " +
		"xmlns:w='urn:schemas-microsoft-com:office:word' " +
		"xmlns='http://www.w3.org/TR/REC-html40'>" +
		"<head><meta charset='utf-8'><title>Appendix Export</title><style>"
	wordCSS = "body { font-family: \"Times New Roman\", serif; font-size: 11pt; line-height: 1.25; padding: 2cm; }" +
		"table { border-collapse: collapse; width: 100%; border: 1px solid black; margin-bottom: 20px; }" +
		"th, td { border: 1px solid black; padding: 8px; vertical-align: top; }" +
		"th { background-color: #f1f5f9; font-weight: bold; text-align: center; font-size: 10pt; }" +
		"h1, h2, h3 { text-align: center; text-transform: uppercase; font-weight: bold; }"
	wordBodyOpen = "</style></head><body>"
	wordFooter   = "</body></html>"
)

// Export 待下载的 Word 文件
type Export struct {
	FileName    string
	ContentType string
	Body        []byte
}

// ExportWord 包装为 Word 可打开的 HTML 文档
// rendered 非空时优先使用（预览中已排版的标记），否则使用原始生成结果
func ExportWord(rendered entity.RenderedMarkup, fallback entity.TrustedHTML, kind entity.AppendixKind, grade string) Export {
	content := string(rendered)
	if content == "" {
		content = string(fallback)
	}

	var b strings.Builder
	b.Grow(len(wordBOM) + len(wordHeader) + len(wordCSS) + len(wordBodyOpen) + len(content) + len(wordFooter))
	b.WriteString(wordBOM)
	b.WriteString(wordHeader)
	b.WriteString(wordCSS)
	b.WriteString(wordBodyOpen)
	b.WriteString(content)
	b.WriteString(wordFooter)

	return Export{
		FileName:    entity.ExportFileName(kind, grade),
		ContentType: WordContentType,
		Body:        []byte(b.String()),
	}
}

// BodyMarkup 解析 HTML 文档并返回 body 的内部标记
// 不含 html/body 元素的片段按原样解析后返回
func BodyMarkup(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(strings.TrimPrefix(doc, wordBOM)))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	body := findElement(root, atom.Body)
	if body == nil {
		return "", errors.New("html has no body")
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}

// NormalizeRendered 客户端回传的已渲染标记若是完整页面，只保留 body 部分
func NormalizeRendered(rendered string) (entity.RenderedMarkup, error) {
	trimmed := strings.TrimSpace(rendered)
	if trimmed == "" {
		return "", nil
	}
	lower := strings.ToLower(trimmed)
	if !strings.Contains(lower, "<body") && !strings.HasPrefix(lower, "<html") && !strings.HasPrefix(lower, "<!doctype") {
		return entity.RenderedMarkup(trimmed), nil
	}
	body, err := BodyMarkup(trimmed)
	if err != nil {
		return "", err
	}
	return entity.RenderedMarkup(strings.TrimSpace(body)), nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
