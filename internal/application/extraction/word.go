package extraction

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// wordNS WordprocessingML 主命名空间
const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// extractWord 打开 Word 包并把 document.xml 还原为纯文本
func extractWord(r io.ReaderAt, size int64) (string, error) {
	doc, err := docx.ReadDocxFromMemory(r, size)
	if err != nil {
		return "", fmt.Errorf("open word package: %w", err)
	}
	defer doc.Close()

	return wordText(doc.Editable().GetContent())
}

// wordText 遍历正文 XML：每个段落输出其文本并以空行结尾
// w:tab 输出制表符，w:br/w:cr 输出换行
func wordText(body string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(body))
	var (
		out     strings.Builder
		para    strings.Builder
		inText  bool
		inPara  int
		sawBody bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "body":
				sawBody = true
			case "p":
				if inPara == 0 {
					para.Reset()
				}
				inPara++
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				inPara--
				if inPara == 0 {
					out.WriteString(para.String())
					out.WriteString("\n\n")
				}
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	if !sawBody {
		return "", errors.New("document xml has no body")
	}
	return out.String(), nil
}
