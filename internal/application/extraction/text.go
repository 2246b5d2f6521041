package extraction

import (
	"bytes"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText 按 UTF-8 解码，非法序列替换为 U+FFFD，去掉 BOM
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "\uFFFD")
}
