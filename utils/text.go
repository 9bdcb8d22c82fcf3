package utils

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

/*
CharsetReader
used as xml.Decoder.CharsetReader: exchange sites still publish some
documents declared as GBK/GB2312/GB18030
*/
func CharsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return input, nil
	case "gbk", "gb2312", "cp936":
		return transform.NewReader(input, simplifiedchinese.GBK.NewDecoder()), nil
	case "gb18030":
		return transform.NewReader(input, simplifiedchinese.GB18030.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported charset: %s", charset)
	}
}

// TrimBOM removes a leading UTF-8 byte order mark.
func TrimBOM(text string) string {
	return strings.TrimPrefix(text, "\ufeff")
}
