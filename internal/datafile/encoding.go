package datafile

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names the character set of an export.
type Encoding string

const (
	UTF8        Encoding = "utf-8"
	Windows1252 Encoding = "windows-1252"
)

// ParseEncoding accepts the spellings used in configuration files.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "windows-1252", "cp1252", "latin1":
		return Windows1252, nil
	}
	return "", fmt.Errorf("unsupported encoding %q", name)
}

// Decode converts raw file content into lines without terminators. It
// reports the line terminator of the first line so it can be reproduced.
func Decode(raw []byte, enc Encoding) ([]string, string, error) {
	if enc == Windows1252 {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, "", fmt.Errorf("decode %s: %w", enc, err)
		}
		raw = decoded
	}
	newline := "\n"
	if i := bytes.IndexByte(raw, '\n'); i > 0 && raw[i-1] == '\r' {
		newline = "\r\n"
	}
	text := strings.TrimSuffix(string(raw), "\n")
	if text == "" {
		return nil, newline, nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, newline, nil
}

// Encode joins lines with newline, terminating the last one as well.
func Encode(lines []string, newline string, enc Encoding) ([]byte, error) {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteString(newline)
	}
	if enc != Windows1252 {
		return buf.Bytes(), nil
	}
	out, err := charmap.Windows1252.NewEncoder().Bytes(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", enc, err)
	}
	return out, nil
}
