package csl

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// maxLineLength bounds a single declaration or reference line.
const maxLineLength = 1 << 20

// ScanLines is a bufio.SplitFunc that treats "\r\n", "\n\r", "\n" and "\r"
// each as one line terminator. Terminators are not part of the token.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if i+1 < len(data) {
			next := data[i+1]
			if (data[i] == '\r' && next == '\n') || (data[i] == '\n' && next == '\r') {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		// A lone trailing terminator may still pair with the next byte.
		if !atEOF {
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// NewLineScanner returns a scanner over r that yields raw lines using
// ScanLines. Scanning the same text again requires a new scanner.
func NewLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineLength)
	sc.Split(ScanLines)
	return sc
}

// Line is a trimmed, non-blank, non-comment line ready for dispatch.
type Line struct {
	Num  int // 1-based line number in the source text
	Text string
}

// Lines reads every dispatchable line from r. Lines are trimmed of
// surrounding whitespace; blank lines and lines starting with '#' are
// skipped but still counted.
func Lines(r io.Reader) ([]Line, error) {
	sc := NewLineScanner(r)
	var (
		lines []Line
		num   int
	)
	for sc.Scan() {
		num++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		lines = append(lines, Line{Num: num, Text: text})
	}
	return lines, sc.Err()
}
