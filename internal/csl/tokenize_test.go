package csl

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		separators string
		maxTokens  int
		want       []string
	}{
		{
			name:       "collapses separator runs",
			line:       "  LIVERY \tA320  DLH\tD-AIPA ",
			separators: lineSeparators,
			want:       []string{"LIVERY", "A320", "DLH", "D-AIPA"},
		},
		{
			name:       "empty line",
			line:       "",
			separators: lineSeparators,
			want:       nil,
		},
		{
			name:       "only separators",
			line:       " \t \r\n",
			separators: lineSeparators,
			want:       nil,
		},
		{
			name:       "max tokens keeps remainder verbatim",
			line:       "OBJ8 SOLID YES pkg/body.obj tex.png",
			separators: lineSeparators,
			maxTokens:  4,
			want:       []string{"OBJ8", "SOLID", "YES", "pkg/body.obj tex.png"},
		},
		{
			name:       "max tokens above token count",
			line:       "OBJ8 SOLID YES pkg/body.obj",
			separators: lineSeparators,
			maxTokens:  8,
			want:       []string{"OBJ8", "SOLID", "YES", "pkg/body.obj"},
		},
		{
			name:       "max tokens of one returns trimmed-left line",
			line:       "   a b  c",
			separators: lineSeparators,
			maxTokens:  1,
			want:       []string{"a b  c"},
		},
		{
			name:       "custom separators",
			line:       "pkg/planes//a320.obj",
			separators: "/",
			want:       []string{"pkg", "planes", "a320.obj"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.line, tt.separators, tt.maxTokens))
		})
	}
}

func TestScanLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "unix",
			input: "a\nb\n",
			want:  []string{"a", "b"},
		},
		{
			name:  "windows",
			input: "a\r\nb\r\n",
			want:  []string{"a", "b"},
		},
		{
			name:  "reversed pair",
			input: "a\n\rb\n\r",
			want:  []string{"a", "b"},
		},
		{
			name:  "classic mac",
			input: "a\rb",
			want:  []string{"a", "b"},
		},
		{
			name:  "blank lines are preserved",
			input: "a\r\n\r\nb",
			want:  []string{"a", "", "b"},
		},
		{
			name:  "no trailing terminator",
			input: "only",
			want:  []string{"only"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A one-byte reader forces the split function to see every
			// terminator at the edge of its buffer.
			sc := NewLineScanner(iotest.OneByteReader(strings.NewReader(tt.input)))
			var got []string
			for sc.Scan() {
				got = append(got, sc.Text())
			}
			require.NoError(t, sc.Err())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLines(t *testing.T) {
	input := "# comment\r\n" +
		"EXPORT_NAME Test\r\n" +
		"\r\n" +
		"   \t \r\n" +
		"  ICAO A320  \r\n" +
		"   # indented comment\r\n" +
		"LIVERY A320 DLH D-AIPA"

	lines, err := Lines(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{Num: 2, Text: "EXPORT_NAME Test"},
		{Num: 5, Text: "ICAO A320"},
		{Num: 7, Text: "LIVERY A320 DLH D-AIPA"},
	}, lines)
}

func TestLookupCommand(t *testing.T) {
	for c := Command(0); c < commandCount; c++ {
		got, ok := LookupCommand(c.String())
		require.True(t, ok, c.String())
		assert.Equal(t, c, got)
	}

	_, ok := LookupCommand("icao")
	assert.False(t, ok, "keywords are case-sensitive")
	_, ok = LookupCommand("FOO")
	assert.False(t, ok)
}
