package ui

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// highlighterCache caches highlighters by language tag to avoid repeated lexer lookups
var (
	highlighterCache   = make(map[string]*Highlighter)
	highlighterCacheMu sync.RWMutex
)

// Highlighter handles syntax highlighting for fenced code blocks
type Highlighter struct {
	lexer chroma.Lexer
	style *chroma.Style
}

// NewHighlighter creates a highlighter for the given fence language tag.
// Returns nil if the language is not recognized.
func NewHighlighter(language string) *Highlighter {
	if language == "" {
		return nil
	}

	// Check cache first (fast path with read lock)
	highlighterCacheMu.RLock()
	if h, ok := highlighterCache[language]; ok {
		highlighterCacheMu.RUnlock()
		return h
	}
	highlighterCacheMu.RUnlock()

	lexer := lexers.Get(language)
	if lexer == nil {
		// Cache nil result too to avoid repeated lookups
		highlighterCacheMu.Lock()
		highlighterCache[language] = nil
		highlighterCacheMu.Unlock()
		return nil
	}
	lexer = chroma.Coalesce(lexer)

	// Use monokai theme - good contrast on dark backgrounds
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	h := &Highlighter{
		lexer: lexer,
		style: style,
	}

	highlighterCacheMu.Lock()
	highlighterCache[language] = h
	highlighterCacheMu.Unlock()

	return h
}

// HighlightLine applies syntax highlighting to a single line of code.
func (h *Highlighter) HighlightLine(line string) string {
	if h == nil {
		return line
	}

	iterator, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var buf strings.Builder
	formatter := &noBgFormatter{style: h.style}
	err = formatter.Format(&buf, iterator)
	if err != nil {
		return line
	}

	return buf.String()
}

// HighlightCodeBlocks highlights fenced code blocks in raw text, leaving
// prose untouched. Fence markers are dimmed so the block boundaries stay
// visible without competing with the code.
func HighlightCodeBlocks(text string) string {
	lines := strings.Split(text, "\n")
	fenceStyle := lipgloss.NewStyle().Foreground(Grey)

	var (
		out         []string
		inBlock     bool
		highlighter *Highlighter
	)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				inBlock = false
				highlighter = nil
			} else {
				inBlock = true
				lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
				highlighter = NewHighlighter(lang)
			}
			out = append(out, fenceStyle.Render(line))
			continue
		}

		if inBlock {
			out = append(out, highlighter.HighlightLine(line))
			continue
		}
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

// noBgFormatter is a Chroma formatter that applies only foreground colors.
// The usual terminal formatters paint the theme background behind every
// token, which looks wrong against the transcript.
type noBgFormatter struct {
	style *chroma.Style
}

func (f *noBgFormatter) Format(w io.Writer, iterator chroma.Iterator) error {
	for token := iterator(); token != chroma.EOF; token = iterator() {
		value := strings.TrimRight(token.Value, "\n")
		if value == "" {
			continue
		}

		entry := f.style.Get(token.Type)

		var codes []string

		if entry.Colour.IsSet() {
			codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", entry.Colour.Red(), entry.Colour.Green(), entry.Colour.Blue()))
		}
		if entry.Bold == chroma.Yes {
			codes = append(codes, "1")
		}
		if entry.Italic == chroma.Yes {
			codes = append(codes, "3")
		}
		if entry.Underline == chroma.Yes {
			codes = append(codes, "4")
		}

		if len(codes) > 0 {
			fmt.Fprintf(w, "\x1b[%sm%s\x1b[0m", strings.Join(codes, ";"), value)
		} else {
			fmt.Fprint(w, value)
		}
	}
	return nil
}

// ANSI escape code pattern for stripping/measuring
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes all ANSI escape codes from a string
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
