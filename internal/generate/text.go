package generate

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PlainText strips markup and entities from generated text, keeping line
// breaks from <br> and block elements. Text without markup is only trimmed.
// A '<' that does not open a known HTML tag is kept as text.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(escapeStrayAngles(s)))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tidyLines(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				skip++
			case atom.Br:
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			case atom.P, atom.Div, atom.Li, atom.H1, atom.H2, atom.H3:
				b.WriteByte('\n')
			}
		}
	}
}

func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// escapeStrayAngles rewrites every '<' that does not start a known tag or a
// comment as "&lt;", so the tokenizer returns it as text
func escapeStrayAngles(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '<' && !opensMarkup(s[i:]) {
			b.WriteString("&lt;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// opensMarkup reports whether t, which starts with '<', begins a comment or a
// start/end tag of a known element that is closed by '>' before the next '<'
func opensMarkup(t string) bool {
	if strings.HasPrefix(t, "<!--") {
		return strings.Contains(t, "-->")
	}
	j := 1
	if j < len(t) && t[j] == '/' {
		j++
	}
	start := j
	for j < len(t) && isNameByte(t[j]) {
		j++
	}
	if j == start || j == len(t) {
		return false
	}
	if atom.Lookup([]byte(strings.ToLower(t[start:j]))) == 0 {
		return false
	}
	switch t[j] {
	case '>', '/', ' ', '\t', '\n', '\r', '\f':
	default:
		return false
	}
	end := strings.IndexAny(t[j:], "<>")
	return end >= 0 && t[j+end] == '>'
}

func isNameByte(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}
