// Package markup converts Steam announcement bodies (BBCode, occasionally
// HTML) into compact plain text suitable for chat messages.
package markup

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Result is a normalized article body.
type Result struct {
	Text string
	// Images holds image candidates in document order, animated ones only
	// when nothing else is available.
	Images []string
}

// Image returns the preferred image candidate or "".
func (r Result) Image() string {
	if len(r.Images) == 0 {
		return ""
	}
	return r.Images[0]
}

// Normalize renders raw markup into plain text. It is deterministic and
// idempotent on its own output.
func Normalize(raw string) Result {
	src := decodeEntities(raw)
	if looksLikeHTML(src) {
		src = flattenHTML(src)
	}
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")

	lines, images := render(tokenize(src))
	lines = cleanLines(lines)
	lines = dedupeLinks(lines)
	lines = promoteTagHeaders(lines)
	lines = stripTags(lines)
	lines = markHeaders(lines)
	lines = collapseBlank(lines)

	return Result{
		Text:   strings.Join(lines, "\n"),
		Images: selectImages(images),
	}
}

var (
	numberedPrefix = regexp.MustCompile(`^\d+\.\s+`)
	urlPattern     = regexp.MustCompile(`https?://[^\s\[\]<>"']+`)
)

const (
	continuationMark = '⤷'
	ruleRunes        = "=-_~*"
)

func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if line, ok := cleanLine(line); ok {
			out = append(out, line)
		}
	}

	return out
}

// cleanLine tidies one rendered line. It reports false for lines that must
// disappear; rules and empty lines become "".
func cleanLine(line string) (string, bool) {
	if strings.ContainsRune(line, continuationMark) {
		return "", false
	}

	line = strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if isDecoration(r) {
			return -1
		}
		return r
	}, line)

	indent, body := splitIndent(line)
	body = strings.Join(strings.Fields(body), " ")
	if body == "" || isRule(body) {
		return "", true
	}

	body = toBullet(unwrapHashes(body))
	if body == "" || isBareBullet(body) {
		return "", false
	}
	if !isBullet(body) {
		indent = ""
	}
	return indent + body, true
}

// stripTags removes bracketed tags left in the text. Lines emptied by the
// removal are dropped.
func stripTags(lines []string) []string {
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		keep := true
		for keep {
			stripped, changed := removeTags(line)
			if !changed {
				break
			}
			line, keep = cleanLine(stripped)
			if line == "" {
				keep = false
			}
		}
		if keep {
			out = append(out, line)
		}
	}

	return out
}

func removeTags(s string) (string, bool) {
	if !strings.Contains(s, "[") {
		return s, false
	}

	var (
		b       strings.Builder
		changed bool
	)
	for _, tok := range tokenize(s) {
		if tok.kind == textToken {
			b.WriteString(tok.raw)
			continue
		}
		changed = true
	}
	if !changed {
		return s, false
	}
	return b.String(), true
}

func isDecoration(r rune) bool {
	switch r {
	case '▼', '▲', '►', '◄', '▶', '◀', '➤', '➔', '➜', '➡':
		return true
	}
	return (r >= 0x2500 && r <= 0x257F) || (r >= 0x2190 && r <= 0x21FF) || (r >= 0x2900 && r <= 0x297F)
}

func splitIndent(line string) (string, string) {
	body := strings.TrimLeft(line, " ")
	return line[:len(line)-len(body)], body
}

func isRule(s string) bool {
	if utf8.RuneCountInString(s) < 3 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(ruleRunes, r) {
			return false
		}
	}
	return true
}

func unwrapHashes(s string) string {
	if !strings.HasPrefix(s, "#") {
		return s
	}
	inner := strings.TrimLeft(s, "#")
	if !strings.HasSuffix(s, "#") && !strings.HasPrefix(inner, " ") {
		return s
	}
	return strings.TrimSpace(strings.TrimRight(inner, "#"))
}

func toBullet(s string) string {
	for _, glyph := range []string{"・", "•"} {
		if strings.HasPrefix(s, glyph) {
			return strings.TrimSpace(primaryBullet + strings.TrimSpace(strings.TrimPrefix(s, glyph)))
		}
	}
	if loc := numberedPrefix.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(primaryBullet + s[loc[1]:])
	}
	return s
}

func isBullet(s string) bool {
	s = strings.TrimLeft(s, " ")
	return strings.HasPrefix(s, primaryBullet) || strings.HasPrefix(s, secondaryBullet)
}

func isBareBullet(s string) bool {
	s = strings.TrimSpace(s)
	return s == strings.TrimSpace(primaryBullet) || s == strings.TrimSpace(secondaryBullet)
}

func isBold(s string) bool {
	return len(s) > 4 && strings.HasPrefix(s, "**") && strings.HasSuffix(s, "**")
}

// dedupeLinks keeps the first occurrence of every URL and removes later
// ones together with their "label: " joint. Lines left empty are dropped.
func dedupeLinks(lines []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		locs := urlPattern.FindAllStringIndex(line, -1)
		if len(locs) == 0 {
			out = append(out, line)
			continue
		}

		var (
			b       strings.Builder
			last    int
			removed bool
		)
		for _, loc := range locs {
			u := strings.TrimRight(line[loc[0]:loc[1]], ".,;:!?)")
			if !seen[u] {
				seen[u] = true
				continue
			}
			b.WriteString(strings.TrimSuffix(line[last:loc[0]], ": "))
			last = loc[0] + len(u)
			removed = true
		}
		if !removed {
			out = append(out, line)
			continue
		}
		b.WriteString(line[last:])

		indent, body := splitIndent(b.String())
		body = strings.Join(strings.Fields(body), " ")
		if strings.TrimFunc(body, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSpace(r) }) == "" {
			continue
		}
		if !isBullet(body) {
			indent = ""
		}
		out = append(out, indent+body)
	}

	return out
}

// promoteTagHeaders bolds a line made of a single bracketed word group
// when it introduces a bullet list, before leftover tags are stripped.
func promoteTagHeaders(lines []string) []string {
	for i := 0; i+1 < len(lines); i++ {
		line := lines[i]
		if !isBullet(lines[i+1]) || !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			continue
		}
		if inner := strings.TrimSpace(line[1 : len(line)-1]); inner != "" && !strings.ContainsAny(inner, "[]") {
			lines[i] = "**" + inner + "**"
		}
	}
	return lines
}

// markHeaders bolds a plain line that directly introduces a bullet list.
func markHeaders(lines []string) []string {
	for i := 0; i+1 < len(lines); i++ {
		line := lines[i]
		if line == "" || isBullet(line) || isBold(line) || !isBullet(lines[i+1]) {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			line = strings.TrimSpace(line[1 : len(line)-1])
		}
		if line != "" {
			lines[i] = "**" + line + "**"
		}
	}
	return lines
}

func collapseBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
