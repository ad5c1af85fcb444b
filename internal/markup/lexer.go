package markup

import (
	"regexp"
	"strings"
)

type tokenKind int

const (
	textToken tokenKind = iota
	openToken
	closeToken
)

// token is one lexical unit of a BBCode body. For text tokens raw holds the
// text itself; for tags it holds the bracketed source.
type token struct {
	kind  tokenKind
	name  string
	arg   string
	attrs map[string]string
	raw   string
}

func (t token) attr(key string) string {
	if t.attrs == nil {
		return ""
	}
	return t.attrs[key]
}

// bare reports whether the tag carries neither an argument nor attributes.
func (t token) bare() bool {
	return t.arg == "" && len(t.attrs) == 0
}

var (
	tagNamePattern = regexp.MustCompile(`^(/?)([a-zA-Z][a-zA-Z0-9]*|\*)`)
	tagAttrPattern = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_-]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"']+))`)
)

// literalTags keep their content verbatim up to the matching closing tag.
var literalTags = map[string]bool{
	"noparse": true,
	"code":    true,
}

func tokenize(s string) []token {
	var (
		tokens []token
		text   strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			tokens = append(tokens, token{kind: textToken, raw: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(s); {
		if s[i] != '[' {
			j := strings.IndexByte(s[i:], '[')
			if j < 0 {
				text.WriteString(s[i:])
				break
			}
			text.WriteString(s[i : i+j])
			i += j
			continue
		}

		end := strings.IndexByte(s[i+1:], ']')
		if end < 0 {
			text.WriteString(s[i:])
			break
		}
		raw := s[i : i+end+2]
		tok, ok := parseTag(s[i+1 : i+end+1])
		if !ok {
			text.WriteByte('[')
			i++
			continue
		}
		tok.raw = raw
		flush()
		tokens = append(tokens, tok)
		i += len(raw)

		if tok.kind == openToken && literalTags[tok.name] {
			closing := "[/" + tok.name + "]"
			k := indexFold(s[i:], closing)
			if k < 0 {
				text.WriteString(s[i:])
				break
			}
			text.WriteString(s[i : i+k])
			flush()
			tokens = append(tokens, token{kind: closeToken, name: tok.name, raw: s[i+k : i+k+len(closing)]})
			i += k + len(closing)
		}
	}
	flush()

	return tokens
}

func parseTag(inner string) (token, bool) {
	m := tagNamePattern.FindStringSubmatch(inner)
	if m == nil {
		return token{}, false
	}

	tok := token{kind: openToken, name: strings.ToLower(m[2])}
	if m[1] == "/" {
		tok.kind = closeToken
	}

	rest := inner[len(m[0]):]
	switch {
	case rest == "":
	case tok.kind == closeToken:
		return token{}, false
	case rest[0] == '=':
		tok.arg = unquote(strings.TrimSpace(rest[1:]))
	case rest[0] == ' ':
		attrs, ok := parseAttrs(rest)
		if !ok {
			return token{}, false
		}
		tok.attrs = attrs
	default:
		return token{}, false
	}

	return tok, true
}

func parseAttrs(s string) (map[string]string, bool) {
	if strings.TrimSpace(tagAttrPattern.ReplaceAllString(s, "")) != "" {
		return nil, false
	}

	attrs := make(map[string]string)
	for _, m := range tagAttrPattern.FindAllStringSubmatch(s, -1) {
		attrs[strings.ToLower(m[1])] = m[2] + m[3] + m[4]
	}
	return attrs, len(attrs) > 0
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// indexFold is a case-insensitive strings.Index for an ASCII needle.
func indexFold(s, sub string) int {
	for k := 0; k+len(sub) <= len(s); k++ {
		if strings.EqualFold(s[k:k+len(sub)], sub) {
			return k
		}
	}
	return -1
}
