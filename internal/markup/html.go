package markup

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var htmlTagPattern = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*(?:\s[^<>]*)?/?>`)

func looksLikeHTML(s string) bool {
	return htmlTagPattern.MatchString(s)
}

// decodeEntities unescapes s until no entity is left, so that multiply
// encoded bodies settle in one pass.
func decodeEntities(s string) string {
	for {
		decoded := html.UnescapeString(s)
		if decoded == s {
			return s
		}
		s = decoded
	}
}

// flattenHTML rewrites the structural HTML elements of a body into their
// BBCode counterparts and drops the rest, keeping BBCode already present in
// text nodes untouched.
func flattenHTML(raw string) string {
	var (
		b    strings.Builder
		skip int
	)
	z := html.NewTokenizer(strings.NewReader(raw))

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return b.String()
		}
		tok := z.Token()

		switch tt {
		case html.TextToken:
			if skip == 0 {
				b.WriteString(tok.Data)
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			if tok.Data == "script" || tok.Data == "style" {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if skip == 0 {
				b.WriteString(openTag(tok))
			}
		case html.EndTagToken:
			if tok.Data == "script" || tok.Data == "style" {
				if skip > 0 {
					skip--
				}
				continue
			}
			if skip == 0 {
				b.WriteString(closeTag(tok.Data))
			}
		}
	}
}

func openTag(tok html.Token) string {
	switch tok.Data {
	case "ul", "ol":
		return "[list]"
	case "li":
		return "[*]"
	case "a":
		if href := attrValue(tok, "href"); href != "" {
			return "[url=" + href + "]"
		}
	case "img":
		if src := attrValue(tok, "src"); src != "" {
			return "[img]" + src + "[/img]"
		}
	case "h1", "h2", "h3", "h4", "h5", "h6", "p", "tr", "hr":
		return "[" + tok.Data + "]"
	case "td", "th":
		return "[td]"
	case "blockquote":
		return "[quote]"
	case "br", "div":
		return "\n"
	}
	return ""
}

func closeTag(name string) string {
	switch name {
	case "ul", "ol":
		return "[/list]"
	case "a":
		return "[/url]"
	case "h1", "h2", "h3", "h4", "h5", "h6", "p", "tr":
		return "[/" + name + "]"
	case "td", "th":
		return "[/td]"
	case "blockquote":
		return "[/quote]"
	case "div":
		return "\n"
	}
	return ""
}

func attrValue(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
