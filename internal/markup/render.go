package markup

import "strings"

const (
	primaryBullet   = "- "
	secondaryBullet = "◦ "

	clanImageMacro = "{STEAM_CLAN_IMAGE}"
	clanImageRoot  = "https://clan.akamai.steamstatic.com/images"
)

// capturedTags are rendered from their complete content once closed.
var capturedTags = map[string]bool{
	"url":            true,
	"dynamiclink":    true,
	"img":            true,
	"previewyoutube": true,
	"video":          true,
	"youtube":        true,
}

// blockTags start and end on their own line.
var blockTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"quote": true, "code": true, "table": true, "tr": true, "hr": true,
}

// inlineTags are dropped without affecting layout.
var inlineTags = map[string]bool{
	"b": true, "i": true, "u": true, "s": true, "strike": true, "spoiler": true,
	"noparse": true, "color": true, "size": true, "font": true, "align": true,
	"center": true, "left": true, "right": true, "justify": true, "sub": true,
	"sup": true, "emoticon": true, "expand": true, "carousel": true,
}

type capture struct {
	open   token
	tokens []token
}

type renderer struct {
	out     lineWriter
	depth   int
	images  []string
	capture *capture
}

// render turns tokens into plain lines and collects image candidates in
// document order.
func render(tokens []token) ([]string, []string) {
	r := &renderer{}

	for _, tok := range tokens {
		if r.capture != nil {
			if tok.kind == closeToken && tok.name == r.capture.open.name {
				r.finish()
				continue
			}
			r.capture.tokens = append(r.capture.tokens, tok)
			continue
		}

		switch tok.kind {
		case textToken:
			r.out.text(tok.raw)
		case openToken:
			r.open(tok)
		case closeToken:
			r.close(tok)
		}
	}
	if r.capture != nil {
		r.finish()
	}

	return r.out.done(), r.images
}

func (r *renderer) open(tok token) {
	switch {
	case capturedTags[tok.name]:
		r.capture = &capture{open: tok}
	case tok.name == "list" || tok.name == "olist":
		r.depth++
		r.out.softBreak()
	case tok.name == "*":
		r.out.bullet(bulletPrefix(r.depth))
	case tok.name == "br":
		r.out.hardBreak()
	case tok.name == "p" || blockTags[tok.name]:
		r.out.softBreak()
	case tok.name == "td" || tok.name == "th":
		r.out.text(" ")
	case inlineTags[tok.name]:
	case tok.bare():
		// Kept until bracketed headers are promoted, then stripped.
		r.out.text(tok.raw)
	}
}

func (r *renderer) close(tok token) {
	switch {
	case tok.name == "list" || tok.name == "olist":
		if r.depth > 0 {
			r.depth--
		}
		r.out.softBreak()
	case tok.name == "p":
		r.out.paragraph()
	case blockTags[tok.name]:
		r.out.softBreak()
	case tok.name == "td" || tok.name == "th":
		r.out.text(" ")
	}
}

func (r *renderer) finish() {
	c := r.capture
	r.capture = nil

	switch c.open.name {
	case "url":
		if containsImage(c.tokens) {
			return
		}
		target := strings.TrimSpace(c.open.arg)
		if target == "" {
			target = strings.TrimSpace(c.open.attr("href"))
		}
		label := plainText(c.tokens)
		if target == "" {
			target, label = label, ""
		}
		r.out.text(linkText(label, target))
	case "dynamiclink":
		href := strings.TrimSpace(c.open.attr("href"))
		if href == "" {
			href = plainText(c.tokens)
		}
		r.out.text(href)
	case "img":
		src := c.open.attr("src")
		if src == "" {
			src = c.open.arg
		}
		if src == "" {
			src = plainText(c.tokens)
		}
		r.addImage(src)
	}
}

func (r *renderer) addImage(src string) {
	src = strings.TrimSpace(strings.ReplaceAll(src, clanImageMacro, clanImageRoot))
	if src != "" {
		r.images = append(r.images, src)
	}
}

func bulletPrefix(depth int) string {
	if depth <= 1 {
		return primaryBullet
	}
	return strings.Repeat("  ", depth-1) + secondaryBullet
}

func containsImage(tokens []token) bool {
	for _, tok := range tokens {
		if tok.kind == openToken && tok.name == "img" {
			return true
		}
	}
	return false
}

// plainText joins the text of tokens into a single line, ignoring nested tags.
func plainText(tokens []token) string {
	var b strings.Builder
	for _, tok := range tokens {
		if tok.kind == textToken {
			b.WriteString(tok.raw)
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func linkText(label, target string) string {
	label = strings.TrimSpace(label)
	clean := stripASCIIPunct(label)
	if clean == "" || label == target || strings.Contains(label, "://") {
		return target
	}
	return clean + ": " + target
}

func stripASCIIPunct(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x80 && strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// lineWriter accumulates rendered text into lines.
type lineWriter struct {
	lines []string
	cur   strings.Builder
	// absorb swallows one leading newline of the next text so that a
	// newline right after a block boundary does not produce a blank line.
	absorb bool
	// trimLead drops leading whitespace of the next text after a bullet.
	trimLead bool
}

func (w *lineWriter) text(s string) {
	if w.trimLead {
		s = strings.TrimLeft(s, " \t\r\n")
		if s == "" {
			return
		}
		w.trimLead = false
	}
	if w.absorb {
		t := strings.TrimLeft(s, " \t\r")
		if t == "" {
			return
		}
		w.absorb = false
		if t[0] == '\n' {
			s = t[1:]
		}
	}

	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			w.cur.WriteString(s)
			return
		}
		w.cur.WriteString(s[:i])
		w.flush()
		s = s[i+1:]
	}
}

func (w *lineWriter) flush() {
	w.lines = append(w.lines, strings.TrimRight(w.cur.String(), " \t\r"))
	w.cur.Reset()
}

// softBreak ends the current line when it has content.
func (w *lineWriter) softBreak() {
	if strings.TrimSpace(w.cur.String()) != "" {
		w.flush()
	} else {
		w.cur.Reset()
	}
	w.absorb = true
	w.trimLead = false
}

func (w *lineWriter) hardBreak() {
	w.flush()
	w.absorb = false
	w.trimLead = false
}

// paragraph ends the current line, or emits a blank line for an empty one.
func (w *lineWriter) paragraph() {
	if strings.TrimSpace(w.cur.String()) == "" {
		w.cur.Reset()
	}
	w.flush()
	w.absorb = true
	w.trimLead = false
}

func (w *lineWriter) bullet(prefix string) {
	w.softBreak()
	w.cur.WriteString(prefix)
	w.absorb = false
	w.trimLead = true
}

func (w *lineWriter) done() []string {
	if strings.TrimSpace(w.cur.String()) != "" {
		w.flush()
	}
	return w.lines
}
