package markup

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	cutMarker    = ".."
	ellipsisLine = "..."

	zeroWidthJoiner = '\u200d'
)

// Limit shortens text to at most maxChars runes and maxLines lines, not
// counting the trailing ellipsis line added when anything was removed.
// Text that already fits is returned unchanged. Lines are never cut inside
// a URL or an emoji sequence, and a bold header left without content is
// dropped.
func Limit(text string, maxChars, maxLines int) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if utf8.RuneCountInString(text) <= maxChars && len(lines) <= maxLines {
		return text
	}

	budget := maxChars - 1
	var kept []string
	used := 0

	for _, line := range lines {
		if len(kept) >= maxLines {
			break
		}
		sep := 0
		if len(kept) > 0 {
			sep = 1
		}
		n := utf8.RuneCountInString(line)
		if used+sep+n <= budget {
			kept = append(kept, line)
			used += sep + n
			continue
		}
		if cut := cutLine(line, budget-used-sep-len(cutMarker)); cut != "" && !isBareBullet(cut) {
			kept = append(kept, cut+cutMarker)
		}
		break
	}

	kept = trimBlankTail(kept)
	if len(kept) > 0 && isBold(kept[len(kept)-1]) {
		kept = trimBlankTail(kept[:len(kept)-1])
	}

	return strings.Join(append(kept, ellipsisLine), "\n")
}

// cutLine returns at most room runes of line, backing off so that the cut
// lands neither inside a URL nor inside a grapheme cluster.
func cutLine(line string, room int) string {
	if room <= 0 {
		return ""
	}
	runes := []rune(line)
	if len(runes) <= room {
		return strings.TrimRightFunc(line, unicode.IsSpace)
	}

	end := room
	for end > 0 {
		if runes[end-1] == zeroWidthJoiner || extendsCluster(runes[end]) {
			end--
			continue
		}
		break
	}

	if end > 0 && !unicode.IsSpace(runes[end]) && !unicode.IsSpace(runes[end-1]) {
		start := end
		for start > 0 && !unicode.IsSpace(runes[start-1]) {
			start--
		}
		stop := end
		for stop < len(runes) && !unicode.IsSpace(runes[stop]) {
			stop++
		}
		if strings.Contains(string(runes[start:stop]), "://") {
			end = start
		}
	}

	return strings.TrimRightFunc(string(runes[:end]), unicode.IsSpace)
}

func extendsCluster(r rune) bool {
	switch {
	case r == zeroWidthJoiner:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r >= 0xE0020 && r <= 0xE007F:
		return true
	}
	return unicode.In(r, unicode.Mn, unicode.Me)
}

func trimBlankTail(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
