package markup

import (
	"path"
	"strings"
)

var animatedExtensions = map[string]bool{
	".gif":  true,
	".gifv": true,
	".apng": true,
}

// selectImages deduplicates candidates and prefers still images, falling
// back to animated ones when nothing else exists.
func selectImages(candidates []string) []string {
	seen := make(map[string]bool, len(candidates))
	var still, animated []string

	for _, src := range candidates {
		if seen[src] {
			continue
		}
		seen[src] = true
		if IsAnimated(src) {
			animated = append(animated, src)
		} else {
			still = append(still, src)
		}
	}

	if len(still) > 0 {
		return still
	}
	return animated
}

// IsAnimated reports whether the URL points at an animated image format.
func IsAnimated(src string) bool {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return animatedExtensions[strings.ToLower(path.Ext(src))]
}
