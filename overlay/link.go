package overlay

import "strings"

var schemes = []string{"https://", "http://"}

// DisplayLink returns link without leading http:// or https:// schemes.
// Repeated schemes are all removed, so DisplayLink(DisplayLink(s)) equals
// DisplayLink(s). Any other string is returned unchanged.
func DisplayLink(link string) string {
	for {
		stripped := false
		for _, scheme := range schemes {
			if strings.HasPrefix(link, scheme) {
				link = link[len(scheme):]
				stripped = true
			}
		}
		if !stripped {
			return link
		}
	}
}
