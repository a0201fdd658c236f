package links

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ASCIIURI returns link in a form that fits a PDF URI string. ASCII links
// are returned unchanged. Otherwise a non-ASCII host is converted to
// punycode and remaining non-ASCII bytes are percent-encoded.
func ASCIIURI(link string) (string, error) {
	if isASCII(link) {
		return link, nil
	}

	u, err := url.Parse(link)
	if err == nil && u.Host != "" {
		host := u.Hostname()
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("invalid host %q: %w", host, err)
		}
		if port := u.Port(); port != "" {
			ascii += ":" + port
		}
		u.Host = ascii
		link = u.String()
	}
	return escapeNonASCII(link), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func escapeNonASCII(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x80 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}
