package extract

import (
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
)

// Anchor is one outbound link on a page. Text and URL are always non-empty
// and URL is always absolute.
type Anchor struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Page is the simplified representation of extracted page content.
type Page struct {
	Text    string
	Anchors []Anchor
}

// FromHTML turns raw HTML into flat text plus the page's anchor list, with
// relative hrefs resolved against baseURL. A page that cannot be parsed yields
// a zero Page; extraction failure never aborts the caller.
func FromHTML(raw []byte, baseURL string) Page {
	utf8data, err := decodeToUTF8(raw)
	if err != nil {
		log.Warn().Err(err).Str("url", baseURL).Msg("charset decode failed")
		return Page{}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		log.Warn().Err(err).Str("url", baseURL).Msg("html parse failed")
		return Page{}
	}

	doc.Find("script,style,noscript").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	var anchors []Anchor
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		text := strings.TrimSpace(s.Text())
		if href == "" || text == "" {
			return
		}
		abs := resolve(href, base)
		if abs == "" {
			return
		}
		anchors = append(anchors, Anchor{Text: text, URL: abs})
	})

	return Page{Text: normalizeText(doc.Text()), Anchors: anchors}
}

func decodeToUTF8(raw []byte) ([]byte, error) {
	// Already valid UTF-8 passes through; DetermineEncoding would otherwise
	// fall back to windows-1252 for pages that declare no charset.
	if utf8.Valid(raw) {
		return raw, nil
	}
	enc, _, _ := charset.DetermineEncoding(raw, "")
	return enc.NewDecoder().Bytes(raw)
}

// resolve joins href to base. Absolute http(s) hrefs pass through unchanged.
func resolve(href string, base *url.URL) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		if scheme := strings.ToLower(ref.Scheme); scheme != "http" && scheme != "https" {
			return ""
		}
		return href
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// normalizeText flattens extracted text: trim each line, break lines on runs
// of two or more spaces, drop empty fragments, rejoin with single spaces.
// Byte-for-byte reproduction of the original formatting is not a goal.
func normalizeText(s string) string {
	var chunks []string
	for _, line := range strings.Split(s, "\n") {
		for _, chunk := range splitDoubleSpace(strings.TrimSpace(line)) {
			chunk = strings.TrimSpace(chunk)
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
		}
	}
	return strings.Join(chunks, " ")
}

func splitDoubleSpace(s string) []string {
	var out []string
	start := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == ' ' && s[i+1] == ' ' {
			out = append(out, s[start:i])
			for i+1 < len(s) && s[i+1] == ' ' {
				i++
			}
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
