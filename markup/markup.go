// Package markup pulls audio sources out of HTML fragments.
//
// Matching is lexical, not a parse: an element is any "<audio ...>" opening
// tag followed, non-greedily, by the nearest closing tag that mentions
// "audio". Attribute order, extra whitespace and unclosed inner markup are
// all tolerated. A self-closing "<audio/>" only matches if a closing audio
// tag appears somewhere after it.
package markup

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	audioTag = regexp.MustCompile(`(?is)<audio\b[^>]*>.*?</[^>]*audio[^>]*>`)
	srcAttr  = regexp.MustCompile(`(?is)(?:^|\s)src\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// ExtractURLs returns the first quoted src value of every matched audio
// element, in document order. Elements without a usable src are skipped.
func ExtractURLs(html string) []string {
	var urls []string
	for _, element := range audioTag.FindAllString(html, -1) {
		if src, ok := sourceOf(element); ok {
			urls = append(urls, src)
		}
	}
	return urls
}

func sourceOf(element string) (string, bool) {
	m := srcAttr.FindStringSubmatch(element)
	if m == nil {
		return "", false
	}
	src := strings.TrimSpace(m[1] + m[2])
	if src == "" {
		return "", false
	}
	if _, err := url.Parse(src); err != nil {
		return "", false
	}
	return src, true
}

// HasAudio reports whether at least one element yields a source.
func HasAudio(html string) bool {
	for _, element := range audioTag.FindAllString(html, -1) {
		if _, ok := sourceOf(element); ok {
			return true
		}
	}
	return false
}

// ReplaceAudioTags replaces every matched audio element, with or without a
// src, by the literal string with.
func ReplaceAudioTags(html, with string) string {
	return audioTag.ReplaceAllLiteralString(html, with)
}

// RemoveAudioTags deletes every matched audio element.
func RemoveAudioTags(html string) string {
	return ReplaceAudioTags(html, "")
}
