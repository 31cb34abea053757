// Package sanitize rejects mutating requests whose textual fields carry
// disallowed markup or malformed link targets. Checks are pure: the body is
// never rewritten, all offending fields are collected, and the request is
// accepted or rejected as one unit.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

// Field classes. URL fields must look like a link target, rich-text fields
// tolerate markup except active content, everything else tolerates no markup
// at all.
var (
	defaultURLFields = set("link", "url", "path", "href", "website")

	defaultRichTextFields = set("description", "notes", "bio", "details")
)

func set(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

var (
	// `#`, an http(s) URL over a restricted charset, or an absolute path.
	urlPattern = regexp.MustCompile(`^(#|https?://[A-Za-z0-9._~:/?#@!$&'()*+,;=%\[\]-]+|/[A-Za-z0-9._~:/?#@!$&'()*+,;=%\[\]-]*)$`)

	// Active-content tags, raw or HTML-entity-encoded.
	scriptPattern = regexp.MustCompile(`(?i)(<|&lt;?)\s*script`)
	iframePattern = regexp.MustCompile(`(?i)(<|&lt;?)\s*iframe`)
	imgPattern    = regexp.MustCompile(`(?i)(<|&lt;?)\s*img`)
	srcPattern    = regexp.MustCompile(`(?i)src\s*=`)

	// Anything shaped like an HTML tag.
	tagPattern = regexp.MustCompile(`</?[A-Za-z][^>]*>`)
)

type Policy struct {
	URLFields      map[string]struct{}
	RichTextFields map[string]struct{}
}

func DefaultPolicy() *Policy {
	return &Policy{
		URLFields:      defaultURLFields,
		RichTextFields: defaultRichTextFields,
	}
}

// Check walks a decoded JSON body recursively and returns one message per
// offending field. Nested objects and arrays (menu trees and the like) are
// visited field-by-field with dotted paths in the messages.
func (p *Policy) Check(body any) []string {
	var errs []string
	p.walk("", body, &errs)
	return errs
}

func (p *Policy) walk(path string, v any, errs *[]string) {
	switch val := v.(type) {
	case map[string]any:
		for key, child := range val {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			if s, ok := child.(string); ok {
				if msg, bad := p.checkField(key, s); bad {
					*errs = append(*errs, fmt.Sprintf("%s: %s", childPath, msg))
				}
				continue
			}
			p.walk(childPath, child, errs)
		}
	case []any:
		for i, child := range val {
			p.walk(fmt.Sprintf("%s[%d]", path, i), child, errs)
		}
	}
}

func (p *Policy) checkField(name, value string) (string, bool) {
	if value == "" {
		return "", false
	}
	key := strings.ToLower(name)
	if _, ok := p.URLFields[key]; ok {
		if !urlPattern.MatchString(value) {
			return "must be '#', an http(s) URL or an absolute path", true
		}
		return "", false
	}
	if _, ok := p.RichTextFields[key]; ok {
		if scriptPattern.MatchString(value) || iframePattern.MatchString(value) || imgPattern.MatchString(value) {
			return "script, iframe and img tags are not allowed", true
		}
		return "", false
	}
	if scriptPattern.MatchString(value) || iframePattern.MatchString(value) || srcPattern.MatchString(value) {
		return "contains disallowed markup", true
	}
	if tagPattern.MatchString(value) {
		return "HTML tags are not allowed", true
	}
	return "", false
}
