// Package content turns stored lesson and workflow bodies into HTML that is
// safe to embed in the learner UI.
package content

import (
	"bytes"
	"strings"

	"gitlab.com/golang-commonmark/markdown"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var md = markdown.New(markdown.HTML(true), markdown.Linkify(true), markdown.Typographer(true), markdown.MaxNesting(10))

// Render converts body to sanitized HTML. format is "markdown" or "html";
// anything else is treated as html.
func Render(body, format string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	if format == "markdown" {
		body = md.RenderToString([]byte(body))
	}
	return Sanitize(body)
}

// dropped elements lose their whole subtree, not only the tags. Foreign
// content (svg, math) carries its own link and animation attributes, so it
// goes too.
var dropped = map[string]bool{
	"script":   true,
	"style":    true,
	"object":   true,
	"embed":    true,
	"form":     true,
	"input":    true,
	"button":   true,
	"textarea": true,
	"select":   true,
	"frameset": true,
	"frame":    true,
	"base":     true,
	"meta":     true,
	"link":     true,
	"svg":      true,
	"math":     true,
	"animate":  true,
	"set":      true,
	"use":      true,
	"template": true,
}

// urlAttrs hold a URL. Any attribute whose name ends in "href" (xlink:href
// included) is treated the same way.
var urlAttrs = map[string]bool{
	"src":        true,
	"action":     true,
	"formaction": true,
	"poster":     true,
	"background": true,
	"values":     true,
	"to":         true,
	"from":       true,
	"by":         true,
}

// Sanitize strips active content from an HTML fragment: script-like
// elements, event handler attributes and javascript:/data: URLs. Iframes are
// kept only for https sources so video embeds keep working.
func Sanitize(fragment string) string {
	z := html.NewTokenizerFragment(strings.NewReader(fragment), "body")
	var out bytes.Buffer
	skipDepth := 0
	var skipTag string

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break // io.EOF or malformed input
		}
		tok := z.Token()
		name := strings.ToLower(tok.Data)

		if skipDepth > 0 {
			switch {
			case tt == html.StartTagToken && name == skipTag:
				skipDepth++
			case tt == html.EndTagToken && name == skipTag:
				skipDepth--
			}
			continue
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			if dropped[name] || (tok.DataAtom == atom.Iframe && !safeIframe(tok)) {
				if tt == html.StartTagToken && !isVoid(tok.DataAtom) {
					skipDepth = 1
					skipTag = name
				}
				continue
			}
			tok.Attr = cleanAttrs(tok.Attr)
			out.WriteString(tok.String())
		case html.EndTagToken:
			if dropped[name] {
				continue
			}
			out.WriteString(tok.String())
		case html.CommentToken, html.DoctypeToken:
			// dropped
		default:
			out.WriteString(tok.String())
		}
	}
	return out.String()
}

func cleanAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if a.Namespace != "" {
			key = strings.ToLower(a.Namespace) + ":" + key
		}
		if strings.HasPrefix(key, "on") || key == "style" || key == "srcdoc" {
			continue
		}
		if (urlAttrs[key] || strings.HasSuffix(key, "href")) && !safeURL(a.Val) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func safeURL(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	// Browsers ignore embedded whitespace and control characters in schemes.
	v = strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, v)
	// SMIL values is a semicolon separated list.
	for _, part := range strings.Split(v, ";") {
		if strings.HasPrefix(part, "javascript:") || strings.HasPrefix(part, "vbscript:") || strings.HasPrefix(part, "data:") {
			return false
		}
	}
	return true
}

func safeIframe(tok html.Token) bool {
	for _, a := range tok.Attr {
		if strings.ToLower(a.Key) == "src" {
			return strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "https://")
		}
	}
	return false
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Input, atom.Base, atom.Meta, atom.Link, atom.Embed, atom.Frame:
		return true
	}
	return false
}
