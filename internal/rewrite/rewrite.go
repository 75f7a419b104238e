// Package rewrite turns repository-relative references in markdown and HTML
// into absolute, branch-pinned URLs.
//
// Four rules run in a fixed order, each over the previous rule's output:
//
//  1. markdown images  ![alt](path)        -> raw content base
//  2. markdown links   [text](path)        -> web view base
//  3. <img src="path">                     -> raw content base
//  4. href= / src= / data-src= on any tag  -> raw base for image files, web base otherwise
//
// Every rule skips targets that already start with http:// or https://, which
// is what keeps rule 2 from touching images rewritten by rule 1 and makes a
// second pass a no-op.
package rewrite

import (
	"regexp"
	"strings"

	"github.com/JakeFAU/showcase-sync/internal/showcase"
)

// linkText allows one level of nested brackets so an image inside a link
// still leaves the outer link matchable.
const linkText = `((?:[^\[\]\n]|\[[^\[\]\n]*\])*)`

var (
	markdownImage = regexp.MustCompile(`!\[` + linkText + `\]\(([^)]+)\)`)
	markdownLink  = regexp.MustCompile(`\[` + linkText + `\]\(([^)]+)\)`)
	imgTag        = regexp.MustCompile(`<img\s[^>]*>`)
	imgSrcAttr    = regexp.MustCompile(`(\s)(src=)(["'])([^"']+)(["'])`)
	anyTag        = regexp.MustCompile(`<[^>]+>`)
	refAttr       = regexp.MustCompile(`(\s)(href=|src=|data-src=)(["'])([^"']+)(["'])`)
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

// Rewriter rewrites relative references for projects hosted under Hosts.
type Rewriter struct {
	hosts showcase.Hosts
}

// New returns a Rewriter for the given host layout.
func New(hosts showcase.Hosts) *Rewriter {
	return &Rewriter{hosts: hosts}
}

// Rewrite applies all four rules for one project and branch. Empty content is
// returned unchanged.
func (r *Rewriter) Rewrite(content string, projectID int, branch string) string {
	if content == "" {
		return content
	}
	raw := r.hosts.RawContentBase(projectID, branch)
	web := r.hosts.WebViewBase(projectID, branch)

	content = MarkdownImages(content, raw)
	content = MarkdownLinks(content, web)
	content = ImgTags(content, raw)
	return Attributes(content, raw, web)
}

// MarkdownImages rewrites ![alt](path) targets against rawBase.
func MarkdownImages(content, rawBase string) string {
	return replaceSubmatches(markdownImage, content, func(m []string) string {
		alt, target := m[1], m[2]
		if IsAbsolute(target) {
			return m[0]
		}
		return "![" + alt + "](" + Resolve(rawBase, target) + ")"
	})
}

// MarkdownLinks rewrites [text](path) targets against webBase.
func MarkdownLinks(content, webBase string) string {
	return replaceSubmatches(markdownLink, content, func(m []string) string {
		text, target := m[1], m[2]
		if IsAbsolute(target) {
			return m[0]
		}
		return "[" + text + "](" + Resolve(webBase, target) + ")"
	})
}

// ImgTags rewrites the src attribute of <img> tags against rawBase, leaving
// the rest of the tag untouched.
func ImgTags(content, rawBase string) string {
	return imgTag.ReplaceAllStringFunc(content, func(tag string) string {
		return replaceSubmatches(imgSrcAttr, tag, func(m []string) string {
			return rewriteAttr(m, rawBase)
		})
	})
}

// Attributes rewrites href, src and data-src on every tag. Image files go to
// rawBase, everything else to webBase.
func Attributes(content, rawBase, webBase string) string {
	return anyTag.ReplaceAllStringFunc(content, func(tag string) string {
		return replaceSubmatches(refAttr, tag, func(m []string) string {
			base := webBase
			if IsImage(m[4]) {
				base = rawBase
			}
			return rewriteAttr(m, base)
		})
	})
}

// IsAbsolute reports whether target already carries an http(s) scheme.
func IsAbsolute(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// IsImage reports whether target names an image file.
func IsImage(target string) bool {
	lower := strings.ToLower(target)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Resolve joins base and target after dropping a single leading ./, ../ or /.
func Resolve(base, target string) string {
	return base + "/" + stripMarker(target)
}

func stripMarker(target string) string {
	for _, marker := range []string{"../", "./", "/"} {
		if strings.HasPrefix(target, marker) {
			return target[len(marker):]
		}
	}
	return target
}

// rewriteAttr rebuilds a (space)(name=)(quote)(value)(quote) match.
func rewriteAttr(m []string, base string) string {
	value := m[4]
	if IsAbsolute(value) {
		return m[0]
	}
	return m[1] + m[2] + m[3] + Resolve(base, value) + m[5]
}

func replaceSubmatches(re *regexp.Regexp, s string, fn func(groups []string) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, loc := range matches {
		b.WriteString(s[last:loc[0]])
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = s[loc[2*i]:loc[2*i+1]]
			}
		}
		b.WriteString(fn(groups))
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
