// Package locator turns source locators (paths, file: URLs) into local paths and
// logical extensions.
//
// All functions are pure. The caller's locator is never modified, whether
// normalization succeeds or fails.
package locator

import (
	"errors"
	"strings"
)

// ErrNotLocal is returned for locators carrying a non-local scheme
var ErrNotLocal = errors.New("locator has a non-local scheme")

const (
	schemeSep      = "://"
	fileScheme     = "file:"
	fileSchemeURL  = "file://"
	compressionExt = "gz"
)

// Locator is the normalized form of a raw source locator
type Locator struct {
	Path string // filesystem path suitable for opening
	Ext  string // logical extension without the dot, "" if none
}

// IsLocal reports whether the locator is local: it either has no "scheme://"
// part or starts with the file scheme. Absolute paths of any platform are local.
func IsLocal(raw string) bool {
	return hasFoldPrefix(raw, fileScheme) || !strings.Contains(raw, schemeSep)
}

// Normalize rejects non-local locators, then strips the fragment, query and file
// scheme and resolves the logical extension of what remains.
func Normalize(raw string) (Locator, error) {
	if !IsLocal(raw) {
		return Locator{}, ErrNotLocal
	}
	p := Path(raw)
	return Locator{Path: p, Ext: Extension(p)}, nil
}

// Path strips the fragment and query suffixes and any file scheme prefix.
// Unlike [Normalize] it does not reject other schemes.
func Path(raw string) string {
	p := raw
	if i := strings.IndexAny(p, "#?"); i >= 0 {
		p = p[:i]
	}
	switch {
	case hasFoldPrefix(p, fileSchemeURL):
		p = p[len(fileSchemeURL):]
	case hasFoldPrefix(p, fileScheme):
		p = p[len(fileScheme):]
	}
	return p
}

// Extension returns the logical extension of a path: the last dot suffix of the
// final path element, looking past a trailing compression suffix so that
// "archive.xml.gz" yields "xml". Returns "" when there is none.
func Extension(p string) string {
	name := p[strings.LastIndexByte(p, '/')+1:]
	ext, rest, ok := lastSuffix(name)
	if !ok {
		return ""
	}
	if strings.EqualFold(ext, compressionExt) {
		if ext, _, ok = lastSuffix(rest); !ok {
			return ""
		}
	}
	return ext
}

// lastSuffix splits s at its last dot
func lastSuffix(s string) (ext, rest string, ok bool) {
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return "", s, false
	}
	return s[i+1:], s[:i], true
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
