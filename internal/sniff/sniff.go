// Package sniff guesses the MIME type of text-based scene and markup content
// from a short prefix of its bytes.
package sniff

import "bytes"

// MIME types recognized by [Sniff]
const (
	MIMEXMT   = "application/x-xmt"
	MIMEBT    = "application/x-bt"
	MIMEVRML  = "model/vrml"
	MIMEX3DV  = "model/x3d+vrml"
	MIMEX3D   = "model/x3d+xml"
	MIMELASeR = "application/x-LASeR+xml"
	MIMESVG   = "application/widget"
)

// rule matches when any of its markers is present, or when all of its
// required markers are present.
type rule struct {
	mime  string
	anyOf []string
	allOf []string
}

func (r rule) match(prefix []byte) bool {
	for _, m := range r.anyOf {
		if bytes.Contains(prefix, []byte(m)) {
			return true
		}
	}
	if len(r.allOf) == 0 {
		return false
	}
	for _, m := range r.allOf {
		if !bytes.Contains(prefix, []byte(m)) {
			return false
		}
	}
	return true
}

// rules are evaluated in order; first match wins. Markers are case-sensitive.
var rules = [...]rule{
	{mime: MIMEXMT, anyOf: []string{"<XMT-A", ":mpeg4:xmta:"}},
	{mime: MIMEBT, anyOf: []string{"InitialObjectDescriptor"}, allOf: []string{"EXTERNPROTO", "gpac:"}},
	{mime: MIMEVRML, anyOf: []string{"#VRML V2.0 utf8"}},
	{mime: MIMEX3DV, anyOf: []string{"#X3D V3.0"}},
	{mime: MIMEX3D, anyOf: []string{"<X3D", "/x3d-3.0.dtd"}},
	{mime: MIMELASeR, anyOf: []string{"<saf", "mpeg4:SAF:2005", "mpeg4:LASeR:2005"}},
	{mime: MIMESVG, anyOf: []string{"<svg", "w3.org/2000/svg"}},
}

// Sniff returns the MIME type for the given content prefix, or "" when no marker
// matches. The prefix is read as NUL-terminated text: anything after the first
// zero byte is ignored, so binary content usually yields "".
func Sniff(prefix []byte) string {
	if i := bytes.IndexByte(prefix, 0); i >= 0 {
		prefix = prefix[:i]
	}
	for _, r := range rules {
		if r.match(prefix) {
			return r.mime
		}
	}
	return ""
}
