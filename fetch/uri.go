package fetch

import (
	"fmt"
	"strings"

	enc "github.com/named-data/ndnplay/std/encoding"
)

// RequestClass is the player's classification of a request.
type RequestClass int

const (
	ClassOther RequestClass = iota
	ClassManifest
	ClassSegment
	ClassLicense
	ClassApp
	ClassTiming
)

var classNames = map[RequestClass]string{
	ClassOther:    "other",
	ClassManifest: "manifest",
	ClassSegment:  "segment",
	ClassLicense:  "license",
	ClassApp:      "app",
	ClassTiming:   "timing",
}

func (c RequestClass) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// ParseRequestClass parses a class name. Unknown names are ClassOther.
func ParseRequestClass(s string) RequestClass {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range classNames {
		if name == s {
			return c
		}
	}
	return ClassOther
}

// InferRequestClass guesses the class of a URI from its last component.
func InferRequestClass(uri string) RequestClass {
	last := uri[strings.LastIndexByte(uri, '/')+1:]
	switch {
	case strings.HasSuffix(last, ".mpd"), strings.HasSuffix(last, ".m3u8"):
		return ClassManifest
	case strings.HasSuffix(last, ".m4s"), strings.HasSuffix(last, ".ts"),
		strings.HasSuffix(last, ".mp4"), strings.HasSuffix(last, ".m4a"),
		strings.HasSuffix(last, ".m4v"), strings.HasSuffix(last, ".webm"):
		return ClassSegment
	default:
		return ClassOther
	}
}

// ParseURI converts a content URI into a name. Accepted forms are
// "ndn:/a/b", "ndn:///a/b" and "/a/b". Query and fragment are ignored.
func ParseURI(uri string) (enc.Name, error) {
	s := uri
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if rest, ok := strings.CutPrefix(s, "ndn:"); ok {
		s = rest
		if strings.HasPrefix(s, "///") {
			s = s[2:]
		}
	}
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}

	name, err := enc.NameFromStr(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidURI, uri, err)
	}
	if len(name) == 0 {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidURI)
	}
	return name, nil
}

// CountKey is the content-prefix key of a name: trailing version and
// segment components are dropped.
func CountKey(name enc.Name) string {
	n := len(name)
	for n > 0 && (name[n-1].IsVersion() || name[n-1].IsSegment()) {
		n--
	}
	return name.Prefix(n).String()
}
