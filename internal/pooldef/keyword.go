package pooldef

import "strings"

// Keyword is the normalised first field of a definition line.
type Keyword int

const (
	KeywordEmpty Keyword = iota
	KeywordUnknown
	KeywordComment
	KeywordName
	KeywordTrack
	KeywordWorldFile
	KeywordUID
)

var keywords = map[string]Keyword{
	"#comment":   KeywordComment,
	"#name":      KeywordName,
	"track":      KeywordTrack,
	"#track":     KeywordTrack,
	"#access":    KeywordTrack,
	"#worldfile": KeywordWorldFile,
	"#uid":       KeywordUID,
}

// ParseKeyword trims and lowercases field and maps it onto a Keyword.
func ParseKeyword(field string) Keyword {
	f := strings.ToLower(strings.TrimSpace(field))
	if f == "" {
		return KeywordEmpty
	}
	if kw, ok := keywords[f]; ok {
		return kw
	}
	return KeywordUnknown
}

func (k Keyword) String() string {
	switch k {
	case KeywordEmpty:
		return "empty"
	case KeywordComment:
		return "#comment"
	case KeywordName:
		return "#name"
	case KeywordTrack:
		return "track"
	case KeywordWorldFile:
		return "#worldfile"
	case KeywordUID:
		return "#uid"
	default:
		return "unknown"
	}
}

// TopLevel reports whether k starts a new block.
func (k Keyword) TopLevel() bool {
	return k == KeywordName
}
