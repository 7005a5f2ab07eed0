package scanner

import (
	"strings"
)

// Source kinds the converter works with. Script files hold handler source to
// convert forward; definition files hold flow JSON to decompile.
const (
	KindScript     = "script"
	KindDefinition = "definition"
)

// kindMap maps file extensions to source kinds.
var kindMap = map[string]string{
	".js":  KindScript,
	".mjs": KindScript,
	".cjs": KindScript,
	".jsx": KindScript,
	".ts":  KindScript,

	".json": KindDefinition,
}

// DetectKind returns the source kind for a given file extension. Returns
// empty string if the extension is not recognized.
func DetectKind(ext string) string {
	ext = strings.ToLower(ext)

	if kind, ok := kindMap[ext]; ok {
		return kind
	}

	return ""
}
