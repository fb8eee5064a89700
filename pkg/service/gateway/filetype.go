package gateway

import (
	"path/filepath"
	"strings"

	"github.com/mentor-lab/chiron/pkg/domain/types"
)

var codeExtensions = map[string]bool{
	".js": true, ".ts": true, ".py": true, ".java": true,
	".go": true, ".rs": true, ".c": true, ".cpp": true,
}

var docExtensions = map[string]bool{
	".md": true, ".txt": true, ".pdf": true, ".doc": true, ".docx": true,
}

var chatExtensions = map[string]bool{
	".chat": true, ".conversation": true,
}

var languageByExtension = map[string]string{
	".js":   "javascript",
	".ts":   "typescript",
	".py":   "python",
	".java": "java",
	".go":   "go",
	".rs":   "rust",
	".md":   "markdown",
}

// DetectFileType classifies a file by extension. The type drives the
// chunking strategy, so unknown extensions fall back to fixed windows.
func DetectFileType(path string) types.FileType {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case codeExtensions[ext]:
		return types.FileCode
	case docExtensions[ext]:
		return types.FileDocument
	case chatExtensions[ext]:
		return types.FileChat
	default:
		return types.FileOther
	}
}

// DetectLanguage returns the language for a file extension, or empty
func DetectLanguage(path string) string {
	return languageByExtension[strings.ToLower(filepath.Ext(path))]
}
