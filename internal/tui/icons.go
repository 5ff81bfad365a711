package tui

import (
	"path/filepath"
	"strings"
)

// FileIcon picks a sidebar glyph from the file extension.
func FileIcon(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "pdf":
		return "[pdf]"
	case "doc", "docx":
		return "[doc]"
	case "xls", "xlsx":
		return "[xls]"
	case "txt", "md":
		return "[txt]"
	default:
		return "[file]"
	}
}
