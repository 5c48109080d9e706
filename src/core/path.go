package core

import (
	"path"
	"strings"
)

// A SourceDir is a normalized, source-root-relative directory path, always
// written with a leading "//" and a trailing "/" (e.g. "//src/core/").
// System-absolute directories keep their leading "/" instead and no "//".
type SourceDir string

// A SourceFile is a normalized, source-root-relative file path with a
// leading "//" and no trailing slash (e.g. "//src/core/label.go").
// System-absolute files keep their leading "/" instead.
type SourceFile string

// NewSourceDir normalizes p (which may be relative to base, a SourceDir
// already in root-relative form) into a SourceDir.
func NewSourceDir(p string, base SourceDir) SourceDir {
	return SourceDir(normalizeDir(p, string(base)))
}

// NewSourceFile normalizes p into a SourceFile, relative to base if p isn't
// already root-absolute or system-absolute.
func NewSourceFile(p string, base SourceDir) SourceFile {
	return SourceFile(normalizeFile(p, string(base)))
}

// IsSystemAbsolute returns true for paths outside the source tree ("/...").
func (d SourceDir) IsSystemAbsolute() bool {
	return isSystemAbsolute(string(d))
}

// IsSystemAbsolute returns true for paths outside the source tree ("/...").
func (f SourceFile) IsSystemAbsolute() bool {
	return isSystemAbsolute(string(f))
}

// Dir returns the enclosing directory of f.
func (f SourceFile) Dir() SourceDir {
	if f.IsSystemAbsolute() {
		d := path.Dir(string(f))
		if !strings.HasSuffix(d, "/") {
			d += "/"
		}
		return SourceDir(d)
	}
	rel := strings.TrimPrefix(string(f), "//")
	d := path.Dir(rel)
	if d == "." {
		d = ""
	}
	if d != "" && !strings.HasSuffix(d, "/") {
		d += "/"
	}
	return SourceDir("//" + d)
}

// Base returns the final path component of the directory, without slashes,
// e.g. "//src/core/" -> "core".
func (d SourceDir) Base() string {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(string(d), "//"), "/")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return ""
	}
	return path.Base(trimmed)
}

func isSystemAbsolute(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//")
}

// normalizeDir cleans p (relative to base if it's relative) into the
// canonical "//a/b/" or "/a/b/" form. It deliberately never hands a
// double-slash-prefixed string to path.Clean, which would otherwise
// collapse "//" into "/".
func normalizeDir(p, base string) string {
	if p == "" {
		return base
	}
	if isSystemAbsolute(p) {
		cleaned := path.Clean(p)
		if !strings.HasSuffix(cleaned, "/") {
			cleaned += "/"
		}
		return cleaned
	}
	rel := relativeTo(p, base)
	rel = path.Clean(rel)
	if rel == "." {
		rel = ""
	}
	if rel != "" && !strings.HasSuffix(rel, "/") {
		rel += "/"
	}
	return "//" + rel
}

// normalizeFile is as normalizeDir but for files (no trailing slash).
func normalizeFile(p, base string) string {
	if isSystemAbsolute(p) {
		return path.Clean(p)
	}
	rel := relativeTo(p, base)
	rel = path.Clean(rel)
	if rel == "." {
		rel = ""
	}
	return "//" + rel
}

// relativeTo returns p's source-root-relative path component (no leading
// "//"), joining it onto base's relative component if p doesn't already
// start with "//".
func relativeTo(p, base string) string {
	if strings.HasPrefix(p, "//") {
		return strings.TrimPrefix(p, "//")
	}
	baseRel := strings.TrimPrefix(base, "//")
	return path.Join(baseRel, p)
}
