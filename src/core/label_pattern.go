package core

import "strings"

// A LabelPattern matches a set of Labels. It supports the three forms the
// spec calls for: an exact label, "//dir:*" (any name directly in dir) and
// "//dir/*" (any label under dir or any of its descendants), each with an
// optional "(toolchain)" suffix constraining the match to one toolchain.
type LabelPattern struct {
	dir           string // without trailing slash
	name          string // "" if AllNames or AllSubpackages
	allNames      bool   // "//dir:*"
	allSubpackage bool   // "//dir/*"
	toolchain     ToolchainKey
}

// ParseLabelPattern parses a single pattern string, relative to currentDir
// for any ":name" shorthand.
func ParseLabelPattern(raw string, currentDir SourceDir) (LabelPattern, error) {
	s := raw
	var toolchain ToolchainKey
	if idx := strings.IndexByte(s, '('); idx >= 0 && strings.HasSuffix(s, ")") {
		tcRaw := s[idx+1 : len(s)-1]
		s = s[:idx]
		tcLabel, err := ParseLabel(tcRaw, currentDir, Label{})
		if err != nil {
			return LabelPattern{}, err
		}
		toolchain = ToolchainKey{Dir: tcLabel.Dir, Name: tcLabel.Name, set: true}
	}

	if strings.HasSuffix(s, "/*") {
		dir := NewSourceDir(strings.TrimSuffix(s, "*"), currentDir)
		return LabelPattern{dir: strings.TrimSuffix(string(dir), "/"), allSubpackage: true, toolchain: toolchain}, nil
	}
	if strings.HasSuffix(s, ":*") {
		dir := NewSourceDir(strings.TrimSuffix(s, ":*"), currentDir)
		return LabelPattern{dir: strings.TrimSuffix(string(dir), "/"), allNames: true, toolchain: toolchain}, nil
	}
	label, err := ParseLabel(s, currentDir, Label{})
	if err != nil {
		return LabelPattern{}, err
	}
	return LabelPattern{
		dir:       strings.TrimSuffix(string(label.DirPath()), "/"),
		name:      label.Name.String(),
		toolchain: toolchain,
	}, nil
}

// Matches reports whether label is admitted by this pattern.
func (p LabelPattern) Matches(label Label) bool {
	if p.toolchain.set && p.toolchain != label.Toolchain {
		return false
	}
	dir := strings.TrimSuffix(string(label.DirPath()), "/")
	switch {
	case p.allSubpackage:
		return dir == p.dir || strings.HasPrefix(dir, p.dir+"/")
	case p.allNames:
		return dir == p.dir
	default:
		return dir == p.dir && label.Name.String() == p.name
	}
}

// LabelMatches reports whether label is admitted by at least one of patterns.
func LabelMatches(label Label, patterns []LabelPattern) bool {
	for _, p := range patterns {
		if p.Matches(label) {
			return true
		}
	}
	return false
}

// FilterLabels returns the subset of labels admitted by at least one of patterns.
func FilterLabels(labels []Label, patterns []LabelPattern) []Label {
	out := make([]Label, 0, len(labels))
	for _, l := range labels {
		if LabelMatches(l, patterns) {
			out = append(out, l)
		}
	}
	return out
}
