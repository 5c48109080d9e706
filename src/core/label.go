package core

import (
	"fmt"
	"strings"
)

// ToolchainKey identifies a toolchain item by (dir, name), without a further
// nested toolchain of its own — GN-style labels never need to say "the
// toolchain that built this toolchain".
type ToolchainKey struct {
	Dir  Atom
	Name Atom
	set  bool
}

// IsSet reports whether a toolchain was explicitly specified. A Label with
// an unset ToolchainKey uses whatever the default toolchain is in its
// Settings (see settings.go).
func (t ToolchainKey) IsSet() bool {
	return t.set
}

// String renders "dir:name", e.g. "//toolchain:x64".
func (t ToolchainKey) String() string {
	if !t.set {
		return ""
	}
	return canonicalDirName(t.Dir.String(), t.Name.String())
}

// A Label is a fully-qualified identifier of a declared Item, of the form
// (dir, name, toolchain). Equality is structural but cheap: every field is
// an Atom, so comparing two Labels never touches string contents. The zero
// Label (zero Dir) is the "null label".
type Label struct {
	Dir       Atom
	Name      Atom
	Toolchain ToolchainKey
}

// NullLabel is the label with no directory; it is never a valid declared
// target and is used as a sentinel (e.g. "no default toolchain set yet").
var NullLabel = Label{}

// IsNull reports whether this is the null label.
func (l Label) IsNull() bool {
	return l.Dir.IsZero()
}

// NewLabel builds a Label from an already-normalized SourceDir and a short
// name, with no explicit toolchain.
func NewLabel(dir SourceDir, name string) Label {
	return Label{Dir: Intern(string(dir)), Name: Intern(name)}
}

// WithToolchain returns a copy of l qualified to the given toolchain.
func (l Label) WithToolchain(toolchainDir SourceDir, toolchainName string) Label {
	l.Toolchain = ToolchainKey{Dir: Intern(string(toolchainDir)), Name: Intern(toolchainName), set: true}
	return l
}

// DirPath returns the Label's directory as a SourceDir.
func (l Label) DirPath() SourceDir {
	return SourceDir(l.Dir.String())
}

// canonicalDirName renders "dir:name" stripping the trailing slash from dir
// and applying GN's implicit-name rule (//foo ≡ //foo:foo) in reverse: we
// always print the explicit ":name" form since it round-trips unambiguously.
func canonicalDirName(dir, name string) string {
	d := strings.TrimSuffix(dir, "/")
	return fmt.Sprintf("%s:%s", d, name)
}

// String returns the canonical form, e.g.
// "//chrome/renderer:renderer(//toolchain:x64)".
func (l Label) String() string {
	if l.IsNull() {
		return ""
	}
	s := canonicalDirName(l.Dir.String(), l.Name.String())
	if l.Toolchain.set {
		s += "(" + l.Toolchain.String() + ")"
	}
	return s
}

// ShortString renders l relative to context: omitting the toolchain suffix
// if it matches context's, and using ":name" if the directory also matches.
func (l Label) ShortString(context Label) string {
	if l.Toolchain != context.Toolchain {
		return l.String()
	}
	if l.Dir == context.Dir {
		return ":" + l.Name.String()
	}
	return canonicalDirName(l.Dir.String(), l.Name.String())
}

// Compare provides a total order over Labels suitable for sort.Slice, used
// wherever deterministic output order matters (§8 determinism property).
func Compare(a, b Label) int {
	if c := strings.Compare(a.Dir.String(), b.Dir.String()); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name.String(), b.Name.String()); c != 0 {
		return c
	}
	if c := strings.Compare(a.Toolchain.Dir.String(), b.Toolchain.Dir.String()); c != 0 {
		return c
	}
	return strings.Compare(a.Toolchain.Name.String(), b.Toolchain.Name.String())
}

// ParseLabel parses a label string in the context of currentDir (used to
// resolve ":foo" and implicit-name forms) and the default toolchain to
// apply when none is specified explicitly.
//
// Accepted forms:
//
//	//dir/to/pkg:name(//toolchain/dir:tc_name)
//	//dir/to/pkg:name
//	//dir/to/pkg            (implicit name: last path component)
//	:name                   (relative to currentDir)
func ParseLabel(raw string, currentDir SourceDir, defaultToolchain Label) (Label, error) {
	s := raw
	var toolchain ToolchainKey
	if idx := strings.IndexByte(s, '('); idx >= 0 {
		if !strings.HasSuffix(s, ")") {
			return Label{}, fmt.Errorf("invalid label %q: unterminated toolchain suffix", raw)
		}
		tcRaw := s[idx+1 : len(s)-1]
		s = s[:idx]
		tcLabel, err := ParseLabel(tcRaw, currentDir, Label{})
		if err != nil {
			return Label{}, fmt.Errorf("invalid label %q: bad toolchain: %w", raw, err)
		}
		toolchain = ToolchainKey{Dir: tcLabel.Dir, Name: tcLabel.Name, set: true}
	}

	var dir SourceDir
	var name string
	if strings.HasPrefix(s, "//") {
		colonIdx := strings.IndexByte(s, ':')
		if colonIdx >= 0 {
			dir = NewSourceDir(s[:colonIdx], "")
			name = s[colonIdx+1:]
		} else {
			dir = NewSourceDir(s, "")
			name = dir.Base()
		}
	} else if strings.HasPrefix(s, ":") {
		dir = currentDir
		name = s[1:]
	} else if strings.HasPrefix(s, "/") {
		// System-absolute path used as a label directory is invalid; labels
		// always live in the source tree.
		return Label{}, fmt.Errorf("invalid label %q: must start with // or :", raw)
	} else {
		return Label{}, fmt.Errorf("invalid label %q: must start with // or :", raw)
	}
	if name == "" {
		return Label{}, fmt.Errorf("invalid label %q: empty target name", raw)
	}
	l := Label{Dir: Intern(string(dir)), Name: Intern(name), Toolchain: toolchain}
	if !l.Toolchain.set && !defaultToolchain.IsNull() {
		l.Toolchain = ToolchainKey{Dir: defaultToolchain.Dir, Name: defaultToolchain.Name, set: true}
	}
	return l, nil
}
