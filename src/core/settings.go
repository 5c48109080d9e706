package core

// BuildSettings holds the build-wide configuration produced by evaluating
// the root ".gn" dotfile: the source root, the output directory, and any
// global flags that apply regardless of toolchain.
type BuildSettings struct {
	// SourceRoot is the absolute filesystem path the "//" of every label
	// and SourceFile/SourceDir is relative to.
	SourceRoot string
	// BuildDir is the source-root-relative output directory, e.g. "//out/Debug/".
	BuildDir SourceDir
	// Args are the resolved build-argument values (declare_args() overridden
	// by --args or args.gn), keyed by variable name.
	Args map[string]string
	// CheckDependentConfigs controls whether all_dependent_configs
	// visibility is enforced strictly; an Open Question left to the
	// workspace config in GN, recorded here rather than hardcoded.
	CheckDependentConfigs bool
	// BuildConfigFile is the source-relative path to the .gni file that
	// every BUILD.gn file implicitly imports before its own statements run
	// (the root ".gn" dotfile's "buildconfig" value, spec.md §6).
	BuildConfigFile SourceFile
}

// Settings is the per-toolchain context every Item carries: the shared
// BuildSettings plus which toolchain this item was declared under and what
// the default toolchain for unqualified label references is.
type Settings struct {
	Build             *BuildSettings
	ToolchainLabel    Label
	DefaultToolchain  Label
}

// GenDir returns the generated-files directory for a label declared under
// these settings, mirroring get_label_info's "target_gen_dir": the build
// directory, "gen", then the label's package path, with a toolchain-named
// subdirectory inserted when the toolchain isn't the default one.
func (s *Settings) GenDir(dir SourceDir) SourceDir {
	return s.outputSubdir("gen", dir)
}

// OutDir returns the per-target output directory ("root_out_dir" style, but
// further scoped to dir as GN's target_out_dir is).
func (s *Settings) OutDir(dir SourceDir) SourceDir {
	return s.outputSubdir("obj", dir)
}

func (s *Settings) outputSubdir(kind string, dir SourceDir) SourceDir {
	base := string(s.Build.BuildDir)
	if s.ToolchainLabel != s.DefaultToolchain && !s.ToolchainLabel.IsNull() {
		base += s.ToolchainLabel.Name.String() + "/"
	}
	base += kind + "/"
	rel := dir
	if rel.IsSystemAbsolute() {
		return NewSourceDir(base, "//")
	}
	trimmed := string(rel)
	if len(trimmed) >= 2 && trimmed[:2] == "//" {
		trimmed = trimmed[2:]
	}
	return NewSourceDir(base+trimmed, "//")
}
