// Workspace-level tool configuration: the generator binary's own settings,
// as distinct from the build-file-declared settings that come out of
// evaluating the root .gn dotfile (see Settings/BuildSettings). This layer
// is read from a plain INI-style dotfile and never touches the build
// language at all.

package core

import (
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/gcfg.v1"
)

// ConfigFileName is the checked-in, repo-wide tool config.
const ConfigFileName = ".bgconfig"

// LocalConfigFileName overrides ConfigFileName on a single machine; it is
// not normally checked in.
const LocalConfigFileName = ".bgconfig.local"

// ToolConfig holds the generator's own settings: how many workers to run,
// where to cache parsed files, and so on. None of this is visible to the
// build-file language; it configures the binary that evaluates it.
type ToolConfig struct {
	Build struct {
		NumThreads      int    `help:"Number of worker goroutines used to load and evaluate build files concurrently."`
		DefaultOutDir   string `help:"Output directory to use when the root dotfile doesn't set one." example:"out/Default"`
		CheckDepConfigs bool   `help:"Default value of the check-dependent-configs policy when the root dotfile doesn't set one."`
	}
	Cache struct {
		Dir     string `help:"Directory used to cache parsed-file results between runs. Empty disables the parse cache."`
		MaxSize int    `help:"Approximate maximum size in megabytes of the parse cache before old entries are evicted."`
	}
	Log struct {
		Level string `help:"Default log level (CRITICAL, ERROR, WARNING, NOTICE, INFO, DEBUG)." example:"INFO"`
		File  string `help:"If set, also writes logs to this file in addition to stderr."`
	}
}

// DefaultToolConfig returns a ToolConfig populated with built-in defaults,
// before any dotfile has been read.
func DefaultToolConfig() *ToolConfig {
	c := &ToolConfig{}
	c.Build.NumThreads = runtime.NumCPU()
	c.Build.DefaultOutDir = "out/Default"
	c.Build.CheckDepConfigs = false
	c.Cache.Dir = ".bg-cache"
	c.Cache.MaxSize = 1024
	c.Log.Level = "INFO"
	return c
}

// readToolConfigFile merges filename's contents into config. A missing file
// is not an error; files are optional and layered.
func readToolConfigFile(config *ToolConfig, filename string) error {
	if err := gcfg.ReadFileInto(config, filename); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		if gcfg.FatalOnly(err) != nil {
			return err
		}
	}
	return nil
}

// ReadToolConfig loads the generator's own settings starting from the
// built-in defaults and layering repoRoot/.bgconfig then
// repoRoot/.bgconfig.local over it, each overriding only the fields it sets.
func ReadToolConfig(repoRoot string) (*ToolConfig, error) {
	config := DefaultToolConfig()
	for _, name := range []string{ConfigFileName, LocalConfigFileName} {
		if err := readToolConfigFile(config, filepath.Join(repoRoot, name)); err != nil {
			return config, err
		}
	}
	return config, nil
}
