package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenDirMatchesGetLabelInfoScenario(t *testing.T) {
	def := mustLabel(t, "//toolchain:default")
	settings := &Settings{
		Build:            &BuildSettings{BuildDir: SourceDir("//out/Debug/")},
		ToolchainLabel:   def,
		DefaultToolchain: def,
	}

	dir := settings.GenDir(SourceDir("//src/foo/"))
	assert.Equal(t, SourceDir("//out/Debug/gen/src/foo/"), dir)
}

func TestGenDirInsertsToolchainSubdirForNonDefault(t *testing.T) {
	def := mustLabel(t, "//toolchain:default")
	random := mustLabel(t, "//toolchain:random")
	settings := &Settings{
		Build:            &BuildSettings{BuildDir: SourceDir("//out/Debug/")},
		ToolchainLabel:   random,
		DefaultToolchain: def,
	}

	dir := settings.GenDir(SourceDir("//src/foo/"))
	assert.Equal(t, SourceDir("//out/Debug/random/gen/src/foo/"), dir)
}
