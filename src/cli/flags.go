// Package cli contains small helpers for flag parsing shared by cmd/bg.
package cli

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/jessevdk/go-flags"
)

// ParseFlags parses the app's flags into data (normally a struct of fields
// tagged for go-flags) and returns the parser plus any positional arguments
// left over.
func ParseFlags(appname string, data interface{}, args []string) (*flags.Parser, []string, error) {
	parser := flags.NewNamedParser(path.Base(args[0]), flags.HelpFlag|flags.PassDoubleDash)
	parser.AddGroup(appname+" options", "", data)
	extra, err := parser.ParseArgs(args[1:])
	if err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
	}
	return parser, extra, err
}

// ParseFlagsOrDie parses os.Args, printing usage and exiting on any error.
func ParseFlagsOrDie(appname, version string, data interface{}) (*flags.Parser, []string) {
	parser, extra, err := ParseFlags(appname, data, os.Args)
	if err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrUnknownFlag && strings.Contains(ferr.Message, "version") {
			fmt.Printf("%s version %s\n", appname, version)
			os.Exit(0)
		}
		parser.WriteHelp(os.Stderr)
		fmt.Fprintf(os.Stderr, "\n%s\n", err)
		os.Exit(1)
	}
	return parser, extra
}

// ParseBuildArgs turns a series of "name=value" strings (as passed via
// repeated --args flags) into a map, matching GN's --args switch.
func ParseBuildArgs(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		name, value, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --args entry %q, expected name=value", a)
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return out, nil
}
