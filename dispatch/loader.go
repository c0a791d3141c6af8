package dispatch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/kelsonai/voxrelay/cmn/nlog"
)

// Factory builds a fresh Plugin instance; the registry maps a configured
// plugin name to one of these instead of importing arbitrary code by
// filename the way loadPlugins()/__importPlugin() did — Go plugins are
// compiled in, so "discovery" means matching manifest file stems against
// this registry rather than loading .py modules off disk.
type Factory func() Plugin

var registry = map[string]Factory{}

// Register adds name to the compiled-in plugin registry. Called from an
// init() in each plugin's package (see dispatch/plugin/builtin).
func Register(name string, f Factory) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("dispatch: plugin %q already registered", name))
	}
	registry[name] = f
}

// LoadDir enumerates directory for manifest files the way loadPlugins()
// enumerated .py files: anything not starting with "__" and whose stem
// (extension stripped) names a registered plugin is instantiated. An
// unresolvable or duplicate-named file is logged and skipped rather than
// aborting the whole load, per §6's plugin-discovery contract.
func LoadDir(directory string) ([]Plugin, error) {
	var names []string
	err := godirwalk.Walk(directory, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, ent *godirwalk.Dirent) error {
			if ent.IsDir() {
				return nil
			}
			base := ent.Name()
			if strings.HasPrefix(base, "__") {
				return nil
			}
			names = append(names, stem(base))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: scan plugins dir %q: %w", directory, err)
	}
	sort.Strings(names)

	seen := make(map[string]bool, len(names))
	var plugins []Plugin
	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			nlog.Warningf("dispatch: no registered plugin for manifest %q", name)
			continue
		}
		p := factory()
		pname := p.Name()
		if seen[pname] {
			nlog.Errorf("dispatch: plugin %q (manifest %q) has a duplicate name", pname, name)
			continue
		}
		seen[pname] = true
		plugins = append(plugins, p)
	}
	return plugins, nil
}

func stem(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i > 0 {
		return filename[:i]
	}
	return filename
}
