//go:build linux || darwin || freebsd

package runtime

import (
	"fmt"
	"log"
	"plugin"

	"github.com/go-pkgz/fileutils"
)

// LoadPlugin opens the go plugin at opts.Plugin and makes the runtime with its NewRuntime factory.
// The plugin has to be built against the same version of this package.
func LoadPlugin(opts Options) (Runtime, error) {
	if opts.Plugin == "" {
		return nil, fmt.Errorf("plugin path is not set")
	}
	if !fileutils.IsFile(opts.Plugin) {
		return nil, fmt.Errorf("plugin %s not found", opts.Plugin)
	}

	p, err := plugin.Open(opts.Plugin)
	if err != nil {
		return nil, fmt.Errorf("can't open plugin %s: %w", opts.Plugin, err)
	}
	sym, err := p.Lookup(PluginSymbol)
	if err != nil {
		return nil, fmt.Errorf("can't find %s in plugin %s: %w", PluginSymbol, opts.Plugin, err)
	}

	var factory Factory
	switch f := sym.(type) {
	case func(Options) (Runtime, error):
		factory = f
	case *Factory:
		factory = *f
	default:
		return nil, fmt.Errorf("plugin %s symbol %s has unexpected type %T", opts.Plugin, PluginSymbol, sym)
	}
	log.Printf("[INFO] runtime plugin %s loaded", opts.Plugin)
	return factory(opts)
}
