package extension

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/umputun/lext/pkg/runtime/star"
)

// Params are extension parameters passed to Init as "key=value;key=value" string
type Params struct {
	Runtime  string // registered runtime name, starlark by default
	Plugin   string // path to runtime plugin, for plugin runtime
	MaxSteps uint64 // script execution steps limit, 0 for unlimited
	Debug    bool   // enable debug logging
}

// ParseParams parses extension parameters, empty string gives defaults
func ParseParams(s string) (Params, error) {
	res := Params{Runtime: star.Name}
	for _, kv := range strings.Split(s, ";") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return Params{}, fmt.Errorf("invalid extension parameter %q, expected key=value", kv)
		}
		key, val = strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(val)

		var err error
		switch key {
		case "runtime":
			res.Runtime = val
		case "plugin":
			res.Plugin = val
		case "maxsteps":
			res.MaxSteps, err = strconv.ParseUint(val, 10, 64)
		case "debug":
			res.Debug, err = strconv.ParseBool(val)
		default:
			return Params{}, fmt.Errorf("unknown extension parameter %q", key)
		}
		if err != nil {
			return Params{}, fmt.Errorf("invalid value of extension parameter %s: %w", key, err)
		}
	}
	if res.Runtime == "" {
		return Params{}, fmt.Errorf("empty runtime name")
	}
	return res, nil
}
