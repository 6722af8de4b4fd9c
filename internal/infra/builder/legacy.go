package builder

import "github.com/m00que/Memforensics-MCP/internal/domain/engine"

// LegacyToolchain locates the legacy engine: an old interpreter running a
// single entry script, plus optional plugin search directories.
type LegacyToolchain struct {
	Interpreter string
	Script      string
	PluginDirs  []string
}

// BuildLegacy produces
//
//	[interp, script, --plugins=<dir>..., -f, image, --profile=<p>?, plugin, --output=<fmt>?, extras..., --dump-dir=<dir>?]
//
// Extra arguments come after the plugin flags so they can override them positionally.
func BuildLegacy(tc LegacyToolchain, req engine.Request) engine.Invocation {
	args := []string{tc.Interpreter, tc.Script}
	for _, dir := range tc.PluginDirs {
		if dirExists(dir) {
			args = append(args, "--plugins="+dir)
		}
	}
	args = append(args, "-f", req.ImagePath)
	if req.Profile != "" {
		args = append(args, "--profile="+req.Profile)
	}
	args = append(args, req.Plugin)

	switch req.EffectiveMode() {
	case engine.StructuredJSON:
		args = append(args, "--output=json")
	case engine.DelimitedText:
		args = append(args, "--output=csv")
	}

	args = append(args, req.ExtraArgs...)
	if req.DumpDir != "" {
		args = append(args, "--dump-dir="+req.DumpDir)
	}
	return engine.Invocation{Args: args}
}
