package builder

import "github.com/m00que/Memforensics-MCP/internal/domain/engine"

// ModernToolchain locates the modern engine. Root is its install directory; it
// becomes both the module search path and the child's working directory.
type ModernToolchain struct {
	Interpreter string
	Script      string
	Root        string
}

// Environment overrides injected into every modern engine child.
const (
	EnvModulePath = "PYTHONPATH"
	EnvIOEncoding = "PYTHONIOENCODING"
)

// BuildModern produces
//
//	[interp, script, -f, image, --offline?, -r, <fmt>, -o <dir>?, plugin, extras..., --dump?]
func BuildModern(tc ModernToolchain, req engine.Request) engine.Invocation {
	args := []string{tc.Interpreter, tc.Script, "-f", req.ImagePath}
	if req.Offline {
		args = append(args, "--offline")
	}
	args = append(args, "-r", modernRenderer(req.EffectiveMode()))
	if req.DumpDir != "" {
		args = append(args, "-o", req.DumpDir)
	}
	args = append(args, req.Plugin)
	args = append(args, req.ExtraArgs...)
	if req.DumpDir != "" && !containsArg(req.ExtraArgs, "--dump") {
		args = append(args, "--dump")
	}
	return engine.Invocation{Args: args, Env: modernEnv(tc), Dir: tc.Root}
}

// BuildModernHelp produces the help invocation used to enumerate plugins.
func BuildModernHelp(tc ModernToolchain) engine.Invocation {
	return engine.Invocation{
		Args: []string{tc.Interpreter, tc.Script, "-h"},
		Env:  modernEnv(tc),
		Dir:  tc.Root,
	}
}

func modernEnv(tc ModernToolchain) map[string]string {
	return map[string]string{
		EnvModulePath: tc.Root,
		EnvIOEncoding: "utf-8",
	}
}

func modernRenderer(m engine.OutputMode) string {
	switch m {
	case engine.StructuredJSON:
		return "json"
	case engine.FreeText:
		return "quick"
	default:
		return "csv"
	}
}
