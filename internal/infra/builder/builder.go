// Package builder turns engine requests into concrete process invocations.
// Builders are pure: they never spawn anything.
package builder

import (
	"fmt"
	"os"

	"github.com/m00que/Memforensics-MCP/internal/domain/engine"
)

// Builder dispatches a request to the builder for its engine family.
type Builder struct {
	Legacy LegacyToolchain
	Modern ModernToolchain
}

func (b Builder) Build(req engine.Request) (engine.Invocation, error) {
	switch req.Kind {
	case engine.LegacyCLI:
		return BuildLegacy(b.Legacy, req), nil
	case engine.ModernCLI:
		return BuildModern(b.Modern, req), nil
	case engine.NativeSession:
		return engine.Invocation{}, fmt.Errorf("engine %s runs in-process and has no command line", req.Kind)
	default:
		return engine.Invocation{}, fmt.Errorf("unsupported engine: %q", req.Kind)
	}
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

// Help returns the modern engine help invocation used to enumerate plugins.
func (b Builder) Help() engine.Invocation {
	return BuildModernHelp(b.Modern)
}
