package engines

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/m00que/Memforensics-MCP/internal/domain/engine"
	"github.com/m00que/Memforensics-MCP/internal/infra/normalize"
)

// DefaultPluginPattern matches every Windows plugin of the modern engine.
const DefaultPluginPattern = "windows.**"

// ErrProfileNotDetected is returned when imageinfo suggests no profile.
var ErrProfileNotDetected = errors.New("profile could not be detected; specify one explicitly")

const suggestedProfileMarker = "Suggested Profile(s)"

// DetectProfile asks the legacy engine's imageinfo plugin for the image's
// profile and returns the first suggestion. Results are cached per image for
// the lifetime of the Service.
func (s *Service) DetectProfile(ctx context.Context, imagePath string) (string, error) {
	key, err := filepath.Abs(imagePath)
	if err != nil {
		key = imagePath
	}
	s.profileMu.Lock()
	p, ok := s.profiles[key]
	s.profileMu.Unlock()
	if ok {
		return p, nil
	}

	res := s.Run(ctx, engine.Request{
		Kind:      engine.LegacyCLI,
		Plugin:    "imageinfo",
		Mode:      engine.FreeText,
		ImagePath: imagePath,
	})
	if res.Error != nil && res.Error.Kind != engine.ErrorNonZeroExit {
		return "", fmt.Errorf("imageinfo: %s", res.Error.Message)
	}
	p = ParseSuggestedProfile(res.RawOutput)
	if p == "" {
		return "", ErrProfileNotDetected
	}

	s.profileMu.Lock()
	if s.profiles == nil {
		s.profiles = make(map[string]string)
	}
	s.profiles[key] = p
	s.profileMu.Unlock()
	s.log().Info("profile detected", "image", imagePath, "profile", p)
	return p, nil
}

// ParseSuggestedProfile extracts the first profile from a line such as
//
//	Suggested Profile(s) : Win7SP1x64, Win7SP0x64, Win2008R2SP0x64
func ParseSuggestedProfile(output string) string {
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, suggestedProfileMarker) {
			continue
		}
		_, list, ok := strings.Cut(line, ":")
		if !ok {
			return ""
		}
		first, _, _ := strings.Cut(list, ",")
		first = strings.TrimSpace(first)
		// imageinfo prints "No suggestion (Instantiated with ...)" on failure
		if strings.HasPrefix(first, "No suggestion") {
			return ""
		}
		return first
	}
	return ""
}

// ListPlugins runs the modern engine's help and returns the plugin names that
// match pattern (a glob with '.' as separator; empty means
// DefaultPluginPattern), sorted and without duplicates.
func (s *Service) ListPlugins(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPluginPattern
	}
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return nil, fmt.Errorf("invalid plugin pattern %q: %w", pattern, err)
	}
	hb, ok := s.Builder.(HelpBuilder)
	if !ok {
		return nil, errors.New("builder cannot produce a help invocation")
	}

	out := s.Runner.Run(ctx, hb.Help(), s.timeouts().Help)
	switch out.Status {
	case engine.SpawnFailed, engine.TimedOut:
		res := normalize.Normalize(out, engine.FreeText)
		return nil, fmt.Errorf("plugin listing: %s", res.Error.Message)
	}

	var names []string
	for _, name := range ParsePluginNames(string(out.Stdout)) {
		if g.Match(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// ParsePluginNames returns the first token of every line after the "Plugins"
// heading that looks like a dotted plugin name.
func ParsePluginNames(help string) []string {
	seen := make(map[string]struct{})
	inPlugins := false
	sc := bufio.NewScanner(strings.NewReader(help))
	for sc.Scan() {
		line := sc.Text()
		if !inPlugins {
			inPlugins = strings.Contains(line, "Plugins")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if !strings.Contains(name, ".") || strings.HasPrefix(name, "-") || strings.HasSuffix(name, ".") {
			continue
		}
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
