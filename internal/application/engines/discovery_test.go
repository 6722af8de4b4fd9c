package engines

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m00que/Memforensics-MCP/internal/domain/engine"
)

const imageinfoOutput = `Volatility Foundation Volatility Framework 2.6
INFO    : volatility.debug    : Determining profile based on KDBG search...
          Suggested Profile(s) : Win7SP1x64, Win7SP0x64, Win2008R2SP0x64
                     AS Layer1 : WindowsAMD64PagedMemory (Kernel AS)
`

const helpOutput = `usage: volatility [-h] [-c CONFIG] [--parallelism [{processes,threads,off}]]
                  plugin ...

options:
  -h, --help            Show this help message and exit
  -f FILE, --file FILE  Shorthand for --single-location=file://

Plugins:
  For plugin specific options, run 'volatility <plugin> --help'

  plugin
    banners.Banners     Attempts to identify potential linux banners in an
    windows.pslist.PsList
                        Lists the processes present in a particular windows
    windows.netscan.NetScan
                        Scans for network objects present in a particular
    windows.pslist.PsList
    linux.bash.Bash     Recovers bash command history from memory.
    timeliner.Timeliner
                        Runs all relevant plugins that provide time related
`

func TestDetectProfileCachesPerImage(t *testing.T) {
	r := &fakeRunner{respond: stdout(imageinfoOutput)}
	s, image := newService(t, r)

	p, err := s.DetectProfile(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, "Win7SP1x64", p)

	p, err = s.DetectProfile(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, "Win7SP1x64", p)

	require.Equal(t, 1, r.count())
	args := r.calls[0].inv.Args
	assert.Equal(t, "imageinfo", args[len(args)-1])
}

func TestDetectProfileNoSuggestion(t *testing.T) {
	r := &fakeRunner{respond: stdout("Suggested Profile(s) : No suggestion (Instantiated with no profile)\n")}
	s, image := newService(t, r)

	_, err := s.DetectProfile(context.Background(), image)
	assert.ErrorIs(t, err, ErrProfileNotDetected)
}

func TestDetectProfileSpawnFailure(t *testing.T) {
	r := &fakeRunner{respond: func(engine.Invocation) engine.Outcome {
		return engine.Outcome{Status: engine.SpawnFailed, Stderr: []byte("missing interpreter")}
	}}
	s, image := newService(t, r)

	_, err := s.DetectProfile(context.Background(), image)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing interpreter")
}

func TestParseSuggestedProfile(t *testing.T) {
	assert.Equal(t, "Win7SP1x64", ParseSuggestedProfile(imageinfoOutput))
	assert.Equal(t, "WinXPSP2x86", ParseSuggestedProfile("Suggested Profile(s) : WinXPSP2x86\n"))
	assert.Empty(t, ParseSuggestedProfile("nothing here"))
}

func TestListPluginsDefaultPattern(t *testing.T) {
	r := &fakeRunner{respond: stdout(helpOutput)}
	s, _ := newService(t, r)

	names, err := s.ListPlugins(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"windows.netscan.NetScan", "windows.pslist.PsList"}, names)

	require.Equal(t, 1, r.count())
	assert.Equal(t, []string{"/opt/py3/python", "/opt/vol3/vol.py", "-h"}, r.calls[0].inv.Args)
	assert.Equal(t, 30*time.Second, r.calls[0].timeout)
}

func TestListPluginsCustomPattern(t *testing.T) {
	r := &fakeRunner{respond: stdout(helpOutput)}
	s, _ := newService(t, r)

	names, err := s.ListPlugins(context.Background(), "*.*.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"linux.bash.Bash", "windows.netscan.NetScan", "windows.pslist.PsList"}, names)

	names, err = s.ListPlugins(context.Background(), "*.pslist.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"windows.pslist.PsList"}, names)
}

func TestListPluginsErrors(t *testing.T) {
	r := &fakeRunner{respond: func(engine.Invocation) engine.Outcome {
		return engine.Outcome{Status: engine.TimedOut, Timeout: 30 * time.Second}
	}}
	s, _ := newService(t, r)

	_, err := s.ListPlugins(context.Background(), "[")
	assert.Error(t, err)

	_, err = s.ListPlugins(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
