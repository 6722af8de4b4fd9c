package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlugin(t *testing.T) {
	for _, ok := range []string{"pslist", "windows.pslist.PsList", "linux_bash", "mac-x"} {
		assert.NoError(t, Plugin(ok), ok)
	}
	for _, bad := range []string{"", "-f", "ps list", "pslist;rm", "a/b"} {
		assert.Error(t, Plugin(bad), bad)
	}
}

func TestExtraArgs(t *testing.T) {
	assert.NoError(t, ExtraArgs(nil))
	assert.NoError(t, ExtraArgs([]string{"--pid", "4", "name with space"}))
	assert.Error(t, ExtraArgs([]string{"ok", "bad\nline"}))
	assert.Error(t, ExtraArgs([]string{"nul\x00"}))
}

func TestPath(t *testing.T) {
	assert.NoError(t, Path("/cases/mem.raw"))
	assert.Error(t, Path(""))
	assert.Error(t, Path("   "))
	assert.Error(t, Path("a\x00b"))
	assert.NoError(t, OptionalPath(""))
	assert.Error(t, OptionalPath("x\ny"))
}

func TestProfile(t *testing.T) {
	assert.NoError(t, Profile(""))
	assert.NoError(t, Profile("Win7SP1x64"))
	assert.Error(t, Profile("Win7 SP1"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc\tdef", SanitizeString("  a\x00b\x07c\tdef \r"))
}

func TestLimitAndDays(t *testing.T) {
	assert.Equal(t, 20, Limit(0))
	assert.Equal(t, 100, Limit(1000))
	assert.Equal(t, 5, Limit(5))
	assert.Equal(t, 7, Days(-1))
	assert.Equal(t, 365, Days(400))
	assert.Equal(t, 30, Days(30))
}
