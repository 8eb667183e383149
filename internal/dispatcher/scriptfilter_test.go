package dispatcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeCountingScript writes a shell script that appends one byte to
// countFile on every invocation (so the test can measure spawn count) and
// prints a single-item JSON result.
func writeCountingScript(t *testing.T, dir, countFile string) string {
	t.Helper()
	script := "#!/bin/sh\n" +
		"printf 'x' >> \"" + countFile + "\"\n" +
		"printf '{\"items\":[{\"title\":\"T\",\"arg\":\"https://x/\"}]}'\n"
	path := filepath.Join(dir, "filter.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func spawnCount(t *testing.T, countFile string) int {
	t.Helper()
	data, err := os.ReadFile(countFile)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(data)
}

func TestScriptFilterCachesWithinTTL(t *testing.T) {
	dir := t.TempDir()
	countFile := filepath.Join(dir, "count")
	script := writeCountingScript(t, dir, countFile)

	results, err := executeScriptFilter(script, dir, "q", "s")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, ResultOpenUrl, results[0].Action.Kind)
	require.Equal(t, "https://x/", results[0].Action.URL)
	require.Equal(t, 1, spawnCount(t, countFile))

	time.Sleep(500 * time.Millisecond)
	results2, err := executeScriptFilter(script, dir, "q", "s")
	require.NoError(t, err)
	require.Len(t, results2, 1)
	require.Equal(t, 1, spawnCount(t, countFile), "cached result must not re-spawn within the TTL")
}

func TestScriptFilterReexecutesAfterTTL(t *testing.T) {
	dir := t.TempDir()
	countFile := filepath.Join(dir, "count")
	script := writeCountingScript(t, dir, countFile)

	_, err := executeScriptFilter(script, dir, "q", "s")
	require.NoError(t, err)
	require.Equal(t, 1, spawnCount(t, countFile))

	time.Sleep(2500 * time.Millisecond)
	_, err = executeScriptFilter(script, dir, "q", "s")
	require.NoError(t, err)
	require.Equal(t, 2, spawnCount(t, countFile), "a request past the TTL must re-execute")
}

func TestScriptFilterNotFoundErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := executeScriptFilter("missing.sh", dir, "q", "s")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestScriptFilterTimeout(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "slow.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 5\n"), 0o755))

	_, err := executeScriptFilter(script, dir, "q", "s")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "timed out"))
}

func TestScriptFilterNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "fail.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho boom 1>&2\nexit 1\n"), 0o755))

	_, err := executeScriptFilter(script, dir, "q", "s")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestClassifyArgMapping(t *testing.T) {
	require.Equal(t, ResultOpenUrl, classifyArg("https://example.com").Kind)
	require.Equal(t, ResultRunCommand, classifyArg("cmd:ls -la").Kind)
	require.Equal(t, "/bin/sh", classifyArg("cmd:ls -la").Cmd)
	require.Equal(t, "file:///tmp/x", classifyArg("/tmp/x").URL)
	require.Equal(t, ResultOpenUrl, classifyArg("plain-text").Kind)
}
