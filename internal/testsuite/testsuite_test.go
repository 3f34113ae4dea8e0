package testsuite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalnine/trackbench/internal/proc"
	"github.com/signalnine/trackbench/internal/testsuite"
)

var gtestOutput = []string{
	"[==========] Running 3 tests from 1 test suite.",
	"[----------] 3 tests from seeding",
	"[ RUN      ] seeding.triplets",
	"[       OK ] seeding.triplets (2 ms)",
	"[ RUN      ] seeding.doublets",
	"[  FAILED  ] seeding.doublets (1 ms)",
	"[==========] 3 tests from 1 test suite ran. (5 ms total)",
	"[  PASSED  ] 2 tests.",
	"[  FAILED  ] 1 test, listed below:",
	"[  FAILED  ] seeding.doublets",
}

func TestSummaryBlockUsesLastDelimiter(t *testing.T) {
	block := testsuite.SummaryBlock(gtestOutput, "[==========]")
	require.Len(t, block, 4)
	assert.Equal(t, "[==========] 3 tests from 1 test suite ran. (5 ms total)", block[0])
}

func TestSummaryBlockMissingDelimiter(t *testing.T) {
	assert.Nil(t, testsuite.SummaryBlock([]string{"no summary here"}, "[==========]"))
	assert.Nil(t, testsuite.SummaryBlock(gtestOutput, ""))
}

func TestParseCounts(t *testing.T) {
	passed, failed := testsuite.ParseCounts(testsuite.SummaryBlock(gtestOutput, "[==========]"))
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)
}

func TestParseAllPassed(t *testing.T) {
	lines := []string{"[==========] 12 tests from 4 test suites ran. (30 ms total)", "[  PASSED  ] 12 tests."}
	r := testsuite.Parse(lines, 0, "[==========]")
	assert.Equal(t, 12, r.Passed)
	assert.Equal(t, 0, r.Failed)
	assert.True(t, r.OK())
}

func TestRunLocalScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), "tests.sh")
	body := "#!/bin/sh\necho '[==========] 1 test from 1 test suite ran. (0 ms total)'\necho '[  PASSED  ] 1 test.'\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	r, err := testsuite.Run(context.Background(), proc.Local{}, &proc.Invocation{Path: script}, "[==========]")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Passed)
	assert.Len(t, r.Summary, 2)
	assert.True(t, r.OK())
}

func TestRunFailingSuite(t *testing.T) {
	script := filepath.Join(t.TempDir(), "tests.sh")
	body := "#!/bin/sh\necho '[==========] 1 test ran.'\necho '[  FAILED  ] 1 test, listed below:'\nexit 1\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	r, err := testsuite.Run(context.Background(), proc.Local{}, &proc.Invocation{Path: script}, "[==========]")
	require.NoError(t, err)
	assert.Equal(t, 1, r.ExitCode)
	assert.Equal(t, 1, r.Failed)
	assert.False(t, r.OK())
}

func TestRunMissingExecutable(t *testing.T) {
	_, err := testsuite.Run(context.Background(), proc.Local{}, &proc.Invocation{Path: "/nonexistent/traccc_test_cuda"}, "[==========]")
	assert.Error(t, err)
}
