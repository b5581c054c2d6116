package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
server_uri: memory://
times_to_run: 1
log:
  output: file
queries:
  create:
    type: write
    cql: "CREATE (:Person)"
  verify:
    type: read
    cql: "MATCH (p:Person) RETURN count(p)"
`

func writeConfig(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return dir, path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunCmd_WritesReport(t *testing.T) {
	dir, cfgPath := writeConfig(t, testConfig)
	report := filepath.Join(dir, "metrics.csv")
	jsonReport := filepath.Join(dir, "report.json")

	out, err := execute(t, "run", cfgPath, report,
		"--times", "3", "--order", "by-task", "--no-color",
		"--out-json", jsonReport,
		"--log-file", filepath.Join(dir, "debug.log"))
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "function_name,step_name,time_in_seconds", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "run_cypher,create,"))
	assert.True(t, strings.HasPrefix(lines[3], "run_cypher,create,"))
	assert.True(t, strings.HasPrefix(lines[4], "run_cypher,verify,"))

	assert.FileExists(t, jsonReport)
	assert.Contains(t, out, "=== Run Summary ===")
	assert.Contains(t, out, report)

	logData, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "Finished run_cypher with create in ")
}

func TestRunCmd_ParallelQuiet(t *testing.T) {
	dir, cfgPath := writeConfig(t, testConfig)
	report := filepath.Join(dir, "metrics.csv")

	out, err := execute(t, "run", cfgPath, report, "--parallel", "--workers", "2", "--times", "5", "--quiet",
		"--log-file", filepath.Join(dir, "debug.log"))
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 11)
}

func TestRunCmd_InvalidOrder(t *testing.T) {
	dir, cfgPath := writeConfig(t, testConfig)

	_, err := execute(t, "run", cfgPath, filepath.Join(dir, "m.csv"), "--order", "random", "--quiet",
		"--log-file", filepath.Join(dir, "debug.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG_ERROR")
	assert.Contains(t, err.Error(), "order")
}

func TestRunCmd_MissingConfig(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestRunCmd_ExtraArgsIgnored(t *testing.T) {
	dir, cfgPath := writeConfig(t, testConfig)
	report := filepath.Join(dir, "metrics.csv")
	logFile := filepath.Join(dir, "debug.log")

	_, err := execute(t, "run", cfgPath, report, "extra", "more", "--quiet", "--log-file", logFile)
	require.NoError(t, err)
	assert.FileExists(t, report)
	assert.NoFileExists(t, filepath.Join(dir, "extra"))

	logData, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logData), "ignoring extra positional arguments")
	assert.Contains(t, string(logData), "extra")
}

func TestValidateCmd(t *testing.T) {
	dir, cfgPath := writeConfig(t, testConfig)

	out, err := execute(t, "validate", cfgPath, "--log-file", filepath.Join(dir, "debug.log"))
	require.NoError(t, err)
	assert.Contains(t, out, "create")
	assert.Contains(t, out, "verify")
	assert.Contains(t, out, "共 2 个查询，2 次调用")
}

func TestValidateCmd_Invalid(t *testing.T) {
	dir, cfgPath := writeConfig(t, strings.Replace(testConfig, "type: read", "type: readonly", 1))

	_, err := execute(t, "validate", cfgPath, "--log-file", filepath.Join(dir, "debug.log"))
	require.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "graph-loadtest version "+Version+"\n", out)
}
