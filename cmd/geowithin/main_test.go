package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rulesDoc = `
rules:
  - name: near-sf
    rule_type: Within
    inputs: {d: 20, p: [37.7749, -122.4194]}
  - name: bay-area
    rule_type: Within
    inputs: {d: 80, p: [37.7749, -122.4194]}
  - name: far-from-sf
    rule_type: NotWithin
    inputs: {d: 150, p: [37.7749, -122.4194]}
`

// execute runs the root command in an empty working directory and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	configFile, verbose = "", false
	evalRule, evalThreshold, evalReference, evalSubject = "Within", 0, "", ""
	classifyRules, classifySubject, classifyFirst = "", "", false
	distanceFrom, distanceTo = "", ""
	checkRules = ""
	resetChanged(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetChanged clears flag state left by earlier Execute calls so required
// flags are enforced again.
func resetChanged(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) { f.Changed = false }
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetChanged(c)
	}
}

func writeRules(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rulesDoc), 0644))
	return path
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"eval", "classify", "distance", "check"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestEvalCommand(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			"within antipode",
			[]string{"eval", "--threshold", "20025", "--ref", "0,180", "--subject", "0,0"},
			"(0, 0) is within 20025 km of (0, 180): true\n",
		},
		{
			"within short of antipode",
			[]string{"eval", "-d", "20015", "-p", "0,180", "-s", "0,0"},
			"(0, 0) is within 20015 km of (0, 180): false\n",
		},
		{
			"not within arctic",
			[]string{"eval", "--rule", "NotWithin", "-d", "6220", "-p", "27,-123", "-s", "83,-127"},
			"(83, -127) is not within 6220 km of (27, -123): true\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestEvalCommand_Errors(t *testing.T) {
	_, err := execute(t, "eval", "--rule", "IsInRegion", "-d", "1", "-p", "0,0", "-s", "0,0")
	assert.Error(t, err)

	_, err = execute(t, "eval", "-d", "1", "-p", "0", "-s", "0,0")
	assert.Error(t, err)

	// Strict validation is on by default.
	_, err = execute(t, "eval", "-d", "1", "-p", "95,0", "-s", "0,0")
	assert.Error(t, err)

	_, err = execute(t, "eval", "-d", "-1", "-p", "0,0", "-s", "0,0")
	assert.Error(t, err)
}

func TestEvalCommand_Lenient(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "geowithin.yaml")
	require.NoError(t, os.WriteFile(path, []byte("validation:\n  strict: false\n"), 0644))

	out, err := execute(t, "--config", path, "eval", "-d", "1", "-p", "0,540", "-s", "0,180")
	require.NoError(t, err)
	assert.Equal(t, "(0, 180) is within 1 km of (0, 540): true\n", out)
}

func TestDistanceCommand(t *testing.T) {
	out, err := execute(t, "distance", "--from", "0,180", "--to", "0,0")
	require.NoError(t, err)
	assert.Equal(t, "20015.087 km\n", out)
}

func TestClassifyCommand(t *testing.T) {
	path := writeRules(t)

	out, err := execute(t, "classify", "--rules", path, "--subject", "37.8044,-122.2712")
	require.NoError(t, err)
	assert.Equal(t, "near-sf\nbay-area\n", out)

	out, err = execute(t, "classify", "--rules", path, "--subject", "37.3382,-121.8863", "--first")
	require.NoError(t, err)
	assert.Equal(t, "bay-area\n", out)

	out, err = execute(t, "classify", "--rules", path, "--subject", "38.5816,-121.4944")
	require.NoError(t, err)
	assert.Equal(t, "no match\n", out)
}

func TestClassifyCommand_Errors(t *testing.T) {
	_, err := execute(t, "classify", "--subject", "0,0")
	assert.Error(t, err)

	_, err = execute(t, "classify", "--rules", filepath.Join(t.TempDir(), "missing.yaml"), "--subject", "0,0")
	assert.Error(t, err)
}

func TestRequiredFlags(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		missing string
	}{
		{"eval without subject", []string{"eval", "-d", "1", "-p", "0,0"}, "subject"},
		{"eval without ref", []string{"eval", "-d", "1", "-s", "0,0"}, "ref"},
		{"eval without threshold", []string{"eval", "-p", "0,0", "-s", "0,0"}, "threshold"},
		{"classify without subject", []string{"classify", "--rules", "rules.yaml"}, "subject"},
		{"distance without to", []string{"distance", "--from", "0,0"}, "to"},
	}

	// A successful run first marks every flag as set on the shared command tree.
	_, err := execute(t, "eval", "-d", "1", "-p", "0,0", "-s", "0,0")
	require.NoError(t, err)
	_, err = execute(t, "distance", "--from", "0,0", "--to", "1,1")
	require.NoError(t, err)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), `required flag(s) "`+tc.missing+`" not set`)
		})
	}
}

func TestCheckCommand(t *testing.T) {
	path := writeRules(t)

	out, err := execute(t, "check", "--rules", path)
	require.NoError(t, err)
	assert.Contains(t, out, "name: far-from-sf")
	assert.Contains(t, out, "rule_type: NotWithin")
	assert.Contains(t, out, "p: [37.7749, -122.4194]")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rules:\n  - {name: x, rule_type: Within, inputs: {d: 1, p: [91, 0]}}\n"), 0644))
	_, err = execute(t, "check", "--rules", bad)
	assert.Error(t, err)

	_, err = execute(t, "check")
	assert.Error(t, err)
}

func TestRenderPlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, isTerminal(&buf))
	assert.Equal(t, "true", renderResult(&buf, true))
	assert.Equal(t, "false", renderResult(&buf, false))
	assert.Equal(t, "near-sf", render(&buf, matchStyle, "near-sf"))
}

func TestEvalRuleFlagListsKinds(t *testing.T) {
	flag := evalCmd.Flags().Lookup("rule")
	require.NotNil(t, flag)
	assert.Equal(t, "Within", flag.DefValue)
	assert.Contains(t, flag.Usage, "Within, NotWithin")
}
