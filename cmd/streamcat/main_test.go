package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func execute(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInit(t *testing.T) {
	names := []string{}
	for _, cmd := range newRootCommand().Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"cat", "lines"})
}

func TestCat(t *testing.T) {
	tests := []struct {
		input    string
		args     []string
		expected string
	}{
		{
			input:    "hello, streams",
			args:     []string{"cat"},
			expected: "hello, streams",
		},
		{
			input:    "hello, streams",
			args:     []string{"cat", "--upper", "--chunk-size", "3"},
			expected: "HELLO, STREAMS",
		},
		{
			input:    strings.Repeat("x", 10000),
			args:     []string{"cat", "--high-water-mark", "16", "--chunk-size", "7", "--stats"},
			expected: strings.Repeat("x", 10000),
		},
		{
			input: "",
			args:  []string{"cat"},
		},
	}
	for _, test := range tests {
		out, err := execute(t, test.input, test.args...)
		require.NoError(t, err, "args: %v", test.args)
		assert.Equal(t, test.expected, out)
	}
}

func TestLines(t *testing.T) {
	out, err := execute(t, "first\nsecond\nthird", "lines", "--chunk-size", "4")
	require.NoError(t, err)
	assert.Equal(t, "     1\tfirst\n     2\tsecond\n     3\tthird\n", out)
}

func TestInvalidFlags(t *testing.T) {
	_, err := execute(t, "", "cat", "--high-water-mark", "-1")
	assert.Error(t, err)
	_, err = execute(t, "", "cat", "--unknown")
	assert.Error(t, err)
}
