// File: cmd/cases_test.go
package cmd

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/sauce-e2e/internal/data"
)

func TestRunCases(t *testing.T) {
	provider, err := data.Default()
	require.NoError(t, err)

	t.Run("table of every case", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runCases(&out, provider, "", nil, false))
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 8)
		assert.True(t, strings.HasPrefix(lines[0], "ID"))
		assert.Contains(t, lines[1], "ok-standard")
		assert.Contains(t, lines[1], "smoke,happy")
	})

	t.Run("json filtered by outcome", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runCases(&out, provider, "locked", nil, true))
		var cases []data.Case
		require.NoError(t, json.Unmarshal(out.Bytes(), &cases))
		require.Len(t, cases, 1)
		assert.Equal(t, "locked-out", cases[0].ID)
	})

	t.Run("filtered by tag", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runCases(&out, provider, "", []string{"validation"}, true))
		var cases []data.Case
		require.NoError(t, json.Unmarshal(out.Bytes(), &cases))
		assert.Len(t, cases, 2)
	})

	t.Run("unknown outcome", func(t *testing.T) {
		err := runCases(&bytes.Buffer{}, provider, "maybe", nil, false)
		assert.EqualError(t, err, `unknown outcome "maybe"`)
	})
}

func TestCasesCmd(t *testing.T) {
	out, err := execute(t, "cases", "--tag", "smoke", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"ok-standard"`)
	assert.Contains(t, out, `"locked-out"`)
	assert.NotContains(t, out, `"ok-problem"`)
}
