package dancer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteNamedParamsOrdersArgs(t *testing.T) {
	query, args, err := rewriteNamedParams(
		"SELECT * FROM t WHERE a = :a AND b = :b",
		map[string]any{"a": 1, "b": "x"},
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = ? AND b = ?", query)
	assert.Equal(t, []any{1, "x"}, args)
}

func TestRewriteNamedParamsRepeatedPlaceholder(t *testing.T) {
	query, args, err := rewriteNamedParams(
		"SELECT * FROM t WHERE a = :v OR b = :v",
		map[string]any{"v": 7},
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = ? OR b = ?", query)
	assert.Equal(t, []any{7, 7}, args)
}

func TestRewriteNamedParamsMissingParamErrors(t *testing.T) {
	_, _, err := rewriteNamedParams("SELECT * FROM t WHERE a = :missing", nil)
	require.Error(t, err)
}
