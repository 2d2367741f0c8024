package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompilerConfigStringEmptyReturnsDefault(t *testing.T) {
	c, err := ParseCompilerConfigString("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestParseCompilerConfigStringOverridesSelectively(t *testing.T) {
	c, err := ParseCompilerConfigString("insert_as_select_batch_size: 50\n")
	require.NoError(t, err)
	assert.Equal(t, 50, c.InsertAsSelectBatchSize)
	assert.Equal(t, Default().CreateAsSelectRetryCount, c.CreateAsSelectRetryCount)
}

func TestParseCompilerConfigStringRejectsUnknownField(t *testing.T) {
	_, err := ParseCompilerConfigString("not_a_real_field: 1\n")
	require.Error(t, err)
}

func TestParseCompilerConfigMissingFileErrors(t *testing.T) {
	_, err := ParseCompilerConfig("/nonexistent/path/config.yaml")
	require.Error(t, err)
}

func TestMergeKeepsBaseWhenOverrideZero(t *testing.T) {
	base := Default()
	merged := Merge(base, Compiler{})
	assert.Equal(t, base, merged)
}
