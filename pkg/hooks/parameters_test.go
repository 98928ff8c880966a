package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParametersEmpty(t *testing.T) {
	assert.Nil(t, parseParameters(""))
}

func TestParseParametersKeyValue(t *testing.T) {
	params := parseParameters("a=1,b=2")
	require.Len(t, params, 2)
	assert.Equal(t, "a", params[0].Key)
	require.NotNil(t, params[0].Value)
	assert.Equal(t, "1", *params[0].Value)
}

func TestParseParametersBareKey(t *testing.T) {
	params := parseParameters("flag")
	require.Len(t, params, 1)
	assert.Equal(t, "flag", params[0].Key)
	assert.Nil(t, params[0].Value)
}

func TestParseParametersSkipsBlankEntries(t *testing.T) {
	params := parseParameters("a=1,,b=2")
	assert.Len(t, params, 2)
}
