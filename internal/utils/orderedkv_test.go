package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOrderedKeepsDocumentOrder(t *testing.T) {
	pairs, err := DecodeOrdered([]byte(`{"10":{"a":1},"2":{"b":2},"total_count":2}`))
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	assert.Equal(t, "10", pairs[0].Key)
	assert.Equal(t, "2", pairs[1].Key)
	assert.Equal(t, "total_count", pairs[2].Key)
	assert.JSONEq(t, `{"b":2}`, string(pairs[1].Value))
	assert.JSONEq(t, `2`, string(pairs[2].Value))
}

func TestDecodeOrderedEmpty(t *testing.T) {
	pairs, err := DecodeOrdered([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, pairs)

	pairs, err = DecodeOrdered([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestDecodeOrderedRejectsOtherShapes(t *testing.T) {
	_, err := DecodeOrdered([]byte(`[1,2]`))
	assert.Error(t, err)

	_, err = DecodeOrdered([]byte(`"text"`))
	assert.Error(t, err)

	_, err = DecodeOrdered([]byte(`{"a":`))
	assert.Error(t, err)
}
