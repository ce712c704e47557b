package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPage_TokenEstimate(t *testing.T) {
	uri := MustPageURI("r/text:t1@1")

	p := NewTextPage(uri, "one two three")
	// ceil(3 * 4/3) = 4
	assert.Equal(t, 4, p.Metadata().TokenCount)

	empty := NewTextPage(uri, "")
	assert.Equal(t, 0, empty.Metadata().TokenCount)
}

func TestPage_Serialization(t *testing.T) {
	uri := MustPageURI("r/text:t1@1")
	p := NewTextPage(uri, "hello world")

	data, err := MarshalPage(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "r/text:t1@1", decoded["uri"])
	assert.Equal(t, "hello world", decoded["content"])
}

func TestPageReference_Resolution(t *testing.T) {
	uri := MustPageURI("r/text:t1@1")
	ref := NewPageReference(uri, "contains hello")

	assert.False(t, ref.Resolved())
	assert.Nil(t, ref.Page())

	page := NewTextPage(uri, "hello")
	ref.AttachPage(page)
	assert.True(t, ref.Resolved())
	assert.Equal(t, page, ref.Page())
	assert.NoError(t, ref.ResolveErr())

	failed := NewPageReference(uri, "gone")
	failed.RecordResolveError(errors.New("handler unavailable"))
	assert.False(t, failed.Resolved())
	assert.Error(t, failed.ResolveErr())
}

func TestResponseCode(t *testing.T) {
	assert.True(t, ResponseSuccess.Valid())
	assert.True(t, ResponseNotFound.Valid())
	assert.False(t, ResponseCode("bogus").Valid())

	assert.Equal(t, "No matching documents found", ResponseNotFound.DefaultMessage())
	assert.NotEmpty(t, ResponseCode("bogus").DefaultMessage())
}
