package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryRegisterAndGet(t *testing.T) {
	f := NewFactory[int]("test")
	f.Register("a", 1)
	f.Register("b", 2)

	got, err := f.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	assert.ElementsMatch(t, []string{"a", "b"}, f.ListProviderIDs())
}

func TestFactoryGetUnknownFails(t *testing.T) {
	f := NewFactory[string]("test")
	_, err := f.Get("missing")
	assert.Error(t, err)
}
