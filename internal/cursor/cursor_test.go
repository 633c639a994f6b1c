package cursor

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorAdvancesToDelimiter(t *testing.T) {
	input := "This is such a sentence. One of the sentences in the world. Super wow."
	c := New(input, '.')
	expected := []string{
		"This is such a sentence.",
		"This is such a sentence. One of the sentences in the world.",
		input,
	}
	require.Empty(t, c.GetSlice())
	for _, want := range expected {
		c.Advance()
		assert.Equal(t, want, c.GetSlice())
	}
}

func TestCursorAdvancesPastRepeatingDelimiters(t *testing.T) {
	input := "This is such a sentence... One of the sentences in the world. Super wow."
	c := New(input, '.')
	expected := []string{
		"This is such a sentence... One of the sentences in the world.",
		input,
	}
	for _, want := range expected {
		c.Advance()
		assert.Equal(t, want, c.GetSlice())
	}
}

func TestCursorPeekForward(t *testing.T) {
	input := "This. Is. Sentence. etc."
	c := New(input, '.')
	expected := []string{"This", " Is", " Sentence", " etc"}
	for _, want := range expected {
		assert.True(t, c.PeekForward(want))
		c.Advance()
	}
	assert.False(t, c.PeekForward("etc"))
}

func TestCursorPeekBack(t *testing.T) {
	input := "This. Is. Sentence. etc."
	c := New(input, '.')
	expected := []string{"This", " Is", " Sentence"}
	assert.False(t, c.PeekBack("This"))
	for _, want := range expected {
		c.Advance()
		assert.True(t, c.PeekBack(want))
	}
}

func TestRevCursorAdvancesToDelimiter(t *testing.T) {
	input := "This is such a sentence. One of the sentences in the world. Super wow."
	c := NewRev(input, '.')
	expected := []string{
		" Super wow.",
		" One of the sentences in the world. Super wow.",
		input,
	}
	for _, want := range expected {
		c.Advance()
		assert.Equal(t, want, c.GetSlice())
	}
}

func TestRevCursorAdvancesPastRepeatingDelimiters(t *testing.T) {
	input := "This is such a sentence..... Very sentencey. So many.......... words. One of the sentences in the world... Super wow."
	c := NewRev(input, '.')
	expected := []string{
		" One of the sentences in the world... Super wow.",
		" So many.......... words. One of the sentences in the world... Super wow.",
		input,
	}
	for _, want := range expected {
		c.Advance()
		assert.Equal(t, want, c.GetSlice())
	}
}

func TestRevCursorPeekForward(t *testing.T) {
	input := "This. Is. Sentence. etc."
	c := NewRev(input, '.')
	expected := []string{" Is", " Sentence", " etc"}
	for i := len(expected) - 1; i >= 0; i-- {
		c.Advance()
		assert.True(t, c.PeekForward(expected[i]), expected[i])
	}
}

func TestRevCursorPeekBack(t *testing.T) {
	input := "This. Is. Sentence. etc."
	c := NewRev(input, '.')
	expected := []string{"This", " Is", " Sentence", " etc"}
	assert.True(t, c.PeekBack("etc"))
	for i := len(expected) - 1; i >= 0; i-- {
		assert.True(t, c.PeekBack(expected[i]))
		c.Advance()
	}
	assert.False(t, c.PeekBack("etc"))
}

func TestCharSizeMultiByte(t *testing.T) {
	// 'Ü' (U with diaeresis) takes 2 bytes in UTF-8.
	ch := 'Ü'
	buf := make([]byte, utf8.UTFMax)
	n := utf8.EncodeRune(buf, ch)
	assert.Equal(t, 2, n)
}
