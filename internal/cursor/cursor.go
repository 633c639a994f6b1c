// Package cursor implements UTF-8 byte-offset scanners used by the
// sentence-aware chunkers. Cursor scans forward, CursorRev scans backward;
// both snap to character boundaries and understand skip lists so an
// abbreviation or URL glued to a delimiter does not count as a sentence stop.
package cursor

import (
	"unicode"
	"unicode/utf8"
)

// DefaultSkipForward are patterns that, found immediately after a delimiter,
// suppress that delimiter as a sentence stop (e.g. "example.com").
var DefaultSkipForward = []string{
	"com", "org", "net",
	"g.", "e.",
	"sh", "rs", "js", "json",
}

// DefaultSkipBack are patterns that, found immediately before a delimiter,
// suppress that delimiter as a sentence stop (e.g. "etc.").
var DefaultSkipBack = []string{
	"www",
	"etc", "e.g", "i.e",
}

// Cursor scans a string forward by byte offset while iterating runes.
type Cursor struct {
	buf        string
	runes      []rune
	byteCount  int
	byteOffset int
	pos        int
	delim      rune
}

// New creates a forward cursor over input, snapping to delim.
func New(input string, delim rune) *Cursor {
	return &Cursor{
		buf:       input,
		runes:     []rune(input),
		byteCount: len(input),
		delim:     delim,
	}
}

// Finished reports whether the cursor has reached the tail of the buffer.
func (c *Cursor) Finished() bool {
	return c.byteOffset == c.byteCount-utf8.RuneLen(c.delim)
}

// ByteOffset returns the cursor's current byte offset into the buffer.
func (c *Cursor) ByteOffset() int {
	return c.byteOffset
}

// GetSlice returns the content scanned so far, or the full buffer once
// finished.
func (c *Cursor) GetSlice() string {
	if c.buf == "" || c.Finished() {
		return c.buf
	}
	return c.buf[:c.byteOffset]
}

// Advance moves the cursor past the next delimiter-terminated sentence.
// Repeated delimiters are treated as a single stop; a delimiter glued to a
// non-whitespace, non-delimiter character is not treated as a stop.
func (c *Cursor) Advance() {
	if c.buf == "" || c.Finished() {
		return
	}

	for c.pos < len(c.runes) {
		ch := c.runes[c.pos]
		c.pos++
		c.byteOffset += utf8.RuneLen(ch)

		if c.byteOffset == c.byteCount-utf8.RuneLen(c.delim) {
			return
		}

		if ch != c.delim {
			continue
		}

		stop := true

		for c.pos < len(c.runes) {
			peek := c.runes[c.pos]
			if peek == c.delim {
				c.pos++
				c.byteOffset += utf8.RuneLen(peek)
				stop = false
			} else if !isSpace(peek) {
				c.pos++
				c.byteOffset += utf8.RuneLen(peek)
				stop = false
				break
			} else {
				break
			}
		}

		if stop {
			return
		}
	}
}

// AdvanceExact advances the cursor by the byte length of pat, assuming the
// caller already confirmed pat matches the upcoming text via PeekForward.
func (c *Cursor) AdvanceExact(pat string) {
	for _, ch := range pat {
		if c.pos < len(c.runes) {
			c.pos++
		}
		c.byteOffset += utf8.RuneLen(ch)
	}
}

// PeekBack reports whether the bytes immediately behind the cursor equal pat.
func (c *Cursor) PeekBack(pat string) bool {
	patLen := len(pat)

	if saturatingSub(c.byteOffset, patLen) == 0 {
		return false
	}

	if c.Finished() {
		return false
	}

	start := c.byteOffset - 1 - patLen
	end := c.byteOffset - 1

	start = snapBack(start, c.buf)
	end = snapBack(end, c.buf)

	if start < 0 || end < 0 || start > end || end > len(c.buf) {
		return false
	}

	return c.buf[start:end] == pat
}

// PeekForward reports whether the bytes immediately ahead of the cursor
// equal pat.
func (c *Cursor) PeekForward(pat string) bool {
	patLen := len(pat)

	if c.byteOffset+patLen >= c.byteCount {
		return false
	}

	end := snapFront(c.byteOffset+patLen, c.buf)

	if c.byteOffset < 0 || end > len(c.buf) || c.byteOffset > end {
		return false
	}

	return c.buf[c.byteOffset:end] == pat
}

// AdvanceIfPeek checks forward skips first (advancing past a match), then
// backward skips (which only suppress the stop, without advancing). It
// reports whether either list matched.
func (c *Cursor) AdvanceIfPeek(forward, back []string) bool {
	for _, s := range forward {
		if c.PeekForward(s) {
			c.AdvanceExact(s)
			return true
		}
	}

	for _, s := range back {
		if c.PeekBack(s) {
			return true
		}
	}

	return false
}

// CursorRev scans a string backward. Its offset is always kept on a
// delimiter boundary while advancing.
type CursorRev struct {
	buf        string
	runes      []rune
	byteCount  int
	byteOffset int
	idx        int
	delim      rune
}

// NewRev creates a reverse cursor over input, snapping to delim.
func NewRev(input string, delim rune) *CursorRev {
	runes := []rune(input)
	idx := len(runes) - 1
	if idx >= 0 {
		// Skip the delimiter expected at the end of input.
		idx--
	}
	return &CursorRev{
		buf:        input,
		runes:      runes,
		byteCount:  len(input),
		byteOffset: saturatingSub(len(input), utf8.RuneLen(delim)),
		idx:        idx,
		delim:      delim,
	}
}

func (c *CursorRev) next() (rune, bool) {
	if c.idx < 0 {
		return 0, false
	}
	r := c.runes[c.idx]
	c.idx--
	return r, true
}

func (c *CursorRev) peek() (rune, bool) {
	if c.idx < 0 {
		return 0, false
	}
	return c.runes[c.idx], true
}

// Finished reports whether the cursor has reached the head of the buffer.
func (c *CursorRev) Finished() bool {
	return c.byteOffset == 0
}

// GetSlice returns the content scanned so far (from the tail), or the full
// buffer once finished.
func (c *CursorRev) GetSlice() string {
	if c.Finished() {
		return c.buf
	}
	return c.buf[c.byteOffset+utf8.RuneLen(c.delim):]
}

// Advance moves the cursor one sentence further toward the head.
func (c *CursorRev) Advance() {
	if c.Finished() {
		return
	}

	for {
		ch, ok := c.next()
		if !ok {
			break
		}

		if c.Finished() {
			break
		}

		c.byteOffset -= utf8.RuneLen(ch)

		if ch != c.delim {
			continue
		}

		stop := true

		for {
			peek, ok := c.peek()
			if !ok || peek != c.delim {
				break
			}
			c.next()
			c.byteOffset -= utf8.RuneLen(peek)
			stop = false
		}

		if stop {
			break
		}
	}
}

// AdvanceExact moves the cursor back by the byte length of pat.
func (c *CursorRev) AdvanceExact(pat string) {
	for _, ch := range pat {
		c.next()
		c.byteOffset = saturatingSub(c.byteOffset, utf8.RuneLen(ch))
	}
}

// PeekBack reports whether the bytes immediately behind the cursor equal pat.
func (c *CursorRev) PeekBack(pat string) bool {
	if c.Finished() {
		return false
	}

	start := saturatingSub(c.byteOffset, len(pat))
	start = snapBack(start, c.buf)

	if start < 0 || start > c.byteOffset || c.byteOffset > len(c.buf) {
		return false
	}

	return c.buf[start:c.byteOffset] == pat
}

// PeekForward reports whether the bytes immediately ahead of the cursor
// equal pat.
func (c *CursorRev) PeekForward(pat string) bool {
	patLen := len(pat)

	if c.Finished() || c.byteOffset+patLen >= c.byteCount {
		return false
	}

	start := snapFront(c.byteOffset+1, c.buf)
	end := snapFront(c.byteOffset+1+patLen, c.buf)

	if start > end || end > len(c.buf) {
		return false
	}

	return c.buf[start:end] == pat
}

// AdvanceIfPeek checks forward skips first (which only suppress the stop,
// without advancing), then backward skips (advancing past a match). It
// reports whether either list matched. The polarity is the mirror image of
// Cursor.AdvanceIfPeek.
func (c *CursorRev) AdvanceIfPeek(forward, back []string) bool {
	for _, s := range forward {
		if c.PeekForward(s) {
			return true
		}
	}

	for _, s := range back {
		if c.PeekBack(s) {
			c.AdvanceExact(s)
			return true
		}
	}

	return false
}

// SnapFront moves i forward to the next UTF-8 character boundary in s.
func SnapFront(i int, s string) int {
	return snapFront(i, s)
}

// SnapBack moves i backward to the previous UTF-8 character boundary in s.
func SnapBack(i int, s string) int {
	return snapBack(i, s)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}

func saturatingSub(a, b int) int {
	if a < b {
		return 0
	}
	return a - b
}

func isCharBoundary(i int, s string) bool {
	if i <= 0 || i >= len(s) {
		return true
	}
	return utf8.RuneStart(s[i])
}

func snapFront(i int, s string) int {
	for i < len(s) && !isCharBoundary(i, s) {
		i++
	}
	return i
}

func snapBack(i int, s string) int {
	if i <= 0 {
		return 0
	}
	for i > 0 && !isCharBoundary(i, s) {
		i--
	}
	return i
}
