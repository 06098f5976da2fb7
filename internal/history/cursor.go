package history

// Cursor walks the in-memory command list for ArrowUp/ArrowDown recall.
// Stepping past the newest entry returns the draft that was being typed.
type Cursor struct {
	entries []string
	pos     int
	draft   string
}

func NewCursor(entries []string) *Cursor {
	c := &Cursor{entries: append([]string(nil), entries...)}
	c.pos = len(c.entries)
	return c
}

// Push records a submitted command and resets the cursor.
func (c *Cursor) Push(code string) {
	if code != "" && (len(c.entries) == 0 || c.entries[len(c.entries)-1] != code) {
		c.entries = append(c.entries, code)
	}
	c.Reset()
}

func (c *Cursor) Reset() {
	c.pos = len(c.entries)
	c.draft = ""
}

// Prev moves to the previous entry. current is saved as the draft when
// leaving the live prompt.
func (c *Cursor) Prev(current string) (string, bool) {
	if len(c.entries) == 0 {
		return current, false
	}
	if c.pos == len(c.entries) {
		c.draft = current
	}
	if c.pos > 0 {
		c.pos--
	}
	return c.entries[c.pos], true
}

func (c *Cursor) Next() (string, bool) {
	if c.pos >= len(c.entries) {
		return c.draft, false
	}
	c.pos++
	if c.pos == len(c.entries) {
		return c.draft, true
	}
	return c.entries[c.pos], true
}

func (c *Cursor) Len() int {
	return len(c.entries)
}

func (c *Cursor) Entries() []string {
	return append([]string(nil), c.entries...)
}
