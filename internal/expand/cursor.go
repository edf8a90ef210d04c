package expand

import (
	"encoding/json"

	"github.com/farmdemo/server/internal/motion"
)

// Cursor is the position an expansion pass starts from. Every resolved
// waypoint advances it.
type Cursor struct {
	pos motion.Xyz
}

// NewCursor returns a cursor at pos.
func NewCursor(pos motion.Xyz) *Cursor {
	return &Cursor{pos: pos}
}

// Position returns the cursor position.
func (c *Cursor) Position() motion.Xyz { return c.pos }

// Set moves the cursor.
func (c *Cursor) Set(pos motion.Xyz) { c.pos = pos }

// JSON returns the cursor position as a JSON object, the form log messages
// carry it in.
func (c *Cursor) JSON() string {
	b, _ := json.Marshal(c.pos)
	return string(b)
}
