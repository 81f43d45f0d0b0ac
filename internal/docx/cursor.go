// SPDX-License-Identifier: Apache-2.0

package docx

import "fmt"

// Cursor is an insertion point between two sibling body blocks. It is
// anchored on the block before the gap rather than on an index, so it stays
// valid when blocks are inserted elsewhere in the body.
type Cursor struct {
	doc   *Document
	after Block
}

// CursorAfter returns a cursor positioned immediately after b.
func (d *Document) CursorAfter(b Block) (*Cursor, error) {
	if d.IndexOf(b) < 0 {
		return nil, ErrBlockNotFound
	}
	return &Cursor{doc: d, after: b}, nil
}

// CursorAtStart returns a cursor positioned before the first body block.
func (d *Document) CursorAtStart() *Cursor {
	return &Cursor{doc: d}
}

// ToNextSibling moves the cursor past the block that follows it. It returns
// false, leaving the cursor in place, when there is no such block.
func (c *Cursor) ToNextSibling() bool {
	i := -1
	if c.after != nil {
		i = c.doc.IndexOf(c.after)
		if i < 0 {
			return false
		}
	}
	if i+1 >= len(c.doc.blocks) {
		return false
	}
	c.after = c.doc.blocks[i+1]
	return true
}

// Before returns the block immediately before the cursor, or nil at the
// start of the body.
func (c *Cursor) Before() Block { return c.after }

// InsertTable inserts a new table at the cursor and moves the cursor past it.
func (d *Document) InsertTable(c *Cursor) (*Table, error) {
	t := newTable()
	if err := d.insert(c, t); err != nil {
		return nil, err
	}
	return t, nil
}

// InsertParagraph inserts a new empty paragraph at the cursor and moves the
// cursor past it.
func (d *Document) InsertParagraph(c *Cursor) (*Paragraph, error) {
	p := &Paragraph{}
	if err := d.insert(c, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (d *Document) insert(c *Cursor, b Block) error {
	if c == nil {
		return fmt.Errorf("insert %s: nil cursor", b.Kind())
	}
	if c.doc != d {
		return fmt.Errorf("insert %s: cursor belongs to another document", b.Kind())
	}
	at := 0
	if c.after != nil {
		i := d.IndexOf(c.after)
		if i < 0 {
			return fmt.Errorf("insert %s: %w", b.Kind(), ErrBlockNotFound)
		}
		at = i + 1
	}

	d.blocks = append(d.blocks, nil)
	copy(d.blocks[at+1:], d.blocks[at:])
	d.blocks[at] = b
	c.after = b
	return nil
}

// Remove deletes b from the body.
func (d *Document) Remove(b Block) bool {
	i := d.IndexOf(b)
	if i < 0 {
		return false
	}
	d.blocks = append(d.blocks[:i], d.blocks[i+1:]...)
	return true
}
