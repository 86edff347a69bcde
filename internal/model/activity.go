// Package model defines the data structures used throughout the portal.
//
// The activities backend owns these records; the portal only reads them,
// renders them and forwards registration requests. Nothing here is validated
// client-side beyond what is needed to display it.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Activity is a school-offered extracurricular session with a capacity and
// the emails of the students currently enrolled.
//
// The activity name is not a field: it is the key under which the backend
// returns the record (see Directory).
type Activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	Category        string   `json:"category,omitempty"` // optional, absent on older records
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// SpotsLeft is capacity minus current enrollment, computed on demand.
// It is display-only and can go negative if the backend over-enrolls.
func (a Activity) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

// Entry pairs an activity with its name.
type Entry struct {
	Name     string
	Activity Activity
}

// Directory is the ordered mapping of activity name to Activity returned by
// GET /activities.
//
// ORDER MATTERS:
// Go maps have no iteration order, but the page shows activities (and fills
// the signup dropdown) in the order the backend declared them. Directory keeps
// the JSON object's key order, so it is decoded by hand in UnmarshalJSON.
//
// A Directory is never patched in place: every fetch builds a new one.
type Directory struct {
	entries []Entry
	index   map[string]int
}

// NewDirectory builds a Directory from entries in the given order.
// A repeated name replaces the earlier activity but keeps its position,
// matching how a JSON object with a duplicate key behaves in the browser.
func NewDirectory(entries ...Entry) Directory {
	var d Directory
	for _, e := range entries {
		d.put(e.Name, e.Activity)
	}
	return d
}

func (d *Directory) put(name string, a Activity) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[name]; ok {
		d.entries[i].Activity = a
		return
	}
	d.index[name] = len(d.entries)
	d.entries = append(d.entries, Entry{Name: name, Activity: a})
}

// Len returns the number of activities.
func (d Directory) Len() int { return len(d.entries) }

// Entries returns a copy of all entries in declaration order.
func (d Directory) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Get looks up an activity by name.
func (d Directory) Get(name string) (Activity, bool) {
	i, ok := d.index[name]
	if !ok {
		return Activity{}, false
	}
	return d.entries[i].Activity, true
}

// Names returns all activity names in declaration order.
func (d Directory) Names() []string {
	names := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		names = append(names, e.Name)
	}
	return names
}

// Categories returns the distinct non-empty categories in order of first
// appearance.
func (d Directory) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range d.entries {
		c := e.Activity.Category
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// UnmarshalJSON decodes a JSON object of name → activity, preserving key order.
func (d *Directory) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("model: decoding directory: %w", err)
	}
	if tok == nil {
		*d = Directory{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("model: decoding directory: expected object, got %v", tok)
	}

	var out Directory
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("model: decoding directory key: %w", err)
		}
		name, _ := keyTok.(string)

		var a Activity
		if err := dec.Decode(&a); err != nil {
			return fmt.Errorf("model: decoding activity %q: %w", name, err)
		}
		out.put(name, a)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("model: decoding directory: %w", err)
	}

	*d = out
	return nil
}

// MarshalJSON encodes the directory as a JSON object in declaration order.
func (d Directory) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Activity)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
