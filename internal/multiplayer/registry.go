package multiplayer

import (
	"time"
)

// Entry is one joined client.
type Entry struct {
	ID       ConnID
	Name     string
	JoinedAt time.Time
	LastPing time.Time
	// Seat is the client's game seat, or NoSeat between rounds.
	Seat int
	Peer Peer
}

// Registry tracks joined clients in join order. Removal is final.
// It has no lock of its own: the host mutex guards it together with the
// game so membership and turn state never disagree.
type Registry struct {
	capacity int
	entries  []*Entry
}

// NewRegistry creates a registry holding at most capacity clients.
func NewRegistry(capacity int) *Registry {
	return &Registry{capacity: capacity}
}

// Full reports whether no further client can be admitted.
func (r *Registry) Full() bool {
	return len(r.entries) >= r.capacity
}

// Add appends a client. It returns false when the registry is full.
func (r *Registry) Add(e *Entry) bool {
	if r.Full() {
		return false
	}
	r.entries = append(r.entries, e)
	return true
}

// Remove deletes the entry with the given ID and reports whether it existed.
func (r *Registry) Remove(id ConnID) (*Entry, bool) {
	for i, e := range r.entries {
		if e.ID == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return e, true
		}
	}
	return nil, false
}

// Get retrieves an entry by ID.
func (r *Registry) Get(id ConnID) (*Entry, bool) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// BySeat returns the client seated at seat.
func (r *Registry) BySeat(seat int) (*Entry, bool) {
	if seat == NoSeat {
		return nil, false
	}
	for _, e := range r.entries {
		if e.Seat == seat {
			return e, true
		}
	}
	return nil, false
}

// HasName reports whether a client already uses name.
func (r *Registry) HasName(name string) bool {
	for _, e := range r.entries {
		if e.Name == name {
			return true
		}
	}
	return false
}

// Names returns client names in join order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Name
	}
	return out
}

// Entries returns a snapshot of the entries in join order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Stale returns entries whose last ping is before cutoff.
func (r *Registry) Stale(cutoff time.Time) []*Entry {
	var out []*Entry
	for _, e := range r.entries {
		if e.LastPing.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of registered clients.
func (r *Registry) Count() int {
	return len(r.entries)
}
