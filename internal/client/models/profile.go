package models

import "strings"

// ProfileIDField holds the persisted identifier of a profile record.
const ProfileIDField = "id"

// Record is a sparse profile: attribute name to string value.
type Record map[string]string

// Clone returns an independent copy; a nil Record clones to an empty one.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Trimmed returns the whitespace-trimmed value of name.
func (r Record) Trimmed(name string) string {
	return strings.TrimSpace(r[name])
}

// ID returns the persisted identifier, or "" for a profile not yet created.
func (r Record) ID() string {
	return r.Trimmed(ProfileIDField)
}
