package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Instant is an optional point in time. An unset Instant bounds nothing:
// a window side that is Unset never opens or closes by time.
type Instant struct {
	t   time.Time
	set bool
}

// Unset is the empty Instant.
var Unset = Instant{}

// At returns a set Instant for t.
func At(t time.Time) Instant {
	return Instant{t: t, set: true}
}

// InstantFromPtr converts a nullable time into an Instant.
func InstantFromPtr(t *time.Time) Instant {
	if t == nil {
		return Unset
	}
	return At(*t)
}

// IsSet reports whether the instant is configured.
func (i Instant) IsSet() bool { return i.set }

// Time returns the instant and whether it is set.
func (i Instant) Time() (time.Time, bool) { return i.t, i.set }

// Ptr returns a copy of the time or nil when unset.
func (i Instant) Ptr() *time.Time {
	if !i.set {
		return nil
	}
	t := i.t
	return &t
}

// Add shifts a set instant by d. Unset stays unset.
func (i Instant) Add(d time.Duration) Instant {
	if !i.set {
		return i
	}
	return At(i.t.Add(d))
}

// Reached reports now >= i. An unset instant is never reached.
func (i Instant) Reached(now time.Time) bool {
	return i.set && !now.Before(i.t)
}

// Before reports whether both instants are set and i is strictly before o.
func (i Instant) Before(o Instant) bool {
	return i.set && o.set && i.t.Before(o.t)
}

// Equal reports whether both are unset or both are set to the same time.
func (i Instant) Equal(o Instant) bool {
	if i.set != o.set {
		return false
	}
	return !i.set || i.t.Equal(o.t)
}

func (i Instant) String() string {
	if !i.set {
		return "unset"
	}
	return i.t.Format(time.RFC3339)
}

// MarshalJSON encodes an unset instant as null.
func (i Instant) MarshalJSON() ([]byte, error) {
	if !i.set {
		return []byte("null"), nil
	}
	return json.Marshal(i.t)
}

// UnmarshalJSON accepts null, "" or an RFC3339 timestamp.
func (i *Instant) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*i = Unset
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("parse instant: %w", err)
	}
	*i = At(t)
	return nil
}

// Scan implements sql.Scanner for nullable timestamp columns.
func (i *Instant) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Unset
	case time.Time:
		*i = At(v)
	default:
		return fmt.Errorf("cannot scan %T into Instant", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (i Instant) Value() (driver.Value, error) {
	if !i.set {
		return nil, nil
	}
	return i.t, nil
}
