package deck

import (
	"fmt"
	"sort"
	"strings"
)

// Deck is the card content of one decklist, as supplied by the caller.
// Duplicate ids are copies; order only affects layout.
type Deck struct {
	ID    int   `json:"id,omitempty"`
	Main  []int `json:"main"`
	Extra []int `json:"extra"`
	Side  []int `json:"side"`
}

// Restriction is how many copies of a card a banlist allows.
type Restriction int

const (
	None Restriction = iota
	Banned
	Limited
	SemiLimited
	Unlimited
)

var restrictionNames = map[Restriction]string{
	None:        "none",
	Banned:      "banned",
	Limited:     "limited",
	SemiLimited: "semilimited",
	Unlimited:   "unlimited",
}

func (r Restriction) String() string {
	if s, ok := restrictionNames[r]; ok {
		return s
	}
	return fmt.Sprintf("restriction(%d)", int(r))
}

// ParseRestriction accepts the usual spellings found in banlist exports.
func ParseRestriction(s string) (Restriction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "banned", "forbidden", "0":
		return Banned, nil
	case "limited", "1":
		return Limited, nil
	case "semilimited", "semi-limited", "semi_limited", "2":
		return SemiLimited, nil
	case "unlimited", "3":
		return Unlimited, nil
	}
	return None, fmt.Errorf("unknown restriction %q", s)
}

// Categories is the fixed render order of a banlist image.
var Categories = []Restriction{Banned, Limited, SemiLimited, Unlimited}

// Banlist groups card ids by restriction. A card belongs to at most one of
// the restricted sets; Restriction resolves overlaps by severity.
type Banlist struct {
	Banned      []int `json:"banned"`
	Limited     []int `json:"limited"`
	SemiLimited []int `json:"semilimited"`
	Unlimited   []int `json:"unlimited,omitempty"`
}

// IDs returns the slice for one category.
func (b *Banlist) IDs(r Restriction) []int {
	if b == nil {
		return nil
	}
	switch r {
	case Banned:
		return b.Banned
	case Limited:
		return b.Limited
	case SemiLimited:
		return b.SemiLimited
	case Unlimited:
		return b.Unlimited
	}
	return nil
}

// Contains reports whether id is listed under r.
func (b *Banlist) Contains(r Restriction, id int) bool {
	for _, v := range b.IDs(r) {
		if v == id {
			return true
		}
	}
	return false
}

// Restriction returns the single annotation for id: banned wins over
// limited, limited over semi-limited. Unlisted and unlimited cards get None.
func (b *Banlist) Restriction(id int) Restriction {
	for _, r := range []Restriction{Banned, Limited, SemiLimited} {
		if b.Contains(r, id) {
			return r
		}
	}
	return None
}

// Sorted returns the distinct ids of one category in ascending order.
func (b *Banlist) Sorted(r Restriction) []int {
	ids := b.IDs(r)
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Lookup is a set view of a banlist used during rendering.
type Lookup map[int]Restriction

// Index builds a Lookup over the restricted categories.
func (b *Banlist) Index() Lookup {
	l := Lookup{}
	if b == nil {
		return l
	}
	// least severe first so that stronger restrictions overwrite
	for _, r := range []Restriction{SemiLimited, Limited, Banned} {
		for _, id := range b.IDs(r) {
			l[id] = r
		}
	}
	return l
}
