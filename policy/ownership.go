// Package policy holds the ownership decision used by every mutating
// handler. Ids are compared as canonical integers, never as raw strings, so
// every ownership check in the codebase goes through the same comparison.
package policy

import (
	"errors"
	"strconv"
)

var ErrBadID = errors.New("malformed id")

// Permit reports whether the acting user owns the resource.
func Permit(actorID, ownerID int) bool {
	return actorID > 0 && actorID == ownerID
}

// ParseID normalizes a path or query id into its canonical form.
func ParseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, ErrBadID
	}
	return id, nil
}
