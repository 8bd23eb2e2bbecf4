// Package ids generates lexicographically sortable identifiers used as
// storage keys across the service.
package ids

import "github.com/oklog/ulid/v2"

// New returns a fresh ULID string.
func New() string {
	return ulid.Make().String()
}
