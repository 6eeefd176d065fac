package domain

import "time"

// Locality represents a named location vehicles and trips refer to.
type Locality struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
