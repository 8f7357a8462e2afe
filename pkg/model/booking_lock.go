package model

import "time"

// BookingLock is an advisory lock document. The unique _id insert is the
// contention signal: whoever inserts first holds the lock, everyone else
// gets a duplicate-key error. A TTL index on expires_at reaps stale locks
// left behind by crashed requests.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
