package store

import (
	"sync/atomic"
	"time"
)

// idCounter is seeded from the clock once at startup so IDs keep the
// millisecond-timestamp magnitude the document format has always used.
var idCounter atomic.Int64

func init() {
	idCounter.Store(time.Now().UnixMilli())
}

// NewID generates a unique, strictly increasing entity ID.
//
// The counter starts at the process start time in milliseconds and advances
// by one per call, so a batch of any size minted in the same instant still
// receives distinct IDs.
func NewID() int64 {
	return idCounter.Add(1)
}
