package service

import (
	"sync"
	"time"
)

// StoreLock serialises every engine and session operation in the process.
// It is not re-entrant: exported service methods take it once and the
// helpers they call assume it is held.
type StoreLock struct {
	sync.Mutex
}

// NewStoreLock creates the process-wide lock.
func NewStoreLock() *StoreLock {
	return &StoreLock{}
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time
