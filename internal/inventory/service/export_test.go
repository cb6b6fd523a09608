package service

import "time"

// SetClock overrides the service clock for deterministic tests.
func SetClock(s *InventoryService, now func() time.Time) {
	s.now = now
}
