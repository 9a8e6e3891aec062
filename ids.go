package server

import "sync/atomic"

// UnitIDSource mints process-wide unique unit ids. Ids are monotonic and
// never reused, even across game-over resets.
type UnitIDSource struct {
	last atomic.Int64
}

// Next returns a fresh unit id.
func (s *UnitIDSource) Next() int64 {
	return s.last.Add(1)
}

// Mint returns count fresh unit ids.
func (s *UnitIDSource) Mint(count int64) []int64 {
	if count <= 0 {
		return nil
	}
	ids := make([]int64, 0, count)
	for i := int64(0); i < count; i++ {
		ids = append(ids, s.Next())
	}
	return ids
}
