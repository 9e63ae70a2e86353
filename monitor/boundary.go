package monitor

// IsBoundary reports whether block b authorizes its window. Block 0 never does.
func IsBoundary(b, interval uint64) bool {
	return b != 0 && b%interval == 0
}

// Window returns the blocks authorized by boundary b, [b-interval+1, b].
// It returns nil if b is not a boundary.
func Window(b, interval uint64) []uint64 {
	if !IsBoundary(b, interval) {
		return nil
	}
	blocks := make([]uint64, 0, interval)
	for i := b - interval + 1; i <= b; i++ {
		blocks = append(blocks, i)
	}
	return blocks
}

// NextBoundary returns the smallest multiple of interval not below b.
func NextBoundary(b, interval uint64) uint64 {
	return (b + interval - 1) / interval * interval
}

// lastBoundaryBelow returns the largest multiple of interval strictly below tip.
func lastBoundaryBelow(tip, interval uint64) uint64 {
	if tip == 0 {
		return 0
	}
	return (tip - 1) / interval * interval
}
