package app

type direction int

const (
	dirUp direction = iota
	dirDown
	dirLeft
	dirRight
)

// gridColumns is how many cards of colWidth fit side by side.
func gridColumns(width, colWidth int) int {
	if colWidth <= 0 {
		return 1
	}
	return max(1, width/colWidth)
}

// gridMove returns the index reached from idx in a row-major grid of n cards
// laid out in cols columns. Moves off the grid stay put.
func gridMove(idx, n, cols int, d direction) int {
	if n == 0 {
		return -1
	}
	if idx < 0 || idx >= n {
		return 0
	}
	switch d {
	case dirUp:
		if idx-cols >= 0 {
			return idx - cols
		}
	case dirDown:
		if idx+cols < n {
			return idx + cols
		}
	case dirLeft:
		if idx > 0 {
			return idx - 1
		}
	case dirRight:
		if idx < n-1 {
			return idx + 1
		}
	}
	return idx
}
