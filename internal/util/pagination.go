package util

const DefaultPageSize = 10

// Calculate clamps client-supplied pagination params and returns the
// offset/limit pair for the query.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

// Clamp returns the normalized page and limit without computing an offset.
func Clamp(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = DefaultPageSize
	}
	return page, size
}
