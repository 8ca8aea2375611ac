// Package paginator splits result lists into fixed-size pages.
package paginator

// Paginate returns consecutive pages of pageSize items; the last page may
// be shorter. A pageSize <= 0 yields one page with every item, and empty
// input yields no pages. Pages share the backing array of items.
func Paginate[T any](items []T, pageSize int) [][]T {
	if len(items) == 0 {
		return [][]T{}
	}
	if pageSize <= 0 || pageSize >= len(items) {
		return [][]T{items}
	}
	pages := make([][]T, 0, (len(items)+pageSize-1)/pageSize)
	for start := 0; start < len(items); start += pageSize {
		end := min(start+pageSize, len(items))
		pages = append(pages, items[start:end:end])
	}
	return pages
}
