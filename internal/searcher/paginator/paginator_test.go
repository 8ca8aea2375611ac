package paginator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		items    []int
		pageSize int
		want     [][]int
	}{
		{"even split", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"short last page", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"page larger than input", []int{1, 2}, 10, [][]int{{1, 2}}},
		{"page size one", []int{1, 2, 3}, 1, [][]int{{1}, {2}, {3}}},
		{"zero page size", []int{1, 2, 3}, 0, [][]int{{1, 2, 3}}},
		{"negative page size", []int{1, 2, 3}, -4, [][]int{{1, 2, 3}}},
		{"empty input", nil, 3, [][]int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paginate(tt.items, tt.pageSize))
		})
	}
}

func TestPaginatePagesDoNotOverlap(t *testing.T) {
	items := []string{"a", "b", "c"}
	pages := Paginate(items, 2)
	pages[0] = append(pages[0], "x")
	assert.Equal(t, []string{"a", "b", "c"}, items)
}
