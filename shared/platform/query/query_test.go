package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  PageRequest
		want error
	}{
		{"primera página", PageRequest{Page: 1, PerPage: 20}, nil},
		{"sin límite", PageRequest{Page: math.MaxInt, PerPage: 0}, nil},
		{"última página representable", PageRequest{Page: math.MaxInt/4 + 1, PerPage: 4}, nil},
		{"página cero", PageRequest{Page: 0}, ErrInvalidPage},
		{"per_page negativo", PageRequest{Page: 1, PerPage: -1}, ErrInvalidPerPage},
		{"desplazamiento desbordado", PageRequest{Page: 1 << 62, PerPage: 4}, ErrPageOutOfRange},
		{"página máxima", PageRequest{Page: math.MaxInt, PerPage: 2}, ErrPageOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Validate())
		})
	}
}

func TestPageRequest_Offset(t *testing.T) {
	assert.Equal(t, 20, PageRequest{Page: 3, PerPage: 10}.Offset())
	assert.Equal(t, 0, PageRequest{Page: 5}.Offset())

	req := PageRequest{Page: math.MaxInt/4 + 1, PerPage: 4}
	assert.GreaterOrEqual(t, req.Offset(), 0)
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{3, 4}, Slice(items, 2, 2))
	assert.Equal(t, []int{5}, Slice(items, 2, 4))
	assert.Equal(t, []int{}, Slice(items, 2, 10))
	assert.Equal(t, items, Slice(items, 0, 0))
}
