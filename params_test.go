package pgmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapParameters(t *testing.T) {
	tests := map[string]struct {
		input any
		order []string
		want  []any
	}{
		"nil input": {
			input: nil,
			order: []string{"a"},
			want:  []any{},
		},
		"nil order": {
			input: Named{"a": 1},
			order: nil,
			want:  []any{},
		},
		"scalar": {
			input: 5,
			order: []string{"a"},
			want:  []any{5},
		},
		"string scalar": {
			input: "Rich",
			order: []string{"name"},
			want:  []any{"Rich"},
		},
		"bytes are one value": {
			input: []byte("x"),
			order: []string{"a"},
			want:  []any{[]byte("x")},
		},
		"typed slice is one value": {
			input: []int{1, 2},
			order: []string{"ids"},
			want:  []any{[]int{1, 2}},
		},
		"named reordered": {
			input: Named{"a": 1, "b": 2},
			order: []string{"b", "a"},
			want:  []any{2, 1},
		},
		"plain map reordered": {
			input: map[string]any{"a": 1, "b": 2},
			order: []string{"b", "a"},
			want:  []any{2, 1},
		},
		"missing key is nil": {
			input: Named{"a": 1},
			order: []string{"a", "b"},
			want:  []any{1, nil},
		},
		"ordered passes through": {
			input: []any{1, 2},
			order: []string{"a", "b"},
			want:  []any{1, 2},
		},
		"args pass through unchecked": {
			input: Args{2, 1, 0},
			order: []string{"a", "b"},
			want:  []any{2, 1, 0},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := MapParameters(test.input, test.order)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestMapParameters_SingleAndNamedAgree(t *testing.T) {
	order := []string{"name"}
	assert.Equal(t, MapParameters("Rich", order), MapParameters(Named{"name": "Rich"}, order))
}
