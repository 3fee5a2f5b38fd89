package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alpacahq/eventstore/block"
)

func TestRoute(t *testing.T) {
	t.Parallel()
	fresh := []*block.Block{{}}
	assert.Equal(t, fresh[0], route(fresh, 9))

	blocks := []*block.Block{
		{Index: 0, MinObjectID: 1, MaxObjectID: 3},
		{Index: 1, MinObjectID: 5, MaxObjectID: 5, Spanned: true},
		{Index: 2, MinObjectID: 5, MaxObjectID: 5, Spanned: true},
		{Index: 3, MinObjectID: 6, MaxObjectID: 9},
		{Index: 4, MinObjectID: 12, MaxObjectID: 12, Spanned: true},
		{Index: 5, MinObjectID: 12, MaxObjectID: 12, Spanned: true},
	}
	tests := map[string]struct {
		objectID uint64
		want     uint32
	}{
		"inside the first block":               {objectID: 2, want: 0},
		"before everything":                    {objectID: 1, want: 0},
		"gap in front of a span":               {objectID: 4, want: 0},
		"the spanning object":                  {objectID: 5, want: 1},
		"inside a block after a span":          {objectID: 7, want: 3},
		"gap in front of a span after a block": {objectID: 11, want: 3},
		"the last spanning object":             {objectID: 12, want: 4},
		"past the end":                         {objectID: 20, want: 5},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, route(blocks, tt.objectID).Index)
		})
	}
}
