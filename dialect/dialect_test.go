package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeature(t *testing.T) {
	f := Returning | NamedParams
	assert.True(t, f.Has(Returning))
	assert.True(t, f.Has(Returning|NamedParams))
	assert.False(t, f.Has(RightJoin))
	assert.False(t, f.Has(Returning|FullOuterJoin))
	assert.True(t, None.Has(None))
	assert.Equal(t, "RETURNING|NAMED_PARAMS", f.String())
	assert.Equal(t, "NONE", None.String())
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		p     Placeholder
		index int
		want  string
	}{
		{Question, 1, "?"},
		{Question, 7, "?"},
		{Dollar, 1, "$1"},
		{Dollar, 12, "$12"},
		{Colon, 3, "?"},
	}
	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Param(tt.index))
		})
	}
	assert.Equal(t, ":name", Colon.Named("name"))
}
