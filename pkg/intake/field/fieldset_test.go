package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextMissingFollowsDeclaredOrder(t *testing.T) {
	tests := []struct {
		name   string
		set    Set
		values Values
		want   ID
		wantOk bool
	}{
		{
			name:   "empty values",
			set:    DefaultSet(),
			values: Values{},
			want:   U1,
			wantOk: true,
		},
		{
			name:   "first institution set",
			set:    DefaultSet(),
			values: Values{U1: "Stanford"},
			want:   C1,
			wantOk: true,
		},
		{
			name:   "later field set early is ignored",
			set:    DefaultSet(),
			values: Values{U2: "MIT"},
			want:   U1,
			wantOk: true,
		},
		{
			name:   "whitespace counts as unset",
			set:    DefaultSet(),
			values: Values{U1: "Stanford", C1: "   "},
			want:   C1,
			wantOk: true,
		},
		{
			name:   "custom order",
			set:    NewSet(Field{ID: C2}, Field{ID: U1}),
			values: Values{C2: "Psychology"},
			want:   U1,
			wantOk: true,
		},
		{
			name:   "all set",
			set:    DefaultSet(),
			values: Values{U1: "a", C1: "b", U2: "c", C2: "d"},
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.set.NextMissing(tt.values)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.want, got.ID)
			}
		})
	}
}

func TestFillingInOrderVisitsEveryFieldOnce(t *testing.T) {
	set := DefaultSet()
	var values Values
	var visited []ID

	for i := 0; i < set.Total()+2; i++ {
		next, ok := set.NextMissing(values)
		if !ok {
			break
		}
		visited = append(visited, next.ID)

		var err error
		values, err = values.Apply(Update{Field: next.ID, Value: "value"})
		require.NoError(t, err)
		assert.Equal(t, i+1, set.CollectedCount(values))
	}

	assert.Equal(t, []ID{U1, C1, U2, C2}, visited)
	assert.True(t, set.IsComplete(values))
	assert.Equal(t, 4, set.CollectedCount(values))
}

func TestCompletionIsMonotonicUnderNonEmptyUpdates(t *testing.T) {
	set := DefaultSet()
	values := Values{U1: "a", C1: "b", U2: "c", C2: "d"}
	require.True(t, set.IsComplete(values))

	for _, f := range set.Fields() {
		updated, err := values.Apply(Update{Field: f.ID, Value: "other"})
		require.NoError(t, err)
		assert.True(t, set.IsComplete(updated))
	}
}

func TestSubsetSchemaCompletion(t *testing.T) {
	set := NewSet(Field{ID: U1}, Field{ID: C1}, Field{ID: U1})
	assert.Equal(t, 2, set.Total())
	assert.True(t, set.IsComplete(Values{U1: "a", C1: "b"}))
	assert.Equal(t, map[ID]string{U1: "a", C1: "b"}, Values{U1: "a", C1: "b", U2: "x"}.Map(set))
}

func TestApply(t *testing.T) {
	values := Values{}

	updated, err := values.Apply(Update{Field: C1, Value: "  Computer Science "})
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", updated.C1)
	assert.Empty(t, values.C1, "receiver must not change")

	_, err = values.Apply(Update{Field: "x9", Value: "nope"})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestLookup(t *testing.T) {
	f, ok := DefaultSet().Lookup(U2)
	require.True(t, ok)
	assert.Equal(t, KindInstitution, f.Kind)
	assert.Equal(t, "Second University name", f.Label)

	_, ok = DefaultSet().Lookup("zz")
	assert.False(t, ok)
}
