package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppm-intake-be/pkg/intake/field"
)

type fakeExtractor struct {
	result Result
	err    error
	calls  int
	last   Request
}

func (f *fakeExtractor) Extract(_ context.Context, req Request) (Result, error) {
	f.calls++
	f.last = req
	return f.result, f.err
}

func TestDecide(t *testing.T) {
	u1, _ := field.DefaultSet().Lookup(field.U1)
	c1, _ := field.DefaultSet().Lookup(field.C1)

	tests := []struct {
		name       string
		result     Result
		target     field.Field
		wantApply  bool
		wantUsable bool
		wantValue  string
	}{
		{
			name:       "accepted institution",
			result:     Result{Field: field.U1, Institution: "  Stanford ", Confidence: 0.9},
			target:     u1,
			wantApply:  true,
			wantUsable: true,
			wantValue:  "Stanford",
		},
		{
			name:       "threshold is exclusive",
			result:     Result{Field: field.U1, Institution: "Stanford", Confidence: 0.5},
			target:     u1,
			wantUsable: true,
		},
		{
			name:       "just above threshold",
			result:     Result{Field: field.U1, Institution: "MIT", Confidence: 0.51},
			target:     u1,
			wantApply:  true,
			wantUsable: true,
			wantValue:  "MIT",
		},
		{
			name:       "field mismatch",
			result:     Result{Field: field.U2, Institution: "MIT", Confidence: 0.95},
			target:     u1,
			wantUsable: true,
		},
		{
			name:   "course payload for institution target",
			result: Result{Field: field.U1, Course: "Psychology", Confidence: 0.95},
			target: u1,
		},
		{
			name:       "course accepted",
			result:     Result{Field: field.C1, Course: "Computer Science", Confidence: 0.8},
			target:     c1,
			wantApply:  true,
			wantUsable: true,
			wantValue:  "Computer Science",
		},
		{
			name:   "blank value",
			result: Result{Field: field.C1, Course: "   ", Confidence: 0.9},
			target: c1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.result, tt.target)
			assert.Equal(t, tt.wantApply, d.Apply)
			assert.Equal(t, tt.wantUsable, d.Usable)
			if tt.wantApply {
				assert.Equal(t, field.Update{Field: tt.target.ID, Value: tt.wantValue}, d.Update)
			} else {
				assert.Equal(t, field.Update{}, d.Update)
			}
		})
	}
}

func TestProposeSkipsWhenComplete(t *testing.T) {
	ex := &fakeExtractor{}
	values := field.Values{U1: "Stanford", C1: "CS", U2: "MIT", C2: "Math"}

	d := Propose(context.Background(), ex, field.DefaultSet(), values, "hello")

	assert.True(t, d.Skipped)
	assert.False(t, d.Apply)
	assert.Equal(t, 0, ex.calls)
	assert.Equal(t, "hello", d.ReplyInput("hello"))
}

func TestProposeTargetsNextMissing(t *testing.T) {
	ex := &fakeExtractor{result: Result{Field: field.C1, Course: "Data Visualization", Confidence: 0.9}}
	values := field.Values{U1: "San Jose State University"}

	d := Propose(context.Background(), ex, field.DefaultSet(), values, "data visualization")

	require.Equal(t, 1, ex.calls)
	assert.Equal(t, field.C1, ex.last.Target.ID)
	assert.Equal(t, "data visualization", ex.last.Message)
	assert.True(t, d.Apply)
	assert.Equal(t, field.Update{Field: field.C1, Value: "Data Visualization"}, d.Update)
}

func TestProposeDegradesOnError(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("model offline")}

	d := Propose(context.Background(), ex, field.DefaultSet(), field.Values{}, "Stanford")

	assert.Error(t, d.Err)
	assert.False(t, d.Apply)
	assert.False(t, d.Usable)
	assert.Equal(t, field.U1, d.Target.ID)
	assert.Equal(t, InvalidInputMarker, d.ReplyInput("Stanford"))
}

func TestReplyInput(t *testing.T) {
	assert.Equal(t, "Stanford", Decision{Usable: true}.ReplyInput("Stanford"))
	assert.Equal(t, InvalidInputMarker, Decision{}.ReplyInput("asdf"))
}
