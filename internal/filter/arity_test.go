package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		op   OperatorID
		want Arity
	}{
		{OpIsNull, ArityNone},
		{OpNotNull, ArityNone},
		{OpInclude, ArityMulti},
		{OpExclude, ArityMulti},
		{OpBetween, ArityMulti},
		{OpEqual, AritySingle},
		{OpLike, AritySingle},
		{"regex", AritySingle},
		{"", AritySingle},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.op))
		})
	}
}

func TestValueOf_Multi(t *testing.T) {
	v := ValueOf(OpInclude, "a, b ,c")
	assert.Equal(t, ArityMulti, v.Arity)
	assert.Equal(t, []string{"a", "b", "c"}, v.Multi)
}

func TestValueOf_MultiDropsEmptyParts(t *testing.T) {
	v := ValueOf(OpExclude, " ,x,, y , ")
	assert.Equal(t, []string{"x", "y"}, v.Multi)
}

func TestValueOf_MultiEmptyTextIsEmptyList(t *testing.T) {
	v := ValueOf(OpBetween, "")
	assert.NotNil(t, v.Multi)
	assert.Empty(t, v.Multi)
}

func TestValueOf_SingleTrims(t *testing.T) {
	v := ValueOf(OpEqual, "  admin  ")
	assert.Equal(t, AritySingle, v.Arity)
	assert.Equal(t, "admin", v.Single)

	empty := ValueOf(OpEqual, "   ")
	assert.Equal(t, "", empty.Single)
}

func TestValueOf_NoneDiscardsText(t *testing.T) {
	v := ValueOf(OpIsNull, "ignored")
	assert.Equal(t, Value{Arity: ArityNone}, v)
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, ValueOf(OpInclude, "a,b").Equal(ValueOf(OpInclude, " a , b ")))
	assert.False(t, ValueOf(OpInclude, "a,b").Equal(ValueOf(OpInclude, "b,a")))
	assert.False(t, ValueOf(OpEqual, "a").Equal(ValueOf(OpInclude, "a")))
	assert.True(t, ValueOf(OpIsNull, "x").Equal(ValueOf(OpNotNull, "y")))
}

func TestArity_String(t *testing.T) {
	assert.Equal(t, "none", ArityNone.String())
	assert.Equal(t, "single", AritySingle.String())
	assert.Equal(t, "multi", ArityMulti.String())
}
