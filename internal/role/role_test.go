package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	ten := 10
	var nilPtr *int64

	cases := []struct {
		in   any
		want Role
	}{
		{nil, None},
		{0, None},
		{10, Editor},
		{int64(20), Admin},
		{&ten, Editor},
		{nilPtr, None},
		{"20", Admin},
		{" 10 ", Editor},
		{5, None},
		{-1, None},
		{"admin", None},
		{3.5, None},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Parse(tc.in), "Parse(%#v)", tc.in)
	}
}

func TestAtLeast(t *testing.T) {
	all := []Role{None, Editor, Admin}
	for i, r := range all {
		for j, minimum := range all {
			assert.Equal(t, i >= j, r.AtLeast(minimum), "%s.AtLeast(%s)", r, minimum)
		}
	}

	assert.True(t, None.AtLeast(None))
	assert.False(t, None.AtLeast(Editor))
	assert.True(t, Editor.AtLeast(Editor))
	assert.True(t, Admin.AtLeast(Editor))
}
