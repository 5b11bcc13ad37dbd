package selection

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange(t *testing.T) {
	cases := []struct {
		name           string
		from, to, n    int
		want           []int
	}{
		{"inside", 2, 4, 10, []int{1, 2, 3}},
		{"single", 3, 3, 10, []int{2}},
		{"reversed", 4, 2, 10, []int{1, 2, 3}},
		{"clamped high", 8, 20, 10, []int{7, 8, 9}},
		{"clamped low", -3, 2, 10, []int{0, 1}},
		{"outside", 12, 20, 10, []int{}},
		{"empty doc", 1, 5, 0, []int{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Range(c.from, c.to, c.n))
		})
	}
}

func TestDefaultRange(t *testing.T) {
	from, to := DefaultRange(12)
	assert.Equal(t, 1, from)
	assert.Equal(t, 5, to)

	from, to = DefaultRange(3)
	assert.Equal(t, 1, from)
	assert.Equal(t, 3, to)
}

func TestParsePages(t *testing.T) {
	got, err := ParsePages("1, 3,5-7; 2 2 9-8", 10)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4, 5, 6, 1, 1, 8, 7}, got)

	got, err = ParsePages("   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParsePages_Invalid(t *testing.T) {
	for _, spec := range []string{"0", "a", "3-", "-2", "1-x"} {
		_, err := ParsePages(spec, 10)
		assert.True(t, errors.Is(err, ErrInvalidSelection), spec)
	}
}

func TestParsePages_RangesCutToDocument(t *testing.T) {
	got, err := ParsePages("2-999, 6-9, 999-3, 7", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 3, 2, 6}, got)

	got, err = ParsePages("1-5", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParsePages_ManyHugeRangesStayBounded(t *testing.T) {
	got, err := Resolve(Request{Mode: ModePages, Pages: strings.Repeat("1-99999,", 200)}, 3)
	require.NoError(t, err)
	assert.Len(t, got, 600)

	_, err = ParsePages(strings.Repeat("1-1000,", 200), 1000)
	assert.ErrorIs(t, err, ErrInvalidSelection)

	_, err = ParsePages(strings.Repeat("1,", maxExpand+1), 1)
	assert.ErrorIs(t, err, ErrInvalidSelection)

	got, err = ParsePages(strings.Repeat("1,", maxExpand), 1)
	require.NoError(t, err)
	assert.Len(t, got, maxExpand)
}

func TestResolve(t *testing.T) {
	got, err := Resolve(Request{Mode: ModeRange}, 8)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)

	got, err = Resolve(Request{Mode: ModeRange, From: 7, To: 9}, 8)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 7}, got)

	got, err = Resolve(Request{Mode: ModePages, Pages: "4,1"}, 8)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0}, got)

	got, err = Resolve(Request{Mode: ModePages, Checked: []string{"3", "1"}}, 8)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, got)

	_, err = Resolve(Request{Mode: "bogus"}, 8)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestFromChecked(t *testing.T) {
	got, err := FromChecked([]string{"2", "5"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, got)
}
