package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil stays nil", in: nil, want: nil},
		{name: "empty stays empty", in: []string{}, want: []string{}},
		{
			name: "repeated issue from two checks",
			in:   []string{"hologram not detected", "document expired", "hologram not detected"},
			want: []string{"hologram not detected", "document expired"},
		},
		{
			name: "padding and blanks dropped",
			in:   []string{" low resolution ", "", "\t", "low resolution"},
			want: []string{"low resolution"},
		},
		{
			name: "case is significant",
			in:   []string{"Glare", "glare"},
			want: []string{"Glare", "glare"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.in))
		})
	}
}

func TestMergeIssues(t *testing.T) {
	got := MergeIssues(
		[]string{"low resolution", " glare "},
		nil,
		[]string{"glare", "", "expired document"},
	)
	assert.Equal(t, []string{"low resolution", "glare", "expired document"}, got)

	none := MergeIssues()
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
