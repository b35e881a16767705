package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "19.99", want: "$19.99"},
		{in: "$19.99", want: "$19.99"},
		{in: " 2 ", want: "$2"},
		{in: "0", want: "$0"},
		{in: "", wantErr: true},
		{in: "$", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "$$5", wantErr: true},
		{in: "1234567.89", want: "$1234567.89"},
		{in: "12345678901234567890", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePrice(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPrice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPassword_SetAndMatches(t *testing.T) {
	var p Password
	require.NoError(t, p.Set("correct horse"))
	assert.NotEqual(t, "correct horse", p.Hash)

	ok, err := p.Matches("correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Matches("wrong horse")
	require.NoError(t, err)
	assert.False(t, ok)

	u := User{Username: "ada@example.com", PasswordHash: p.Hash}
	ok, err = u.CheckPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestItem_Summary(t *testing.T) {
	img := "items/x.jpg"
	item := Item{ID: 7, Name: "Bent Fork", Price: "$3", Image: &img}
	assert.Equal(t, ItemSummary{ID: 7, Name: "Bent Fork"}, item.Summary())
	assert.Equal(t, img, item.ImageURL())
	assert.Equal(t, "", Category{}.ImageURL())
}
