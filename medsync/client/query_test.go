package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchParamsEncode(t *testing.T) {
	tests := []struct {
		name   string
		params *SearchParams
		want   string
	}{
		{
			"insertion order preserved",
			NewSearchParams().Add("name", "John Doe").Add("gender", "male").Add("_count", 10),
			"name=John+Doe&gender=male&_count=10",
		},
		{
			"nil and zero count skipped",
			NewSearchParams().Add("name", "John").Add("gender", nil).Add("_count", 0),
			"name=John",
		},
		{
			"empty string skipped",
			NewSearchParams().Add("name", "").Add("status", "active"),
			"status=active",
		},
		{
			"percent encoding",
			NewSearchParams().Add("address", "12 Main St & Co").Add("birthdate", "ge2020-01-01"),
			"address=12+Main+St+%26+Co&birthdate=ge2020-01-01",
		},
		{
			"bool false is a real value",
			NewSearchParams().Add("active", false),
			"active=false",
		},
		{
			"empty set", NewSearchParams(), "",
		},
		{
			"nil set", nil, "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Encode())
		})
	}
}

func TestSearchParamsOverwriteKeepsPosition(t *testing.T) {
	p := NewSearchParams().Add("name", "John").Add("gender", "male").Add("name", "Jane")
	assert.Equal(t, "name=Jane&gender=male", p.Encode())
	assert.Equal(t, 2, p.Len())
}

func TestSearchParamsClone(t *testing.T) {
	p := NewSearchParams().Add("name", "John")
	dup := p.Clone().Add("organization", "org-123")

	assert.Equal(t, "name=John", p.Encode())
	assert.Equal(t, "name=John&organization=org-123", dup.Encode())
	assert.False(t, p.Has("organization"))
	assert.True(t, dup.Has("organization"))

	var empty *SearchParams
	assert.Equal(t, "", empty.Clone().Encode())
}
