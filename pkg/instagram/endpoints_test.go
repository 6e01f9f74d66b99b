package instagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileURL(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/someone", ProfileURL(BaseURL, "someone"))
	assert.Equal(t, "http://127.0.0.1:8080/some.one", ProfileURL("http://127.0.0.1:8080/", "some.one"))
}

func TestPaginationURL(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/graphql/query/", PaginationURL(BaseURL))
}

func TestPaginationParams(t *testing.T) {
	tests := []struct {
		name      string
		first     int
		wantFirst string
	}{
		{"default page", 12, "12"},
		{"zero falls back", 0, "12"},
		{"negative falls back", -3, "12"},
		{"clamped", 500, "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := PaginationParams("e769aa130647d2354c40ea6a439bfc08", "42", tt.first, "QVFD")
			assert.Equal(t, "e769aa130647d2354c40ea6a439bfc08", params.Get("query_hash"))
			assert.Equal(t, "42", params.Get("id"))
			assert.Equal(t, tt.wantFirst, params.Get("first"))
			assert.Equal(t, "QVFD", params.Get("after"))
		})
	}
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"someone", true},
		{"some.one_2", true},
		{"", false},
		{"has space", false},
		{"dash-name", false},
		{"abcdefghijabcdefghijabcdefghij1", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidUsername(tt.username))
		})
	}
}

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"@someone", "someone"},
		{"someone/", "someone"},
		{"  someone  ", "someone"},
		{"https://www.instagram.com/someone/", "someone"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeUsername(tt.input))
		})
	}
}

func BenchmarkPaginationParams(b *testing.B) {
	for i := 0; i < b.N; i++ {
		PaginationParams("hash", "42", 12, "cursor")
	}
}
