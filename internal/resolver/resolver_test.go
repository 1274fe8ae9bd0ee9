package resolver

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestIsURL(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"https://www.youtube.com/watch?v=abc123", true},
		{"http://example.com/stream", true},
		{"never gonna give you up", false},
		{"httpx://nope", false},
		{"", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsURL(c.input), "input %q", c.input)
	}
}

func TestNewHTTPClientFallsBackToDirect(t *testing.T) {
	log := zerolog.Nop()

	direct := newHTTPClient("", log)
	assert.Nil(t, direct.Transport)

	bad := newHTTPClient("::not a url::", log)
	assert.Nil(t, bad.Transport)

	unsupported := newHTTPClient("ftp://proxy:1080", log)
	assert.Nil(t, unsupported.Transport)

	httpProxy := newHTTPClient("http://proxy:8080", log)
	assert.NotNil(t, httpProxy.Transport)
}
