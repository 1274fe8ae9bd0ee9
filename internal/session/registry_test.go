package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRegistryGetOrCreateIsOncePerGuild(t *testing.T) {
	r := NewRegistry()
	factory := func() *Session { return New("g1", 20, zerolog.Nop()) }

	first := r.GetOrCreate("g1", factory)
	second := r.GetOrCreate("g1", factory)
	assert.Same(t, first, second)

	got, ok := r.Get("g1")
	assert.True(t, ok)
	assert.Same(t, first, got)

	_, ok = r.Get("g2")
	assert.False(t, ok, "Get never creates")
}

func TestRegistryConcurrentCreate(t *testing.T) {
	r := NewRegistry()

	const workers = 16
	results := make([]*Session, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.GetOrCreate("g1", func() *Session {
				return New("g1", 20, zerolog.Nop())
			})
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestRegistryGuildsAreIndependent(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("g%d", i)
		r.GetOrCreate(id, func() *Session { return New(id, 20, zerolog.Nop()) })
	}

	var visited []string
	r.Each(func(s *Session) { visited = append(visited, s.GuildID()) })
	assert.Len(t, visited, 5)
}
