package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type seqSource struct {
	next []int
}

func (s *seqSource) Intn(n int) int {
	v := s.next[0] % n
	s.next = s.next[1:]
	return v
}

func TestPool_PickUsesSource(t *testing.T) {
	p := New([]string{"a", "b", "c"}, &seqSource{next: []int{2, 0, 1}})
	assert.Equal(t, "c", p.Pick())
	assert.Equal(t, "a", p.Pick())
	assert.Equal(t, "b", p.Pick())
}

func TestPool_DefaultsWhenEmpty(t *testing.T) {
	p := New(nil, nil)
	assert.Equal(t, len(Defaults), p.Len())
	assert.Contains(t, Defaults, p.Pick())
}

func TestPool_CopiesAgents(t *testing.T) {
	agents := []string{"x"}
	p := New(agents, &seqSource{next: []int{0}})
	agents[0] = "mutated"
	assert.Equal(t, "x", p.Pick())
}

func TestFixed(t *testing.T) {
	assert.Equal(t, "ua", Fixed("ua").Pick())
}
