package querydsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterminism(t *testing.T) {
	build := func() Clause {
		return NewBool(Must,
			&Criterion{Primitive: Term, Body: Object{"color.keyword": "red", "boost": 2}},
		)
	}

	h1, err := Hash(build())
	require.NoError(t, err)
	h2, err := Hash(build())
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "Hash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestHashChangesWithClauseKind(t *testing.T) {
	crit := &Criterion{Primitive: Term, Body: Object{"a": 1}}

	assert.NotEqual(t, MustHash(NewBool(Must, crit)), MustHash(NewBool(Should, crit)))
}

func TestHashAbsentQuery(t *testing.T) {
	h, err := Hash(nil)
	require.NoError(t, err)
	assert.Equal(t, hashWithDomain(DomainQuery, []byte("null")), h)
}

func TestHashDomainSeparation(t *testing.T) {
	doc := Object{"a": 1}

	treeHash, err := HashDocument(doc)
	require.NoError(t, err)
	assert.NotEqual(t, hashWithDomain(DomainQuery, []byte(`{"a":1}`)), treeHash)
	assert.Equal(t, hashWithDomain(DomainTree, []byte(`{"a":1}`)), treeHash)
}

func TestMustHashPanicsOnInvalidPayload(t *testing.T) {
	q := &Criterion{Primitive: Term, Body: Object{"f": make(chan int)}}
	assert.Panics(t, func() { MustHash(q) })
}
