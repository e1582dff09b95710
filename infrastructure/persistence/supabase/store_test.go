package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "graph-engine/pkg/errors"
)

// fakeQuerier decodes canned PostgREST JSON bodies, the way the real client does.
type fakeQuerier struct {
	bodies map[string]string
	err    error
	delay  time.Duration
}

func (f *fakeQuerier) SelectAll(table string, out interface{}) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.bodies[table]), out)
}

func (f *fakeQuerier) Probe(table string) error {
	return f.err
}

func TestStore_ListNodes(t *testing.T) {
	q := &fakeQuerier{bodies: map[string]string{
		"nodes": `[
			{"id":"b","label":"Beta","node_type":"concept","created_date":"2024-01-01T00:00:00+00:00"},
			{"id":"a","label":"Alpha","created_date":"2024-01-01T00:00:00+00:00","properties":{"color":"red"}},
			{"id":"c","label":"Gamma","created_date":"2023-12-31T23:59:59.5+00:00"}
		]`,
	}}
	store := NewStore(q, "nodes", "relationships", zap.NewNop())

	nodes, err := store.ListNodes(context.Background())

	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "c", nodes[0].ID)
	assert.Equal(t, "a", nodes[1].ID)
	assert.Equal(t, "b", nodes[2].ID)
	assert.Equal(t, "red", nodes[1].Properties["color"])
	assert.Equal(t, "concept", nodes[2].NodeType)
}

func TestStore_ListRelationships(t *testing.T) {
	q := &fakeQuerier{bodies: map[string]string{
		"relationships": `[
			{"id":"r1","from_node_id":"a","to_node_id":"b","relationship_type":"cites","created_date":"2024-01-01T00:00:00Z"}
		]`,
	}}
	store := NewStore(q, "nodes", "relationships", zap.NewNop())

	rels, err := store.ListRelationships(context.Background())

	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "a", rels[0].FromNodeID)
	assert.Equal(t, "cites", rels[0].RelationshipType)
}

func TestStore_SkipsNullRows(t *testing.T) {
	q := &fakeQuerier{bodies: map[string]string{
		"nodes":         `[null,{"id":"b","created_date":"2024-01-02T00:00:00Z"},null,{"id":"a","created_date":"2024-01-01T00:00:00Z"}]`,
		"relationships": `[{"id":"r1","from_node_id":"a","to_node_id":"b"},null]`,
	}}
	store := NewStore(q, "nodes", "relationships", zap.NewNop())

	nodes, err := store.ListNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].ID)
	assert.Equal(t, "b", nodes[1].ID)

	rels, err := store.ListRelationships(context.Background())
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "r1", rels[0].ID)
}

func TestStore_OnlyNullRows(t *testing.T) {
	q := &fakeQuerier{bodies: map[string]string{"nodes": `[null]`}}
	store := NewStore(q, "nodes", "relationships", zap.NewNop())

	nodes, err := store.ListNodes(context.Background())

	require.NoError(t, err)
	assert.Empty(t, nodes)
	assert.NotNil(t, nodes)
}

func TestStore_QueryError(t *testing.T) {
	store := NewStore(&fakeQuerier{err: errors.New("401 Unauthorized")}, "nodes", "relationships", zap.NewNop())

	_, err := store.ListNodes(context.Background())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
	assert.Error(t, store.Ping(context.Background()))
}

func TestStore_ContextDeadline(t *testing.T) {
	q := &fakeQuerier{bodies: map[string]string{"nodes": `[]`}, delay: 200 * time.Millisecond}
	store := NewStore(q, "nodes", "relationships", zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := store.ListNodes(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
