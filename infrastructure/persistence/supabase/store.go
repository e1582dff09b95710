package supabase

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"graph-engine/application/ports"
	"graph-engine/domain/core/entities"
	pkgerrors "graph-engine/pkg/errors"
)

// Querier is the PostgREST surface the store needs. out must be a pointer to a slice.
type Querier interface {
	SelectAll(table string, out interface{}) error
	Probe(table string) error
}

// ClientQuerier runs selects through the PostgREST client of a Supabase project.
type ClientQuerier struct {
	client *supabase.Client
}

// NewClientQuerier creates a querier for the project at url, authenticated with key.
func NewClientQuerier(url, key string) (*ClientQuerier, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}
	return &ClientQuerier{client: client}, nil
}

// SelectAll implements Querier
func (q *ClientQuerier) SelectAll(table string, out interface{}) error {
	_, err := q.client.From(table).Select("*", "", false).ExecuteTo(out)
	return err
}

// Probe implements Querier by reading at most one id.
func (q *ClientQuerier) Probe(table string) error {
	var rows []map[string]interface{}
	_, err := q.client.From(table).Select("id", "", false).Limit(1, "").ExecuteTo(&rows)
	return err
}

var _ ports.EntityStore = (*Store)(nil)

// Store reads nodes and relationships from two Supabase tables whose columns use the API field names.
type Store struct {
	querier            Querier
	nodesTable         string
	relationshipsTable string
	logger             *zap.Logger
}

// NewStore creates a new Supabase entity store
func NewStore(querier Querier, nodesTable, relationshipsTable string, logger *zap.Logger) *Store {
	return &Store{
		querier:            querier,
		nodesTable:         nodesTable,
		relationshipsTable: relationshipsTable,
		logger:             logger,
	}
}

// ListNodes implements ports.EntityStore
func (s *Store) ListNodes(ctx context.Context) ([]*entities.Node, error) {
	var rows []*entities.Node
	if err := s.selectAll(ctx, s.nodesTable, &rows); err != nil {
		return nil, err
	}
	rows = dropNullRows(s, s.nodesTable, rows)
	entities.SortNodes(rows)
	return rows, nil
}

// ListRelationships implements ports.EntityStore
func (s *Store) ListRelationships(ctx context.Context) ([]*entities.Relationship, error) {
	var rows []*entities.Relationship
	if err := s.selectAll(ctx, s.relationshipsTable, &rows); err != nil {
		return nil, err
	}
	rows = dropNullRows(s, s.relationshipsTable, rows)
	entities.SortRelationships(rows)
	return rows, nil
}

// dropNullRows removes JSON null elements, which decode to nil pointers, in place.
func dropNullRows[T any](s *Store, table string, rows []*T) []*T {
	kept := rows[:0]
	for _, row := range rows {
		if row != nil {
			kept = append(kept, row)
		}
	}
	if skipped := len(rows) - len(kept); skipped > 0 {
		s.logger.Warn("Skipping null rows", zap.String("table", table), zap.Int("count", skipped))
	}
	return kept
}

// Ping checks that the nodes table answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.await(ctx, s.nodesTable, func() error {
		return s.querier.Probe(s.nodesTable)
	})
}

func (s *Store) selectAll(ctx context.Context, table string, out interface{}) error {
	return s.await(ctx, table, func() error {
		return s.querier.SelectAll(table, out)
	})
}

// await runs the blocking PostgREST call in a goroutine so ctx can abandon it.
// An abandoned call may still write its destination, which the caller then discards.
func (s *Store) await(ctx context.Context, table string, call func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- call()
	}()

	select {
	case <-ctx.Done():
		s.logger.Warn("Supabase select abandoned", zap.String("table", table), zap.Error(ctx.Err()))
		return ctx.Err()
	case err := <-done:
		if err != nil {
			s.logger.Error("Supabase select failed", zap.String("table", table), zap.Error(err))
			return pkgerrors.NewExternalError("supabase", err)
		}
		return nil
	}
}
