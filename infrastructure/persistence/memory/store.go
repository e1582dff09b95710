package memory

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"graph-engine/application/ports"
	"graph-engine/domain/core/entities"
)

var _ ports.EntityStore = (*Store)(nil)

// Store is an in-process entity store. It backs local development and tests.
type Store struct {
	mu            sync.RWMutex
	nodes         []*entities.Node
	relationships []*entities.Relationship
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// AddNode appends a node. Ids are not checked for uniqueness.
func (s *Store) AddNode(node *entities.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, node)
}

// AddRelationship appends a relationship. Endpoints are not checked.
func (s *Store) AddRelationship(rel *entities.Relationship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships = append(s.relationships, rel)
}

// ListNodes implements ports.EntityStore
func (s *Store) ListNodes(ctx context.Context) ([]*entities.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	nodes := make([]*entities.Node, len(s.nodes))
	copy(nodes, s.nodes)
	s.mu.RUnlock()

	entities.SortNodes(nodes)
	return nodes, nil
}

// ListRelationships implements ports.EntityStore
func (s *Store) ListRelationships(ctx context.Context) ([]*entities.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rels := make([]*entities.Relationship, len(s.relationships))
	copy(rels, s.relationships)
	s.mu.RUnlock()

	entities.SortRelationships(rels)
	return rels, nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// seedFile is the on-disk layout read by LoadSeedFile. JSON files parse as YAML.
type seedFile struct {
	Nodes []struct {
		ID         string                 `yaml:"id"`
		Label      string                 `yaml:"label"`
		NodeType   string                 `yaml:"node_type"`
		Properties map[string]interface{} `yaml:"properties"`
		CreatedAt  time.Time              `yaml:"created_date"`
	} `yaml:"nodes"`
	Relationships []struct {
		ID               string                 `yaml:"id"`
		FromNodeID       string                 `yaml:"from_node_id"`
		ToNodeID         string                 `yaml:"to_node_id"`
		RelationshipType string                 `yaml:"relationship_type"`
		Properties       map[string]interface{} `yaml:"properties"`
		CreatedAt        time.Time              `yaml:"created_date"`
	} `yaml:"relationships"`
}

// LoadSeedFile reads a YAML or JSON seed file into a new store.
func LoadSeedFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed builds a store from seed document bytes.
func ParseSeed(data []byte) (*Store, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	store := NewStore()
	for i, n := range seed.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("seed node %d has no id", i)
		}
		store.AddNode(&entities.Node{
			ID:         n.ID,
			Label:      n.Label,
			NodeType:   n.NodeType,
			Properties: n.Properties,
			CreatedAt:  n.CreatedAt,
		})
	}
	for i, r := range seed.Relationships {
		if r.FromNodeID == "" || r.ToNodeID == "" {
			return nil, fmt.Errorf("seed relationship %d needs from_node_id and to_node_id", i)
		}
		store.AddRelationship(&entities.Relationship{
			ID:               r.ID,
			FromNodeID:       r.FromNodeID,
			ToNodeID:         r.ToNodeID,
			RelationshipType: r.RelationshipType,
			Properties:       r.Properties,
			CreatedAt:        r.CreatedAt,
		})
	}

	return store, nil
}
