package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"graph-engine/application/ports"
	"graph-engine/domain/core/entities"
	pkgerrors "graph-engine/pkg/errors"
)

// Entity types stored in the EntityType attribute of the single table.
const (
	EntityTypeNode         = "NODE"
	EntityTypeRelationship = "RELATIONSHIP"
)

// Client is the subset of the DynamoDB API the store uses.
type Client interface {
	dynamodb.ScanAPIClient
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var _ ports.EntityStore = (*Store)(nil)

// Store reads nodes and relationships from one DynamoDB table, discriminated by EntityType.
type Store struct {
	client    Client
	tableName string
	logger    *zap.Logger
}

// NewStore creates a new DynamoDB entity store
func NewStore(client Client, tableName string, logger *zap.Logger) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// ListNodes implements ports.EntityStore
func (s *Store) ListNodes(ctx context.Context) ([]*entities.Node, error) {
	var items []entities.Node
	if err := s.scanAll(ctx, EntityTypeNode, &items); err != nil {
		return nil, err
	}

	nodes := make([]*entities.Node, 0, len(items))
	for i := range items {
		if items[i].ID == "" {
			s.logger.Warn("Skipping node item without NodeID")
			continue
		}
		nodes = append(nodes, &items[i])
	}

	entities.SortNodes(nodes)
	return nodes, nil
}

// ListRelationships implements ports.EntityStore
func (s *Store) ListRelationships(ctx context.Context) ([]*entities.Relationship, error) {
	var items []entities.Relationship
	if err := s.scanAll(ctx, EntityTypeRelationship, &items); err != nil {
		return nil, err
	}

	rels := make([]*entities.Relationship, 0, len(items))
	for i := range items {
		rels = append(rels, &items[i])
	}

	entities.SortRelationships(rels)
	return rels, nil
}

// Ping checks that the table exists and is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return s.mapError("describe_table", err)
	}
	return nil
}

// scanAll reads every page of the table filtered to entityType and unmarshals the items into out.
func (s *Store) scanAll(ctx context.Context, entityType string, out interface{}) error {
	filter := expression.Name("EntityType").Equal(expression.Value(entityType))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return fmt.Errorf("failed to build scan expression: %w", err)
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	operation := "scan_" + entityType
	pages := 0
	var all []map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("DynamoDB scan failed",
				zap.String("table", s.tableName),
				zap.String("entity_type", entityType),
				zap.Int("pages_read", pages),
				zap.Error(err),
			)
			return s.mapError(operation, err)
		}
		pages++
		all = append(all, page.Items...)
	}

	if err := attributevalue.UnmarshalListOfMaps(all, out); err != nil {
		return pkgerrors.NewDatabaseError(operation, fmt.Errorf("failed to unmarshal items: %w", err))
	}

	s.logger.Debug("DynamoDB scan completed",
		zap.String("entity_type", entityType),
		zap.Int("pages", pages),
		zap.Int("items", len(all)),
	)
	return nil
}

// mapError converts SDK errors into AppErrors. Context errors pass through unchanged so the
// loader can tell a fetch timeout from a store failure.
func (s *Store) mapError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
			return pkgerrors.NewUnavailableError("dynamodb").WithCause(err).WithDetail("table", s.tableName)
		}
	}

	return pkgerrors.NewDatabaseError(operation, err).WithDetail("table", s.tableName)
}
