package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agegraph/typegraph/internal/agtype"
	"github.com/agegraph/typegraph/internal/entities"
	"github.com/agegraph/typegraph/internal/repositories"
	"github.com/agegraph/typegraph/internal/services/cypher"
	"github.com/agegraph/typegraph/internal/services/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPageLimit bounds ListEntities when no limit is configured
const DefaultPageLimit = 100

// DefaultDecodeWorkers bounds the listing fan-out when WithDecodeWorkers is not set
const DefaultDecodeWorkers = 8

// TypeResolver looks up type definitions. SchemaService implements it.
type TypeResolver interface {
	FindByID(ctx context.Context, graphID string, typeID string) (*entities.TypeDefinition, error)
	FindByName(ctx context.Context, graphID string, name string) (*entities.TypeDefinition, error)
}

// EntityServiceInterface defines the interface for validated node and edge operations
type EntityServiceInterface interface {
	CreateNode(ctx context.Context, in CreateEntityInput) (*entities.Entity, error)
	CreateEdge(ctx context.Context, in CreateEdgeInput) (*entities.Entity, error)
	ListEntities(ctx context.Context, in ListEntitiesInput) ([]*entities.Entity, error)
	GetNodeByName(ctx context.Context, graphID string, typeID string, name string) (*entities.Entity, error)
}

// CreateEntityInput describes a node to create. TypeID takes precedence over TypeName.
type CreateEntityInput struct {
	GraphID    string
	TypeID     string
	TypeName   string
	Properties map[string]any
	CreatedBy  uuid.UUID
}

// CreateEdgeInput describes an edge between two existing vertices
type CreateEdgeInput struct {
	CreateEntityInput
	FromID int64
	ToID   int64
}

// ListEntitiesInput selects a page of nodes. An empty TypeID lists nodes of every type.
type ListEntitiesInput struct {
	GraphID string
	TypeID  string
	Offset  int
	Limit   int
}

// EntityService validates entities against their declared type and persists
// them in the graph
type EntityService struct {
	types     TypeResolver
	graph     repositories.GraphRepository
	decoder   *agtype.Decoder
	logger    *zap.Logger
	observer  Observer
	pageLimit int
	workers   int
	now       func() time.Time
}

// EntityOption configures an EntityService
type EntityOption func(*EntityService)

// WithEntityLogger sets the logger
func WithEntityLogger(logger *zap.Logger) EntityOption {
	return func(s *EntityService) { s.logger = logger }
}

// WithEntityObserver sets the observer notified of validation and decode failures
func WithEntityObserver(o Observer) EntityOption {
	return func(s *EntityService) { s.observer = o }
}

// WithPageLimit caps the number of entities returned by one listing
func WithPageLimit(limit int) EntityOption {
	return func(s *EntityService) { s.pageLimit = limit }
}

// WithDecodeWorkers sets how many listed rows are decoded concurrently
func WithDecodeWorkers(n int) EntityOption {
	return func(s *EntityService) { s.workers = n }
}

// NewEntityService creates a new EntityService
func NewEntityService(types TypeResolver, graph repositories.GraphRepository, opts ...EntityOption) *EntityService {
	s := &EntityService{
		types:     types,
		graph:     graph,
		logger:    zap.NewNop(),
		observer:  nopObserver{},
		pageLimit: DefaultPageLimit,
		workers:   DefaultDecodeWorkers,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.pageLimit <= 0 {
		s.pageLimit = DefaultPageLimit
	}
	if s.workers <= 0 {
		s.workers = DefaultDecodeWorkers
	}
	s.decoder = agtype.NewDecoder(s.logger.Named("agtype"))
	return s
}

// CreateNode validates in.Properties against the node type and creates the vertex.
// A string "name" property must be unique among vertices of the type.
func (s *EntityService) CreateNode(ctx context.Context, in CreateEntityInput) (*entities.Entity, error) {
	def, err := s.resolveType(ctx, in.GraphID, in.TypeID, in.TypeName, entities.KindNode)
	if err != nil {
		return nil, err
	}
	if err := s.validate(def, in.Properties); err != nil {
		return nil, err
	}

	props := entities.WithAuditProperties(in.Properties, in.CreatedBy, s.now())
	createStmt, err := cypher.CreateVertex(def.GraphID, def.NormalizedName, props)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidArgument, err)
	}

	var matchStmt string
	name, hasName := in.Properties[entities.PropertyName].(string)
	if hasName {
		if matchStmt, err = cypher.MatchVertexByName(def.GraphID, def.NormalizedName, name); err != nil {
			return nil, fmt.Errorf("%w: %v", entities.ErrInvalidArgument, err)
		}
	}

	var created *entities.Entity
	err = s.graph.RunInTx(ctx, func(ctx context.Context, tx repositories.CypherRunner) error {
		// Check-then-create: two concurrent transactions can both pass this check
		if matchStmt != "" {
			rows, err := tx.Query(ctx, matchStmt)
			if err != nil {
				return err
			}
			if len(rows) > 0 {
				return fmt.Errorf("%w: %s named %q", entities.ErrEntityAlreadyExists, def.NormalizedName, name)
			}
		}

		rows, err := tx.Query(ctx, createStmt)
		if err != nil {
			return err
		}
		if len(rows) != 1 {
			return fmt.Errorf("create returned %d rows, expected 1", len(rows))
		}
		created, err = s.decodeEntity(rows[0], def)
		return err
	})
	if err != nil {
		return nil, s.classify("create node", err, zap.String("graph_id", def.GraphID), zap.String("type", def.NormalizedName))
	}

	s.logger.Debug("node created",
		zap.String("graph_id", def.GraphID),
		zap.String("type_id", def.ID),
		zap.Int64("id", created.ID))
	return created, nil
}

// CreateEdge validates in.Properties against the edge type and connects two vertices
func (s *EntityService) CreateEdge(ctx context.Context, in CreateEdgeInput) (*entities.Entity, error) {
	def, err := s.resolveType(ctx, in.GraphID, in.TypeID, in.TypeName, entities.KindEdge)
	if err != nil {
		return nil, err
	}
	if err := s.validate(def, in.Properties); err != nil {
		return nil, err
	}

	props := entities.WithAuditProperties(in.Properties, in.CreatedBy, s.now())
	stmt, err := cypher.CreateEdge(def.GraphID, def.NormalizedName, in.FromID, in.ToID, props)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidArgument, err)
	}

	var edgeID int64
	err = s.graph.RunInTx(ctx, func(ctx context.Context, tx repositories.CypherRunner) error {
		rows, err := tx.Query(ctx, stmt)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("%w: %d -> %d", entities.ErrEndpointNotFound, in.FromID, in.ToID)
		}
		edgeID, err = strconv.ParseInt(strings.TrimSpace(rows[0]), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: edge id %q", agtype.ErrMalformedWireValue, rows[0])
		}
		return nil
	})
	if err != nil {
		return nil, s.classify("create edge", err, zap.String("graph_id", def.GraphID), zap.String("type", def.NormalizedName))
	}

	return &entities.Entity{
		ID:         edgeID,
		GraphID:    def.GraphID,
		TypeID:     def.ID,
		Kind:       entities.KindEdge,
		Label:      def.NormalizedName,
		Properties: props,
	}, nil
}

// ListEntities returns a page of nodes in engine id order. Every row must decode;
// a single undecodable row fails the whole listing.
func (s *EntityService) ListEntities(ctx context.Context, in ListEntitiesInput) ([]*entities.Entity, error) {
	if err := entities.ValidateGraphID(in.GraphID); err != nil {
		return nil, err
	}
	if in.Offset < 0 || in.Limit < 0 {
		return nil, fmt.Errorf("%w: offset and limit must not be negative", entities.ErrInvalidArgument)
	}

	var label string
	if in.TypeID != "" {
		def, err := s.resolveType(ctx, in.GraphID, in.TypeID, "", "")
		if err != nil {
			return nil, err
		}
		if def.Kind != entities.KindNode {
			return nil, fmt.Errorf("%w: listing %s types", entities.ErrUnsupportedKind, def.Kind)
		}
		label = def.NormalizedName
	}

	limit := in.Limit
	if limit == 0 || limit > s.pageLimit {
		limit = s.pageLimit
	}
	stmt, err := cypher.MatchVertices(in.GraphID, label, cypher.Page{Offset: in.Offset, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidArgument, err)
	}

	rows, err := s.graph.Query(ctx, stmt)
	if err != nil {
		return nil, s.classify("list nodes", err, zap.String("graph_id", in.GraphID))
	}

	result := make([]*entities.Entity, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, raw := range rows {
		g.Go(func() error {
			e, err := s.decodeListed(gctx, in.GraphID, raw)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			result[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.classify("list nodes", err, zap.String("graph_id", in.GraphID))
	}

	return result, nil
}

// decodeListed decodes one listing row and attaches the id of its type.
// Vertices whose label has no type definition keep an empty TypeID.
func (s *EntityService) decodeListed(ctx context.Context, graphID, raw string) (*entities.Entity, error) {
	v, err := s.decodeVertex(raw)
	if err != nil {
		return nil, err
	}

	e := &entities.Entity{
		ID:         v.ID,
		GraphID:    graphID,
		Kind:       entities.KindNode,
		Label:      v.Label,
		Properties: v.Properties,
	}

	def, err := s.types.FindByName(ctx, graphID, v.Label)
	switch {
	case err == nil:
		e.TypeID = def.ID
	case errors.Is(err, repositories.ErrNotFound):
		s.logger.Debug("vertex label without type definition", zap.String("graph_id", graphID), zap.String("label", v.Label))
	default:
		return nil, err
	}
	return e, nil
}

// GetNodeByName returns the node of the given type whose name property equals name
func (s *EntityService) GetNodeByName(ctx context.Context, graphID string, typeID string, name string) (*entities.Entity, error) {
	def, err := s.resolveType(ctx, graphID, typeID, "", entities.KindNode)
	if err != nil {
		return nil, err
	}

	stmt, err := cypher.MatchVertexByName(graphID, def.NormalizedName, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidArgument, err)
	}

	rows, err := s.graph.Query(ctx, stmt)
	if err != nil {
		return nil, s.classify("get node", err, zap.String("graph_id", graphID))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s named %q", entities.ErrEntityNotFound, def.NormalizedName, name)
	}
	if len(rows) > 1 {
		s.logger.Warn("duplicate node names",
			zap.String("graph_id", graphID),
			zap.String("type", def.NormalizedName),
			zap.String("name", name),
			zap.Int("count", len(rows)))
	}

	e, err := s.decodeEntity(rows[0], def)
	if err != nil {
		return nil, s.classify("get node", err, zap.String("graph_id", graphID))
	}
	return e, nil
}

// resolveType finds the type by id, or by name when id is empty.
// A missing type or a kind mismatch yields ErrUnknownType. An empty want accepts any kind.
func (s *EntityService) resolveType(ctx context.Context, graphID, typeID, typeName string, want entities.TypeKind) (*entities.TypeDefinition, error) {
	if err := entities.ValidateGraphID(graphID); err != nil {
		return nil, err
	}

	var (
		def *entities.TypeDefinition
		err error
		ref = typeID
	)
	switch {
	case typeID != "":
		def, err = s.types.FindByID(ctx, graphID, typeID)
	case typeName != "":
		ref = typeName
		def, err = s.types.FindByName(ctx, graphID, typeName)
	default:
		return nil, fmt.Errorf("%w: type ID or name is required", entities.ErrUnknownType)
	}

	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", entities.ErrUnknownType, ref)
	}
	if err != nil {
		return nil, err
	}
	if want != "" && def.Kind != want {
		return nil, fmt.Errorf("%w: %s is a %s type, not a %s type", entities.ErrUnknownType, ref, def.Kind, want)
	}
	return def, nil
}

// validate runs the shape check and the attribute check and reports every failure at once
func (s *EntityService) validate(def *entities.TypeDefinition, props map[string]any) error {
	var all []entities.AttributeError
	for _, check := range []error{validation.CheckShape(props), validation.Validate(def.Attributes, props)} {
		var ve *entities.ValidationError
		if errors.As(check, &ve) {
			all = append(all, ve.Errors...)
		}
	}
	if len(all) == 0 {
		return nil
	}

	for _, ae := range all {
		s.observer.ValidationFailed(string(ae.Kind))
	}
	s.logger.Debug("properties rejected",
		zap.String("graph_id", def.GraphID),
		zap.String("type_id", def.ID),
		zap.Int("errors", len(all)))
	return &entities.ValidationError{Errors: all}
}

func (s *EntityService) decodeVertex(raw string) (agtype.Vertex, error) {
	wv, err := s.decoder.Decode(raw)
	if err != nil {
		s.observer.DecodeFailed()
		return agtype.Vertex{}, err
	}
	v, ok := wv.(agtype.Vertex)
	if !ok {
		s.observer.DecodeFailed()
		return agtype.Vertex{}, &agtype.UnsupportedTypeError{Tag: string(wv.Kind())}
	}
	return v, nil
}

func (s *EntityService) decodeEntity(raw string, def *entities.TypeDefinition) (*entities.Entity, error) {
	v, err := s.decodeVertex(raw)
	if err != nil {
		return nil, err
	}
	return &entities.Entity{
		ID:         v.ID,
		GraphID:    def.GraphID,
		TypeID:     def.ID,
		Kind:       def.Kind,
		Label:      v.Label,
		Properties: v.Properties,
	}, nil
}

// classify passes domain, decode and context errors through and wraps
// everything else as a PersistenceError after logging it
func (s *EntityService) classify(op string, err error, fields ...zap.Field) error {
	for _, known := range []error{
		entities.ErrEntityAlreadyExists,
		entities.ErrEndpointNotFound,
		entities.ErrUnknownType,
		agtype.ErrMalformedWireValue,
		agtype.ErrUnsupportedWireType,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	var pe *entities.PersistenceError
	if errors.As(err, &pe) {
		return err
	}

	s.logger.Error(op+" failed", append(fields, zap.Error(err))...)
	return entities.NewPersistenceError(op, err)
}
