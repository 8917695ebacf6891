package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/agegraph/typegraph/internal/entities"
	"github.com/agegraph/typegraph/internal/repositories"
	"github.com/agegraph/typegraph/pkg/cache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SchemaServiceInterface defines the interface for type definition management
type SchemaServiceInterface interface {
	CreateType(ctx context.Context, in CreateTypeInput) (*entities.TypeDefinition, error)
	FindByID(ctx context.Context, graphID string, typeID string) (*entities.TypeDefinition, error)
	FindByName(ctx context.Context, graphID string, name string) (*entities.TypeDefinition, error)
	ListTypes(ctx context.Context, graphID string, kind *entities.TypeKind) ([]*entities.TypeDefinition, error)
}

// CreateTypeInput describes a node or edge type to declare
type CreateTypeInput struct {
	Kind        entities.TypeKind
	GraphID     string
	Name        string
	Description string
	CreatedBy   uuid.UUID
	Attributes  []entities.AttributeSpec
}

// SchemaService handles type definition management.
// Definitions returned by its methods may be shared through the cache and
// must not be modified by callers.
type SchemaService struct {
	schemaRepo    repositories.SchemaRepository
	attributeRepo repositories.AttributeRepository
	cache         cache.Cache[*entities.TypeDefinition] // nil disables caching
	logger        *zap.Logger
	observer      Observer
}

// SchemaOption configures a SchemaService
type SchemaOption func(*SchemaService)

// WithTypeCache caches definitions looked up by id or name
func WithTypeCache(c cache.Cache[*entities.TypeDefinition]) SchemaOption {
	return func(s *SchemaService) { s.cache = c }
}

// WithSchemaLogger sets the logger
func WithSchemaLogger(logger *zap.Logger) SchemaOption {
	return func(s *SchemaService) { s.logger = logger }
}

// WithSchemaObserver sets the observer notified of cache hits and misses
func WithSchemaObserver(o Observer) SchemaOption {
	return func(s *SchemaService) { s.observer = o }
}

// NewSchemaService creates a new SchemaService
func NewSchemaService(schemaRepo repositories.SchemaRepository, attributeRepo repositories.AttributeRepository, opts ...SchemaOption) *SchemaService {
	s := &SchemaService{
		schemaRepo:    schemaRepo,
		attributeRepo: attributeRepo,
		logger:        zap.NewNop(),
		observer:      nopObserver{},
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
	return s
}

// CreateType validates and stores a new type with its attributes.
// The type name must be unique within the graph across node and edge types.
func (s *SchemaService) CreateType(ctx context.Context, in CreateTypeInput) (*entities.TypeDefinition, error) {
	def, err := entities.NewTypeDefinition(in.Kind, in.GraphID, in.Name, in.Description, in.CreatedBy)
	if err != nil {
		return nil, err
	}

	def.Attributes, err = entities.BuildAttributes(def.ID, in.Attributes)
	if err != nil {
		return nil, err
	}

	// Early, friendly check; the unique index closes the race
	existing, err := s.schemaRepo.FindByName(ctx, def.GraphID, def.NormalizedName)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s is already declared as a %s type (%s)",
			entities.ErrTypeAlreadyExists, def.NormalizedName, existing.Kind, existing.ID)
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, s.persistenceError("look up type", err, zap.String("graph_id", def.GraphID))
	}

	if err := s.schemaRepo.Save(ctx, def); err != nil {
		if errors.Is(err, entities.ErrTypeAlreadyExists) {
			return nil, err
		}
		return nil, s.persistenceError("create type", err,
			zap.String("graph_id", def.GraphID),
			zap.String("type", def.NormalizedName))
	}

	s.logger.Info("type created",
		zap.String("graph_id", def.GraphID),
		zap.String("type_id", def.ID),
		zap.String("kind", string(def.Kind)),
		zap.String("label", def.NormalizedName),
		zap.Int("attributes", len(def.Attributes)))

	s.store(ctx, def)
	return def, nil
}

// FindByID retrieves a type definition with its attributes
func (s *SchemaService) FindByID(ctx context.Context, graphID string, typeID string) (*entities.TypeDefinition, error) {
	if typeID == "" {
		return nil, fmt.Errorf("%w: type ID is required", entities.ErrInvalidArgument)
	}
	return s.lookup(ctx, idKey(graphID, typeID), func() (*entities.TypeDefinition, error) {
		return s.schemaRepo.FindByID(ctx, graphID, typeID)
	})
}

// FindByName retrieves a type definition by display or normalized name
func (s *SchemaService) FindByName(ctx context.Context, graphID string, name string) (*entities.TypeDefinition, error) {
	normalized := entities.NormalizeName(name)
	if normalized == "" {
		return nil, fmt.Errorf("%w: type name is required", entities.ErrInvalidArgument)
	}
	return s.lookup(ctx, nameKey(graphID, normalized), func() (*entities.TypeDefinition, error) {
		return s.schemaRepo.FindByName(ctx, graphID, normalized)
	})
}

// ListTypes retrieves the type definitions of a graph with their attributes.
// A nil kind lists both node and edge types.
func (s *SchemaService) ListTypes(ctx context.Context, graphID string, kind *entities.TypeKind) ([]*entities.TypeDefinition, error) {
	if err := entities.ValidateGraphID(graphID); err != nil {
		return nil, err
	}

	defs, err := s.schemaRepo.List(ctx, graphID, kind)
	if err != nil {
		return nil, s.persistenceError("list types", err, zap.String("graph_id", graphID))
	}
	if len(defs) == 0 {
		return defs, nil
	}

	ids := make([]string, len(defs))
	for i, def := range defs {
		ids[i] = def.ID
	}
	attrs, err := s.attributeRepo.ListByTypes(ctx, ids)
	if err != nil {
		return nil, s.persistenceError("list attributes", err, zap.String("graph_id", graphID))
	}
	for _, def := range defs {
		def.Attributes = attrs[def.ID]
	}

	return defs, nil
}

// InvalidateGraph drops cached definitions of graphID
func (s *SchemaService) InvalidateGraph(ctx context.Context, graphID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, graphID+":"); err != nil {
		s.logger.Warn("failed to invalidate type cache", zap.String("graph_id", graphID), zap.Error(err))
	}
}

// InvalidateAll drops every cached definition
func (s *SchemaService) InvalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear type cache", zap.Error(err))
	}
}

func (s *SchemaService) lookup(ctx context.Context, key string, load func() (*entities.TypeDefinition, error)) (*entities.TypeDefinition, error) {
	if s.cache != nil {
		if def, ok := s.cache.Get(ctx, key); ok {
			s.observer.CacheHit()
			return def, nil
		}
		s.observer.CacheMiss()
	}

	def, err := load()
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, s.persistenceError("find type", err, zap.String("key", key))
	}

	s.store(ctx, def)
	return def, nil
}

func (s *SchemaService) store(ctx context.Context, def *entities.TypeDefinition) {
	if s.cache == nil {
		return
	}
	// Zero ttl uses the cache default
	_ = s.cache.Set(ctx, idKey(def.GraphID, def.ID), def, 0)
	_ = s.cache.Set(ctx, nameKey(def.GraphID, def.NormalizedName), def, 0)
}

// persistenceError logs err with full detail and hides it from callers
func (s *SchemaService) persistenceError(op string, err error, fields ...zap.Field) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.logger.Error(op+" failed", append(fields, zap.Error(err))...)
	return entities.NewPersistenceError(op, err)
}

func idKey(graphID, typeID string) string {
	return graphID + ":id:" + typeID
}

func nameKey(graphID, normalizedName string) string {
	return graphID + ":name:" + normalizedName
}
