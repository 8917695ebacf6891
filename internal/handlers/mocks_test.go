package handlers

import (
	"context"

	"github.com/agegraph/typegraph/internal/entities"
	"github.com/agegraph/typegraph/internal/services"
)

// Mock SchemaService
type mockSchemaService struct {
	createTypeFunc func(ctx context.Context, in services.CreateTypeInput) (*entities.TypeDefinition, error)
	findByIDFunc   func(ctx context.Context, graphID, typeID string) (*entities.TypeDefinition, error)
	findByNameFunc func(ctx context.Context, graphID, name string) (*entities.TypeDefinition, error)
	listTypesFunc  func(ctx context.Context, graphID string, kind *entities.TypeKind) ([]*entities.TypeDefinition, error)
}

func (m *mockSchemaService) CreateType(ctx context.Context, in services.CreateTypeInput) (*entities.TypeDefinition, error) {
	if m.createTypeFunc != nil {
		return m.createTypeFunc(ctx, in)
	}
	def, err := entities.NewTypeDefinition(in.Kind, in.GraphID, in.Name, in.Description, in.CreatedBy)
	if err != nil {
		return nil, err
	}
	def.Attributes, err = entities.BuildAttributes(def.ID, in.Attributes)
	return def, err
}

func (m *mockSchemaService) FindByID(ctx context.Context, graphID, typeID string) (*entities.TypeDefinition, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, graphID, typeID)
	}
	return nil, entities.ErrUnknownType
}

func (m *mockSchemaService) FindByName(ctx context.Context, graphID, name string) (*entities.TypeDefinition, error) {
	if m.findByNameFunc != nil {
		return m.findByNameFunc(ctx, graphID, name)
	}
	return nil, entities.ErrUnknownType
}

func (m *mockSchemaService) ListTypes(ctx context.Context, graphID string, kind *entities.TypeKind) ([]*entities.TypeDefinition, error) {
	if m.listTypesFunc != nil {
		return m.listTypesFunc(ctx, graphID, kind)
	}
	return nil, nil
}

// Mock EntityService
type mockEntityService struct {
	createNodeFunc    func(ctx context.Context, in services.CreateEntityInput) (*entities.Entity, error)
	createEdgeFunc    func(ctx context.Context, in services.CreateEdgeInput) (*entities.Entity, error)
	listEntitiesFunc  func(ctx context.Context, in services.ListEntitiesInput) ([]*entities.Entity, error)
	getNodeByNameFunc func(ctx context.Context, graphID, typeID, name string) (*entities.Entity, error)
}

func (m *mockEntityService) CreateNode(ctx context.Context, in services.CreateEntityInput) (*entities.Entity, error) {
	if m.createNodeFunc != nil {
		return m.createNodeFunc(ctx, in)
	}
	return &entities.Entity{ID: 1, GraphID: in.GraphID, TypeID: in.TypeID, Kind: entities.KindNode, Properties: in.Properties}, nil
}

func (m *mockEntityService) CreateEdge(ctx context.Context, in services.CreateEdgeInput) (*entities.Entity, error) {
	if m.createEdgeFunc != nil {
		return m.createEdgeFunc(ctx, in)
	}
	return &entities.Entity{ID: 2, GraphID: in.GraphID, TypeID: in.TypeID, Kind: entities.KindEdge, Properties: in.Properties}, nil
}

func (m *mockEntityService) ListEntities(ctx context.Context, in services.ListEntitiesInput) ([]*entities.Entity, error) {
	if m.listEntitiesFunc != nil {
		return m.listEntitiesFunc(ctx, in)
	}
	return nil, nil
}

func (m *mockEntityService) GetNodeByName(ctx context.Context, graphID, typeID, name string) (*entities.Entity, error) {
	if m.getNodeByNameFunc != nil {
		return m.getNodeByNameFunc(ctx, graphID, typeID, name)
	}
	return nil, entities.ErrEntityNotFound
}
