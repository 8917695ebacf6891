package handlers

import (
	"context"

	"github.com/agegraph/typegraph/internal/entities"
	"github.com/agegraph/typegraph/internal/services"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GraphHandler implements GraphServiceServer on top of the schema and entity services
type GraphHandler struct {
	schemaService services.SchemaServiceInterface
	entityService services.EntityServiceInterface
	logger        *zap.Logger
}

// NewGraphHandler creates a new GraphHandler
func NewGraphHandler(schemaService services.SchemaServiceInterface, entityService services.EntityServiceInterface, logger *zap.Logger) *GraphHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphHandler{
		schemaService: schemaService,
		entityService: entityService,
		logger:        logger,
	}
}

// === Type management ===

// CreateNodeType handles the CreateNodeType RPC
func (h *GraphHandler) CreateNodeType(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.createType(ctx, entities.KindNode, req)
}

// CreateEdgeType handles the CreateEdgeType RPC
func (h *GraphHandler) CreateEdgeType(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.createType(ctx, entities.KindEdge, req)
}

func (h *GraphHandler) createType(ctx context.Context, kind entities.TypeKind, req *structpb.Struct) (*structpb.Struct, error) {
	graphID, err := requireString(req, "graph_id")
	if err != nil {
		return nil, err
	}
	createdBy, err := userID(req)
	if err != nil {
		return nil, err
	}
	attrs, err := attributeSpecsField(req)
	if err != nil {
		return nil, err
	}

	def, err := h.schemaService.CreateType(ctx, services.CreateTypeInput{
		Kind:        kind,
		GraphID:     graphID,
		Name:        stringField(req, "name"),
		Description: stringField(req, "description"),
		CreatedBy:   createdBy,
		Attributes:  attrs,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return typeToStruct(def), nil
}

// ListTypes handles the ListTypes RPC. An optional "kind" filters node or edge types.
func (h *GraphHandler) ListTypes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	graphID, err := requireString(req, "graph_id")
	if err != nil {
		return nil, err
	}

	var kind *entities.TypeKind
	if raw := stringField(req, "kind"); raw != "" {
		k, err := entities.ParseTypeKind(raw)
		if err != nil {
			return nil, toStatus(err)
		}
		kind = &k
	}

	defs, err := h.schemaService.ListTypes(ctx, graphID, kind)
	if err != nil {
		return nil, toStatus(err)
	}

	values := make([]*structpb.Value, len(defs))
	for i, def := range defs {
		values[i] = structpb.NewStructValue(typeToStruct(def))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"types": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}, nil
}

// GetType handles the GetType RPC. The type is looked up by "type_id", or by "name" when no id is given.
func (h *GraphHandler) GetType(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	graphID, err := requireString(req, "graph_id")
	if err != nil {
		return nil, err
	}

	var def *entities.TypeDefinition
	switch typeID, name := stringField(req, "type_id"), stringField(req, "name"); {
	case typeID != "":
		def, err = h.schemaService.FindByID(ctx, graphID, typeID)
	case name != "":
		def, err = h.schemaService.FindByName(ctx, graphID, name)
	default:
		return nil, status.Error(codes.InvalidArgument, "type_id or name is required")
	}
	if err != nil {
		return nil, toStatus(err)
	}

	return typeToStruct(def), nil
}

// === Entities ===

// CreateNode handles the CreateNode RPC
func (h *GraphHandler) CreateNode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := entityInput(req)
	if err != nil {
		return nil, err
	}

	e, err := h.entityService.CreateNode(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return h.encodeEntity(e)
}

// CreateEdge handles the CreateEdge RPC
func (h *GraphHandler) CreateEdge(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := entityInput(req)
	if err != nil {
		return nil, err
	}
	fromID, err := requireInt(req, "from_id")
	if err != nil {
		return nil, err
	}
	toID, err := requireInt(req, "to_id")
	if err != nil {
		return nil, err
	}

	e, err := h.entityService.CreateEdge(ctx, services.CreateEdgeInput{
		CreateEntityInput: in,
		FromID:            fromID,
		ToID:              toID,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return h.encodeEntity(e)
}

// ListNodes handles the ListNodes RPC
func (h *GraphHandler) ListNodes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	graphID, err := requireString(req, "graph_id")
	if err != nil {
		return nil, err
	}
	offset, _, err := intField(req, "offset")
	if err != nil {
		return nil, err
	}
	limit, _, err := intField(req, "limit")
	if err != nil {
		return nil, err
	}

	nodes, err := h.entityService.ListEntities(ctx, services.ListEntitiesInput{
		GraphID: graphID,
		TypeID:  stringField(req, "type_id"),
		Offset:  int(offset),
		Limit:   int(limit),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	values := make([]*structpb.Value, len(nodes))
	for i, e := range nodes {
		s, err := h.encodeEntity(e)
		if err != nil {
			return nil, err
		}
		values[i] = structpb.NewStructValue(s)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"nodes": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}, nil
}

// GetNodeByName handles the GetNodeByName RPC
func (h *GraphHandler) GetNodeByName(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	graphID, err := requireString(req, "graph_id")
	if err != nil {
		return nil, err
	}
	typeID, err := requireString(req, "type_id")
	if err != nil {
		return nil, err
	}
	name, err := requireString(req, "name")
	if err != nil {
		return nil, err
	}

	e, err := h.entityService.GetNodeByName(ctx, graphID, typeID, name)
	if err != nil {
		return nil, toStatus(err)
	}
	return h.encodeEntity(e)
}

func entityInput(req *structpb.Struct) (services.CreateEntityInput, error) {
	graphID, err := requireString(req, "graph_id")
	if err != nil {
		return services.CreateEntityInput{}, err
	}
	createdBy, err := userID(req)
	if err != nil {
		return services.CreateEntityInput{}, err
	}
	typeID, typeName := stringField(req, "type_id"), stringField(req, "type_name")
	if typeID == "" && typeName == "" {
		return services.CreateEntityInput{}, status.Error(codes.InvalidArgument, "type_id or type_name is required")
	}
	props, err := propertiesField(req)
	if err != nil {
		return services.CreateEntityInput{}, err
	}

	return services.CreateEntityInput{
		GraphID:    graphID,
		TypeID:     typeID,
		TypeName:   typeName,
		Properties: props,
		CreatedBy:  createdBy,
	}, nil
}

func (h *GraphHandler) encodeEntity(e *entities.Entity) (*structpb.Struct, error) {
	s, err := entityToStruct(e)
	if err != nil {
		h.logger.Error("failed to encode entity", zap.Stringer("entity", e), zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to encode entity")
	}
	return s, nil
}
