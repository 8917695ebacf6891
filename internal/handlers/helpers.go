package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/agegraph/typegraph/internal/agtype"
	"github.com/agegraph/typegraph/internal/entities"
	"github.com/agegraph/typegraph/internal/repositories"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// === Request field accessors ===

func stringField(req *structpb.Struct, key string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[key].GetStringValue()
}

func requireString(req *structpb.Struct, key string) (string, error) {
	s := stringField(req, key)
	if s == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return s, nil
}

func boolField(req *structpb.Struct, key string) bool {
	if req == nil {
		return false
	}
	return req.GetFields()[key].GetBoolValue()
}

// intField reads a whole number given as a JSON number or a decimal string.
// Graph ids can exceed 2^53, so clients may send them as strings.
func intField(req *structpb.Struct, key string) (int64, bool, error) {
	if req == nil {
		return 0, false, nil
	}
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, false, nil
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := kind.NumberValue
		if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return 0, true, status.Errorf(codes.InvalidArgument, "%s must be a whole number", key)
		}
		return int64(f), true, nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, true, status.Errorf(codes.InvalidArgument, "%s must be a whole number", key)
		}
		return n, true, nil
	default:
		return 0, true, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
}

func requireInt(req *structpb.Struct, key string) (int64, error) {
	n, ok, err := intField(req, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return n, nil
}

// userID parses the acting user. The caller is authenticated upstream.
func userID(req *structpb.Struct) (uuid.UUID, error) {
	raw, err := requireString(req, "user_id")
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "user_id must be a UUID: %v", err)
	}
	return id, nil
}

// propertiesField converts the "properties" struct into a property map.
// A missing field yields an empty map.
func propertiesField(req *structpb.Struct) (map[string]any, error) {
	props := make(map[string]any)
	v, ok := req.GetFields()["properties"]
	if !ok {
		return props, nil
	}
	s := v.GetStructValue()
	if s == nil {
		if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
			return props, nil
		}
		return nil, status.Error(codes.InvalidArgument, "properties must be an object")
	}

	for key, pv := range s.GetFields() {
		val, err := protoValueToInterface(pv)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "property %s: %v", key, err)
		}
		props[key] = val
	}
	return props, nil
}

func attributeSpecsField(req *structpb.Struct) ([]entities.AttributeSpec, error) {
	list := req.GetFields()["attributes"].GetListValue()
	if list == nil {
		return nil, nil
	}

	specs := make([]entities.AttributeSpec, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		s := item.GetStructValue()
		if s == nil {
			return nil, status.Errorf(codes.InvalidArgument, "attribute at index %d must be an object", i)
		}
		specs = append(specs, entities.AttributeSpec{
			Name:        stringField(s, "name"),
			DataType:    entities.DataType(stringField(s, "data_type")),
			Required:    boolField(s, "required"),
			Description: stringField(s, "description"),
		})
	}
	return specs, nil
}

// === Value conversion ===

func protoValueToInterface(v *structpb.Value) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("value cannot be nil")
	}

	switch v.Kind.(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_NumberValue:
		return v.GetNumberValue(), nil
	case *structpb.Value_StringValue:
		return v.GetStringValue(), nil
	case *structpb.Value_BoolValue:
		return v.GetBoolValue(), nil
	case *structpb.Value_StructValue:
		return v.GetStructValue().AsMap(), nil
	case *structpb.Value_ListValue:
		list := v.GetListValue().GetValues()
		result := make([]any, len(list))
		for i, item := range list {
			val, err := protoValueToInterface(item)
			if err != nil {
				return nil, err
			}
			result[i] = val
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v.Kind)
	}
}

func interfaceToProtoValue(v any) (*structpb.Value, error) {
	if v == nil {
		return structpb.NewNullValue(), nil
	}

	switch val := v.(type) {
	case bool:
		return structpb.NewBoolValue(val), nil
	case int:
		return structpb.NewNumberValue(float64(val)), nil
	case int32:
		return structpb.NewNumberValue(float64(val)), nil
	case int64:
		return structpb.NewNumberValue(float64(val)), nil
	case float32:
		return structpb.NewNumberValue(float64(val)), nil
	case float64:
		return structpb.NewNumberValue(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", val)
		}
		return structpb.NewNumberValue(f), nil
	case string:
		return structpb.NewStringValue(val), nil
	case []any:
		listValues := make([]*structpb.Value, len(val))
		for i, item := range val {
			protoVal, err := interfaceToProtoValue(item)
			if err != nil {
				return nil, err
			}
			listValues[i] = protoVal
		}
		return structpb.NewListValue(&structpb.ListValue{Values: listValues}), nil
	case map[string]any:
		fields := make(map[string]*structpb.Value, len(val))
		for k, item := range val {
			protoVal, err := interfaceToProtoValue(item)
			if err != nil {
				return nil, err
			}
			fields[k] = protoVal
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// === Response builders ===

func typeToStruct(def *entities.TypeDefinition) *structpb.Struct {
	attrs := make([]*structpb.Value, len(def.Attributes))
	for i, a := range def.Attributes {
		attrs[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"name":        structpb.NewStringValue(a.Name),
			"data_type":   structpb.NewStringValue(a.DataType.String()),
			"required":    structpb.NewBoolValue(a.Required),
			"description": structpb.NewStringValue(a.Description),
		}})
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":              structpb.NewStringValue(def.ID),
		"graph_id":        structpb.NewStringValue(def.GraphID),
		"kind":            structpb.NewStringValue(string(def.Kind)),
		"name":            structpb.NewStringValue(def.Name),
		"normalized_name": structpb.NewStringValue(def.NormalizedName),
		"description":     structpb.NewStringValue(def.Description),
		"created_by":      structpb.NewStringValue(def.CreatedBy.String()),
		"created_at":      structpb.NewStringValue(def.CreatedAt.UTC().Format(time.RFC3339)),
		"attributes":      structpb.NewListValue(&structpb.ListValue{Values: attrs}),
	}}
}

// entityToStruct renders an entity. The id is a decimal string to keep full precision.
func entityToStruct(e *entities.Entity) (*structpb.Struct, error) {
	props, err := interfaceToProtoValue(e.Properties)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", e, err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":         structpb.NewStringValue(strconv.FormatInt(e.ID, 10)),
		"graph_id":   structpb.NewStringValue(e.GraphID),
		"type_id":    structpb.NewStringValue(e.TypeID),
		"kind":       structpb.NewStringValue(string(e.Kind)),
		"label":      structpb.NewStringValue(e.Label),
		"properties": props,
	}}, nil
}

// === Error mapping ===

// toStatus maps service errors to gRPC status errors.
// Persistence and decode details stay in the server log.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var ve *entities.ValidationError
	var pe *entities.PersistenceError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case errors.Is(err, entities.ErrInvalidArgument),
		errors.Is(err, entities.ErrInvalidTypeName),
		errors.Is(err, entities.ErrInvalidAttribute):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, entities.ErrUnknownType),
		errors.Is(err, entities.ErrEntityNotFound),
		errors.Is(err, entities.ErrEndpointNotFound),
		errors.Is(err, repositories.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, entities.ErrTypeAlreadyExists),
		errors.Is(err, entities.ErrEntityAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, entities.ErrUnsupportedKind):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.As(err, &pe):
		return status.Error(codes.Internal, pe.Error())
	case errors.Is(err, agtype.ErrMalformedWireValue), errors.Is(err, agtype.ErrUnsupportedWireType):
		return status.Error(codes.Internal, "failed to decode graph value")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
