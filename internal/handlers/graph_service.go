package handlers

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// GraphServiceName is the fully-qualified gRPC service name
const GraphServiceName = "typegraph.v1.GraphService"

// Full method names
const (
	GraphService_CreateNodeType_FullMethodName = "/" + GraphServiceName + "/CreateNodeType"
	GraphService_CreateEdgeType_FullMethodName = "/" + GraphServiceName + "/CreateEdgeType"
	GraphService_ListTypes_FullMethodName      = "/" + GraphServiceName + "/ListTypes"
	GraphService_GetType_FullMethodName        = "/" + GraphServiceName + "/GetType"
	GraphService_CreateNode_FullMethodName     = "/" + GraphServiceName + "/CreateNode"
	GraphService_CreateEdge_FullMethodName     = "/" + GraphServiceName + "/CreateEdge"
	GraphService_ListNodes_FullMethodName      = "/" + GraphServiceName + "/ListNodes"
	GraphService_GetNodeByName_FullMethodName  = "/" + GraphServiceName + "/GetNodeByName"
)

// GraphServiceServer is the server API for GraphService.
// Requests and responses are google.protobuf.Struct messages.
type GraphServiceServer interface {
	CreateNodeType(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateEdgeType(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTypes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetType(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateNode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateEdge(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListNodes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetNodeByName(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterGraphServiceServer registers srv with s
func RegisterGraphServiceServer(s grpc.ServiceRegistrar, srv GraphServiceServer) {
	s.RegisterService(&GraphService_ServiceDesc, srv)
}

type graphMethod func(GraphServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts a GraphServiceServer method to grpc.MethodHandler
func unaryHandler(fullMethod string, call graphMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GraphServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GraphServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GraphService_ServiceDesc is the grpc.ServiceDesc for GraphService
var GraphService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: GraphServiceName,
	HandlerType: (*GraphServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateNodeType",
			Handler:    unaryHandler(GraphService_CreateNodeType_FullMethodName, GraphServiceServer.CreateNodeType),
		},
		{
			MethodName: "CreateEdgeType",
			Handler:    unaryHandler(GraphService_CreateEdgeType_FullMethodName, GraphServiceServer.CreateEdgeType),
		},
		{
			MethodName: "ListTypes",
			Handler:    unaryHandler(GraphService_ListTypes_FullMethodName, GraphServiceServer.ListTypes),
		},
		{
			MethodName: "GetType",
			Handler:    unaryHandler(GraphService_GetType_FullMethodName, GraphServiceServer.GetType),
		},
		{
			MethodName: "CreateNode",
			Handler:    unaryHandler(GraphService_CreateNode_FullMethodName, GraphServiceServer.CreateNode),
		},
		{
			MethodName: "CreateEdge",
			Handler:    unaryHandler(GraphService_CreateEdge_FullMethodName, GraphServiceServer.CreateEdge),
		},
		{
			MethodName: "ListNodes",
			Handler:    unaryHandler(GraphService_ListNodes_FullMethodName, GraphServiceServer.ListNodes),
		},
		{
			MethodName: "GetNodeByName",
			Handler:    unaryHandler(GraphService_GetNodeByName_FullMethodName, GraphServiceServer.GetNodeByName),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "typegraph/v1/graph.proto",
}

// GraphServiceClient is the client API for GraphService
type GraphServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewGraphServiceClient creates a client on cc
func NewGraphServiceClient(cc grpc.ClientConnInterface) *GraphServiceClient {
	return &GraphServiceClient{cc: cc}
}

func (c *GraphServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GraphServiceClient) CreateNodeType(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GraphService_CreateNodeType_FullMethodName, in, opts...)
}

func (c *GraphServiceClient) CreateEdgeType(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GraphService_CreateEdgeType_FullMethodName, in, opts...)
}

func (c *GraphServiceClient) ListTypes(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GraphService_ListTypes_FullMethodName, in, opts...)
}

func (c *GraphServiceClient) GetType(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GraphService_GetType_FullMethodName, in, opts...)
}

func (c *GraphServiceClient) CreateNode(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GraphService_CreateNode_FullMethodName, in, opts...)
}

func (c *GraphServiceClient) CreateEdge(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GraphService_CreateEdge_FullMethodName, in, opts...)
}

func (c *GraphServiceClient) ListNodes(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GraphService_ListNodes_FullMethodName, in, opts...)
}

func (c *GraphServiceClient) GetNodeByName(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GraphService_GetNodeByName_FullMethodName, in, opts...)
}
