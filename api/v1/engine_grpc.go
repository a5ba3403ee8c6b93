package api_v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// The engine service exchanges google.protobuf.Struct messages:
//
//	service WorkflowEngine {
//	  rpc Execute(google.protobuf.Struct) returns (google.protobuf.Struct);
//	}
//
// The request carries {workflowId, context}, the response has the shape of
// model.ExecutionResult.
const (
	WorkflowEngineServiceName = "autoflow.v1.WorkflowEngine"
	WorkflowEngineExecute     = "/autoflow.v1.WorkflowEngine/Execute"
)

type WorkflowEngineClient interface {
	Execute(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type workflowEngineClient struct {
	cc grpc.ClientConnInterface
}

func NewWorkflowEngineClient(cc grpc.ClientConnInterface) WorkflowEngineClient {
	return &workflowEngineClient{cc}
}

func (c *workflowEngineClient) Execute(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, WorkflowEngineExecute, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type WorkflowEngineServer interface {
	Execute(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type UnimplementedWorkflowEngineServer struct{}

func (UnimplementedWorkflowEngineServer) Execute(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Execute not implemented")
}

func RegisterWorkflowEngineServer(s grpc.ServiceRegistrar, srv WorkflowEngineServer) {
	s.RegisterService(&WorkflowEngine_ServiceDesc, srv)
}

func _WorkflowEngine_Execute_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WorkflowEngineServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: WorkflowEngineExecute,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(WorkflowEngineServer).Execute(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var WorkflowEngine_ServiceDesc = grpc.ServiceDesc{
	ServiceName: WorkflowEngineServiceName,
	HandlerType: (*WorkflowEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Execute",
			Handler:    _WorkflowEngine_Execute_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "autoflow/v1/engine.proto",
}
