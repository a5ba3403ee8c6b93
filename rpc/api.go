package rpc

import (
	"context"

	api "github.com/mohitkumar/autoflow/api/v1"
	"github.com/mohitkumar/autoflow/util"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ api.WorkflowEngineServer = (*grpcServer)(nil)

func (srv *grpcServer) Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := util.FromStruct(req)
	workflowId, _ := in["workflowId"].(string)
	if workflowId == "" {
		return nil, status.Error(codes.InvalidArgument, "workflowId is required")
	}
	data, _ := in["context"].(map[string]any)
	res, err := srv.Executor.Execute(ctx, workflowId, data)
	if err != nil {
		return nil, api.ToStatus(err).Err()
	}
	return util.ToStruct(res)
}
