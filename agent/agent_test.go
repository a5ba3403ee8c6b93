package agent

import (
	"context"
	"net"
	"testing"

	api "github.com/mohitkumar/autoflow/api/v1"
	"github.com/mohitkumar/autoflow/action"
	"github.com/mohitkumar/autoflow/config"
	"github.com/mohitkumar/autoflow/model"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

func testConfig() config.Config {
	return config.Config{
		StorageType: config.STORAGE_TYPE_INMEM,
		AsyncEvents: true,
	}
}

func TestAgentExecutesOverGrpc(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)
	require.NoError(t, a.Start())
	defer func() {
		require.NoError(t, a.Shutdown())
	}()

	wf, err := a.WorkflowService().Create(context.Background(), &model.Workflow{
		Name:        "greet",
		WorkspaceId: "ws-1",
		CreatedBy:   "user-1",
		Conditions:  []model.Condition{{Field: "plan", Operator: model.OP_EQUALS, Value: "pro"}},
		Actions: []model.ActionDef{
			{Type: model.ACTION_TRANSFORM, Params: map[string]any{"output": "hello {{name}}"}},
		},
	})
	require.NoError(t, err)

	_, port, err := net.SplitHostPort(a.GrpcAddr())
	require.NoError(t, err)
	conn, err := grpc.Dial("127.0.0.1:"+port, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := api.NewWorkflowEngineClient(conn)

	req, err := structpb.NewStruct(map[string]any{
		"workflowId": wf.Id,
		"context":    map[string]any{"plan": "pro", "name": "kim"},
	})
	require.NoError(t, err)
	res, err := client.Execute(context.Background(), req)
	require.NoError(t, err)
	out := res.AsMap()
	require.Equal(t, true, out["success"])
	first := out["results"].([]any)[0].(map[string]any)
	require.Equal(t, "hello kim", first["result"])

	stored, err := a.WorkflowService().Get(context.Background(), wf.Id)
	require.NoError(t, err)
	require.EqualValues(t, 1, stored.ExecutionCount)
}

func TestAgentRegistersConfiguredIntegrations(t *testing.T) {
	conf := testConfig()
	a, err := New(conf)
	require.NoError(t, err)
	defer a.closeResources()
	require.NotContains(t, a.dispatcher.Kinds(), model.ACTION_SLACK)
	require.Contains(t, a.dispatcher.Kinds(), model.ACTION_NOTIFICATION)
	_, err = a.WorkflowService().Create(context.Background(), &model.Workflow{
		Name:        "post",
		WorkspaceId: "ws-1",
		Actions:     []model.ActionDef{{Type: model.ACTION_SLACK, Params: map[string]any{"text": "hi"}}},
	})
	require.Error(t, err)

	conf.Integrations.SlackWebhookURL = "http://localhost:1/hook"
	conf.Integrations.CollaboratorURL = "http://localhost:1"
	conf.Integrations.Notifier = config.NOTIFIER_HTTP
	b, err := New(conf)
	require.NoError(t, err)
	defer b.closeResources()
	require.Contains(t, b.dispatcher.Kinds(), model.ACTION_SLACK)
	require.Contains(t, b.dispatcher.Kinds(), model.ACTION_CREATE_DOCUMENT)
	require.IsType(t, &action.HTTPCollaborator{}, b.notifier)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(config.Config{StorageType: "dynamo"})
	require.Error(t, err)
}

func TestShutdownIsIdempotent(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)
	require.NoError(t, a.Start())
	require.NoError(t, a.Shutdown())
	require.NoError(t, a.Shutdown())
	select {
	case <-a.Done():
	default:
		t.Fatal("done channel not closed")
	}
}
