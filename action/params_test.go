package action

import (
	"context"
	"testing"

	"github.com/mohitkumar/autoflow/model"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsTemplatedParams(t *testing.T) {
	d := NewDispatcher()
	d.Register(
		NewWebhookHandler(newTestClient()),
		NewDelayHandler(),
		NewCompletionHandler(newTestClient(), CompletionConfig{}),
		NewEmailHandler(SMTPConfig{Host: "localhost"}),
	)
	for scenario, def := range map[string]model.ActionDef{
		"webhook flag":         {Type: model.ACTION_WEBHOOK, Params: map[string]any{"url": "{{hook}}", "failOnErrorStatus": "{{flags.strict}}"}},
		"delay seconds":        {Type: model.ACTION_DELAY, Params: map[string]any{"seconds": "{{wait}}"}},
		"completion number":    {Type: model.ACTION_COMPLETION, Params: map[string]any{"prompt": "hi", "temperature": "{{ t }}"}},
		"completion messages":  {Type: model.ACTION_COMPLETION, Params: map[string]any{"messages": "{{history}}"}},
		"email recipient list": {Type: model.ACTION_EMAIL, Params: map[string]any{"to": "{{team}}", "subject": "s", "body": "b"}},
	} {
		t.Run(scenario, func(t *testing.T) {
			require.NoError(t, d.Validate(def))
		})
	}

	for scenario, def := range map[string]model.ActionDef{
		"flag with text around": {Type: model.ACTION_WEBHOOK, Params: map[string]any{"url": "http://x", "failOnErrorStatus": "maybe {{x}}"}},
		"plain word flag":       {Type: model.ACTION_WEBHOOK, Params: map[string]any{"url": "http://x", "failOnErrorStatus": "maybe"}},
		"missing seconds":       {Type: model.ACTION_DELAY, Params: map[string]any{}},
	} {
		t.Run(scenario, func(t *testing.T) {
			require.Error(t, d.Validate(def))
		})
	}
}

func TestTemplatedParamsCoercedAtRun(t *testing.T) {
	d := NewDispatcher()
	d.Register(NewDelayHandler())
	def := model.ActionDef{Type: model.ACTION_DELAY, Params: map[string]any{"seconds": "{{wait}}"}}

	_, err := d.Run(context.Background(), def, map[string]any{"wait": 0.01})
	require.NoError(t, err)

	_, err = d.Run(context.Background(), def, map[string]any{})
	var paramErr ParamError
	require.ErrorAs(t, err, &paramErr)
	require.Equal(t, "seconds", paramErr.Param)
}

func TestParamCoercion(t *testing.T) {
	b, err := optionalBool(map[string]any{"f": "true"}, "f")
	require.NoError(t, err)
	require.True(t, b)

	m, err := optionalMap(map[string]any{"h": `{"a":"b"}`}, "h")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"a": "b"}, m)

	l, ok, err := optionalList(map[string]any{"m": `[{"role":"user"}]`}, "m")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, l, 1)

	to, err := stringList(map[string]any{"to": `["a@x.io","b@x.io"]`}, "to")
	require.NoError(t, err)
	require.Equal(t, []string{"a@x.io", "b@x.io"}, to)

	to, err = stringList(map[string]any{"to": "a@x.io"}, "to")
	require.NoError(t, err)
	require.Equal(t, []string{"a@x.io"}, to)
}
