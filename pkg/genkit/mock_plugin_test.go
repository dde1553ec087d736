package genkit

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockPlugin_DefaultBehavior(t *testing.T) {
	ctx := context.Background()

	// 使用默认配置初始化 mock plugin
	mockPlugin := InitForTest(ctx, DefaultMockConfig(), "")

	g := Genkit()
	require.NotNil(t, g)

	// 测试 model - 使用 genkit.LookupModel
	model := genkit.LookupModel(g, "mock/test-llm")
	require.NotNil(t, model, "mock model should be registered")

	modelResp, err := model.Generate(ctx, &ai.ModelRequest{
		Messages: []*ai.Message{ai.NewUserTextMessage("hello")},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", modelResp.Text()) // echo behavior

	_ = mockPlugin // 可用于配置自定义响应
}

func TestMockPlugin_CustomResponses(t *testing.T) {
	ctx := context.Background()

	// 初始化
	mockPlugin := InitForTest(ctx, DefaultMockConfig(), "")

	// 配置自定义 model JSON 响应
	mockPlugin.SetModelJSONResponse("test-llm", map[string]any{
		"type":       "incident",
		"severity":   "critical",
		"confidence": 0.95,
	})

	g := Genkit()

	// 验证自定义 model 响应
	model := genkit.LookupModel(g, "mock/test-llm")
	modelResp, err := model.Generate(ctx, &ai.ModelRequest{
		Messages: []*ai.Message{ai.NewUserTextMessage("test")},
	}, nil)
	require.NoError(t, err)
	assert.Contains(t, modelResp.Text(), "incident")
}
