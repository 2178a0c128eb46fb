package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/navigation"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/tab"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/browserdesk/tests/helpers/testutil"
)

func setup(t *testing.T) (*Provider, *tab.Registry) {
	t.Helper()
	reg := tab.NewRegistry()
	return New(navigation.NewController(reg, nil), reg), reg
}

func TestDefinition(t *testing.T) {
	p, _ := setup(t)
	def := p.Definition()

	assert.Equal(t, "browser", def.ID)
	assert.Equal(t, types.CategoryBrowser, def.Category)
	require.Len(t, def.Tools, 4)
	for _, tool := range def.Tools {
		res, err := p.Execute(context.Background(), tool.ID, map[string]interface{}{"view_id": "v", "url": "x.test"}, nil)
		require.NoError(t, err)
		assert.NotNil(t, res)
	}
}

func TestNavigateBySession(t *testing.T) {
	p, reg := setup(t)
	tb := reg.Create("sess_1", "")
	sessionID := "sess_1"

	res, err := p.Execute(context.Background(), "browser.navigate",
		map[string]interface{}{"url": "example.com"}, &types.Context{SessionID: &sessionID})
	require.NoError(t, err)
	testutil.AssertSuccess(t, res)
	testutil.AssertDataField(t, res, "view_id", tb.ID())
	testutil.AssertDataField(t, res, "ok", true)
	assert.Equal(t, "https://example.com", tb.URL())
}

func TestBackWithoutHistoryIsSuccess(t *testing.T) {
	p, reg := setup(t)
	tb := reg.Create("sess_1", "")

	res, err := p.Execute(context.Background(), "browser.back", map[string]interface{}{"view_id": tb.ID()}, nil)
	require.NoError(t, err)
	testutil.AssertSuccess(t, res)
	testutil.AssertDataField(t, res, "no_history", true)
	testutil.AssertDataField(t, res, "ok", false)
}

func TestViewNotFound(t *testing.T) {
	p, _ := setup(t)

	res, err := p.Execute(context.Background(), "browser.refresh", map[string]interface{}{"view_id": "view_stale"}, nil)
	require.NoError(t, err)
	testutil.AssertError(t, res)
	assert.Equal(t, "view_not_found", res.Data["error_type"])
	assert.Equal(t, "view_stale", res.Data["view_id"])
	assert.Equal(t, navigation.OpRefresh, res.Data["op"])
}

func TestMissingParameters(t *testing.T) {
	p, reg := setup(t)
	tb := reg.Create("sess_1", "")

	res, err := p.Execute(context.Background(), "browser.forward", map[string]interface{}{}, nil)
	require.NoError(t, err)
	testutil.AssertError(t, res)

	res, err = p.Execute(context.Background(), "browser.navigate", map[string]interface{}{"view_id": tb.ID()}, nil)
	require.NoError(t, err)
	testutil.AssertError(t, res)

	res, err = p.Execute(context.Background(), "browser.navigate", map[string]interface{}{"view_id": tb.ID(), "url": "bad url"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "invalid_url", res.Data["error_type"])
}

func TestUnknownTool(t *testing.T) {
	p, _ := setup(t)

	res, err := p.Execute(context.Background(), "browser.screenshot", map[string]interface{}{"view_id": "v"}, nil)
	require.NoError(t, err)
	testutil.AssertError(t, res)
}
