package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/navigation"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/service"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

// Navigator is the navigation surface the tools drive
type Navigator interface {
	Navigate(ctx context.Context, viewID, url string) (navigation.Outcome, error)
	Refresh(ctx context.Context, viewID string) (navigation.Outcome, error)
	GoBack(ctx context.Context, viewID string) (navigation.Outcome, error)
	GoForward(ctx context.Context, viewID string) (navigation.Outcome, error)
}

// ViewResolver maps a session to the view it owns
type ViewResolver interface {
	ViewForSession(sessionID string) (string, bool)
}

// Provider exposes native view navigation as agent tools
type Provider struct {
	nav   Navigator
	views ViewResolver
}

// New creates a browser tools provider. views may be nil, in which case every
// call must name its view_id.
func New(nav Navigator, views ViewResolver) *Provider {
	return &Provider{nav: nav, views: views}
}

// Definition returns service definition
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:           "browser",
		Name:         "Browser",
		Category:     types.CategoryBrowser,
		Description:  "Drive the embedded browser view of the current task",
		Capabilities: []string{"navigate", "refresh", "back", "forward", "web page"},
		Tools:        p.getTools(),
	}
}

func (p *Provider) getTools() []types.Tool {
	viewParam := types.Parameter{Name: "view_id", Type: "string", Description: "View ID (defaults to the session's view)", Required: false}
	return []types.Tool{
		{
			ID:          "browser.navigate",
			Name:        "Navigate to URL",
			Description: "Load a URL in the task's browser view",
			Parameters: []types.Parameter{
				{Name: "url", Type: "string", Description: "URL to navigate to", Required: true},
				viewParam,
			},
			Returns: "object",
		},
		{
			ID:          "browser.refresh",
			Name:        "Refresh",
			Description: "Reload the current page",
			Parameters:  []types.Parameter{viewParam},
			Returns:     "object",
		},
		{
			ID:          "browser.back",
			Name:        "Go Back",
			Description: "Go back one page in history",
			Parameters:  []types.Parameter{viewParam},
			Returns:     "object",
		},
		{
			ID:          "browser.forward",
			Name:        "Go Forward",
			Description: "Go forward one page in history",
			Parameters:  []types.Parameter{viewParam},
			Returns:     "object",
		},
	}
}

// Execute routes tool calls. Navigation failures come back as failed
// results, never as errors, so they can be relayed to the agent.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	viewID, ok := p.resolveView(params, appCtx)
	if !ok {
		return service.Failure("view_id parameter required", nil), nil
	}

	var (
		out navigation.Outcome
		err error
	)
	switch toolID {
	case "browser.navigate":
		url, _ := params["url"].(string)
		if url == "" {
			return service.Failure("url parameter required", nil), nil
		}
		out, err = p.nav.Navigate(ctx, viewID, url)
	case "browser.refresh":
		out, err = p.nav.Refresh(ctx, viewID)
	case "browser.back":
		out, err = p.nav.GoBack(ctx, viewID)
	case "browser.forward":
		out, err = p.nav.GoForward(ctx, viewID)
	default:
		return service.Failure(fmt.Sprintf("unknown tool: %s", toolID), nil), nil
	}

	return toResult(viewID, out, err), nil
}

func (p *Provider) resolveView(params map[string]interface{}, appCtx *types.Context) (string, bool) {
	if viewID, _ := params["view_id"].(string); viewID != "" {
		return viewID, true
	}
	if p.views == nil || appCtx == nil {
		return "", false
	}
	for _, sessionID := range []*string{appCtx.SessionID, appCtx.TaskID} {
		if sessionID == nil || *sessionID == "" {
			continue
		}
		if viewID, ok := p.views.ViewForSession(*sessionID); ok {
			return viewID, true
		}
	}
	return "", false
}

func toResult(viewID string, out navigation.Outcome, err error) *types.Result {
	var nf *navigation.ViewNotFoundError
	switch {
	case errors.As(err, &nf):
		return service.Failure(err.Error(), map[string]interface{}{
			"error_type": "view_not_found",
			"view_id":    nf.ViewID,
			"op":         nf.Op,
		})
	case errors.Is(err, navigation.ErrInvalidURL):
		return service.Failure(err.Error(), map[string]interface{}{"error_type": "invalid_url"})
	case err != nil:
		return service.Failure(err.Error(), map[string]interface{}{"error_type": "navigation_failed"})
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"view_id":    viewID,
			"ok":         out.OK,
			"no_history": out.NoHistory,
			"message":    out.Message,
		},
	}
}
