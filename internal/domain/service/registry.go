package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

var (
	// ErrInvalidToolID is returned for tool ids not of the form service.tool
	ErrInvalidToolID = errors.New("invalid tool ID format")
	// ErrServiceNotFound is returned when no provider owns the tool's service
	ErrServiceNotFound = errors.New("service not found")
	// ErrToolNotFound is returned when the service does not declare the tool
	ErrToolNotFound = errors.New("tool not found")
	// ErrMissingParam is returned when a required parameter is absent
	ErrMissingParam = errors.New("missing required parameter")
	// ErrDuplicateService is returned when a service id is registered twice
	ErrDuplicateService = errors.New("service already registered")
)

// Registry manages service discovery and execution
type Registry struct {
	services sync.Map
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// Provider interface for service implementations
type Provider interface {
	Definition() types.Service
	Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error)
}

// NewRegistry creates a new service registry
func NewRegistry() *Registry {
	return &Registry{logger: zap.NewNop()}
}

// WithLogger sets the registry logger
func (r *Registry) WithLogger(logger *zap.Logger) *Registry {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithMetrics records tool executions
func (r *Registry) WithMetrics(m *monitoring.Metrics) *Registry {
	r.metrics = m
	return r
}

// Register adds a service provider. Every tool id must be prefixed with the
// service id so Execute can route it.
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	if def.ID == "" {
		return fmt.Errorf("service ID cannot be empty")
	}
	for _, tool := range def.Tools {
		if !strings.HasPrefix(tool.ID, def.ID+".") {
			return fmt.Errorf("%w: %s does not belong to %s", ErrInvalidToolID, tool.ID, def.ID)
		}
	}

	if _, loaded := r.services.LoadOrStore(def.ID, provider); loaded {
		return fmt.Errorf("%w: %s", ErrDuplicateService, def.ID)
	}
	r.logger.Debug("Service registered",
		zap.String("service_id", def.ID),
		zap.Int("tools", len(def.Tools)),
	)
	return nil
}

// Unregister removes a service provider
func (r *Registry) Unregister(serviceID string) {
	r.services.Delete(serviceID)
}

// Get retrieves a service by ID
func (r *Registry) Get(serviceID string) (Provider, bool) {
	val, ok := r.services.Load(serviceID)
	if !ok {
		return nil, false
	}
	return val.(Provider), true
}

// List returns all registered services ordered by id
func (r *Registry) List(category *types.Category) []types.Service {
	services := []types.Service{}
	r.services.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		if category == nil || def.Category == *category {
			services = append(services, def)
		}
		return true
	})
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services
}

// Discover finds relevant services for a given intent
func (r *Registry) Discover(intent string, limit int) []types.Service {
	type scoredService struct {
		service types.Service
		score   float64
	}

	intentLower := strings.ToLower(intent)
	var results []scoredService

	r.services.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		if score := calculateRelevance(intentLower, def); score > 0 {
			results = append(results, scoredService{service: def, score: score})
		}
		return true
	})

	sort.Slice(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return results[i].service.ID < results[j].service.ID
		}
		return results[i].score > results[j].score
	})

	output := make([]types.Service, 0, limit)
	for i := 0; i < len(results) && i < limit; i++ {
		output = append(output, results[i].service)
	}
	return output
}

// Execute runs a service tool. Routing and parameter failures return both an
// error and a failed Result so callers relaying results to an agent always
// have data.
func (r *Registry) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	result, err := r.execute(ctx, toolID, params, appCtx)
	label := toolID
	if errors.Is(err, ErrInvalidToolID) || errors.Is(err, ErrServiceNotFound) || errors.Is(err, ErrToolNotFound) {
		label = "unknown"
	}
	r.metrics.RecordToolCall(label, toolOutcome(result, err))
	return result, err
}

func (r *Registry) execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	serviceID, _, ok := strings.Cut(toolID, ".")
	if !ok || serviceID == "" || strings.HasSuffix(toolID, ".") {
		return Failure(ErrInvalidToolID.Error(), nil), fmt.Errorf("%w: %s", ErrInvalidToolID, toolID)
	}

	provider, ok := r.Get(serviceID)
	if !ok {
		msg := fmt.Sprintf("service not found: %s", serviceID)
		return Failure(msg, nil), fmt.Errorf("%w: %s", ErrServiceNotFound, serviceID)
	}

	tool, ok := findTool(provider.Definition(), toolID)
	if !ok {
		msg := fmt.Sprintf("tool not found: %s", toolID)
		return Failure(msg, nil), fmt.Errorf("%w: %s", ErrToolNotFound, toolID)
	}

	if params == nil {
		params = map[string]interface{}{}
	}
	for _, p := range tool.Parameters {
		if _, present := params[p.Name]; p.Required && !present {
			msg := fmt.Sprintf("%s parameter required", p.Name)
			return Failure(msg, map[string]interface{}{"param": p.Name}),
				fmt.Errorf("%w: %s.%s", ErrMissingParam, toolID, p.Name)
		}
	}

	result, err := provider.Execute(ctx, toolID, params, appCtx)
	if err != nil {
		r.logger.Warn("Tool execution failed",
			zap.String("tool_id", toolID),
			zap.Error(err),
		)
	}
	return result, err
}

func findTool(def types.Service, toolID string) (types.Tool, bool) {
	for _, tool := range def.Tools {
		if tool.ID == toolID {
			return tool, true
		}
	}
	return types.Tool{}, false
}

func toolOutcome(result *types.Result, err error) string {
	switch {
	case err != nil:
		return "error"
	case result == nil || !result.Success:
		return "failure"
	default:
		return "success"
	}
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	var total, totalTools int
	categories := make(map[string]int)

	r.services.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		total++
		totalTools += len(def.Tools)
		categories[string(def.Category)]++
		return true
	})

	return map[string]interface{}{
		"total_services": total,
		"total_tools":    totalTools,
		"categories":     categories,
	}
}

func calculateRelevance(intent string, service types.Service) float64 {
	score := 0.0

	if strings.Contains(intent, service.ID) || strings.Contains(intent, strings.ToLower(service.Name)) {
		score += 10.0
	}

	for _, word := range strings.Fields(strings.ToLower(service.Description)) {
		if len(word) > 2 && strings.Contains(intent, word) {
			score += 5.0
		}
	}

	for _, cap := range service.Capabilities {
		capClean := strings.ReplaceAll(strings.ToLower(cap), "_", " ")
		if strings.Contains(intent, capClean) {
			score += 3.0
		}
	}

	for _, tool := range service.Tools {
		if strings.Contains(intent, strings.ToLower(tool.Name)) {
			score += 1.0
		}
	}

	if strings.Contains(intent, string(service.Category)) {
		score += 2.0
	}

	return score
}

// Success builds a successful result
func Success(data map[string]interface{}) *types.Result {
	return &types.Result{Success: true, Data: data}
}

// Failure builds a failed result. data may carry structured error details.
func Failure(msg string, data map[string]interface{}) *types.Result {
	return &types.Result{Success: false, Error: &msg, Data: data}
}
