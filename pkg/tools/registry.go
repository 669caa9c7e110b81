package tools

import (
	"fmt"
	"strings"
	"sync"

	"hrassist/pkg/timeoff"
)

// AssistantContext carries the dependencies tools need at creation time.
type AssistantContext struct {
	Service *timeoff.Service
}

// ToolFactory creates a tool instance configured for a specific assistant context.
type ToolFactory func(ctx AssistantContext) (Tool, error)

// ToolMeta contains metadata about a tool for documentation and discovery.
type ToolMeta struct {
	Name        string
	Description string
	InputSchema InputSchema
}

// toolDescriptor contains the factory and metadata for a tool.
type toolDescriptor struct {
	meta    ToolMeta
	factory ToolFactory
}

// immutableRegistry is the global, read-only tool registry.
type immutableRegistry struct {
	mu     sync.RWMutex
	sealed bool
	tools  map[string]toolDescriptor
}

//nolint:gochecknoglobals // Factory pattern requires global registry
var globalRegistry = &immutableRegistry{
	tools: make(map[string]toolDescriptor),
}

// Register adds a tool factory to the global registry.
// Panics if called after the registry is sealed.
func Register(name string, factory ToolFactory, meta *ToolMeta) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if globalRegistry.sealed {
		panic(fmt.Sprintf("tool registry sealed - cannot register tool '%s'", name))
	}

	globalRegistry.tools[name] = toolDescriptor{
		meta:    *meta,
		factory: factory,
	}
}

// Seal prevents further tool registrations.
// Called automatically when the first ToolProvider is created.
func Seal() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.sealed = true
}

// ListTools returns metadata for all registered tools.
func ListTools() []ToolMeta {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	result := make([]ToolMeta, 0, len(globalRegistry.tools))
	for _, desc := range globalRegistry.tools {
		result = append(result, desc.meta)
	}
	return result
}

// ToolProvider creates and manages tool instances for a specific assistant context.
type ToolProvider struct {
	ctx      AssistantContext
	tools    map[string]Tool
	allowSet map[string]struct{}
	mu       sync.Mutex
}

// NewProvider creates a new ToolProvider for the given context and allowed tools.
// Automatically seals the global registry on first use.
func NewProvider(ctx AssistantContext, allowedTools []string) *ToolProvider {
	Seal()

	allowSet := make(map[string]struct{}, len(allowedTools))
	for _, name := range allowedTools {
		allowSet[name] = struct{}{}
	}

	return &ToolProvider{
		ctx:      ctx,
		tools:    make(map[string]Tool),
		allowSet: allowSet,
	}
}

// Get retrieves a tool instance, creating it lazily if needed.
func (p *ToolProvider) Get(name string) (Tool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.allowSet[name]; !ok {
		return nil, fmt.Errorf("tool '%s' not allowed in this context", name)
	}

	if tool, ok := p.tools[name]; ok {
		return tool, nil
	}

	globalRegistry.mu.RLock()
	desc, exists := globalRegistry.tools[name]
	globalRegistry.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("tool '%s' not registered", name)
	}

	tool, err := desc.factory(p.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool '%s': %w", name, err)
	}

	p.tools[name] = tool
	return tool, nil
}

// Must is like Get but panics on error. Use for tools that must exist.
func (p *ToolProvider) Must(name string) Tool {
	tool, err := p.Get(name)
	if err != nil {
		panic(err)
	}
	return tool
}

// List returns metadata for all allowed tools.
func (p *ToolProvider) List() []ToolMeta {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	result := make([]ToolMeta, 0, len(p.allowSet))
	for name := range p.allowSet {
		if desc, ok := globalRegistry.tools[name]; ok {
			result = append(result, desc.meta)
		}
	}
	return result
}

// GenerateToolDocumentation generates tool documentation for this provider's allowed tools.
func (p *ToolProvider) GenerateToolDocumentation() string {
	return GenerateToolDocumentationForTools(p.List())
}

// GenerateToolDocumentationForTools creates markdown documentation for the provided tool metadata.
func GenerateToolDocumentationForTools(tools []ToolMeta) string {
	if len(tools) == 0 {
		return "No tools available"
	}

	var doc strings.Builder
	doc.WriteString("## Available Tools\n\n")

	for _, meta := range tools {
		doc.WriteString(fmt.Sprintf("- **%s** - %s\n", meta.Name, meta.Description))
	}

	return doc.String()
}

// TOOL FACTORY FUNCTIONS

func createGetBalanceTool(ctx AssistantContext) (Tool, error) {
	if ctx.Service == nil {
		return nil, fmt.Errorf("get balance tool requires a time off service")
	}
	return NewGetBalanceTool(ctx.Service), nil
}

func createRequestTimeOffTool(ctx AssistantContext) (Tool, error) {
	if ctx.Service == nil {
		return nil, fmt.Errorf("request time off tool requires a time off service")
	}
	return NewRequestTimeOffTool(ctx.Service), nil
}

func createResolveTimeOffTool(ctx AssistantContext) (Tool, error) {
	if ctx.Service == nil {
		return nil, fmt.Errorf("resolve time off tool requires a time off service")
	}
	return NewResolveTimeOffTool(ctx.Service), nil
}

// SCHEMA FUNCTIONS - Extract schemas from tool implementations

func getBalanceSchema() InputSchema {
	return NewGetBalanceTool(nil).Definition().InputSchema
}

func getRequestTimeOffSchema() InputSchema {
	return NewRequestTimeOffTool(nil).Definition().InputSchema
}

func getResolveTimeOffSchema() InputSchema {
	return NewResolveTimeOffTool(nil).Definition().InputSchema
}

// init registers all tools in the global registry using the factory pattern.
//
//nolint:gochecknoinits // Factory pattern requires init() for tool registration
func init() {
	Register(ToolGetBalance, createGetBalanceTool, &ToolMeta{
		Name:        ToolGetBalance,
		Description: "Look up the employee's current time off balance and pending requests",
		InputSchema: getBalanceSchema(),
	})

	Register(ToolRequestTimeOff, createRequestTimeOffTool, &ToolMeta{
		Name:        ToolRequestTimeOff,
		Description: "Validate a new time off request and prepare it for confirmation",
		InputSchema: getRequestTimeOffSchema(),
	})

	Register(ToolResolveTimeOff, createResolveTimeOffTool, &ToolMeta{
		Name:        ToolResolveTimeOff,
		Description: "Submit or cancel a previously validated time off request based on the employee's decision",
		InputSchema: getResolveTimeOffSchema(),
	})
}
