// Package toolloop provides a reusable abstraction for LLM tool calling loops.
package toolloop

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hrassist/pkg/agent/llm"
	"hrassist/pkg/contextmgr"
	"hrassist/pkg/logx"
	"hrassist/pkg/tools"
	"hrassist/pkg/tracker"
)

// ToolProvider interface defines what toolloop needs from a tool provider.
type ToolProvider interface {
	Get(name string) (tools.Tool, error)
	List() []tools.ToolMeta
}

// ToolLoop manages LLM interactions with tool calling.
// It handles the iteration loop, tool execution, and context management.
type ToolLoop struct {
	llmClient llm.LLMClient
	logger    *logx.Logger
	observer  tracker.Observer
}

// New creates a new ToolLoop instance.
func New(llmClient llm.LLMClient, logger *logx.Logger) *ToolLoop {
	return NewWithObserver(llmClient, logger, tracker.Noop{})
}

// NewWithObserver creates a ToolLoop that reports lifecycle events to the
// given observer.
func NewWithObserver(llmClient llm.LLMClient, logger *logx.Logger, observer tracker.Observer) *ToolLoop {
	if observer == nil {
		observer = tracker.Noop{}
	}
	return &ToolLoop{
		llmClient: llmClient,
		logger:    logger,
		observer:  observer,
	}
}

// Config defines how the tool loop behaves.
//
//nolint:govet // fieldalignment: struct fields ordered for clarity over memory alignment
type Config struct {
	// Context management (passed in, not owned by ToolLoop)
	ContextManager *contextmgr.ContextManager

	// Tool configuration
	ToolProvider ToolProvider

	// CheckTerminal is called after ALL tools in the current turn execute.
	// Returns empty string to continue the loop, non-empty signal to exit.
	CheckTerminal func(calls []llm.ToolCall, results []any) string

	// OnIterationLimit is called when MaxIterations is reached.
	// Returns the final signal for the caller.
	OnIterationLimit func(ctx context.Context) (string, error)

	// Maximum tool call iterations
	MaxIterations int

	// Maximum tokens per LLM request
	MaxTokens int

	// Sampling temperature for LLM requests
	Temperature float32

	// Debug settings
	DebugLogging bool

	// Initial prompt to add as user message (optional - may already be in context)
	InitialPrompt string
}

// Run executes the tool loop with the given configuration.
// Returns the assistant's final text, or a terminal signal from CheckTerminal.
func (tl *ToolLoop) Run(ctx context.Context, cfg *Config) (string, error) {
	if cfg.ContextManager == nil {
		return "", fmt.Errorf("ContextManager is required")
	}
	if cfg.ToolProvider == nil {
		return "", fmt.Errorf("ToolProvider is required")
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10 // Default
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096 // Default
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = llm.TemperatureDefault
	}

	tl.observer.OnEvent(tracker.Event{LoopStart: true})

	if cfg.InitialPrompt != "" {
		cfg.ContextManager.AddMessage("user", cfg.InitialPrompt)
		tl.observer.OnEvent(tracker.Event{MessageRole: "user"})
	}

	toolsList := cfg.ToolProvider.List()
	toolDefs := make([]tools.ToolDefinition, len(toolsList))
	for i := range toolsList {
		toolDefs[i] = tools.ToolDefinition{
			Name:        toolsList[i].Name,
			Description: toolsList[i].Description,
			InputSchema: toolsList[i].InputSchema,
		}
	}

	for iteration := 0; iteration < cfg.MaxIterations; iteration++ {
		tl.observer.OnEvent(tracker.Event{CycleStart: true})

		// Flush user buffer before LLM request
		if err := cfg.ContextManager.FlushUserBuffer(); err != nil {
			return "", fmt.Errorf("failed to flush user buffer: %w", err)
		}

		messages := buildMessages(cfg.ContextManager)

		req := llm.CompletionRequest{
			Messages:    messages,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Tools:       toolDefs,
		}

		tl.logger.Info("Starting LLM call to model '%s' with %d messages, %d max tokens, %d tools (iteration %d)",
			tl.llmClient.GetModelName(), len(messages), req.MaxTokens, len(toolDefs), iteration+1)

		if cfg.DebugLogging {
			tl.logMessages(messages)
		}

		start := time.Now()
		resp, err := tl.llmClient.Complete(ctx, req)
		duration := time.Since(start)

		if err != nil {
			tl.logger.Error("LLM call failed after %.3gs: %v", duration.Seconds(), err)
			return "", fmt.Errorf("LLM completion failed: %w", err)
		}

		tl.logger.Info("LLM call completed in %.3gs, response length: %d chars, tool calls: %d",
			duration.Seconds(), len(resp.Content), len(resp.ToolCalls))
		tl.observer.OnEvent(tracker.Event{MessageRole: "assistant"})

		// Add assistant response to context with structured tool calls
		if len(resp.ToolCalls) > 0 {
			toolCalls := make([]contextmgr.ToolCall, len(resp.ToolCalls))
			for i := range resp.ToolCalls {
				toolCalls[i] = contextmgr.ToolCall{
					ID:         resp.ToolCalls[i].ID,
					Name:       resp.ToolCalls[i].Name,
					Parameters: resp.ToolCalls[i].Parameters,
				}
			}
			cfg.ContextManager.AddAssistantMessageWithTools(resp.Content, toolCalls)
		} else {
			cfg.ContextManager.AddAssistantMessage(resp.Content)
		}

		// No tool calls means the turn is complete
		if len(resp.ToolCalls) == 0 {
			tl.observer.OnEvent(tracker.Event{CycleComplete: true})
			return resp.Content, nil
		}

		// Execute ALL tools (API requirement: every tool_use must have tool_result)
		tl.logger.Info("Processing %d tool calls", len(resp.ToolCalls))
		results := make([]any, len(resp.ToolCalls))
		for i := range resp.ToolCalls {
			toolCall := &resp.ToolCalls[i]
			tl.observer.OnEvent(tracker.Event{ToolName: toolCall.Name})

			tool, err := cfg.ToolProvider.Get(toolCall.Name)
			if err != nil {
				tl.logger.Error("Failed to get tool %s: %v", toolCall.Name, err)
				results[i] = map[string]any{
					"success": false,
					"error":   err.Error(),
				}
				cfg.ContextManager.AddToolResult(toolCall.ID, err.Error(), true)
				tl.observer.OnEvent(tracker.Event{ToolName: toolCall.Name, ToolResult: err.Error(), ToolError: true})
				continue
			}

			start := time.Now()
			result, err := tool.Exec(ctx, toolCall.Parameters)
			duration := time.Since(start)

			if err != nil {
				tl.logger.Error("Tool %s failed after %.3fs: %v", toolCall.Name, duration.Seconds(), err)
				results[i] = map[string]any{
					"success": false,
					"error":   err.Error(),
				}
			} else {
				tl.logger.Info("Tool %s completed in %.3fs", toolCall.Name, duration.Seconds())
				results[i] = result
			}

			resultStr, isError := formatToolResult(result, err)
			cfg.ContextManager.AddToolResult(toolCall.ID, resultStr, isError)
			tl.observer.OnEvent(tracker.Event{ToolName: toolCall.Name, ToolResult: resultStr, ToolError: isError})
		}

		var signal string
		if cfg.CheckTerminal != nil {
			signal = cfg.CheckTerminal(resp.ToolCalls, results)
		}

		tl.observer.OnEvent(tracker.Event{CycleComplete: true})

		if signal != "" {
			tl.logger.Info("Tool execution signaled loop exit: %s", signal)
			return signal, nil
		}
	}

	// Iteration limit reached
	tl.logger.Warn("Maximum tool iterations (%d) reached", cfg.MaxIterations)
	tl.observer.OnEvent(tracker.Event{ForceStop: true, StopReason: "iteration limit"})
	if cfg.OnIterationLimit != nil {
		return cfg.OnIterationLimit(ctx)
	}

	return "", fmt.Errorf("maximum tool iterations (%d) exceeded", cfg.MaxIterations)
}

// buildMessages converts context manager messages to llm.CompletionMessage format.
func buildMessages(cm *contextmgr.ContextManager) []llm.CompletionMessage {
	contextMessages := cm.GetMessages()

	messages := make([]llm.CompletionMessage, 0, len(contextMessages))
	for i := range contextMessages {
		msg := &contextMessages[i]

		var toolCalls []llm.ToolCall
		if len(msg.ToolCalls) > 0 {
			toolCalls = make([]llm.ToolCall, len(msg.ToolCalls))
			for j := range msg.ToolCalls {
				toolCalls[j] = llm.ToolCall{
					ID:         msg.ToolCalls[j].ID,
					Name:       msg.ToolCalls[j].Name,
					Parameters: msg.ToolCalls[j].Parameters,
				}
			}
		}

		var toolResults []llm.ToolResult
		if len(msg.ToolResults) > 0 {
			toolResults = make([]llm.ToolResult, len(msg.ToolResults))
			for j := range msg.ToolResults {
				toolResults[j] = llm.ToolResult{
					ToolCallID: msg.ToolResults[j].ToolCallID,
					Content:    msg.ToolResults[j].Content,
					IsError:    msg.ToolResults[j].IsError,
				}
			}
		}

		messages = append(messages, llm.CompletionMessage{
			Role:        llm.CompletionRole(msg.Role),
			Content:     msg.Content,
			ToolCalls:   toolCalls,
			ToolResults: toolResults,
		})
	}

	return messages
}

// formatToolResult converts tool execution result to string format for context.
// Map payloads are relayed as JSON so the model sees the structured fields.
func formatToolResult(result map[string]any, err error) (string, bool) {
	if err != nil {
		return fmt.Sprintf("Tool failed: %v", err), true
	}

	isError := false
	if success, ok := result["success"].(bool); ok && !success {
		isError = true
	}

	data, jsonErr := json.Marshal(result)
	if jsonErr != nil {
		return fmt.Sprintf("%v", result), isError
	}
	return string(data), isError
}

// logMessages logs detailed message information for debugging.
func (tl *ToolLoop) logMessages(messages []llm.CompletionMessage) {
	tl.logger.Info("DEBUG - Messages sent to LLM:")
	for i := range messages {
		msg := &messages[i]
		contentPreview := msg.Content
		if len(contentPreview) > 100 {
			contentPreview = contentPreview[:100] + "..."
		}

		toolInfo := ""
		if len(msg.ToolCalls) > 0 {
			toolInfo = fmt.Sprintf(", ToolCalls: %d", len(msg.ToolCalls))
		}
		if len(msg.ToolResults) > 0 {
			toolInfo += fmt.Sprintf(", ToolResults: %d", len(msg.ToolResults))
		}

		tl.logger.Info("  [%d] Role: %s, Content: %q%s", i, msg.Role, contentPreview, toolInfo)

		for j := range msg.ToolCalls {
			tc := &msg.ToolCalls[j]
			tl.logger.Info("    ToolCall[%d] ID=%s Name=%s Params=%v", j, tc.ID, tc.Name, tc.Parameters)
		}

		for j := range msg.ToolResults {
			tr := &msg.ToolResults[j]
			resultPreview := tr.Content
			if len(resultPreview) > 200 {
				resultPreview = resultPreview[:200] + "..."
			}
			tl.logger.Info("    ToolResult[%d] ID=%s IsError=%v Content=%q", j, tr.ToolCallID, tr.IsError, resultPreview)
		}
	}
}
