// Package contextmgr manages conversation context for the assistant session.
// User input and tool results are buffered and flushed into a single user
// message before each model call, which keeps providers with strict
// alternation requirements happy.
package contextmgr

import (
	"fmt"
	"strings"

	"hrassist/pkg/utils"
)

// ToolCall records a tool invocation requested by the assistant.
type ToolCall struct {
	ID         string
	Name       string
	Parameters map[string]any
}

// ToolResult records the outcome of a tool invocation.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

// Message represents a single message in the conversation context.
type Message struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall   // assistant messages only
	ToolResults []ToolResult // user messages only
}

// DefaultCompactionThreshold is the token count above which CompactIfNeeded
// starts dropping old conversation turns.
const DefaultCompactionThreshold = 10000

// ContextManager manages conversation context and token counting.
type ContextManager struct {
	messages           []Message
	userBuffer         []string
	pendingToolResults []ToolResult
	counter            *utils.TokenCounter
	compactionLimit    int
}

// NewContextManager creates a new context manager instance.
func NewContextManager() *ContextManager {
	return NewContextManagerWithLimit(DefaultCompactionThreshold)
}

// NewContextManagerWithLimit creates a context manager that compacts when the
// context grows past the given token count.
func NewContextManagerWithLimit(limit int) *ContextManager {
	if limit <= 0 {
		limit = DefaultCompactionThreshold
	}
	counter, err := utils.NewTokenCounter("")
	if err != nil {
		counter = nil // fall back to the heuristic counter
	}
	return &ContextManager{
		messages:        make([]Message, 0),
		counter:         counter,
		compactionLimit: limit,
	}
}

// AddMessage stores a role/content pair in the context. User messages (and
// messages with an unknown role) go to the user buffer and only enter the
// context on the next FlushUserBuffer. Empty content is ignored.
func (cm *ContextManager) AddMessage(role, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}

	switch role {
	case "system":
		cm.messages = append(cm.messages, Message{Role: "system", Content: content})
	case "assistant":
		cm.messages = append(cm.messages, Message{Role: "assistant", Content: content})
	default:
		cm.userBuffer = append(cm.userBuffer, content)
	}
}

// AddUserMessage buffers a user message for the next flush.
func (cm *ContextManager) AddUserMessage(content string) {
	cm.AddMessage("user", content)
}

// AddSystemMessage appends a system message directly to the context.
func (cm *ContextManager) AddSystemMessage(content string) {
	cm.AddMessage("system", content)
}

// AddAssistantMessage appends an assistant message directly to the context.
func (cm *ContextManager) AddAssistantMessage(content string) {
	cm.messages = append(cm.messages, Message{
		Role:    "assistant",
		Content: strings.TrimSpace(content),
	})
}

// AddAssistantMessageWithTools appends an assistant message that carries
// structured tool calls. Content may be empty when the model only calls tools.
func (cm *ContextManager) AddAssistantMessageWithTools(content string, toolCalls []ToolCall) {
	calls := make([]ToolCall, len(toolCalls))
	copy(calls, toolCalls)
	cm.messages = append(cm.messages, Message{
		Role:      "assistant",
		Content:   strings.TrimSpace(content),
		ToolCalls: calls,
	})
}

// AddToolResult buffers a tool result. Results are batched with any buffered
// user input into a single user message on the next FlushUserBuffer.
func (cm *ContextManager) AddToolResult(toolCallID, content string, isError bool) {
	cm.pendingToolResults = append(cm.pendingToolResults, ToolResult{
		ToolCallID: toolCallID,
		Content:    content,
		IsError:    isError,
	})
}

// FlushUserBuffer moves buffered user input and pending tool results into the
// context as one user message. A no-op when both are empty.
func (cm *ContextManager) FlushUserBuffer() error {
	if len(cm.userBuffer) == 0 && len(cm.pendingToolResults) == 0 {
		return nil
	}

	msg := Message{
		Role:    "user",
		Content: strings.Join(cm.userBuffer, "\n\n"),
	}
	if len(cm.pendingToolResults) > 0 {
		msg.ToolResults = make([]ToolResult, len(cm.pendingToolResults))
		copy(msg.ToolResults, cm.pendingToolResults)
	}

	cm.messages = append(cm.messages, msg)
	cm.userBuffer = cm.userBuffer[:0]
	cm.pendingToolResults = cm.pendingToolResults[:0]
	return nil
}

// CountTokens returns the token count of the current context.
func (cm *ContextManager) CountTokens() int {
	total := 0
	for i := range cm.messages {
		total += cm.countMessage(&cm.messages[i])
	}
	return total
}

func (cm *ContextManager) countMessage(msg *Message) int {
	count := cm.countText(msg.Role) + cm.countText(msg.Content)
	for j := range msg.ToolCalls {
		count += cm.countText(msg.ToolCalls[j].Name)
		count += cm.countText(fmt.Sprintf("%v", msg.ToolCalls[j].Parameters))
	}
	for j := range msg.ToolResults {
		count += cm.countText(msg.ToolResults[j].Content)
	}
	return count
}

func (cm *ContextManager) countText(text string) int {
	if cm.counter != nil {
		return cm.counter.CountTokens(text)
	}
	return utils.CountTokensSimple(text)
}

// CompactIfNeeded drops old conversation turns when the context exceeds the
// configured token limit.
func (cm *ContextManager) CompactIfNeeded() error {
	if cm.CountTokens() <= cm.compactionLimit {
		return nil
	}
	return cm.performCompaction(cm.compactionLimit / 2)
}

// ShouldCompact checks if compaction is needed without performing it.
func (cm *ContextManager) ShouldCompact() bool {
	return cm.CountTokens() > cm.compactionLimit
}

// performCompaction removes the oldest conversation turns until the context
// fits the target. The leading system prompt is always preserved, and an
// assistant message carrying tool calls is removed together with the user
// message carrying its results so the remaining context never starts with
// orphaned tool results.
func (cm *ContextManager) performCompaction(targetTokens int) error {
	start := 0
	if len(cm.messages) > 0 && cm.messages[0].Role == "system" {
		start = 1
	}

	for cm.CountTokens() > targetTokens && len(cm.messages) > start+1 {
		drop := 1
		if len(cm.messages[start].ToolCalls) > 0 {
			drop = 2 // take the paired tool-result message with it
		}
		cm.messages = append(cm.messages[:start], cm.messages[start+drop:]...)
	}

	return nil
}

// GetMessages returns a copy of all messages in the context.
func (cm *ContextManager) GetMessages() []Message {
	result := make([]Message, len(cm.messages))
	for i := range cm.messages {
		msg := cm.messages[i]
		if len(msg.ToolCalls) > 0 {
			calls := make([]ToolCall, len(msg.ToolCalls))
			copy(calls, msg.ToolCalls)
			msg.ToolCalls = calls
		}
		if len(msg.ToolResults) > 0 {
			results := make([]ToolResult, len(msg.ToolResults))
			copy(results, msg.ToolResults)
			msg.ToolResults = results
		}
		result[i] = msg
	}
	return result
}

// Clear removes all messages and buffered state from the context.
func (cm *ContextManager) Clear() {
	cm.messages = cm.messages[:0]
	cm.userBuffer = cm.userBuffer[:0]
	cm.pendingToolResults = cm.pendingToolResults[:0]
}

// GetMessageCount returns the number of messages in the context.
func (cm *ContextManager) GetMessageCount() int {
	return len(cm.messages)
}

// GetContextSummary returns a brief summary of the context state.
func (cm *ContextManager) GetContextSummary() string {
	messageCount := len(cm.messages)
	tokenCount := cm.CountTokens()

	if messageCount == 0 {
		return "Empty context"
	}

	roleCounts := make(map[string]int)
	for i := range cm.messages {
		roleCounts[cm.messages[i].Role]++
	}

	var roleBreakdown []string
	for _, role := range []string{"system", "user", "assistant"} {
		if count, ok := roleCounts[role]; ok {
			roleBreakdown = append(roleBreakdown, fmt.Sprintf("%s: %d", role, count))
		}
	}

	return fmt.Sprintf("%d messages (%d tokens) - %s",
		messageCount, tokenCount, strings.Join(roleBreakdown, ", "))
}
