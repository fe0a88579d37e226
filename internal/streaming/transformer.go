package streaming

import (
	"encoding/json"
	"strings"

	"github.com/ccbridge/gateway/internal/idmint"
	"github.com/ccbridge/gateway/internal/models"
	"github.com/ccbridge/gateway/internal/tokencount"
	"github.com/ccbridge/gateway/pkg/logger"
)

// Event names and block/delta type tags, the Anthropic-shape vocabulary.
const (
	eventMessageStart      = "message_start"
	eventContentBlockStart = "content_block_start"
	eventContentBlockDelta = "content_block_delta"
	eventContentBlockStop  = "content_block_stop"
	eventMessageDelta      = "message_delta"
	eventMessageStop       = "message_stop"

	blockText     = "text"
	blockThinking = "thinking"
	blockToolUse  = "tool_use"

	deltaText      = "text_delta"
	deltaThinking  = "thinking_delta"
	deltaSignature = "signature_delta"
	deltaInputJSON = "input_json_delta"
)

// stage tracks forward-only progression through the block ordering
// invariant: all thinking blocks precede the text block, which precedes
// any tool_use blocks.
type stage int

const (
	stageThinking stage = iota
	stageText
	stageToolUse
)

// reasoningState tracks the fallback reasoning_content thinking pathway.
type reasoningState struct {
	claudeIndex int
	started     bool
	stopped     bool
	content     strings.Builder
}

// structuredThinkingState tracks the thinking_blocks[] pathway, keyed by
// the upstream's 0-by-convention thinking index.
type structuredThinkingState struct {
	claudeIndex int
	started     bool
	stopped     bool
	signature   string
}

// pendingToolCall accumulates one tool call's id/name/arguments fragments,
// keyed by the upstream's per-call index. id and name are themselves
// incremental per the wire format, so they're built by concatenation.
type pendingToolCall struct {
	idBuf       strings.Builder
	nameBuf     strings.Builder
	argsBuf     strings.Builder
	claudeIndex int
	started     bool
	stopped     bool
}

// Transformer is the stateful StreamTransformer: it owns one request's
// worth of mutable state and is not safe for concurrent use, matching the
// cooperative single-threaded streaming model — the gateway creates one
// per request.
type Transformer struct {
	out   *EventWriter
	log   *logger.Logger
	model string

	splitter lineSplitter
	done     bool

	initialized bool
	messageID   string
	requestID   string

	nextBlockIndex int
	currentStage   stage

	reasoning     reasoningState
	structured    map[int]*structuredThinkingState
	thinkingOrder []int

	textStarted bool
	textStopped bool
	textIndex   int
	textContent strings.Builder

	toolCalls  map[int]*pendingToolCall
	toolOrder  []int

	inputTokens  int
	outputTokens int

	lastFinishReason string
}

// New builds a Transformer that writes Anthropic-shape SSE events to w.
// model is the request's model name, echoed back in message_start. log may
// be nil.
func New(w *EventWriter, model string, log *logger.Logger) *Transformer {
	return &Transformer{
		out:            w,
		log:            log,
		model:          model,
		nextBlockIndex: -1,
		structured:     make(map[int]*structuredThinkingState),
		toolCalls:      make(map[int]*pendingToolCall),
	}
}

// Feed processes one chunk of raw upstream bytes. It may be called
// repeatedly as bytes arrive; a trailing partial line is buffered across
// calls. Returns true once the [DONE] marker has been processed and the
// terminal sequence has been emitted.
func (t *Transformer) Feed(data []byte) (bool, error) {
	if t.done {
		return true, nil
	}
	for _, line := range t.splitter.feed(data) {
		if done, err := t.processLine(line); err != nil {
			return t.done, err
		} else if done {
			return true, nil
		}
	}
	return false, nil
}

func (t *Transformer) processLine(line string) (bool, error) {
	payload, ok := dataPayload(line)
	if !ok {
		return false, nil
	}
	if payload == doneMarker {
		if err := t.finalize(models.MapStopReason(t.lastFinishReason)); err != nil {
			return true, err
		}
		t.done = true
		return true, nil
	}

	var chunk models.OpenAIStreamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		// Malformed JSON inside the stream is dropped; the stream continues.
		return false, nil
	}
	return false, t.handleChunk(&chunk)
}

// Close is invoked when the upstream socket closes without ever sending
// [DONE]. It emits a best-effort terminal sequence over whatever state has
// accumulated, deriving stop_reason = end_turn unconditionally.
func (t *Transformer) Close() error {
	if t.done {
		return nil
	}
	t.done = true
	// A stream that never got far enough to emit message_start has nothing
	// to terminate.
	if !t.initialized {
		return nil
	}
	return t.finalize(models.StopEndTurn)
}

func (t *Transformer) handleChunk(chunk *models.OpenAIStreamChunk) error {
	if !t.initialized {
		if err := t.emitMessageStart(chunk.ID); err != nil {
			return err
		}
	}

	if chunk.Usage != nil {
		if chunk.Usage.PromptTokens > t.inputTokens {
			t.inputTokens = chunk.Usage.PromptTokens
		}
		if chunk.Usage.CompletionTokens > t.outputTokens {
			t.outputTokens = chunk.Usage.CompletionTokens
		}
	}

	if len(chunk.Choices) == 0 {
		return nil
	}
	choice := chunk.Choices[0]
	if choice.FinishReason != nil && *choice.FinishReason != "" {
		t.lastFinishReason = *choice.FinishReason
	}
	return t.handleDelta(&choice.Delta)
}

func (t *Transformer) emitMessageStart(upstreamID string) error {
	t.initialized = true
	t.requestID = upstreamID
	t.messageID = idmint.MessageID(upstreamID)

	return t.out.WriteEvent(eventMessageStart, mustJSON(map[string]interface{}{
		"message": map[string]interface{}{
			"id":          t.messageID,
			"type":        "message",
			"role":        "assistant",
			"model":       t.model,
			"content":     []interface{}{},
			"stop_reason": nil,
			"usage":       map[string]interface{}{"input_tokens": 0, "output_tokens": 0},
		},
	}))
}

// handleDelta applies one delta's block-open/close transitions and content
// emission: thinking_blocks and reasoning_content feed the thinking stage,
// content feeds text, tool_calls feeds tool_use, and the stage only ever
// advances forward (thinking -> text -> tool_use).
func (t *Transformer) handleDelta(delta *models.OpenAIStreamDelta) error {
	hasThinkingBlocks := len(delta.ThinkingBlocks) > 0
	hasReasoning := delta.ReasoningContent != "" && !hasThinkingBlocks // thinking_blocks wins in the same delta
	hasContent := delta.Content != ""
	hasToolCalls := len(delta.ToolCalls) > 0

	if hasThinkingBlocks {
		if err := t.closeReasoningIfOpen(); err != nil {
			return err
		}
		if err := t.handleThinkingBlocks(delta.ThinkingBlocks); err != nil {
			return err
		}
	} else if hasReasoning {
		if err := t.handleReasoningContent(delta.ReasoningContent); err != nil {
			return err
		}
	}

	if hasContent {
		if t.currentStage == stageThinking {
			if err := t.closeAllThinking(); err != nil {
				return err
			}
			t.currentStage = stageText
		}
		if err := t.handleTextContent(delta.Content); err != nil {
			return err
		}
	}

	if hasToolCalls {
		if t.currentStage == stageThinking {
			if err := t.closeAllThinking(); err != nil {
				return err
			}
			t.currentStage = stageToolUse
		} else if t.currentStage == stageText && !hasContent {
			if err := t.closeTextIfOpen(); err != nil {
				return err
			}
			t.currentStage = stageToolUse
		}
		if err := t.handleToolCalls(delta.ToolCalls); err != nil {
			return err
		}
	}

	return nil
}

func (t *Transformer) allocateBlockIndex() int {
	t.nextBlockIndex++
	return t.nextBlockIndex
}

func (t *Transformer) handleReasoningContent(fragment string) error {
	if !t.reasoning.started {
		t.reasoning.started = true
		t.reasoning.claudeIndex = t.allocateBlockIndex()
		if err := t.emitBlockStart(t.reasoning.claudeIndex, blockThinking, map[string]interface{}{"thinking": ""}); err != nil {
			return err
		}
	}
	t.reasoning.content.WriteString(fragment)
	return t.emitBlockDelta(t.reasoning.claudeIndex, map[string]interface{}{"type": deltaThinking, "thinking": fragment})
}

func (t *Transformer) handleThinkingBlocks(blocks []models.ThinkingBlock) error {
	for _, b := range blocks {
		const upstreamIndex = 0 // thinking streams are single, index 0 by convention
		st, ok := t.structured[upstreamIndex]
		if !ok {
			st = &structuredThinkingState{claudeIndex: -1}
			t.structured[upstreamIndex] = st
			t.thinkingOrder = append(t.thinkingOrder, upstreamIndex)
		}

		if !st.started && (b.Text != "" || b.Signature != "") {
			st.started = true
			st.claudeIndex = t.allocateBlockIndex()
			startFields := map[string]interface{}{"thinking": ""}
			if b.Signature != "" {
				startFields["signature"] = b.Signature
			}
			if err := t.emitBlockStart(st.claudeIndex, blockThinking, startFields); err != nil {
				return err
			}
		}

		if b.Text != "" {
			if err := t.emitBlockDelta(st.claudeIndex, map[string]interface{}{"type": deltaThinking, "thinking": b.Text}); err != nil {
				return err
			}
		}
		if b.Signature != "" {
			st.signature = b.Signature
			if st.started {
				if err := t.emitBlockDelta(st.claudeIndex, map[string]interface{}{"type": deltaSignature, "signature": b.Signature}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (t *Transformer) handleTextContent(fragment string) error {
	if !t.textStarted {
		t.textStarted = true
		t.textIndex = t.allocateBlockIndex()
		if err := t.emitBlockStart(t.textIndex, blockText, map[string]interface{}{"text": ""}); err != nil {
			return err
		}
	}
	t.textContent.WriteString(fragment)
	return t.emitBlockDelta(t.textIndex, map[string]interface{}{"type": deltaText, "text": fragment})
}

func (t *Transformer) handleToolCalls(calls []models.OpenAIStreamToolCall) error {
	for _, call := range calls {
		pc, ok := t.toolCalls[call.Index]
		if !ok {
			pc = &pendingToolCall{claudeIndex: -1}
			t.toolCalls[call.Index] = pc
			t.toolOrder = append(t.toolOrder, call.Index)
		}
		pc.idBuf.WriteString(call.ID)
		pc.nameBuf.WriteString(call.Function.Name)

		if !pc.started && pc.idBuf.Len() > 0 && pc.nameBuf.Len() > 0 {
			pc.started = true
			pc.claudeIndex = t.allocateBlockIndex()
			if err := t.emitBlockStart(pc.claudeIndex, blockToolUse, map[string]interface{}{
				"id":    pc.idBuf.String(),
				"name":  pc.nameBuf.String(),
				"input": map[string]interface{}{},
			}); err != nil {
				return err
			}
		}

		if call.Function.Arguments != "" {
			pc.argsBuf.WriteString(call.Function.Arguments)
			if pc.started {
				if err := t.emitBlockDelta(pc.claudeIndex, map[string]interface{}{"type": deltaInputJSON, "partial_json": call.Function.Arguments}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (t *Transformer) closeReasoningIfOpen() error {
	if !t.reasoning.started || t.reasoning.stopped {
		return nil
	}
	t.reasoning.stopped = true
	sig := idmint.Signature(t.requestID)
	if err := t.emitBlockDelta(t.reasoning.claudeIndex, map[string]interface{}{"type": deltaSignature, "signature": sig}); err != nil {
		return err
	}
	return t.emitBlockStop(t.reasoning.claudeIndex)
}

// closeAllThinking closes whichever thinking pathways are open, the
// reasoning block first. The structured path closes the reasoning path the
// moment it starts; a reasoning_content fragment arriving while a structured
// block is open opens its own block alongside it, so both may be open here.
func (t *Transformer) closeAllThinking() error {
	if err := t.closeReasoningIfOpen(); err != nil {
		return err
	}
	for _, idx := range t.thinkingOrder {
		st := t.structured[idx]
		if st.started && !st.stopped {
			st.stopped = true
			if err := t.emitBlockStop(st.claudeIndex); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Transformer) closeTextIfOpen() error {
	if !t.textStarted || t.textStopped {
		return nil
	}
	t.textStopped = true
	return t.emitBlockStop(t.textIndex)
}

// closeAllToolCalls closes every started tool-use block and checks that its
// accumulated arguments buffer parses as JSON, logging (never failing the
// stream) on a parse failure. No {_raw:...} value is built here: the SSE
// sequence has no event left to carry one, and downstream clients
// reconstruct `input` from the input_json_delta fragments they already
// received.
func (t *Transformer) closeAllToolCalls() error {
	for _, idx := range t.toolOrder {
		pc := t.toolCalls[idx]
		if !pc.started || pc.stopped {
			continue
		}
		pc.stopped = true
		if !json.Valid([]byte(pc.argsBuf.String())) && t.log != nil {
			t.log.WithField("tool_call_index", idx).Warn("streaming: tool call arguments did not parse as JSON at stream end")
		}
		if err := t.emitBlockStop(pc.claudeIndex); err != nil {
			return err
		}
	}
	return nil
}

// finalize closes every still-open block in order (reasoning/thinking,
// text, tool-uses) and emits the terminal message_delta + message_stop
// pair. stopReason is supplied by the caller: the mapped finish_reason on
// a normal [DONE], or a forced end_turn on early upstream close.
func (t *Transformer) finalize(stopReason string) error {
	if !t.initialized {
		return nil
	}
	if err := t.closeAllThinking(); err != nil {
		return err
	}
	if err := t.closeTextIfOpen(); err != nil {
		return err
	}
	if err := t.closeAllToolCalls(); err != nil {
		return err
	}

	if t.outputTokens == 0 {
		if est, err := tokencount.Estimate(t.accumulatedText()); err == nil && est > t.outputTokens {
			t.outputTokens = est
		}
	}

	if err := t.out.WriteEvent(eventMessageDelta, mustJSON(map[string]interface{}{
		"delta": map[string]interface{}{"stop_reason": stopReason, "stop_sequence": nil},
		"usage": map[string]interface{}{"input_tokens": t.inputTokens, "output_tokens": t.outputTokens},
	})); err != nil {
		return err
	}
	return t.out.WriteEvent(eventMessageStop, mustJSON(map[string]interface{}{}))
}

// accumulatedText is the best estimate-input for the token-count fallback:
// whatever text/reasoning content this stream actually emitted.
func (t *Transformer) accumulatedText() string {
	return t.reasoning.content.String() + t.textContent.String()
}

func (t *Transformer) emitBlockStart(index int, blockType string, fields map[string]interface{}) error {
	block := map[string]interface{}{"type": blockType}
	for k, v := range fields {
		block[k] = v
	}
	return t.out.WriteEvent(eventContentBlockStart, mustJSON(map[string]interface{}{
		"index":         index,
		"content_block": block,
	}))
}

func (t *Transformer) emitBlockDelta(index int, delta map[string]interface{}) error {
	return t.out.WriteEvent(eventContentBlockDelta, mustJSON(map[string]interface{}{
		"index": index,
		"delta": delta,
	}))
}

func (t *Transformer) emitBlockStop(index int) error {
	return t.out.WriteEvent(eventContentBlockStop, mustJSON(map[string]interface{}{"index": index}))
}

func mustJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Every value passed through this package is built from maps and
		// strings local to this file; a marshal failure here means a bug
		// in this package, not bad input.
		panic(err)
	}
	return b
}
