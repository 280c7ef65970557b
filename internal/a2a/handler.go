package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BerylCAtieno/ad-creative-agent/internal/agent"
	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/creative"
	"github.com/BerylCAtieno/ad-creative-agent/internal/logger"
)

const (
	noInputMessage = "Please send a product JSON document as a data part or as JSON text."
	artifactName   = "Ad Creatives"
)

type A2AHandler struct {
	svc *creative.Service
	cfg *config.Config
}

func NewA2AHandler(svc *creative.Service, cfg *config.Config) *A2AHandler {
	return &A2AHandler{
		svc: svc,
		cfg: cfg,
	}
}

// HandleCreatives processes A2A messages
func (h *A2AHandler) HandleCreatives(c *gin.Context) {
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.Log.Errorf("failed to read request body: %v", err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.sendErrorResponse(c, nil, "Request body too large", CodeInvalidRequest)
			return
		}
		h.sendErrorResponse(c, nil, "Failed to read request body", CodeParseError)
		return
	}
	logger.Log.Debugf("a2a request body: %s", bodyBytes)

	var rpcReq JSONRPCRequest
	if err := json.Unmarshal(bodyBytes, &rpcReq); err != nil {
		logger.Log.Warnf("failed to decode request as JSON-RPC: %v", err)
		h.sendErrorResponse(c, nil, "Invalid request format", CodeParseError)
		return
	}

	// Without the JSON-RPC envelope the body is treated as bare message params.
	if rpcReq.JSONRPC == "" && rpcReq.Method == "" {
		h.handleDirectMessage(c, bodyBytes)
		return
	}

	if rpcReq.JSONRPC != "2.0" {
		logger.Log.Warnf("invalid JSON-RPC version: %s", rpcReq.JSONRPC)
		h.sendErrorResponse(c, rpcReq.ID, "Invalid JSON-RPC version", CodeInvalidRequest)
		return
	}

	switch rpcReq.Method {
	case "agent/task", "message/send":
		h.handleTask(c, rpcReq)
	default:
		logger.Log.Warnf("unknown method: %s", rpcReq.Method)
		h.sendErrorResponse(c, rpcReq.ID, fmt.Sprintf("Method not found: %s", rpcReq.Method), CodeMethodNotFound)
	}
}

func (h *A2AHandler) handleDirectMessage(c *gin.Context, bodyBytes []byte) {
	var msgParams MessageParams
	if err := json.Unmarshal(bodyBytes, &msgParams); err != nil || len(msgParams.Message.Parts) == 0 {
		logger.Log.Warnf("request is neither JSON-RPC nor a direct message")
		h.sendErrorResponse(c, nil, "Invalid request format", CodeInvalidRequest)
		return
	}

	result := h.run(c.Request.Context(), msgParams)
	h.sendSuccessResponse(c, "direct-message", result)
}

func (h *A2AHandler) handleTask(c *gin.Context, rpcReq JSONRPCRequest) {
	var msgParams MessageParams
	if err := json.Unmarshal(rpcReq.Params, &msgParams); err != nil {
		logger.Log.Warnf("failed to unmarshal params: %v", err)
		h.sendErrorResponse(c, rpcReq.ID, "Invalid parameters", CodeInvalidParams)
		return
	}

	result := h.run(c.Request.Context(), msgParams)
	h.sendSuccessResponse(c, rpcReq.ID, result)
}

// run generates creatives for one message and always yields a task; failures
// are reported through the task state.
func (h *A2AHandler) run(ctx context.Context, params MessageParams) TaskResult {
	task := newTaskRef(params)

	instructions, input := h.extractRequest(task.request)
	if input == nil {
		data, err := h.svc.LoadDefaultInput()
		if err != nil {
			logger.Log.Warnf("no input in message and default input unavailable: %v", err)
			return h.createStatusTaskResult(task, StateInputRequired, noInputMessage)
		}
		input = data
	}

	useReal := h.useReal(params)
	resp, err := h.svc.Generate(ctx, creative.Request{
		Input:        input,
		Instructions: instructions,
		UseReal:      useReal,
	})
	if err != nil {
		msg := creative.UserMessage(err)
		if hint := creative.Hint(err, h.cfg.LLM.Provider, useReal); hint != "" {
			msg += "\n\n" + hint
		}
		return h.createStatusTaskResult(task, StateFailed, msg)
	}
	if !resp.Result.Succeeded() {
		return h.createStatusTaskResult(task, StateFailed, resp.Result.Text)
	}

	logger.Log.Infof("a2a task %s completed with %d variant(s)", task.id, len(resp.Result.Variants))
	return h.createSuccessTaskResult(task, resp)
}

// useReal reads an optional boolean "use_real" from params or message
// metadata.
func (h *A2AHandler) useReal(params MessageParams) bool {
	for _, md := range []map[string]any{params.Message.Metadata, params.Metadata} {
		if v, ok := md["use_real"].(bool); ok {
			return v
		}
	}
	return h.cfg.LLM.UseReal
}

// ServeAgentCard serves the agent card using Gin
func (h *A2AHandler) ServeAgentCard(c *gin.Context) {
	if err := agent.LoadAgentCard(); err != nil {
		logger.Log.Errorf("error loading agent card: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Agent card not available"})
		return
	}
	c.Data(http.StatusOK, "application/json", agent.AgentCardData)
}

// extractRequest splits a message into free-text instructions and the input
// document. The first JSON text part or non-history data part is the input.
func (h *A2AHandler) extractRequest(msg A2AMessage) (string, []byte) {
	var texts []string
	var historyText string
	var input []byte

	for _, part := range msg.Parts {
		switch part.Kind {
		case KindText:
			text := cleanText(part.Text)
			if text == "" {
				continue
			}
			if input == nil && looksLikeJSON(text) {
				input = []byte(text)
				continue
			}
			texts = append(texts, text)

		case KindData:
			if part.Data == nil {
				continue
			}
			if items, ok := historyItems(part.Data); ok {
				if t := latestUserText(items); t != "" {
					historyText = t
				}
				continue
			}
			if input != nil {
				continue
			}
			data, err := json.Marshal(part.Data)
			if err != nil {
				logger.Log.Warnf("failed to marshal data part: %v", err)
				continue
			}
			input = data
		}
	}

	if len(texts) == 0 && historyText != "" {
		texts = append(texts, historyText)
	}
	return strings.TrimSpace(strings.Join(texts, " ")), input
}

func cleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "<p>", "")
	s = strings.ReplaceAll(s, "</p>", "")
	return strings.TrimSpace(s)
}

func looksLikeJSON(s string) bool {
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		return false
	}
	return json.Valid([]byte(s))
}

// historyItems reports whether data is a conversation history: a list of
// message parts, each with a "kind".
func historyItems(data any) ([]map[string]any, bool) {
	list, ok := data.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	items := make([]map[string]any, 0, len(list))
	for _, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		if _, ok := m["kind"].(string); !ok {
			return nil, false
		}
		items = append(items, m)
	}
	return items, true
}

// latestUserText returns the most recent text entry that is not one of the
// agent's own progress messages.
func latestUserText(items []map[string]any) string {
	for i := len(items) - 1; i >= 0; i-- {
		if kind, _ := items[i]["kind"].(string); kind != KindText {
			continue
		}
		text, _ := items[i]["text"].(string)
		text = cleanText(text)
		lower := strings.ToLower(text)
		if text == "" || strings.Trim(text, ".") == "" || strings.Contains(lower, "generating") {
			continue
		}
		return text
	}
	return ""
}

// taskRef carries the identifiers a task reply echoes back and the request
// message that opens its history.
type taskRef struct {
	id         string
	contextID  string
	request    A2AMessage
	historyLen int
}

func newTaskRef(params MessageParams) taskRef {
	msg := params.Message
	if msg.TaskID == "" {
		msg.TaskID = uuid.New().String()
	}
	if msg.ContextID == "" {
		msg.ContextID = uuid.New().String()
	}
	if msg.Role == "" {
		msg.Role = RoleUser
	}
	if msg.Kind == "" {
		msg.Kind = "message"
	}
	return taskRef{
		id:         msg.TaskID,
		contextID:  msg.ContextID,
		request:    msg,
		historyLen: params.Configuration.HistoryLength,
	}
}

func (t taskRef) reply(text string) *A2AMessage {
	return &A2AMessage{
		Kind:      "message",
		Role:      RoleAgent,
		MessageID: uuid.New().String(),
		TaskID:    t.id,
		ContextID: t.contextID,
		Parts: []MessagePart{
			TextPart(text),
		},
	}
}

// history lists the request and the reply, trimmed to the most recent
// historyLen messages when the client asked for fewer.
func (t taskRef) history(reply *A2AMessage) []A2AMessage {
	msgs := []A2AMessage{t.request, *reply}
	if t.historyLen > 0 && t.historyLen < len(msgs) {
		msgs = msgs[len(msgs)-t.historyLen:]
	}
	return msgs
}

func (h *A2AHandler) createSuccessTaskResult(task taskRef, resp *creative.Response) TaskResult {
	responseText := formatCreatives(resp)
	reply := task.reply(responseText)

	return TaskResult{
		ID:        task.id,
		ContextID: task.contextID,
		Kind:      "task",
		Status: TaskStatus{
			State:     StateCompleted,
			Timestamp: Timestamp(),
			Message:   reply,
		},
		Artifacts: []Artifact{
			{
				ArtifactID: uuid.New().String(),
				Name:       artifactName,
				Parts: []MessagePart{
					TextPart(responseText),
					DataPart(resp.Result),
				},
			},
		},
		History: task.history(reply),
	}
}

func (h *A2AHandler) createStatusTaskResult(task taskRef, state, text string) TaskResult {
	reply := task.reply(text)
	return TaskResult{
		ID:        task.id,
		ContextID: task.contextID,
		Kind:      "task",
		Status: TaskStatus{
			State:     state,
			Timestamp: Timestamp(),
			Message:   reply,
		},
		History: task.history(reply),
	}
}

func formatCreatives(resp *creative.Response) string {
	res := resp.Result
	var b strings.Builder

	name, _ := res.Product["name"].(string)
	if name != "" {
		fmt.Fprintf(&b, "# Ad creatives for: %s\n\n", name)
	} else {
		b.WriteString("# Ad creatives\n\n")
	}
	fmt.Fprintf(&b, "Variants generated: %d | Channel: %s\n", len(res.Variants), strings.ToUpper(res.Channel))

	for i, v := range res.Variants {
		b.WriteString("\n---\n\n")
		fmt.Fprintf(&b, "## Variant %d: %s\n\n", i+1, v.Headline)
		if v.Text != "" {
			fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(v.Text))
		}
		fmt.Fprintf(&b, "**CTA:** %s\n\n", v.CTA)
		notes := v.Notes
		if notes == "" {
			notes = "no notes"
		}
		fmt.Fprintf(&b, "**Notes:** %s\n", notes)
	}

	fmt.Fprintf(&b, "\n![Visual creative](%s)\n", res.ImageURL)
	return b.String()
}

func (h *A2AHandler) sendSuccessResponse(c *gin.Context, id any, result any) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}

	if body, err := json.Marshal(response); err == nil {
		logger.Log.Debugf("a2a response: %s", bytes.TrimSpace(body))
	}
	c.JSON(http.StatusOK, response)
}

func (h *A2AHandler) sendErrorResponse(c *gin.Context, id any, message string, code int) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	}

	logger.Log.Warnf("sending JSON-RPC error %d: %s", code, message)
	c.JSON(http.StatusOK, response) // JSON-RPC errors are sent with 200 OK
}
