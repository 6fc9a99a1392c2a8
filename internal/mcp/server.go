/*
Package mcp implements the MCP server that exposes the mood classifier.

The server uses stdio transport and exposes 4 tools:
  - mood_classify: Suggest a mood label for a piece of text
  - mood_correct: Record the label a user chose for a piece of text
  - mood_labels: List the label vocabulary
  - mood_similar: Find corpus examples similar to a piece of text
*/
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/khanglvm/moodbrain/internal/feedback"
	"github.com/khanglvm/moodbrain/internal/mood"
	"github.com/khanglvm/moodbrain/internal/search"
	"github.com/khanglvm/moodbrain/internal/version"
)

// Default and maximum result counts for mood_similar.
const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 50
)

// maxLineSize bounds a single JSON-RPC message.
const maxLineSize = 1 << 20

// Classifier suggests labels. *inference.Service implements it.
type Classifier interface {
	Classify(ctx context.Context, text string) (mood.Label, error)
	Probabilities(ctx context.Context, text string) (map[mood.Label]float64, error)
}

// Server represents the moodbrain MCP server.
type Server struct {
	classifier Classifier
	collector  *feedback.Collector
	vocab      *mood.Vocabulary
	index      *search.Indexer
	logger     *zap.Logger

	writeMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIndex enables mood_similar.
func WithIndex(index *search.Indexer) Option {
	return func(s *Server) {
		s.index = index
	}
}

// NewServer creates a new MCP server.
func NewServer(classifier Classifier, collector *feedback.Collector, vocab *mood.Vocabulary, opts ...Option) *Server {
	s := &Server{
		classifier: classifier,
		collector:  collector,
		vocab:      vocab,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves newline-delimited JSON-RPC requests from in and writes responses
// to out. It returns when in is exhausted or ctx is done.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReaderSize(in, 64*1024)

	for {
		line, err := readLine(reader, maxLineSize)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, errLineTooLong) {
			s.logger.Warn("Dropping oversized message", zap.Int("limit", maxLineSize))
			s.sendError(out, err)
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		response, err := s.handleRequest(ctx, line)
		if err != nil {
			s.sendError(out, err)
			continue
		}

		if response != nil {
			s.sendResponse(out, response)
		}
	}
}

var errLineTooLong = fmt.Errorf("message exceeds %d bytes", maxLineSize)

// readLine returns the next newline-terminated line without its terminator.
// A line longer than limit is consumed up to its newline and reported as
// errLineTooLong, leaving r at the start of the following line.
func readLine(r *bufio.Reader, limit int) ([]byte, error) {
	var line []byte
	overflow := false

	for {
		chunk, err := r.ReadSlice('\n')
		if !overflow {
			line = append(line, chunk...)
			if len(bytes.TrimRight(line, "\r\n")) > limit {
				overflow = true
				line = nil
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		switch {
		case overflow && (err == nil || errors.Is(err, io.EOF)):
			return nil, errLineTooLong
		case err != nil && errors.Is(err, io.EOF) && len(line) > 0:
			// Final line without a newline.
			return line, nil
		case err != nil:
			return nil, err
		}
		return bytes.TrimRight(line, "\r\n"), nil
	}
}

// MCPRequest represents an incoming MCP JSON-RPC request.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing MCP JSON-RPC response.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents an MCP error.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolError      = -32000
)

// handleRequest processes an incoming MCP request. Notifications get no response.
func (s *Server) handleRequest(ctx context.Context, data []byte) (*MCPResponse, error) {
	var req MCPRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON-RPC request: %w", err)
	}

	if strings.HasPrefix(req.Method, "notifications/") {
		return nil, nil
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(&req), nil
	case "ping":
		return &MCPResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]interface{}{}}, nil
	case "tools/list":
		return s.handleToolsList(&req), nil
	case "tools/call":
		return s.handleToolsCall(ctx, &req), nil
	default:
		return errorResponse(req.ID, codeMethodNotFound, "Method not found"), nil
	}
}

// handleInitialize handles the MCP initialize request.
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "moodbrain",
				"version": version.Version,
			},
		},
	}
}

// handleToolsList returns the tool definitions.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	labels := s.labelNames()

	tools := []map[string]interface{}{
		{
			"name": "mood_classify",
			"description": fmt.Sprintf(`Suggest a mood label for a piece of text.

WHEN TO USE: When a user writes a journal entry, message or status and you want to propose a mood.

LABELS: %s

Returns: {"label": "..."} and, with probabilities=true, the posterior of every label.`, strings.Join(labels, ", ")),
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to classify",
					},
					"probabilities": map[string]interface{}{
						"type":        "boolean",
						"description": "Include per-label probabilities",
					},
				},
				"required": []string{"text"},
			},
		},
		{
			"name": "mood_correct",
			"description": `Record the mood label a user chose for a piece of text.

WHEN TO USE: After mood_classify, when the user picks a different label. Corrections are learned by the next brain update.

WORKFLOW:
1. mood_classify(text) → suggestion
2. mood_correct(text, label, suggestion) → queued for learning`,
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "The labeled text",
					},
					"label": map[string]interface{}{
						"type":        "string",
						"description": "Label the user chose",
						"enum":        labels,
					},
					"suggestion": map[string]interface{}{
						"type":        "string",
						"description": "Label mood_classify suggested, if any",
					},
					"submitterId": map[string]interface{}{
						"type":        "string",
						"description": "Identifier of the user making the correction",
					},
				},
				"required": []string{"text", "label"},
			},
		},
		{
			"name":        "mood_labels",
			"description": "List the mood labels the classifier can produce.",
			"inputSchema": map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			"name": "mood_similar",
			"description": `Find training examples similar to a piece of text.

WHEN TO USE: To explain a suggestion by showing the labeled examples closest to the input.`,
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to match",
					},
					"label": map[string]interface{}{
						"type":        "string",
						"description": "Only return examples with this label",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": fmt.Sprintf("Maximum results (default %d, max %d)", defaultSimilarLimit, maxSimilarLimit),
					},
				},
				"required": []string{"text"},
			},
		},
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": tools,
		},
	}
}

// handleToolsCall handles tool execution requests.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, fmt.Sprintf("invalid params: %v", err))
	}

	var result string
	var err error

	switch params.Name {
	case "mood_classify":
		text, _ := params.Arguments["text"].(string)
		withProbs, _ := params.Arguments["probabilities"].(bool)
		result, err = s.execClassify(ctx, text, withProbs)
	case "mood_correct":
		text, _ := params.Arguments["text"].(string)
		label, _ := params.Arguments["label"].(string)
		suggestion, _ := params.Arguments["suggestion"].(string)
		submitter, _ := params.Arguments["submitterId"].(string)
		result, err = s.execCorrect(text, label, suggestion, submitter)
	case "mood_labels":
		result, err = s.execLabels()
	case "mood_similar":
		text, _ := params.Arguments["text"].(string)
		label, _ := params.Arguments["label"].(string)
		limit := defaultSimilarLimit
		if l, ok := params.Arguments["limit"].(float64); ok && l > 0 {
			limit = int(l)
		}
		result, err = s.execSimilar(text, label, limit)
	default:
		return errorResponse(req.ID, codeInvalidParams, fmt.Sprintf("Unknown tool: %s", params.Name))
	}

	if err != nil {
		s.logger.Debug("Tool call failed", zap.String("tool", params.Name), zap.Error(err))
		return errorResponse(req.ID, codeToolError, err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

// classifyResult is the mood_classify payload.
type classifyResult struct {
	Label         mood.Label             `json:"label"`
	Probabilities map[mood.Label]float64 `json:"probabilities,omitempty"`
}

// execClassify suggests a label for text.
func (s *Server) execClassify(ctx context.Context, text string, withProbs bool) (string, error) {
	label, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return "", err
	}

	out := classifyResult{Label: label}
	if withProbs {
		probs, err := s.classifier.Probabilities(ctx, text)
		if err != nil {
			return "", err
		}
		out.Probabilities = probs
	}
	return compactJSON(out)
}

// execCorrect queues a correction. Unknown labels are reported to the caller
// here since the collector drops them silently.
func (s *Server) execCorrect(text, label, suggestion, submitter string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("text is required")
	}
	userLabel, err := s.vocab.Parse(label)
	if err != nil {
		return "", err
	}

	suggested := mood.NoLabel
	if strings.TrimSpace(suggestion) != "" {
		if suggested, err = s.vocab.Parse(suggestion); err != nil {
			return "", fmt.Errorf("suggestion: %w", err)
		}
	}

	if suggested == userLabel {
		return fmt.Sprintf("Label '%s' matches the suggestion; nothing to learn.", userLabel), nil
	}

	s.collector.RecordCorrection(text, suggested, userLabel, submitter)
	return fmt.Sprintf("Correction queued: '%s'. It will be learned on the next brain update.", userLabel), nil
}

// execLabels lists the vocabulary.
func (s *Server) execLabels() (string, error) {
	return compactJSON(map[string]interface{}{"labels": s.labelNames()})
}

// execSimilar searches the corpus index.
func (s *Server) execSimilar(text, label string, limit int) (string, error) {
	if s.index == nil {
		return "", errors.New("similar-example search is not enabled")
	}
	if limit > maxSimilarLimit {
		limit = maxSimilarLimit
	}

	filter := mood.NoLabel
	if strings.TrimSpace(label) != "" {
		parsed, err := s.vocab.Parse(label)
		if err != nil {
			return "", err
		}
		filter = parsed
	}

	results, err := s.index.Similar(text, filter, limit)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	if results == nil {
		results = []search.Result{}
	}
	return compactJSON(map[string]interface{}{"results": results})
}

func (s *Server) labelNames() []string {
	labels := s.vocab.Labels()
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = string(l)
	}
	sort.Strings(names)
	return names
}

func compactJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}

func errorResponse(id interface{}, code int, message string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: message},
	}
}

// sendResponse writes a JSON-RPC response line to out.
func (s *Server) sendResponse(out io.Writer, resp *MCPResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := fmt.Fprintln(out, string(data)); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}

// sendError writes a parse error response to out.
func (s *Server) sendError(out io.Writer, err error) {
	s.sendResponse(out, errorResponse(nil, codeParseError, err.Error()))
}
