// Package handler implements the HTTP surface for the task controller
// (spec §4.8): a single streaming analyze endpoint. Grounded on the
// teacher's internal/http/handler/agent_status.go SSE pattern (manual
// flusher loop, event/data framing) adapted from a Redis-stream tail to a
// single synchronous controller.Run call followed by one terminal event.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"boardsense.dev/sentinel/internal/controller"
	"boardsense.dev/sentinel/internal/model"
)

// AnalyzeHandler serves POST /v1/analyze.
type AnalyzeHandler struct {
	Controller *controller.Controller
}

func NewAnalyzeHandler(c *controller.Controller) *AnalyzeHandler {
	return &AnalyzeHandler{Controller: c}
}

// analyzeRequestBody is the wire shape clients POST; it maps directly onto
// model.TaskRequest.
type analyzeRequestBody struct {
	TaskID    string              `json:"task_id"`
	SessionID string              `json:"session_id"`
	Messages  []model.ChatMessage `json:"messages"`
	FEN       string              `json:"fen"`
	Mode      string              `json:"mode"`
}

// Analyze runs the controller pipeline for one task request and streams
// the result back over SSE: an initial "ack" event, then a single
// "envelope" event carrying the AnswerEnvelope once Run completes.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var body analyzeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.FEN == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fen is required"})
		return
	}

	req := model.TaskRequest{
		TaskID:    body.TaskID,
		SessionID: body.SessionID,
		Messages:  body.Messages,
		FEN:       body.FEN,
		Mode:      body.Mode,
	}

	setSSEHeaders(c.Writer)
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	sseWrite(c.Writer, "ack", gin.H{"task_id": body.TaskID})
	flusher.Flush()

	env := h.Controller.Run(c.Request.Context(), req)

	sseWrite(c.Writer, "envelope", env)
	flusher.Flush()
}

func setSSEHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}

func sseWrite(w http.ResponseWriter, event string, data any) {
	payload := marshalPayload(data)
	if event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event)
	}
	for _, line := range strings.Split(payload, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
}

func marshalPayload(data any) string {
	switch payload := data.(type) {
	case string:
		return payload
	case []byte:
		return string(payload)
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Sprintf("%v", data)
		}
		return string(b)
	}
}
