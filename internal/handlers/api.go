// Package handlers implements the HTTP API: message ingestion, manual
// entries, sync triggering, and statistics.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
	"github.com/rumor-ml/commons.systems/smsledger/internal/middleware"
	"github.com/rumor-ml/commons.systems/smsledger/internal/pipeline"
)

func ownerFromContext(r *http.Request) (string, bool) {
	return middleware.GetUserID(r.Context())
}

// Pipeline is the subset of pipeline operations the handlers need.
type Pipeline interface {
	ProcessIncoming(ctx context.Context, msg domain.RawMessage) (*pipeline.Result, error)
	ManualEntry(ctx context.Context, text, sender string, receivedAt time.Time) (*pipeline.Result, error)
	TriggerSync(ctx context.Context) (int, error)
	QueueSize() (int, error)
	Statistics() pipeline.Statistics
}

// TransactionLister reads stored transactions for an owner.
type TransactionLister interface {
	List(ctx context.Context, ownerID string) ([]*domain.PersistedTransaction, error)
}

// APIHandler handles API requests.
type APIHandler struct {
	pipe   Pipeline
	lister TransactionLister
	logger *zap.Logger
}

// NewAPIHandler creates a new API handler. logger may be nil.
func NewAPIHandler(pipe Pipeline, lister TransactionLister, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{pipe: pipe, lister: lister, logger: logger}
}

// HealthCheck handles GET /health.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type incomingMessage struct {
	Sender     string    `json:"sender"`
	Content    string    `json:"content"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// PostMessage handles POST /api/messages: runs one raw message through
// the pipeline and reports its disposition.
func (h *APIHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body incomingMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Sender == "" || body.Content == "" {
		http.Error(w, "sender and content are required", http.StatusBadRequest)
		return
	}
	if body.ReceivedAt.IsZero() {
		body.ReceivedAt = time.Now()
	}

	result, err := h.pipe.ProcessIncoming(r.Context(), domain.RawMessage{
		Sender:     body.Sender,
		Content:    body.Content,
		ReceivedAt: body.ReceivedAt,
	})
	if err != nil {
		h.logger.Error("message processing failed", zap.Error(err))
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, result)
}

type manualEntryRequest struct {
	Text       string    `json:"text"`
	Sender     string    `json:"sender"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// PostManualEntry handles POST /api/transactions: runs user-entered
// text through the same parse and validation path as incoming messages.
func (h *APIHandler) PostManualEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body manualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	result, err := h.pipe.ManualEntry(r.Context(), body.Text, body.Sender, body.ReceivedAt)
	if err != nil {
		h.logger.Error("manual entry failed", zap.Error(err))
		http.Error(w, "Failed to save entry", http.StatusInternalServerError)
		return
	}
	if result.Outcome == pipeline.OutcomeRejected {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(result)
		return
	}

	writeJSON(w, result)
}

// GetTransactions handles GET /api/transactions for the authenticated
// owner.
func (h *APIHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	transactions, err := h.lister.List(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to fetch transactions",
			zap.String("ownerId", ownerID), zap.Error(err))
		http.Error(w, "Failed to fetch transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []*domain.PersistedTransaction{}
	}

	writeJSON(w, transactions)
}

// TriggerSync handles POST /api/sync.
func (h *APIHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	synced, err := h.pipe.TriggerSync(r.Context())
	if err != nil {
		h.logger.Error("sync failed", zap.Error(err))
		http.Error(w, "Sync failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]int{"synced": synced})
}

type statsResponse struct {
	pipeline.Statistics
	QueueSize int `json:"queueSize"`
}

// GetStats handles GET /api/stats.
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	queued, err := h.pipe.QueueSize()
	if err != nil {
		h.logger.Error("failed to read queue size", zap.Error(err))
		http.Error(w, "Failed to read statistics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, statsResponse{Statistics: h.pipe.Statistics(), QueueSize: queued})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
