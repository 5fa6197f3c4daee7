package transfer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/veltapay/velta-wallet/pkg/config"
	"github.com/veltapay/velta-wallet/pkg/events"
	"github.com/veltapay/velta-wallet/pkg/logger"
)

// SettlementWorker drains the settlement event queue and runs the
// reconciliation sweep for transfers whose webhook never arrived.
type SettlementWorker struct {
	Config      config.Config
	Engine      *Engine
	RedisClient *events.RedisClient
}

func NewSettlementWorker(cfg config.Config, engine *Engine, redisClient *events.RedisClient) *SettlementWorker {
	return &SettlementWorker{Config: cfg, Engine: engine, RedisClient: redisClient}
}

func (w *SettlementWorker) Start() {
	logger.Info("Starting settlement worker...")
	go w.processEvents()
	go w.reconcileLoop()
}

func (w *SettlementWorker) processEvents() {
	for {
		result, err := w.RedisClient.Client.BLPop(context.Background(), 5*time.Second, events.SettlementQueue).Result()
		if err != nil {
			continue
		}

		eventData := []byte(result[1])
		var event events.SettlementEvent
		if err := json.Unmarshal(eventData, &event); err != nil {
			logger.Error("SettlementWorker: Failed to unmarshal event", logger.Fields{"error": err.Error(), "data": string(eventData)})
			w.moveToDLQ(eventData)
			continue
		}

		w.handleEvent(event, eventData)
	}
}

func (w *SettlementWorker) handleEvent(event events.SettlementEvent, rawData []byte) {
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		err := w.Engine.HandleSettlementEvent(context.Background(), event.PendingRef, event.Status, event.ExternalReference, event.FailureReason)
		if err == nil {
			logger.Info("SettlementWorker: Processed event", logger.Fields{"status": event.Status, "pending_ref": event.PendingRef})
			return
		}

		logger.Warn("SettlementWorker: Failed to process event, retrying", logger.Fields{
			"status":      event.Status,
			"pending_ref": event.PendingRef,
			"attempt":     i + 1,
			"error":       err.Error(),
		})
		time.Sleep(time.Duration(i+1) * time.Second)
	}

	logger.Error("SettlementWorker: Max retries exhausted, moving to DLQ", logger.Fields{"pending_ref": event.PendingRef})
	w.moveToDLQ(rawData)
}

func (w *SettlementWorker) reconcileLoop() {
	interval := time.Duration(w.Config.ReconcileInterval) * time.Second
	window := time.Duration(w.Config.ReconcileWindow) * time.Minute

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		if err := w.Engine.ReconcilePending(ctx, window); err != nil {
			logger.Error("Reconciliation sweep failed", logger.Fields{"error": err.Error()})
		}
		cancel()
	}
}

func (w *SettlementWorker) moveToDLQ(data []byte) {
	if err := w.RedisClient.PushToDLQ(context.Background(), data); err != nil {
		logger.Error("SettlementWorker: Failed to push to DLQ", logger.Fields{"error": err.Error()})
	}
}
