package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muhammadolammi/resumeworker/internal/logger"
	"github.com/muhammadolammi/resumeworker/internal/pipeline"
)

type queuedHandler interface {
	HandleQueued(ctx context.Context, id uuid.UUID) (*pipeline.Outcome, error)
}

// handleDelivery runs one queued analysis and always settles the delivery. Retries
// happen inside the pipeline, so failed runs are acked rather than requeued.
func handleDelivery(ctx context.Context, h queuedHandler, d amqp.Delivery, log *zap.Logger) {
	msg, err := parseAnalysisMessage(d.Body)
	if err != nil {
		log.Error("dropping malformed message",
			zap.String("body", logger.TruncateForLog(string(d.Body), 256)),
			zap.Error(err),
		)
		if err := d.Reject(false); err != nil {
			log.Warn("failed to reject message", zap.Error(err))
		}
		return
	}

	log = log.With(zap.Stringer("resume_id", msg.ResumeID))
	log.Info("processing resume")

	outcome, err := h.HandleQueued(ctx, msg.ResumeID)
	switch {
	case errors.Is(err, pipeline.ErrAlreadyAnalyzing):
		log.Info("resume is already being analyzed by this worker")
	case errors.Is(err, pipeline.ErrResumeNotFound):
		log.Warn("resume no longer exists")
	case err != nil:
		log.Error("analysis failed", zap.Error(err))
	case outcome == nil:
		log.Debug("stale delivery dropped")
	default:
		log.Info("analysis completed",
			zap.String("record_id", outcome.RecordID),
			zap.Float64("overall_score", outcome.Result.OverallScore),
			zap.Int("attempts", outcome.Attempts),
		)
	}

	if err := d.Ack(false); err != nil {
		log.Warn("failed to ack message", zap.Error(err))
	}
}

func (w *WorkerConfig) worker(ctx context.Context, id int) error {
	log := w.Logger.With(zap.Int("worker", id))
	queue := w.Config.Queue.AnalysisQueue

	ch, err := w.RabbitConn.Channel()
	if err != nil {
		return fmt.Errorf("error connecting to rabbitmq channel: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := ch.Consume(
		queue,
		fmt.Sprintf("resumeworker-%d", id),
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("error consuming rabbitmq messages: %w", err)
	}

	log.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info("worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			// A started analysis runs to completion even during shutdown.
			handleDelivery(context.WithoutCancel(ctx), w.Orchestrator, d, log)
		}
	}
}

func (w *WorkerConfig) StartConsumerWorkerPool(ctx context.Context, numWorkers int) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := range numWorkers {
		g.Go(func() error {
			return w.worker(ctx, i+1)
		})
	}
	return g.Wait()
}
