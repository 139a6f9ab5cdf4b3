package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/muhammadolammi/resumeworker/internal/ai"
	"github.com/muhammadolammi/resumeworker/internal/analysisstore"
	"github.com/muhammadolammi/resumeworker/internal/blob"
	"github.com/muhammadolammi/resumeworker/internal/config"
	"github.com/muhammadolammi/resumeworker/internal/database"
	"github.com/muhammadolammi/resumeworker/internal/extract"
	"github.com/muhammadolammi/resumeworker/internal/pipeline"
	"github.com/muhammadolammi/resumeworker/internal/scoring"
	"github.com/muhammadolammi/resumeworker/internal/service"
	"github.com/muhammadolammi/resumeworker/internal/textanalysis"
)

type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends analysis requests to the work queue and status updates to the
// topic exchange. It opens a short-lived channel per publish.
type Publisher struct {
	open     func() (amqpChannel, error)
	queue    string
	exchange string
	logger   *zap.Logger
	now      func() time.Time
}

func NewPublisher(conn *amqp.Connection, queue, exchange string, logger *zap.Logger) *Publisher {
	return &Publisher{
		open: func() (amqpChannel, error) {
			ch, err := conn.Channel()
			if err != nil {
				return nil, err
			}
			return ch, nil
		},
		queue:    queue,
		exchange: exchange,
		logger:   logger.Named("publisher"),
		now:      time.Now,
	}
}

func (p *Publisher) PublishAnalysis(_ context.Context, resumeID uuid.UUID) error {
	ch, err := p.open()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(AnalysisMessage{ResumeID: resumeID})
	if err != nil {
		return err
	}
	return ch.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// NotifyStatus publishes to routing key resume.<id>. Failures are logged only.
func (p *Publisher) NotifyStatus(_ context.Context, resumeID uuid.UUID, status, message string) {
	if err := p.publishUpdate(resumeID, status, message); err != nil {
		p.logger.Warn("failed to publish status update",
			zap.Stringer("resume_id", resumeID),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}

func (p *Publisher) publishUpdate(resumeID uuid.UUID, status, message string) error {
	ch, err := p.open()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(StatusUpdate{
		ResumeID:  resumeID,
		Status:    status,
		Message:   message,
		Timestamp: p.now().UTC(),
	})
	if err != nil {
		return err
	}
	return ch.Publish(p.exchange, fmt.Sprintf("resume.%s", resumeID), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func parseAnalysisMessage(body []byte) (AnalysisMessage, error) {
	var msg AnalysisMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("invalid analysis message: %w", err)
	}
	if msg.ResumeID == uuid.Nil {
		return msg, fmt.Errorf("invalid analysis message: missing resume_id")
	}
	return msg, nil
}

func newFileSource(ctx context.Context, cfg config.FilesConfig) (blob.Source, error) {
	switch cfg.Source {
	case config.SourceR2:
		return blob.NewR2Source(ctx, cfg.R2.AccountID, cfg.R2.Bucket, cfg.R2.AccessKey, cfg.R2.SecretKey)
	case config.SourceLocal:
		return blob.NewLocalSource(cfg.MediaRoot), nil
	default:
		return nil, fmt.Errorf("unknown file source %q", cfg.Source)
	}
}

// newScorers returns the pipeline scorer and the reviewer used for on-demand AI
// analysis. The reviewer is nil when AI is disabled.
func newScorers(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (scoring.Scorer, scoring.Scorer, error) {
	if !cfg.Enabled {
		return scoring.New(nil, "", 0, logger), nil, nil
	}
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("USE_AI_ANALYSIS is set but GOOGLE_API_KEY is empty")
	}

	agent, err := ai.NewAgent(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create agent: %w", err)
	}
	reviewer := scoring.NewAIScorer(agent, agent.Model(), cfg.Timeout, logger)
	return scoring.New(agent, agent.Model(), cfg.Timeout, logger), reviewer, nil
}

// setup wires every dependency. withQueue dials RabbitMQ; without it analyses run
// inline and status updates are only logged.
func setup(ctx context.Context, cfg *config.Config, logger *zap.Logger, withQueue bool) (*WorkerConfig, error) {
	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("error opening db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error connecting to db: %w", err)
	}

	w := &WorkerConfig{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Store:  database.NewStore(db),
	}

	w.Analyses, err = analysisstore.Open(ctx, cfg.Store, db)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("error opening analysis store: %w", err)
	}

	files, err := newFileSource(ctx, cfg.Files)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("error creating file source: %w", err)
	}

	scorer, reviewer, err := newScorers(ctx, cfg.AI, logger)
	if err != nil {
		w.Close()
		return nil, err
	}

	deps := pipeline.Deps{
		Repo:      w.Store,
		Files:     files,
		Extractor: extract.New(logger, extract.WithTimeout(cfg.Pipeline.ExtractTimeout)),
		Analyzer: textanalysis.New(textanalysis.Keywords{
			Education:  cfg.Sections.Education,
			Experience: cfg.Sections.Experience,
			Skills:     cfg.Sections.Skills,
		}),
		Scorer:   scorer,
		Store:    w.Analyses,
		Notifier: logNotifier{logger: logger.Named("status")},
	}

	if withQueue {
		if err := cfg.RequireQueue(); err != nil {
			w.Close()
			return nil, err
		}
		w.RabbitConn, err = amqp.Dial(cfg.RabbitMQUrl)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
		}
		w.Publisher = NewPublisher(w.RabbitConn, cfg.Queue.AnalysisQueue, cfg.Queue.StatusExchange, logger)
		deps.Queue = w.Publisher
		deps.Notifier = w.Publisher
	}

	w.Orchestrator = pipeline.New(deps, logger,
		pipeline.WithRetry(cfg.Pipeline.MaxAttempts, cfg.Pipeline.RetryDelay))
	w.Service = service.New(w.Store, w.Analyses, files, w.Orchestrator, reviewer, logger)
	return w, nil
}

func (w *WorkerConfig) Close() {
	if w.RabbitConn != nil {
		_ = w.RabbitConn.Close()
	}
	if w.Analyses != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.Analyses.Close(ctx); err != nil {
			w.Logger.Warn("failed to close analysis store", zap.Error(err))
		}
	}
	if w.DB != nil {
		_ = w.DB.Close()
	}
}

// logNotifier stands in for the status exchange when no broker is configured.
type logNotifier struct {
	logger *zap.Logger
}

func (n logNotifier) NotifyStatus(_ context.Context, resumeID uuid.UUID, status, message string) {
	n.logger.Info(message, zap.Stringer("resume_id", resumeID), zap.String("status", status))
}
