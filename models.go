package main

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/muhammadolammi/resumeworker/internal/analysisstore"
	"github.com/muhammadolammi/resumeworker/internal/config"
	"github.com/muhammadolammi/resumeworker/internal/database"
	"github.com/muhammadolammi/resumeworker/internal/pipeline"
	"github.com/muhammadolammi/resumeworker/internal/service"
)

// WorkerConfig is everything a command needs once the environment is wired.
type WorkerConfig struct {
	Config *config.Config
	Logger *zap.Logger

	DB         *sql.DB
	Store      *database.Store
	Analyses   analysisstore.Store
	RabbitConn *amqp.Connection
	Publisher  *Publisher

	Orchestrator *pipeline.Orchestrator
	Service      *service.Service
}

// AnalysisMessage is the body of a message on the analysis queue.
type AnalysisMessage struct {
	ResumeID uuid.UUID `json:"resume_id"`
}

// StatusUpdate is published to the status exchange on every transition.
type StatusUpdate struct {
	ResumeID  uuid.UUID `json:"resume_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
