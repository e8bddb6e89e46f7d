package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"

	"docverify/internal/decision"
	decisionmetrics "docverify/internal/decision/metrics"
	jwttoken "docverify/internal/jwt_token"
	"docverify/internal/platform/config"
	"docverify/internal/platform/kafka"
	"docverify/internal/platform/metrics"
	"docverify/internal/platform/postgres"
	platformredis "docverify/internal/platform/redis"
	httptransport "docverify/internal/transport/http"
	"docverify/internal/verification/analyzers/imagemetrics"
	"docverify/internal/verification/analyzers/remote"
	"docverify/internal/verification/checkrun"
	"docverify/internal/verification/document"
	"docverify/internal/verification/face"
	"docverify/internal/verification/handler"
	"docverify/internal/verification/integrity"
	vmetrics "docverify/internal/verification/metrics"
	"docverify/internal/verification/ports"
	"docverify/internal/verification/retention"
	"docverify/internal/verification/revalidation"
	"docverify/internal/verification/service"
	"docverify/internal/verification/store/account"
	"docverify/internal/verification/store/files"
	"docverify/internal/verification/store/lock"
	"docverify/internal/verification/store/record"
	"docverify/internal/verification/store/schedule"
	"docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/publishers/compliance"
	"docverify/pkg/platform/audit/publishers/ops"
	"docverify/pkg/platform/audit/publishers/security"
	auditmemory "docverify/pkg/platform/audit/store/memory"
	auditpostgres "docverify/pkg/platform/audit/store/postgres"
	"docverify/pkg/platform/audit/worker"
	"docverify/pkg/platform/tx"
)

type application struct {
	router  http.Handler
	workers []func(ctx context.Context) error
	closers []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type persistence struct {
	records   ports.RecordStore
	accounts  ports.AccountStore
	schedules ports.ScheduleStore
	audit     audit.Store
	tx        ports.TxRunner
	outbox    *auditpostgres.Store
}

func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{}
	checks := map[string]httptransport.HealthCheck{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	verificationMetrics := vmetrics.New(reg)

	db, store, err := buildPersistence(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if db != nil {
		app.closers = append(app.closers, func() { _ = db.Close() })
		checks["postgres"] = db.PingContext
	}

	locker, err := buildLocker(ctx, cfg, log, app, checks)
	if err != nil {
		app.close()
		return nil, err
	}

	fileStore, err := buildFileStore(cfg)
	if err != nil {
		app.close()
		return nil, err
	}

	compliancePublisher := compliance.New(store.audit,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)
	securityPublisher := security.New(store.audit, security.WithLogger(log))
	app.closers = append(app.closers, func() { _ = securityPublisher.Close() })
	opsTracker := ops.New(store.audit,
		ops.WithLogger(log),
		ops.WithSampler(ops.NewSampler(cfg.Log.OpsSampleRate, nil)),
	)

	tracer := otel.Tracer("docverify/verification")
	runner := checkrun.New(cfg.Pipeline.MaxConcurrency, cfg.Pipeline.CheckTimeout,
		checkrun.WithObserver(verificationMetrics),
		checkrun.WithTracer(tracer),
	)
	docAnalyzers, faceAnalyzers, err := buildAnalyzers(cfg, log)
	if err != nil {
		app.close()
		return nil, err
	}

	vault, err := integrity.New(fileStore, locker,
		integrity.WithLogger(log),
		integrity.WithMetrics(verificationMetrics),
		integrity.WithSecurityPublisher(securityPublisher),
		integrity.WithOpsTracker(opsTracker),
	)
	if err != nil {
		app.close()
		return nil, err
	}

	svc, err := service.New(
		document.New(docAnalyzers, runner, cfg.Calibration.Document, document.WithLogger(log)),
		face.New(faceAnalyzers, runner, cfg.Calibration.Face, face.WithLogger(log)),
		vault,
		service.Stores{
			Records:    store.records,
			Accounts:   store.accounts,
			Schedules:  store.schedules,
			Tx:         store.tx,
			Compliance: compliancePublisher,
		},
		service.WithLogger(log),
		service.WithMetrics(verificationMetrics),
		service.WithOpsTracker(opsTracker),
		service.WithTracer(tracer),
		service.WithDecisionEngine(decision.NewEngine(
			decision.WithLogger(log),
			decision.WithMetrics(decisionmetrics.New(reg)),
		)),
		service.WithConfig(service.Config{
			MaxFileBytes:         cfg.Pipeline.MaxFileBytes,
			RetentionWindow:      cfg.Retention.Window,
			RevalidationWarnDays: cfg.Retention.RevalidationWarnDays,
		}),
	)
	if err != nil {
		app.close()
		return nil, err
	}

	if err := addWorkers(ctx, cfg, log, app, store, fileStore, locker, compliancePublisher, opsTracker, verificationMetrics, checks); err != nil {
		app.close()
		return nil, err
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	app.router = httptransport.NewRouter(
		handler.New(svc, handler.WithLogger(log), handler.WithMaxUploadBytes(cfg.Server.MaxUploadBytes)),
		httptransport.Config{
			Logger:         log,
			Gatherer:       reg,
			HTTPMetrics:    metrics.NewHTTP(reg),
			TokenValidator: jwttoken.NewServiceTokenValidator(jwtService),
			HealthChecks:   checks,
		},
	)
	return app, nil
}

// buildPersistence selects postgres when a database URL is configured and
// in-memory stores otherwise.
func buildPersistence(ctx context.Context, cfg *config.Config, log *slog.Logger) (*sql.DB, persistence, error) {
	if cfg.Database.URL == "" {
		log.WarnContext(ctx, "no database configured, using in-memory stores")
		return nil, persistence{
			records:   record.NewInMemory(),
			accounts:  account.NewInMemory(),
			schedules: schedule.NewInMemory(),
			audit:     auditmemory.NewInMemoryStore(),
			tx:        tx.NewLocalRunner(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, persistence{}, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, persistence{}, err
	}
	outbox := auditpostgres.New(db)
	return db, persistence{
		records:   record.NewPostgres(db),
		accounts:  account.NewPostgres(db),
		schedules: schedule.NewPostgres(db),
		audit:     outbox,
		tx:        tx.NewSQLRunner(db, cfg.Database.TxTimeout),
		outbox:    outbox,
	}, nil
}

func buildLocker(ctx context.Context, cfg *config.Config, log *slog.Logger, app *application, checks map[string]httptransport.HealthCheck) (ports.Locker, error) {
	client, err := platformredis.Open(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return lock.NewInMemory(), nil
	}
	app.closers = append(app.closers, func() { _ = client.Close() })
	checks["redis"] = platformredis.HealthCheck(client)
	return lock.NewRedis(client, cfg.Redis.LockTTL, lock.WithLogger(log)), nil
}

func buildFileStore(cfg *config.Config) (ports.FileStore, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return files.NewS3(cfg.Storage.S3)
	case "local":
		return files.NewLocal(cfg.Storage.BasePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// buildAnalyzers uses the remote ML service when configured. Image quality
// is always measured locally.
func buildAnalyzers(cfg *config.Config, log *slog.Logger) (document.Analyzers, face.Analyzers, error) {
	var docs document.Analyzers
	var faces face.Analyzers
	if cfg.Analyzers.RemoteURL == "" {
		log.Warn("no analyzer service configured, analysis checks will fail into manual review")
		docs, faces = remote.Unavailable{}.DocumentAnalyzers(), remote.Unavailable{}.FaceAnalyzers()
	} else {
		client, err := remote.New(cfg.Analyzers, remote.WithLogger(log))
		if err != nil {
			return docs, faces, err
		}
		docs, faces = client.DocumentAnalyzers(), client.FaceAnalyzers()
	}
	docs.Quality = imagemetrics.New()
	return docs, faces, nil
}

func addWorkers(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	app *application,
	store persistence,
	fileStore ports.FileStore,
	locker ports.Locker,
	compliancePublisher ports.CompliancePublisher,
	opsTracker ports.OpsTracker,
	m *vmetrics.Metrics,
	checks map[string]httptransport.HealthCheck,
) error {
	if cfg.Retention.SweepEnabled {
		sweeper, err := retention.NewSweeper(store.schedules, fileStore, locker, store.tx, compliancePublisher,
			retention.WithLogger(log),
			retention.WithMetrics(m),
			retention.WithInterval(cfg.Retention.SweepInterval),
		)
		if err != nil {
			return err
		}
		app.workers = append(app.workers, sweeper.Run)
	}

	if cfg.Retention.RevalidationEnabled {
		job, err := revalidation.NewJob(store.accounts, opsTracker,
			revalidation.WithLogger(log),
			revalidation.WithWarnDays(cfg.Retention.RevalidationWarnDays),
			revalidation.WithInterval(cfg.Retention.RevalidationInterval),
		)
		if err != nil {
			return err
		}
		app.workers = append(app.workers, job.Run)
	}

	if store.outbox == nil {
		return nil
	}
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return err
	}
	if producer == nil {
		log.WarnContext(ctx, "no kafka brokers configured, audit outbox will not be relayed")
		return nil
	}
	app.closers = append(app.closers, producer.Close)
	checks["kafka"] = producer.Ping

	topics := make([]string, 0, 3)
	for _, c := range []audit.EventCategory{audit.CategoryCompliance, audit.CategorySecurity, audit.CategoryOperations} {
		topics = append(topics, worker.TopicFor(cfg.Kafka.TopicPrefix, c))
	}
	if err := producer.EnsureTopics(ctx, cfg.Kafka.Partitions, cfg.Kafka.Replication, topics...); err != nil {
		return err
	}
	relay := worker.NewRelay(store.outbox, producer, store.tx, cfg.Kafka.TopicPrefix,
		worker.WithLogger(log),
		worker.WithBatchSize(cfg.Kafka.RelayBatch),
		worker.WithInterval(cfg.Kafka.RelayInterval),
	)
	app.workers = append(app.workers, relay.Run)
	return nil
}
