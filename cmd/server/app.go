package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"merenda/internal/audit"
	auditmetrics "merenda/internal/audit/metrics"
	"merenda/internal/audit/outbox"
	auditstore "merenda/internal/audit/store"
	"merenda/internal/calendar"
	calstore "merenda/internal/calendar/store"
	"merenda/internal/directory"
	dirstore "merenda/internal/directory/store"
	jwttoken "merenda/internal/jwt_token"
	"merenda/internal/notification"
	"merenda/internal/notification/email"
	notifmetrics "merenda/internal/notification/metrics"
	notifstore "merenda/internal/notification/store"
	"merenda/internal/platform/config"
	"merenda/internal/platform/kafka"
	"merenda/internal/platform/metrics"
	"merenda/internal/platform/postgres"
	platformredis "merenda/internal/platform/redis"
	reqmetrics "merenda/internal/request/metrics"
	"merenda/internal/request/service"
	reqstore "merenda/internal/request/store"
	httptransport "merenda/internal/transport/http"
	"merenda/internal/workflow/catalog"
	wfmetrics "merenda/internal/workflow/metrics"
	"merenda/pkg/platform/circuit"
	"merenda/pkg/platform/tx"
)

const tokenAudience = "merenda-api"

// stores groups the persistence backends of one process: postgres when a
// DSN is configured, in-memory otherwise.
type stores struct {
	directory     directory.Store
	calendar      calendar.SuspensionStore
	requests      service.Store
	audit         audit.Store
	notifications notification.Store
	outbox        outbox.Store
	runner        tx.Runner
}

type app struct {
	router      http.Handler
	emails      *email.Worker
	relay       *outbox.Relay
	persistence string
	closers     []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{persistence: "memory"}
	reg := metrics.NewRegistry()
	health := map[string]httptransport.HealthCheck{}

	var (
		db  *sql.DB
		err error
	)
	if cfg.Database.DSN != "" {
		db, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db, log); err != nil {
				a.close()
				return nil, err
			}
		}
		a.persistence = "postgres"
		health["database"] = db.PingContext
	}
	st := newStores(db, cfg.Database)

	queue, source, err := buildQueue(ctx, cfg, a, health)
	if err != nil {
		a.close()
		return nil, err
	}

	dir := directory.NewService(st.directory)
	cal := calendar.New(calendar.Config{Location: cfg.Calendar.Location()}, st.calendar)
	trail := audit.NewTrail(st.audit, audit.WithLogger(log))

	renderer, err := notification.NewTemplateRenderer()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	nm := notifmetrics.New(reg)
	dispatcher := notification.NewDispatcher(notification.Config{
		BaseURL:       cfg.Notifier.BaseURL,
		SubjectPrefix: cfg.Notifier.SubjectPrefix,
	}, st.notifications, queue, renderer, dir,
		notification.WithLogger(log),
		notification.WithMetrics(nm),
	)
	a.emails = email.NewWorker(source, buildMailer(cfg.Notifier, log),
		email.WithLogger(log),
		email.WithMetrics(nm),
		email.WithConcurrency(cfg.Notifier.Workers),
	)

	cat, err := catalog.New(catalog.Deps{
		Calendar:  cal,
		Directory: dir,
		Trail:     trail,
		Notifier:  dispatcher,
		Parents:   service.ParentLookup(st.requests),
		Policy: catalog.Policy{
			CancellationLeadDays: cfg.Calendar.CancellationLeadDays,
			ExemptMotives:        cfg.Calendar.ExemptMotives,
		},
		Logger:  log,
		Metrics: wfmetrics.New(reg),
	})
	if err != nil {
		a.close()
		return nil, err
	}

	requests := service.New(st.requests, cat, trail,
		service.WithLogger(log),
		service.WithMetrics(reqmetrics.New(reg)),
		service.WithTxRunner(st.runner),
	)

	if st.outbox != nil {
		producer, err := kafka.New(ctx, cfg.Kafka)
		if err != nil {
			a.close()
			return nil, err
		}
		if producer != nil {
			a.closers = append(a.closers, producer.Close)
			if err := producer.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
				a.close()
				return nil, err
			}
			health["kafka"] = producer.Health
			a.relay = outbox.NewRelay(st.outbox, producer,
				outbox.WithLogger(log),
				outbox.WithMetrics(auditmetrics.New(reg)),
				outbox.WithInterval(cfg.Outbox.Interval),
				outbox.WithBatchSize(cfg.Outbox.BatchSize),
			)
		}
	}

	a.router = httptransport.NewRouter(httptransport.RouterConfig{
		Requests:      httptransport.NewRequestHandler(requests, cat, log),
		Workflows:     httptransport.NewWorkflowHandler(cat),
		Notifications: httptransport.NewNotificationHandler(dispatcher, log),
		Validator:     jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, tokenAudience),
		Metrics:       metrics.Handler(reg),
		Health:        health,
		Logger:        log,
	})
	return a, nil
}

func newStores(db *sql.DB, cfg config.Database) stores {
	if db == nil {
		return stores{
			directory:     dirstore.NewInMemory(),
			calendar:      calstore.NewInMemory(),
			requests:      reqstore.NewInMemory(),
			audit:         auditstore.NewInMemory(),
			notifications: notifstore.NewInMemory(),
			runner:        tx.LocalRunner{},
		}
	}
	return stores{
		directory:     dirstore.NewPostgres(db),
		calendar:      calstore.NewPostgres(db),
		requests:      reqstore.NewPostgres(db),
		audit:         auditstore.NewPostgres(db),
		notifications: notifstore.NewPostgres(db),
		outbox:        outbox.NewPostgres(db),
		runner:        tx.NewSQLRunner(db, cfg.TxTimeout),
	}
}

// buildQueue returns the email queue seen by the dispatcher and the source
// drained by the workers; both are the same backend.
func buildQueue(ctx context.Context, cfg config.Config, a *app, health map[string]httptransport.HealthCheck) (notification.EmailQueue, email.Source, error) {
	if cfg.Notifier.Queue != "redis" {
		q := email.NewChannelQueue(cfg.Notifier.QueueSize)
		return q, q, nil
	}
	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	health["redis"] = client.Health
	q := email.NewRedisQueue(client.Client, cfg.Notifier.QueueKey, 0)
	return q, q, nil
}

// buildMailer sends through SMTP behind a circuit breaker when a relay is
// configured; the log mailer is the fallback and the development default.
func buildMailer(cfg config.Notifier, log *slog.Logger) email.Mailer {
	logMailer := email.NewLogMailer(log)
	if cfg.SMTPAddr == "" {
		return logMailer
	}
	smtpMailer := email.NewSMTPMailer(email.SMTPConfig{
		Addr:     cfg.SMTPAddr,
		From:     cfg.From,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})
	return email.NewBreakerMailer(smtpMailer, logMailer, circuit.New("smtp"), log)
}
