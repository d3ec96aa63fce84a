// Package app builds the service's dependency graph from configuration.
package app

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"

	"github.com/sttalk999/sttalk/config"
	entityrepo "github.com/sttalk999/sttalk/internal/repositories/entity"
	investorrepo "github.com/sttalk999/sttalk/internal/repositories/investor"
	matchrepo "github.com/sttalk999/sttalk/internal/repositories/match"
	"github.com/sttalk999/sttalk/pkg/categories"
	"github.com/sttalk999/sttalk/pkg/database"
	"github.com/sttalk999/sttalk/pkg/events"
	"github.com/sttalk999/sttalk/pkg/graph"
	"github.com/sttalk999/sttalk/pkg/kafka"
	"github.com/sttalk999/sttalk/pkg/lifecycle"
	"github.com/sttalk999/sttalk/pkg/matching"
	"github.com/sttalk999/sttalk/pkg/redis"
	"github.com/sttalk999/sttalk/pkg/routes/health"
	investorroutes "github.com/sttalk999/sttalk/pkg/routes/investor"
	"github.com/sttalk999/sttalk/pkg/startup"
	"github.com/sttalk999/sttalk/pkg/tracing"
)

const (
	depTracing  = "tracing"
	depDatabase = "database"
	depRedis    = "redis"
	depKafka    = "kafka"
	depGraph    = "graph"
	depServices = "services"
)

// App owns every long lived client. Services are only usable after Start.
type App struct {
	config  *config.Config
	logger  ectologger.Logger
	startup *startup.Startup

	rawDB    *sqlx.DB
	db       database.DB
	redis    *redis.Client
	producer *kafka.Producer
	graph    *graph.Client

	shutdownTracing func(context.Context) error

	Health    *health.Checker
	Investors investorroutes.Directory
	Ranker    *matching.Ranker
	Lifecycle *lifecycle.Manager
}

func New(cfg *config.Config, logger ectologger.Logger) *App {
	a := &App{
		config:  cfg,
		logger:  logger,
		startup: startup.NewStartup(logger, cfg.StartupMaxAttempts),
		Health:  health.NewChecker(cfg.Version),
	}

	var base []string
	if cfg.TracingEnabled {
		a.startup.AddDependency(startup.Func{
			Name:      depTracing,
			StartFunc: a.startTracing,
			StopFunc:  a.stopTracing,
		})
		base = []string{depTracing}
	}
	a.startup.AddDependency(startup.Func{
		Name:      depDatabase,
		Requires:  base,
		StartFunc: a.startDatabase,
		StopFunc:  a.stopDatabase,
	})

	requires := []string{depDatabase}
	if cfg.RedisEnabled {
		a.startup.AddDependency(startup.Func{Name: depRedis, Requires: base, StartFunc: a.startRedis, StopFunc: a.stopRedis})
		requires = append(requires, depRedis)
	}
	if cfg.KafkaEnabled {
		a.startup.AddDependency(startup.Func{Name: depKafka, Requires: base, StartFunc: a.startKafka, StopFunc: a.stopKafka})
		requires = append(requires, depKafka)
	}
	if cfg.GraphEnabled {
		a.startup.AddDependency(startup.Func{Name: depGraph, Requires: base, StartFunc: a.startGraph, StopFunc: a.stopGraph})
		requires = append(requires, depGraph)
	}

	a.startup.AddDependency(startup.Func{
		Name:      depServices,
		Requires:  requires,
		StartFunc: a.buildServices,
	})
	return a
}

func (a *App) Start(ctx context.Context) error {
	return a.startup.Start(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	a.Health.SetReady(false)
	return a.startup.Stop(ctx)
}

func (a *App) startTracing(ctx context.Context) error {
	shutdown, err := tracing.Setup(ctx, a.config.AppName, tracing.OTLPConfig{
		Endpoint: a.config.OTLPEndpoint,
		Protocol: a.config.OTLPProtocol,
		Insecure: a.config.OTLPInsecure,
		Timeout:  a.config.OTLPTimeout,
	})
	if err != nil {
		return err
	}
	a.shutdownTracing = shutdown
	return nil
}

func (a *App) stopTracing(ctx context.Context) error {
	if a.shutdownTracing == nil {
		return nil
	}
	return a.shutdownTracing(ctx)
}

func (a *App) connectionConfig() database.ConnectionConfig {
	return database.ConnectionConfig{
		Driver:          a.config.DatabaseDriver,
		Host:            a.config.DatabaseHost,
		Port:            a.config.DatabasePort,
		User:            a.config.DatabaseUserName,
		Password:        a.config.DatabasePassword,
		Name:            a.config.DatabaseName,
		SSLMode:         a.config.DatabaseSSLMode,
		MaxOpenConns:    a.config.DatabaseMaxOpenConns,
		MaxIdleConns:    a.config.DatabaseMaxIdleConns,
		ConnMaxLifetime: a.config.DatabaseConnMaxLifetime,
	}
}

func (a *App) startDatabase(ctx context.Context) error {
	raw, err := database.Connect(ctx, a.connectionConfig())
	if err != nil {
		return err
	}

	if a.config.DatabaseMigrateOnStart {
		if err := a.migrate(raw); err != nil {
			_ = raw.Close()
			return err
		}
	}

	a.rawDB = raw
	a.db = database.NewDatabaseInstance(raw, a.logger)
	a.Health.AddCheck(depDatabase, a.db.PingContext)
	a.logger.Infof("Connected to database %s at %s:%s", a.config.DatabaseName, a.config.DatabaseHost, a.config.DatabasePort)
	return nil
}

func (a *App) stopDatabase(context.Context) error {
	if a.rawDB == nil {
		return nil
	}
	return a.rawDB.Close()
}

func (a *App) migrate(raw *sqlx.DB) error {
	migrations := database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.config.DatabaseMigrationFolderPath,
		Version:             uint(a.config.DatabaseMigrationVersion),
		Force:               a.config.DatabaseMigrationForce,
		AutoRollback:        a.config.DatabaseMigrationAutoRollback,
	})
	return migrations.Migrate(raw, a.config.DatabaseName)
}

// Migrate connects, applies the migrations and disconnects.
func (a *App) Migrate(ctx context.Context) error {
	raw, err := database.Connect(ctx, a.connectionConfig())
	if err != nil {
		return err
	}
	defer raw.Close()
	return a.migrate(raw)
}

func (a *App) startRedis(ctx context.Context) error {
	client, err := redis.NewClient(ctx, redis.Config{
		Host:     a.config.RedisHost,
		Port:     a.config.RedisPort,
		Password: a.config.RedisPassword,
		DB:       a.config.RedisDB,
	}, a.logger)
	if err != nil {
		return err
	}
	a.redis = client
	a.Health.AddCheck(depRedis, client.Ping)
	return nil
}

func (a *App) stopRedis(context.Context) error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Close()
}

func (a *App) startKafka(context.Context) error {
	a.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      a.config.KafkaBrokers,
		Topic:        a.config.KafkaOutputTopic,
		BatchSize:    a.config.KafkaBatchSize,
		BatchTimeout: time.Duration(a.config.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: a.config.KafkaRequiredAcks,
		Compression:  a.config.KafkaCompression,
	}, a.logger)
	a.logger.Infof("Publishing match events to %s", a.producer.Topic())
	return nil
}

func (a *App) stopKafka(context.Context) error {
	if a.producer == nil {
		return nil
	}
	return a.producer.Close()
}

func (a *App) startGraph(ctx context.Context) error {
	client, err := graph.NewClient(graph.Config{
		Host:     a.config.GraphDBHost,
		Port:     a.config.GraphDBPort,
		Username: a.config.GraphDBUser,
		Password: a.config.GraphDBPassword,
	}, a.logger)
	if err != nil {
		return err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return err
	}
	a.graph = client
	a.Health.AddCheck(depGraph, client.VerifyConnectivity)
	return nil
}

func (a *App) stopGraph(ctx context.Context) error {
	if a.graph == nil {
		return nil
	}
	return a.graph.Close(ctx)
}

// buildServices wires repositories, scoring and the lifecycle manager once
// every enabled dependency is up.
func (a *App) buildServices(context.Context) error {
	mapper, err := categories.LoadFile(a.config.CategoriesFile)
	if err != nil {
		return err
	}

	entities := entityrepo.NewRepository(a.db, a.logger)
	matches := matchrepo.NewRepository(a.db, a.logger)
	investors := investorrepo.NewRepository(a.db, a.logger)
	a.Investors = investors

	a.Ranker = matching.NewRanker(entities, investors, matches, matching.NewScorer(mapper), matching.RankerConfig{
		MinScore:      a.config.MatchMinScore,
		MaxCandidates: a.config.MatchMaxCandidates,
	}, a.logger)

	opts := []lifecycle.Option{}
	if a.producer != nil {
		opts = append(opts, lifecycle.WithObservers(events.NewEmitter(a.producer, a.logger)))
	}
	if a.graph != nil {
		opts = append(opts, lifecycle.WithObservers(graph.NewProjector(a.graph, a.logger)))
	}
	if a.redis != nil {
		opts = append(opts, lifecycle.WithLocker(redis.NewLocker(a.redis, "sttalk:")))
	}

	a.Lifecycle = lifecycle.NewManager(matches, a.Ranker, lifecycle.Config{
		AutoMatchLimit: a.config.AutoMatchLimit,
		LockTTL:        a.config.AutoMatchLockTTL(),
		RecentLimit:    a.config.MatchStatsRecentLimit,
	}, a.logger, opts...)
	return nil
}
