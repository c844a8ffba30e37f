package deps

import (
	"context"
	"fmt"
	"setpass/internal/config"
	"setpass/internal/core/domain/identity"
	dl "setpass/internal/core/domain/logging"
	dm "setpass/internal/core/domain/metrics"
	"setpass/internal/core/domain/token"
	duow "setpass/internal/core/domain/unit_of_work"
	"setpass/internal/db"
	uow "setpass/internal/db/unit_of_work"
	"setpass/internal/http/handlers/healthz"
	"setpass/internal/implementations/keystone"
	"setpass/internal/implementations/logging"
	"setpass/internal/implementations/metrics"
	passwordsealer "setpass/internal/implementations/password_sealer"
	pinhasher "setpass/internal/implementations/pin_hasher"
	tokengenerator "setpass/internal/implementations/token_generator"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Deps struct {
	Config *config.Config
	Logger dl.Logger

	DB            *pgxpool.Pool
	HealthChecker healthz.Pinger
	Registry      *prometheus.Registry

	Now func() time.Time

	UnitOfWork duow.UnitOfWork

	TokenGenerator      token.Generator
	PinHasher           token.PinHasher
	PasswordSealer      token.PasswordSealer
	PasswordChanger     identity.PasswordChanger
	AdminTokenValidator identity.AdminTokenValidator

	MetricsRecorder dm.Recorder
}

func InitDeps() (*Deps, func()) {
	deps := &Deps{}

	deps.initConfig()

	closeLogger := deps.initLogger()
	flushSentry := deps.initSentry()
	deps.applyMigrations()
	closePgxPool := deps.initPgxPool()

	deps.Now = func() time.Time { return time.Now().UTC() }
	deps.UnitOfWork = uow.NewPgxUnitOfWork(deps.DB)
	deps.HealthChecker = deps.DB

	deps.TokenGenerator = tokengenerator.NewUUID()
	deps.PinHasher = pinhasher.NewHMAC(deps.Config.Secret)
	deps.PasswordSealer = passwordsealer.NewSecretbox(deps.Config.Secret)

	identityProvider := keystone.New(
		*deps.Config.AuthURL(),
		deps.Config.AdminProjectName,
		deps.Config.AdminProjectDomainID,
		deps.Config.IdentityProviderTimeout,
	)
	deps.PasswordChanger = identityProvider
	deps.AdminTokenValidator = identityProvider

	deps.initMetrics()

	return deps, func() {
		closeFuncs := []func(){
			closePgxPool,
			closeLogger,
			flushSentry,
		}

		var wg sync.WaitGroup
		wg.Add(len(closeFuncs))
		for _, closeFunc := range closeFuncs {
			closeFunc := closeFunc
			go func() {
				closeFunc()
				wg.Done()
			}()
		}

		wg.Wait()
	}
}

func (deps *Deps) initConfig() {
	config, err := config.Load()
	if err != nil {
		panic(err)
	}
	deps.Config = config
}

func (deps *Deps) initLogger() func() {
	logger := logging.NewZapLogger(deps.Config.IsDebug)
	deps.Logger = logger
	return func() { logger.Sync() }
}

func (deps *Deps) initSentry() func() {
	if deps.Config.SentryDsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              deps.Config.SentryDsn,
			TracesSampleRate: 0.01,
		})
		if err != nil {
			panic(fmt.Sprintf("could not init Sentry: %v\n", err))
		}
		deps.Logger = logging.NewSentryLogger(deps.Logger, sentry.CurrentHub())
		deps.Logger.Info(context.Background(), "Sentry has been successfully initialized.")
		return func() {
			ok := sentry.Flush(5 * time.Second)
			deps.Logger.Info(context.Background(), "Sentry events flushed.", dl.Entry("ok", ok))
		}
	}

	deps.Logger.Info(context.Background(), "Sentry is disabled.")
	return func() {}
}

func (deps *Deps) applyMigrations() {
	if deps.Config.MigrationsPath == "" {
		deps.Logger.Info(context.Background(), "Migrations path is not set, skipping migrations.")
		return
	}
	if err := db.ApplyMigrations(deps.Config.MigrationsPath, deps.Config.PostgresqlURL); err != nil {
		deps.Logger.Error(context.Background(), "Could not apply DB migrations.", dl.Entry("err", err))
		panic(err)
	}
	deps.Logger.Info(context.Background(), "DB migrations applied.", dl.Entry("path", deps.Config.MigrationsPath))
}

func (deps *Deps) initPgxPool() func() {
	db, err := pgxpool.Connect(context.Background(), deps.Config.PostgresqlURL)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to DB.", dl.Entry("err", err))
		panic(err)
	}
	deps.DB = db
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down DB connection.")
		db.Close()
		deps.Logger.Info(context.Background(), "DB connection shut down.")
	}
}

func (deps *Deps) initMetrics() {
	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.MetricsRecorder = metrics.NewPrometheus(deps.Registry)
}
