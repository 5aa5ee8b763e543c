package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/company"
	companyPostgres "github.com/frahmantamala/datascope/internal/company/postgres"
	"github.com/frahmantamala/datascope/internal/core/events"
	"github.com/frahmantamala/datascope/internal/lead"
	leadPostgres "github.com/frahmantamala/datascope/internal/lead/postgres"
	"github.com/frahmantamala/datascope/internal/notification"
	"github.com/frahmantamala/datascope/internal/notification/inmem"
	notificationPostgres "github.com/frahmantamala/datascope/internal/notification/postgres"
	"github.com/frahmantamala/datascope/internal/observability"
	"github.com/frahmantamala/datascope/internal/permission"
	permissionPostgres "github.com/frahmantamala/datascope/internal/permission/postgres"
	"github.com/frahmantamala/datascope/internal/raffle"
	rafflePostgres "github.com/frahmantamala/datascope/internal/raffle/postgres"
	"github.com/frahmantamala/datascope/internal/survey"
	surveyPostgres "github.com/frahmantamala/datascope/internal/survey/postgres"
	"github.com/frahmantamala/datascope/internal/user"
	userPostgres "github.com/frahmantamala/datascope/internal/user/postgres"
)

// Services is the wired domain layer shared by the server, worker and CLI commands.
type Services struct {
	Company      *company.Service
	Permission   *permission.Service
	Lead         *lead.Service
	Survey       *survey.Service
	Raffle       *raffle.Service
	User         *user.Service
	Notification *notification.Service
	Dispatcher   *notification.Dispatcher
	Bus          *events.EventBus
	Webhook      *notification.WebhookToaster
}

// initDB opens the pgx-backed pool shared by sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Open(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}

func initGorm(db *sqlx.DB, production bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if production {
		level = gormlogger.Error
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}

func initRedis(cfg internal.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func buildServices(cfg *internal.Config, db *sqlx.DB, gdb *gorm.DB, rdb *redis.Client, metrics *observability.Metrics, logger *slog.Logger) *Services {
	bus := events.NewEventBus(logger)

	companies := company.NewService(companyPostgres.NewCompanyRepository(gdb), logger)

	var cache permission.Cache = permission.NewMemoryCache()
	if cfg.Permissions.Cache == "redis" && rdb != nil {
		cache = permission.NewRedisCache(rdb)
	}
	permissions := permission.NewService(permissionPostgres.NewPermissionRepository(db), cache,
		permission.Options{TTL: cfg.Permissions.CacheTTL, LoadTimeout: cfg.Permissions.LoadTimeout}, logger)

	leads := lead.NewService(leadPostgres.NewLeadRepository(gdb), companies, bus, logger)
	surveys := survey.NewService(surveyPostgres.NewSurveyRepository(gdb), leads, logger)
	raffles := raffle.NewService(rafflePostgres.NewRaffleRepository(gdb), leads, logger)
	users := user.NewService(userPostgres.NewUserRepository(gdb), companies, permissions, logger)

	var store notification.Store
	if cfg.Notifications.Store == "postgres" {
		store = notificationPostgres.NewNotificationRepository(gdb)
	} else {
		store = inmem.NewStore(cfg.Notifications.MaxPerUser)
	}

	toasters := notification.Multi{notification.NewLogToaster(logger)}
	if rdb != nil {
		toasters = append(toasters, notification.NewRedisToaster(rdb, cfg.Notifications.ToastChannel))
	}
	var webhook *notification.WebhookToaster
	if cfg.Notifications.WebhookURL != "" {
		webhook = notification.NewWebhookToaster(notification.WebhookConfig{
			URL:       cfg.Notifications.WebhookURL,
			Workers:   cfg.Notifications.WebhookWorkers,
			QueueSize: cfg.Notifications.WebhookQueueSize,
			Timeout:   cfg.Notifications.WebhookTimeout,
		}, logger)
		toasters = append(toasters, webhook)
	}

	dispatcher := notification.NewDispatcher(store, toasters, companies, logger)
	if metrics != nil {
		dispatcher.WithRecorder(metrics)
		for _, eventType := range events.LeadEventTypes {
			bus.Subscribe(eventType, metrics.CountEvent)
		}
	}
	dispatcher.Register(bus)
	logger.Info("event bus ready", "subscribers", bus.Subscribers())

	return &Services{
		Company:      companies,
		Permission:   permissions,
		Lead:         leads,
		Survey:       surveys,
		Raffle:       raffles,
		User:         users,
		Notification: notification.NewService(store, cfg.Notifications.Retention, logger),
		Dispatcher:   dispatcher,
		Bus:          bus,
		Webhook:      webhook,
	}
}
