package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/glebarez/sqlite"

	"github.com/drabenstadtj/bgman/pkg/catalog"
	"github.com/drabenstadtj/bgman/pkg/config"
	"github.com/drabenstadtj/bgman/pkg/discord"
	"github.com/drabenstadtj/bgman/pkg/metrics"
	"github.com/drabenstadtj/bgman/pkg/model"
	"github.com/drabenstadtj/bgman/pkg/store"
)

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("unknown log level %q, using info", cfg.LogLevel)
	}

	db := initDB(cfg)
	st := store.New(db, log)

	m := metrics.New()
	go func() {
		log.Infof("metrics listening on %s", cfg.MetricsAddr)
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Warnf("metrics server stopped: %v", err)
		}
	}()

	cache := initCache(cfg)
	cat := catalog.NewClient(cfg.BGGBaseURL, cfg.BGGTimeout, cache, m, log)

	bot, err := discord.New(discord.Options{
		Token:          cfg.DiscordToken,
		GuildID:        cfg.GuildID,
		SelectTimeout:  cfg.SelectTimeout,
		ConfirmTimeout: cfg.ConfirmTimeout,
		PagingTimeout:  cfg.PagingTimeout,
	}, st, cat, m, log)
	if err != nil {
		log.Fatalf("failed to build bot: %v", err)
	}

	if err := bot.Start(); err != nil {
		log.Fatalf("failed to start bot: %v", err)
	}
	log.Info("bot is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	log.Info("Gracefully shutting down...")

	if err := bot.Close(); err != nil {
		log.Warnf("failed to close bot: %v", err)
	}
}

func initDB(cfg config.Config) *gorm.DB {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DBDSN)
	default:
		dialector = sqlite.Open(cfg.DBDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	log.Infof("connected to database (%s)", cfg.DBDriver)
	return db
}

func initCache(cfg config.Config) catalog.DetailsCache {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, using in-process details cache")
		return catalog.NewMemoryCache(cfg.DetailsCacheTTL)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warnf("failed to connect to redis, using in-process details cache: %v", err)
		return catalog.NewMemoryCache(cfg.DetailsCacheTTL)
	}

	log.Info("connected to redis")
	return catalog.NewRedisCache(rdb, cfg.DetailsCacheTTL, log)
}
