package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"financechain"
	"financechain/pkg/cache"
	"financechain/pkg/events"
	"financechain/pkg/handler"
	"financechain/pkg/metrics"
	"financechain/pkg/notify"
	"financechain/pkg/repository"
	"financechain/pkg/service"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))
	logrus.Infoln("starting ledger server")
	if err := godotenv.Load(); err != nil {
		logrus.Infof("no .env loaded: %s", err)
	}

	if err := InitConfig(); err != nil {
		logrus.Fatalf("failed to read config .yaml: %s", err.Error())
	}
	logrus.Infoln("config loaded")

	ctx := context.Background()
	repos := initRepository()
	m := metrics.NewMetrics(nil)

	publisher := initPublisher()
	defer publisher.Close()

	svc := service.NewService(repos, service.Deps{
		Cache:     initCache(ctx),
		Publisher: publisher,
		Notifier:  initNotifier(),
		Metrics:   m,
	})

	if _, err := svc.Seed(ctx, service.SeedOptions{
		File:   viper.GetString("ledger.seed_file"),
		Sample: viper.GetBool("ledger.seed_sample") || os.Getenv("SEED_SAMPLE") == "1",
	}); err != nil {
		logrus.Errorf("failed to seed ledger: %s", err)
	}

	handlers := handler.NewHandler(svc, m)

	port := os.Getenv("PORT")
	if port == "" {
		port = viper.GetString("port")
	}

	srv := new(financechain.Server)
	go func() {
		if err := srv.Run(port, handlers.InitRoute(viper.GetStringSlice("cors.allow_origins"))); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("failed to run server: %s", err)
		}
	}()
	logrus.Infof("ledger server listening on %s", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Infoln("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("server shutdown: %s", err)
	}
}

func InitConfig() error {
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

func initRepository() *repository.Repository {
	if !viper.GetBool("db.enabled") {
		logrus.Warn("database disabled, keeping the ledger in memory")
		return repository.NewMemoryRepository()
	}

	db, err := repository.NewPostgresDB(repository.Config{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: os.Getenv("DB_PASS_LOCAL"),
		DBName:   viper.GetString("db.dbname"),
		SSLMode:  viper.GetString("db.sslmode"),
	})
	if err != nil {
		logrus.Fatalf("failed to connect to database: %s", err.Error())
	}
	if err := repository.Migrate(db); err != nil {
		logrus.Fatalf("failed to migrate database: %s", err.Error())
	}
	logrus.Info("database connected")
	return repository.NewRepository(db)
}

func initCache(ctx context.Context) cache.Cache {
	ttl := viper.GetDuration("cache.ttl")
	url := viper.GetString("cache.redis_url")
	if url == "" {
		return cache.NewMemory(ttl)
	}
	c, err := cache.NewRedis(ctx, url, ttl)
	if err != nil {
		logrus.Warnf("redis unavailable, using memory cache: %s", err)
		return cache.NewMemory(ttl)
	}
	return c
}

func initPublisher() events.Publisher {
	url := viper.GetString("nats.url")
	if url == "" {
		return events.Noop{}
	}
	p, err := events.NewNATSPublisher(url)
	if err != nil {
		logrus.Warnf("nats unavailable, block events disabled: %s", err)
		return events.Noop{}
	}
	return p
}

func initNotifier() notify.Notifier {
	from := notify.Address{Email: viper.GetString("notify.from"), Name: viper.GetString("notify.from_name")}
	to := notify.Address{Email: viper.GetString("notify.to")}

	switch viper.GetString("notify.provider") {
	case "mailjet":
		apiKey, secretKey := os.Getenv("MAILJET_API_KEY"), os.Getenv("MAILJET_SECRET_KEY")
		if apiKey == "" || secretKey == "" {
			logrus.Warn("MAILJET_API_KEY or MAILJET_SECRET_KEY not set, payment mail disabled")
			return notify.Noop{}
		}
		return notify.NewMailjet(apiKey, secretKey, from, to)
	case "smtp":
		return notify.NewSMTP(
			viper.GetString("notify.smtp_host"),
			viper.GetInt("notify.smtp_port"),
			viper.GetString("notify.smtp_username"),
			os.Getenv("SMTP_PASSWORD"),
			from.Email,
			to.Email,
		)
	default:
		return notify.Noop{}
	}
}
