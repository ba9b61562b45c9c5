package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	config "github.com/davicafu/hexafilter/internal/config"
	chAnalytics "github.com/davicafu/hexafilter/internal/infra/analytics/clickhouse"
	mongoInfra "github.com/davicafu/hexafilter/internal/infra/db/mongodb"
	"github.com/davicafu/hexafilter/internal/infra/db/sqldb"
	infraEvents "github.com/davicafu/hexafilter/internal/infra/events"
	infraRelayer "github.com/davicafu/hexafilter/internal/infra/relayer"
	queryLogApp "github.com/davicafu/hexafilter/internal/querylog/application"
	queryLogHttp "github.com/davicafu/hexafilter/internal/querylog/infra/inbound/http"
	todoApp "github.com/davicafu/hexafilter/internal/todo/application"
	todoDomain "github.com/davicafu/hexafilter/internal/todo/domain"
	todoEvents "github.com/davicafu/hexafilter/internal/todo/infra/inbound/events"
	todoHttp "github.com/davicafu/hexafilter/internal/todo/infra/inbound/http"
	todoMemory "github.com/davicafu/hexafilter/internal/todo/infra/outbound/db/memory"
	todoMongo "github.com/davicafu/hexafilter/internal/todo/infra/outbound/db/mongodb"
	todoSQL "github.com/davicafu/hexafilter/internal/todo/infra/outbound/db/sqldb"
	userApp "github.com/davicafu/hexafilter/internal/user/application"
	userDomain "github.com/davicafu/hexafilter/internal/user/domain"
	userEvents "github.com/davicafu/hexafilter/internal/user/infra/inbound/events"
	userHttp "github.com/davicafu/hexafilter/internal/user/infra/inbound/http"
	userMemory "github.com/davicafu/hexafilter/internal/user/infra/outbound/db/memory"
	userMongo "github.com/davicafu/hexafilter/internal/user/infra/outbound/db/mongodb"
	userSQL "github.com/davicafu/hexafilter/internal/user/infra/outbound/db/sqldb"

	"github.com/davicafu/hexafilter/pkg/logger"
	"github.com/davicafu/hexafilter/pkg/middleware"
	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	sharedEvents "github.com/davicafu/hexafilter/shared/events"
	sharedBus "github.com/davicafu/hexafilter/shared/platform/bus"
	sharedCache "github.com/davicafu/hexafilter/shared/platform/cache"
	sharedMemory "github.com/davicafu/hexafilter/shared/platform/persistence/memory"
	"github.com/davicafu/hexafilter/shared/platform/querylog"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const consumerGroup = "hexafilter-cache"

// stores agrupa los repositorios de la base elegida.
type stores struct {
	users  userDomain.UserRepository
	todos  todoDomain.TodoRepository
	outbox sharedDomain.OutboxRepository
	close  func()
}

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.LogLevel) // inicializa zap
	log := logger.Logger()    // obtiene logger estructurado
	defer log.Sync()          // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- DB ----------------
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer st.close()

	// ---------------- Cache ----------------
	cacheInstance := buildCache(ctx, cfg, log)

	// ------------ Query log ------------
	queryStore, closeQueryStore := buildQueryLogStore(ctx, cfg, log)
	defer closeQueryStore()
	sinks := querylog.Tee{queryStore, querylog.NewZapRecorder(log)}
	if cfg.QueryLogFile != "" {
		sinks = append(sinks, querylog.NewFileRecorder(cfg.QueryLogFile))
	}
	queryRecorder := querylog.NewBatchRecorder(sinks, 100, 2*time.Second, log)
	defer queryRecorder.Close()

	// --------------- Servicio --------------
	userService := userApp.NewUserService(st.users, cacheInstance, queryRecorder, log)
	todoService := todoApp.NewTodoService(st.todos, cacheInstance, queryRecorder, log)
	queryLogService := queryLogApp.NewQueryLogService(queryStore, log)

	// ---------------- Events ---------------
	userConsumer := userEvents.NewUserConsumer(userService, log)
	todoConsumer := todoEvents.NewTodoConsumer(todoService, log)

	var publisher sharedBus.EventPublisher
	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos", zap.Strings("brokers", cfg.KafkaBrokers))

		writer := infraEvents.NewKafkaWriter(cfg.KafkaBrokers)
		defer writer.Close()
		publisher = infraEvents.NewKafkaPublisher(writer, userDomain.UserTopic, log)

		userReader := infraEvents.NewKafkaReader(cfg.KafkaBrokers, userDomain.UserTopic, consumerGroup)
		defer userReader.Close()
		todoReader := infraEvents.NewKafkaReader(cfg.KafkaBrokers, todoDomain.TodoTopic, consumerGroup)
		defer todoReader.Close()

		infraEvents.NewConsumerAdapter(userReader, userConsumer, log).Start(ctx)
		infraEvents.NewConsumerAdapter(todoReader, todoConsumer, log).Start(ctx)
	} else {
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")

		bus := infraEvents.NewInMemoryEventBus(userDomain.UserTopic)
		publisher = bus

		infraEvents.ConsumeChannel(ctx, bus.Subscribe(userDomain.UserTopic, 64), userConsumer, log)
		infraEvents.ConsumeChannel(ctx, bus.Subscribe(todoDomain.TodoTopic, 64), todoConsumer, log)
	}

	// ------------ Outbox Worker ------------
	registry := sharedEvents.Merge(userDomain.NewEventRegistry(), todoDomain.NewEventRegistry())
	worker := infraRelayer.NewOutboxWorker(st.outbox, publisher, registry, cfg.OutboxPeriod, cfg.OutboxLimit, log)
	go worker.Start(ctx)

	// ---------------- HTTP ----------------
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log))

	api := router.Group(cfg.APIPrefix)
	userHttp.RegisterUserRoutes(api, userHttp.NewUserHandler(userService, cfg.DefaultPageSize, log))
	todoHttp.RegisterTodoRoutes(api, todoHttp.NewTodoHandler(todoService, cfg.DefaultPageSize, log))
	queryLogHttp.RegisterQueryLogRoutes(api, queryLogHttp.NewQueryLogHandler(queryLogService, cfg.DefaultPageSize))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.DBDriver})
	})

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router}
	go func() {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort+cfg.APIPrefix))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Apagando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error en el apagado del servidor", zap.Error(err))
	}
}

// openStores abre la base indicada por DB_DRIVER y crea los repositorios.
func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.DBDriver {
	case "sqlite", "postgres":
		dsn := cfg.SQLitePath
		if cfg.DBDriver == "postgres" {
			dsn = cfg.DatabaseURL
		}
		db, err := sqldb.Open(cfg.DBDriver, dsn)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, err
		}
		if err := sqldb.InitSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("✅ Base SQL lista", zap.String("driver", cfg.DBDriver))
		return &stores{
			users:  userSQL.NewUserRepoSQL(db),
			todos:  todoSQL.NewTodoRepoSQL(db),
			outbox: sqldb.NewOutboxRepo(db),
			close:  func() { db.Close() },
		}, nil

	case "mongodb":
		client, err := mongoInfra.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		users := userMongo.NewUserRepoMongoDB(client, cfg.MongoDB)
		if err := users.EnsureIndexes(ctx); err != nil {
			log.Warn("no se pudo crear el índice de email", zap.Error(err))
		}
		log.Info("✅ MongoDB conectado", zap.String("db", cfg.MongoDB))
		return &stores{
			users:  users,
			todos:  todoMongo.NewTodoRepoMongoDB(client, cfg.MongoDB),
			outbox: mongoInfra.NewOutboxRepoMongoDB(client, cfg.MongoDB),
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(ctx)
			},
		}, nil

	case "memory":
		outbox := sharedMemory.NewOutbox()
		log.Info("⚡️Usando almacenamiento en memoria")
		return &stores{
			users:  userMemory.NewUserRepoMemory(outbox),
			todos:  todoMemory.NewTodoRepoMemory(outbox),
			outbox: outbox,
			close:  func() {},
		}, nil
	}
	return nil, errors.New("unknown DB_DRIVER, use sqlite, postgres, mongodb or memory")
}

// buildCache usa Redis si responde y cae a la caché en memoria si no.
func buildCache(ctx context.Context, cfg *config.Config, log *zap.Logger) sharedCache.Cache {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
		_ = rdb.Close()
		return sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
	}
	log.Info("✅ Redis conectado, cache habilitado")
	return sharedCache.NewRedisCache(rdb, "hexafilter", cfg.CacheTTL)
}

// buildQueryLogStore usa ClickHouse si está configurado; si no, guarda el
// registro en memoria.
func buildQueryLogStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (querylog.Store, func()) {
	if cfg.ClickHouseAddr == "" {
		return querylog.NewMemoryRecorder(), func() {}
	}
	repo, err := chAnalytics.NewQueryLogRepo(cfg.ClickHouseAddr, cfg.ClickHouseDB)
	if err == nil {
		err = repo.InitSchema(ctx)
	}
	if err != nil {
		log.Warn("⚠️ ClickHouse no disponible, registro de consultas en memoria", zap.Error(err))
		if repo != nil {
			repo.Close()
		}
		return querylog.NewMemoryRecorder(), func() {}
	}
	log.Info("✅ ClickHouse conectado, registro de consultas persistente")
	return repo, func() { repo.Close() }
}
