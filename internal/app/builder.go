package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/config"
	redisx "github.com/100-hours-a-week/22-tenten-be-sub001/internal/infra/cache/redis"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/infra/database/postgres"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/stats"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/statscache"
	"github.com/100-hours-a-week/22-tenten-be-sub001/internal/transport/web"
	statsv1 "github.com/100-hours-a-week/22-tenten-be-sub001/internal/transport/web/v1/stats"
)

type App struct {
	config     *config.Config
	server     *web.Server
	log        *log.Logger
	repo       *postgres.PGRepo
	cache      *redisx.Cache
	schedulers []*statscache.Scheduler
}

func Build(ctx context.Context) (*App, error) {
	base := log.New(os.Stdout, "[app] ", log.LstdFlags)

	serverLog := log.New(base.Writer(), base.Prefix()+"[server] ", base.Flags())
	pgLog := log.New(base.Writer(), base.Prefix()+"[postgres] ", base.Flags())
	redisLog := log.New(base.Writer(), base.Prefix()+"[redis] ", base.Flags())
	statsLog := log.New(base.Writer(), base.Prefix()+"[stats] ", base.Flags())
	syncLog := log.New(base.Writer(), base.Prefix()+"[sync] ", base.Flags())

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base.Printf("\n  configuration: %s-------------------", cfg)

	base.Println("init PostgreSQL")
	pgRepo, err := postgres.NewPGRepo(ctx, pgLog, cfg.GetDSN(), cfg.DBScheme)
	if err != nil {
		return nil, fmt.Errorf("failed init postgres: %w", err)
	}
	base.Println("PostgreSQL is initialized")

	base.Println("init Redis")
	rc := redisx.New(redisx.Config{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	}, redisLog)
	if err := rc.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed init redis: %w", err)
	}
	base.Println("Redis is initialized")

	// Стеки статистики: шлюз + синкер на каждый тип агрегата
	base.Println("init stats caches")
	lock := redisx.NewLock(rc, redisLog)
	tm := statscache.Timings{LockWait: cfg.LockWait(), LockHold: cfg.LockHold()}
	ttl := cfg.StatsTTL()

	postStats := stats.NewPost(rc, lock, pgRepo, pgRepo, ttl, tm, statsLog)
	commentStats := stats.NewComment(rc, lock, pgRepo, pgRepo, ttl, tm, statsLog)
	followStats := stats.NewFollow(rc, lock, pgRepo, pgRepo, ttl, tm, statsLog)

	schedulers := []*statscache.Scheduler{
		statscache.NewScheduler("post", cfg.PostSyncPeriod(), postStats.Syncer, syncLog),
		statscache.NewScheduler("comment", cfg.CommentSyncPeriod(), commentStats.Syncer, syncLog),
		statscache.NewScheduler("follow", cfg.FollowSyncPeriod(), followStats.Syncer, syncLog),
	}

	base.Println("init Server")
	deps := statsv1.Deps{
		Posts:         postStats,
		PostsFallback: pgRepo,
		Comments:      commentStats,
		CommentsFB:    pgRepo,
		Follows:       followStats,
		FollowsFB:     pgRepo,
	}
	server := web.New(serverLog, cfg, pgRepo, rc, deps)
	base.Println("Server is initialized")

	base.Println("build ended")
	return &App{
		config:     cfg,
		server:     server,
		log:        base,
		repo:       pgRepo,
		cache:      rc,
		schedulers: schedulers,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Println("start application...")
	for _, s := range a.schedulers {
		go s.Run(ctx)
	}
	go a.server.Run()
	<-ctx.Done()
	a.log.Println("stop application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.server.Close(stopCtx)
	a.repo.Close()
	a.cache.Close()

	return nil
}
