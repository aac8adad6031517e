package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/api"
	"github.com/asverdlov/edushop/internal/controller"
	"github.com/asverdlov/edushop/internal/migrations"
	"github.com/asverdlov/edushop/internal/service"
	"github.com/asverdlov/edushop/internal/storage/postgres"
	storageredis "github.com/asverdlov/edushop/internal/storage/redis"
	"github.com/asverdlov/edushop/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger, util.NewDBConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	defer dbCleanup()

	if err := migrations.Run(ctx, db, logger, "./internal/migrations"); err != nil {
		logger.Fatal(zap.Error(err))
	}

	redisClient, redisCleanup, err := util.NewRedisClient(logger, util.NewRedisConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	defer redisCleanup()

	store := postgres.NewStorage(db)
	cache := storageredis.NewCache(redisClient)

	tokenConfig := util.NewTokenConfig()
	tokenService := service.NewTokenService(tokenConfig)
	authService := service.NewAuthService(tokenService, store, store, logger)

	sweeper := service.NewSessionSweeper(store, util.NewSweepConfig().Interval, tokenConfig.RefreshTTL, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	catalogService := service.NewCatalogService(store, cache, util.NewCacheConfig().CatalogTTL, logger)

	ctrl := controller.NewController(controller.Services{
		Auth:    authService,
		Users:   service.NewUserService(store, logger),
		Catalog: catalogService,
		Cart:    service.NewCartService(store, logger),
		Orders:  service.NewOrderService(store, logger),
		Courses: service.NewCourseService(catalogService, store, logger),
	},
		controller.NewCookiePolicy(tokenConfig.AccessTTL, tokenConfig.RefreshTTL, util.IsProduction()),
		store,
		logger,
	)

	apiServer := api.NewAPI(ctrl, logger, util.NewServerConfig())
	apiServer.Run(ctx)
}
