package main

import (
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/database/mongoclient"
	"github.com/x-xyz/nftmarket/base/database/redisclient"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/base/metrics"
	bValidator "github.com/x-xyz/nftmarket/base/validator"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/domain/asset"
	"github.com/x-xyz/nftmarket/domain/keys"
	"github.com/x-xyz/nftmarket/domain/notifier"
	mmiddleware "github.com/x-xyz/nftmarket/middleware"
	"github.com/x-xyz/nftmarket/service/bank"
	"github.com/x-xyz/nftmarket/service/cache"
	"github.com/x-xyz/nftmarket/service/cache/provider"
	"github.com/x-xyz/nftmarket/service/cache/provider/compound"
	"github.com/x-xyz/nftmarket/service/cache/provider/primitive"
	redisCache "github.com/x-xyz/nftmarket/service/cache/provider/redis"
	"github.com/x-xyz/nftmarket/service/chain"
	"github.com/x-xyz/nftmarket/service/chain/contract"
	"github.com/x-xyz/nftmarket/service/ens"
	"github.com/x-xyz/nftmarket/service/lock"
	"github.com/x-xyz/nftmarket/service/nftledger"
	notifierService "github.com/x-xyz/nftmarket/service/notifier"
	"github.com/x-xyz/nftmarket/service/query"
	"github.com/x-xyz/nftmarket/service/redis"
	activity_repository "github.com/x-xyz/nftmarket/stores/activity/repository"
	asset_repository "github.com/x-xyz/nftmarket/stores/asset/repository"
	auction_repository "github.com/x-xyz/nftmarket/stores/auction/repository"
	auth_delivery "github.com/x-xyz/nftmarket/stores/auth/delivery/http"
	auth_middleware "github.com/x-xyz/nftmarket/stores/auth/delivery/http/middleware"
	auth_usecase "github.com/x-xyz/nftmarket/stores/auth/usecase"
	escrow_repository "github.com/x-xyz/nftmarket/stores/escrow/repository"
	hc_delivery "github.com/x-xyz/nftmarket/stores/healthcheck/delivery/http"
	hc_repo "github.com/x-xyz/nftmarket/stores/healthcheck/repository"
	hc_usecase "github.com/x-xyz/nftmarket/stores/healthcheck/usecase"
	listing_repository "github.com/x-xyz/nftmarket/stores/listing/repository"
	marketplace_delivery "github.com/x-xyz/nftmarket/stores/marketplace/delivery/http"
	marketplace_usecase "github.com/x-xyz/nftmarket/stores/marketplace/usecase"
)

func init() {
	configFile := pflag.String("config", "infra/configs/config.yaml", "path of the yaml config")
	pflag.Parse()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(*configFile)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

//	@title			NFT Marketplace API
//	@version		1.0
//	@description	Escrowed fixed price and auction marketplace for ERC-721 tokens.

// main
//
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description				retrive token from #/auth/post_auth_sign and apply with `bearer {token}`
func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init store, mongo unless configured to run in memory
	var (
		q           query.Mongo
		mongoClient *mongoclient.Client
	)
	if viper.GetString("store.driver") == "memory" {
		context.Warn("running on in-memory store, state is lost on restart")
		q = query.NewMemory()
	} else {
		context.Info("init mongo")
		mongoClient = mongoclient.MustConnectMongoClient(mongoclient.Config{
			Uri:               viper.GetString("mongo.uri"),
			AuthDBName:        viper.GetString("mongo.authDBName"),
			DbName:            viper.GetString("mongo.dbName"),
			EnableSSL:         viper.GetBool("mongo.enableSSL"),
			SetSafe:           true,
			PoolMultiplier:    2,
			RequireReplicaSet: true,
		})
		q = query.New(mongoClient, viper.GetBool("mongo.checkIndex"))
	}

	// init Redis service, optional for a single replica
	var redisSrv redis.Service
	if uri := viper.GetString("redis_cache.uri"); uri != "" {
		context.Info("init redis cache")
		redisCacheName := viper.GetString("redis_cache.name")
		redisCachePwd := viper.GetString("redis_cache.password")
		redisCachePoolMultiplier := viper.GetFloat64("redis_cache.poolMultiplier")
		redisCachePool := redisclient.MustConnectRedis(uri, redisCachePwd, redisclient.RedisParam{
			PoolMultiplier: redisCachePoolMultiplier,
			Retry:          true,
		})
		redisSrv = redis.New(redisCacheName, metrics.New(redisCacheName), &redis.Pools{
			Src: redisCachePool,
		})
	}

	cacheLayers := []provider.Provider{primitive.NewPrimitive("api", viper.GetInt("cache.localSizeMB"))}
	if redisSrv != nil {
		cacheLayers = append(cacheLayers, redisCache.NewRedis(redisSrv))
	}
	cacheProvider := compound.NewCompound(cacheLayers)

	var locker lock.Locker
	if redisSrv != nil && viper.GetBool("marketplace.distributedLock") {
		locker = lock.NewRedis(redisSrv, viper.GetDuration("marketplace.lockTtl"))
	} else {
		locker = lock.NewLocal()
	}

	custody := domain.Address(viper.GetString("marketplace.custody")).ToLower()

	// asset ledger, on chain when a rpc is configured
	var (
		ledger asset.Ledger
		admin  asset.Admin
	)
	if rpcUrl := viper.GetString("chain.rpcUrl"); rpcUrl != "" {
		mineTimeout := viper.GetDuration("chain.mineTimeout")
		if err := chain.CheckMineTimeout(mineTimeout, viper.GetDuration("marketplace.lockTtl"), query.TransactionLifetime); err != nil {
			context.WithField("err", err).Panic("invalid chain.mineTimeout")
		}
		chainService, err := chain.NewClient(context, &chain.ClientCfg{
			RpcUrl:      rpcUrl,
			ChainId:     viper.GetInt64("chain.chainId"),
			SignerKey:   viper.GetString("chain.custodyKey"),
			MineTimeout: mineTimeout,
		})
		if err != nil {
			context.WithField("err", err).Panic("chain.NewClient failed")
		}
		if sender := domain.Address(chainService.Sender().Hex()); !sender.Equals(custody) {
			context.WithFields(log.Fields{
				"sender":  sender,
				"custody": custody,
			}).Panic("custody key does not match custody address")
		}
		ledger = contract.NewErc721(chainService)
	} else {
		nftLedger := nftledger.New(q, custody)
		ledger, admin = nftLedger, nftLedger
	}

	// ens lives on ethereum mainnet, which may differ from the marketplace chain
	var names ens.ENS
	if ensRpc := viper.GetString("ens.rpcUrl"); ensRpc != "" {
		ensClient, err := ethclient.DialContext(context, ensRpc)
		if err != nil {
			context.WithField("err", err).Warn("ens disabled, failed to dial rpc")
		} else {
			names = ens.New(ensClient, cache.New(cache.ServiceConfig{
				Ttl:   7 * 24 * time.Hour,
				Pfx:   "ens",
				Cache: cacheProvider,
			}))
		}
	}

	var events notifier.Notifier = notifierService.NewLog()
	if botKey := viper.GetString("discord.botKey"); botKey != "" {
		discord, err := notifierService.NewDiscord(notifierService.DiscordConfig{
			BotKey:    botKey,
			ChannelId: viper.GetString("discord.channelId"),
			SiteUrl:   viper.GetString("discord.siteUrl"),
			Names:     names,
		})
		if err != nil {
			context.WithField("err", err).Error("notifier.NewDiscord failed, fallback to log")
		} else {
			events = discord
		}
	}

	indexes := [][]query.Index{
		listing_repository.Indexes(),
		auction_repository.Indexes(),
		escrow_repository.Indexes(),
		activity_repository.Indexes(),
		asset_repository.Indexes(),
		asset_repository.TransferIndexes(),
		bank.Indexes(),
		nftledger.Indexes(),
	}
	for _, idx := range indexes {
		if err := q.EnsureIndexes(context, idx...); err != nil {
			context.WithField("err", err).Panic("EnsureIndexes failed")
		}
	}

	// construct repository, usecase and delivery
	hcRepo := hc_repo.New(mongoClient, redisSrv)
	listingRepo := listing_repository.New(q, redisSrv)
	auctionRepo := auction_repository.New(q, redisSrv)
	escrowRepo := escrow_repository.New(q)
	activityRepo := activity_repository.New(q)
	lockRepo := asset_repository.NewLockRepo(q)
	transferRepo := asset_repository.NewTransferRepo(q)
	bankSrv := bank.New(q, custody)

	operators := []domain.Address{}
	for _, op := range viper.GetStringSlice("marketplace.operators") {
		operators = append(operators, domain.Address(op))
	}
	market := marketplace_usecase.New(&marketplace_usecase.MarketplaceUseCaseCfg{
		Transactor:     q,
		Locker:         locker,
		ListingRepo:    listingRepo,
		AuctionRepo:    auctionRepo,
		EscrowRepo:     escrowRepo,
		LockRepo:       lockRepo,
		TransferRepo:   transferRepo,
		ActivityRepo:   activityRepo,
		Bank:           bankSrv,
		Ledger:         ledger,
		Notifier:       events,
		Custody:        custody,
		Owner:          domain.Address(viper.GetString("marketplace.owner")),
		Operators:      operators,
		AssertSolvency: viper.GetBool("marketplace.assertSolvency"),
	})

	nonces := cache.New(cache.ServiceConfig{
		Ttl:   viper.GetDuration("auth.nonceTtl"),
		Pfx:   keys.PfxNonce,
		Cache: cacheProvider,
	})
	auth := auth_usecase.New(viper.GetString("auth.jwtSecret"), viper.GetString("auth.signatureMsg"), nonces)
	hc := hc_usecase.New(hcRepo)

	authMiddleware := auth_middleware.New(auth, market)

	hc_delivery.New(e, hc)
	auth_delivery.New(e, auth)
	marketplace_delivery.New(e, &marketplace_delivery.HandlerCfg{
		Market:         market,
		Bank:           bankSrv,
		AuthMiddleware: authMiddleware,
		HttpCache:      mmiddleware.NewHttpCache(cacheProvider),
		Admin:          admin,
	})

	// settle transfers that were not mined when their operation committed
	if _, ok := ledger.(asset.Tracker); ok {
		go func() {
			interval := viper.GetDuration("chain.reconcileInterval")
			if interval <= 0 {
				interval = time.Minute
			}
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for range ticker.C {
				if n, err := market.ReconcileTransfers(context); err != nil {
					context.WithField("err", err).Error("market.ReconcileTransfers failed")
				} else if n > 0 {
					context.WithField("settled", n).Info("pending transfers settled")
				}
			}
		}()
	}

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
	if closer, ok := events.(interface{ Close() }); ok {
		closer.Close()
	}
}
