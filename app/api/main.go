package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-playground/validator/v10"
	"github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/base/log"
	"github.com/nftprophet/goapi/base/random"
	bValidator "github.com/nftprophet/goapi/base/validator"
	mmiddleware "github.com/nftprophet/goapi/middleware"
	"github.com/nftprophet/goapi/service/cache/provider/primitive"
	"github.com/nftprophet/goapi/service/gemini"
	"github.com/nftprophet/goapi/service/marketplace"
	analysis_delivery "github.com/nftprophet/goapi/stores/analysis/delivery/http"
	analysis_discord "github.com/nftprophet/goapi/stores/analysis/delivery/discord"
	analysis_usecase "github.com/nftprophet/goapi/stores/analysis/usecase"
	hc_delivery "github.com/nftprophet/goapi/stores/healthcheck/delivery/http"
	hc_repo "github.com/nftprophet/goapi/stores/healthcheck/repository"
	hc_usecase "github.com/nftprophet/goapi/stores/healthcheck/usecase"
	prediction_usecase "github.com/nftprophet/goapi/stores/prediction/usecase"
)

func init() {
	configPath := pflag.String("config", "infra/configs/config.yaml", "path to config file")
	pflag.Parse()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(*configPath)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

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

	context.Info("init cache")
	cacheSizeMb := viper.GetInt("cache.sizeMb")
	if cacheSizeMb == 0 {
		cacheSizeMb = 16
	}
	mmiddleware.SetupCache(cacheSizeMb)
	hcCache := primitive.NewPrimitive("healthCheck", 1)

	marketplaceClient := marketplace.NewClient(&marketplace.ClientCfg{
		HttpClient: http.Client{},
		Timeout:    viper.GetDuration("marketplace.timeout"),
		Apikey:     viper.GetString("marketplace.apikey"),
		BaseUrl:    viper.GetString("marketplace.baseUrl"),
	})

	geminiClient := gemini.NewClient(&gemini.ClientCfg{
		HttpClient:  http.Client{},
		Timeout:     viper.GetDuration("gemini.timeout"),
		Apikey:      viper.GetString("gemini.apikey"),
		BaseUrl:     viper.GetString("gemini.baseUrl"),
		Model:       viper.GetString("gemini.model"),
		VisionModel: viper.GetString("gemini.visionModel"),
	})

	// construct repository, usecase and delivery
	hcRepo := hc_repo.New(hcCache)
	hc := hc_usecase.New(hcRepo)
	prediction := prediction_usecase.New(geminiClient, random.New())
	analysis := analysis_usecase.New(marketplaceClient, prediction)

	hc_delivery.New(e, hc)
	analysis_delivery.New(e, analysis)

	if viper.GetBool("discord.enabled") {
		bot, err := analysis_discord.NewBot(analysis_discord.BotConfig{
			BotKey:   viper.GetString("discord.botKey"),
			Analysis: analysis,
		})
		if err != nil {
			context.WithField("err", err).Panic("failed to create discord bot")
		}
		if err := bot.Start(); err != nil {
			context.WithField("err", err).Panic("failed to start discord bot")
		}
		defer bot.Stop()
		context.Info("discord bot started")
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
}
