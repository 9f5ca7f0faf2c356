package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	pkg "github.com/workbridge/calling/pkg/internal"
	"github.com/workbridge/calling/pkg/internal/cache"
	"github.com/workbridge/calling/pkg/internal/database"
	"github.com/workbridge/calling/pkg/internal/grpc"
	"github.com/workbridge/calling/pkg/internal/services"
	"github.com/workbridge/calling/pkg/internal/web"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	// Connect to database
	if err := database.NewSource(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connect to database.")
	} else if err := database.RunMigration(database.C); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
	}

	// Initialize cache
	if err := cache.NewStore(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when initializing cache.")
	}

	// Wire up call lifecycle with its external capabilities
	callService := services.NewCallService(
		database.C,
		services.NewLiveKitRoomProvider(),
		services.NewRedisNotifier(cache.Rdb),
	)

	// Server
	web.NewServer(callService)
	go web.Listen()

	grpc.NewGRPC()
	go grpc.ListenGRPC()

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	quartz.AddFunc("@every 60m", services.DoAutoDatabaseCleanup)
	quartz.AddFunc("@every 5m", callService.SweepOverdueCalls)
	quartz.Start()

	log.Info().Msgf("%s v%s is started...", pkg.AppName, pkg.AppVersion)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msgf("%s v%s is quitting...", pkg.AppName, pkg.AppVersion)

	quartz.Stop()
}
