package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelhub/modelhub/config"
	"github.com/modelhub/modelhub/database"
	"github.com/modelhub/modelhub/logger"
	"github.com/modelhub/modelhub/web"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"
)

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	config.LoadEnvFile()

	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
	defer logger.CloseLogger()

	db, err := database.Open(config.GetDBPath())
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warning("close database err:", err)
		}
	}()

	server, err := web.NewServer(db)
	if err != nil {
		log.Fatal(err)
	}
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("received SIGHUP, restarting web server")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server, err = web.NewServer(db)
			if err != nil {
				log.Println(err)
				return
			}
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func showConfig() {
	config.LoadEnvFile()
	fmt.Println("listen:", config.GetListenAddr())
	fmt.Println("port:", config.GetListenPort())
	fmt.Println("db path:", config.GetDBPath())
	fmt.Println("session lifetime:", config.GetSessionLifetime())
	fmt.Println("remember-me lifetime:", config.GetRememberLifetime())
	fmt.Println("bcrypt cost:", config.GetBcryptCost())
	if config.GetTokenSecret() == "" {
		fmt.Println("token secret: (not set, ephemeral secret will be used)")
	} else {
		fmt.Println("token secret: (set)")
	}
}

func main() {
	var rootCmd = &cobra.Command{
		Use: "modelhub",
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var settingCmd = &cobra.Command{
		Use:   "setting",
		Short: "Show the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig()
		},
	}

	rootCmd.AddCommand(runCmd, settingCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
