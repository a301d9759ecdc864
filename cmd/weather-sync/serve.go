package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/i474232898/weather-sync/internal/api/http"
	"github.com/i474232898/weather-sync/internal/mqtt"
	"github.com/i474232898/weather-sync/internal/scheduler"
)

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default command)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)

	rootCmd.RunE = runServe
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	if port != "" {
		rt.cfg.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if rt.cfg.InitialSync {
		sched := scheduler.New(rt.repo, rt.logger)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Ctx:    ctx,
		Repo:   rt.repo,
		Unit:   rt.cfg.TemperatureUnit,
		Logger: rt.logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.logger.Info("http server listening", "port", rt.cfg.Port)
		return app.Listen(":" + rt.cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if rt.cfg.MQTTBroker != "" {
		pub := mqtt.NewPublisher(rt.cfg, rt.logger)
		g.Go(func() error { return pub.Run(gctx, rt.repo) })
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		rt.logger.Error("weather-sync exited with error", "error", err)
		return err
	}

	rt.logger.Info("weather-sync shutdown complete")
	return nil
}
