package cli

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// New builds the weather-dashboard root command.
func New() *cobra.Command {
	root := &cobra.Command{
		Use:           "weather-dashboard",
		Short:         "Weather dashboard backend and command line assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), askCmd(), currentCmd(), suggestCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with auto-refresh and panel jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.coordinator.Start(); err != nil {
				return err
			}
			unsubscribe := app.coordinator.Subscribe(func(s weather.QueryState) {
				logger.WithFields(logrus.Fields{
					"city":      s.Query(),
					"status":    s.Status().String(),
					"condition": s.Condition(),
				}).Info("cli: weather state changed")
			})
			defer unsubscribe()

			// Scheduler that periodically refreshes the panels.
			sched := scheduler.New()
			if err := app.panels.Schedule(sched, cfg.PanelRefreshInterval, cfg.RateLimitCheckInterval); err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			server := httpapi.NewApp(httpapi.Handlers{
				Weather:      app.service,
				Conversation: app.conversation,
				Panels:       app.panels,
			})

			go func() {
				logger.Info("cli: listening on :" + cfg.Port)
				if err := server.Listen(":" + cfg.Port); err != nil {
					logger.Warn("cli: fiber server stopped: " + err.Error())
				}
			}()

			// Wait for termination signal
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.ShutdownWithContext(shutdownCtx)
		},
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: `Ask the assistant, e.g. ask "what's the weather in Berlin?"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			cmd.Println(app.assistant.Respond(cmd.Context(), strings.Join(args, " ")))
			return nil
		},
	}
}

func currentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current <city>",
		Short: "Print current conditions for a city",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			rec, err := app.service.Current(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			cmd.Printf("LOCATION\t %s, %s\n", rec.City, rec.Country)
			cmd.Printf("CONDITION\t %s (%s)\n", rec.Condition(), rec.Primary().Description)
			cmd.Printf("TEMP\t\t %.1f (feels like %.1f)\n", rec.Temperature, rec.FeelsLike)
			cmd.Printf("HUMIDITY\t %.0f%%\n", rec.Humidity)
			cmd.Printf("WIND\t\t %.1f\n", rec.WindSpeed)
			cmd.Printf("SUN\t\t %s - %s\n", rec.SunriseTime().Format("15:04"), rec.SunsetTime().Format("15:04"))
			return nil
		},
	}
}

func suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <partial city>",
		Short: "List up to five matching cities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			suggestions, err := app.service.Suggest(cmd.Context(), strings.Join(args, " "), nil)
			if err != nil {
				return err
			}
			for _, s := range suggestions {
				place := s.Name
				if s.State != "" {
					place += ", " + s.State
				}
				cmd.Printf("%-40s %s\t%.4f,%.4f\n", place, s.Country, s.Lat, s.Lon)
			}
			return nil
		},
	}
}
