package start

import (
	"context"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/caesium-cloud/cimon/api"
	"github.com/caesium-cloud/cimon/internal/metrics"
	"github.com/caesium-cloud/cimon/pkg/db"
	"github.com/caesium-cloud/cimon/pkg/env"
	"github.com/caesium-cloud/cimon/pkg/log"
	"github.com/spf13/cobra"
)

const (
	usage   = "start"
	short   = "Start a cimon monitoring instance"
	long    = "This command starts the cimon API, the scheduled sync and the notification subscriber"
	example = "cimon start"

	pruneInterval = time.Hour
)

var (
	// Cmd is the start command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		Aliases:    []string{"s", "serve"},
		SuggestFor: []string{"launch", "boot", "up", "run", "begin"},
		Example:    example,
		RunE:       start,
	}
)

func start(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGUSR1, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	go func() {
		for s := range signalChan {
			switch s {
			case syscall.SIGUSR1:
				log.Info("dumping stack traces due to SIGUSR1 signal")
				if profile := pprof.Lookup("goroutine"); profile != nil {
					if err := profile.WriteTo(os.Stdout, 1); err != nil {
						log.Error("write goroutine profile", "error", err)
					}
				}
			default:
				log.Info("gracefully shutting down", "signal", s.String())
				cancel()
			}
		}
	}()

	log.Info("migrating database")
	if err := db.Migrate(); err != nil {
		log.Fatal("database migration failure", "error", err)
	}

	metrics.Register()

	a, err := wire(ctx, env.Variables(), db.Connection(), nil)
	if err != nil {
		return err
	}

	errs := make(chan error, 4)

	go func() {
		log.Info("spinning up api")
		errs <- api.Start(ctx, a.deps)
	}()

	go func() {
		log.Info("starting notification subscriber")
		errs <- a.subscriber.Start(ctx)
	}()

	go func() {
		log.Info("running initial sync")
		result := a.retrying.SyncAll(ctx)
		log.Info("initial sync finished", "summary", result.Summary())

		errs <- a.schedule.Run(ctx)
	}()

	go func() {
		errs <- a.prune(ctx, env.Variables().BuildRetention)
	}()

	select {
	case err := <-errs:
		cancel()
		return err
	case <-ctx.Done():
		return nil
	}
}

// prune drops finished builds older than retention every hour.
func (a *app) prune(ctx context.Context, retention time.Duration) error {
	if retention <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := a.cache.DeleteOldBuilds(ctx, time.Now().Add(-retention))
			if err != nil {
				log.Error("build retention failure", "error", err)
				continue
			}
			if removed > 0 {
				log.Info("pruned finished builds", "count", removed, "retention", retention)
			}
		}
	}
}
