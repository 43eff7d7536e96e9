package start

import (
	"context"
	"os"

	"github.com/caesium-cloud/cimon/api/rest/bind"
	"github.com/caesium-cloud/cimon/internal/account"
	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/connector"
	"github.com/caesium-cloud/cimon/internal/credential"
	"github.com/caesium-cloud/cimon/internal/dispatch"
	"github.com/caesium-cloud/cimon/internal/event"
	"github.com/caesium-cloud/cimon/internal/notify"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/internal/syncer"
	"github.com/caesium-cloud/cimon/internal/target"
	"github.com/caesium-cloud/cimon/internal/trigger"
	"github.com/caesium-cloud/cimon/internal/trigger/cron"
	"github.com/caesium-cloud/cimon/pkg/env"
	"github.com/caesium-cloud/cimon/pkg/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// app holds the long-running services of a cimon instance.
type app struct {
	deps       bind.Dependencies
	cache      *cache.Store
	retrying   *syncer.Retrying
	schedule   trigger.Trigger
	subscriber *notify.Subscriber
}

// wire builds every service over conn. Registry may be nil to use the
// default connectors.
func wire(ctx context.Context, vars env.Environment, conn *gorm.DB, registry *provider.Registry) (*app, error) {
	bus := event.New()
	store := cache.New(conn)

	vault, err := credential.NewVault(credential.VaultOptions{
		Backend:   vars.VaultBackend,
		Dir:       vars.VaultDir,
		MasterKey: vars.VaultMasterKey,
		HashiCorp: credential.HashiCorpConfig{
			Address:   vars.VaultAddress,
			Token:     vars.VaultToken,
			Namespace: vars.VaultNamespace,
			Mount:     vars.VaultMount,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "vault configuration failure")
	}

	creds := credential.NewStore(conn, vault, credential.WithBus(bus))
	if seeded, err := credential.FromEnvironment(ctx, creds, os.Getenv); err != nil {
		log.Warn("environment credential import incomplete", "error", err)
	} else if len(seeded) > 0 {
		log.Info("imported environment credentials", "providers", seeded)
	}

	if vars.TargetsFile != "" {
		if err := importTargets(ctx, store, vars.TargetsFile); err != nil {
			return nil, err
		}
	}

	if registry == nil {
		registry = connector.NewRegistry(connector.ConfigFromEnvironment())
	}

	orchestrator := syncer.New(store, creds, registry, syncer.WithBus(bus))
	retrying := syncer.NewRetrying(orchestrator, syncer.RetryPolicy{
		InitialInterval: vars.SyncInitialBackoff,
		MaxElapsedTime:  vars.SyncMaxElapsed,
		MaxRetries:      vars.SyncMaxRetries,
	})

	schedule, err := newSchedule(ctx, vars, store, retrying)
	if err != nil {
		return nil, err
	}

	transport, name, err := notify.Build(notify.ConfigFromEnvironment()...)
	if err != nil {
		return nil, errors.Wrap(err, "notification configuration failure")
	}
	subscriber := notify.NewSubscriber(bus, transport, store)
	subscriber.SetTransportName(name)

	return &app{
		deps: bind.Dependencies{
			Cache:      store,
			Syncer:     orchestrator,
			Phases:     orchestrator,
			Dispatcher: dispatch.New(store, creds, registry, dispatch.WithBus(bus)),
			Accounts:   account.New(creds, store, registry),
			OAuth: credential.NewOAuth(credential.OAuthConfig{
				GitHubClientID: vars.GitHubClientID,
				GitLabClientID: vars.GitLabClientID,
				GitLabURL:      vars.GitLabURL,
				RedirectURL:    vars.OAuthRedirectURL,
			}),
			Bus: bus,
		},
		cache:      store,
		retrying:   retrying,
		schedule:   schedule,
		subscriber: subscriber,
	}, nil
}

// newSchedule uses CIMON_SYNCSCHEDULE when set, otherwise the stored
// polling interval.
func newSchedule(ctx context.Context, vars env.Environment, store *cache.Store, s syncer.Syncer) (*cron.Cron, error) {
	expr := vars.SyncSchedule
	if expr == "" {
		prefs, err := store.Preferences(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load preferences")
		}
		expr = cron.Expression(prefs.PollingInterval)
	}

	schedule, err := cron.New(cron.Config{Expression: expr, Timezone: vars.SyncTimezone}, s)
	if err != nil {
		return nil, errors.Wrap(err, "sync schedule configuration failure")
	}
	return schedule, nil
}

func importTargets(ctx context.Context, store *cache.Store, path string) error {
	targets, err := target.Load(path)
	if err != nil {
		return errors.Wrapf(err, "failed to load targets from %s", path)
	}

	for _, t := range targets {
		if err := store.SaveTarget(ctx, t); err != nil {
			return errors.Wrapf(err, "failed to save target %s %s", t.Provider, t.Locator)
		}
	}

	log.Info("imported targets", "path", path, "count", len(targets))
	return nil
}
