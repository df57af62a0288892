package handlers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/config"
	"pledge-salesforce-sync/internal/services/crmsync"
	"pledge-salesforce-sync/internal/services/database"
	"pledge-salesforce-sync/internal/services/reporting"
	s3service "pledge-salesforce-sync/internal/services/s3"
	"pledge-salesforce-sync/internal/services/salesforce"
	"pledge-salesforce-sync/internal/services/secrets"
	sesservice "pledge-salesforce-sync/internal/services/ses"
	"pledge-salesforce-sync/internal/utils"
)

// Runtime is everything a process needs to serve one or more functions.
// It is built once per cold start.
type Runtime struct {
	Config *config.Config
	Deps   Deps
	DB     *database.DB
}

// Bootstrap loads configuration and secrets, logs in to both orgs and wires
// the shared collaborators. withDB is only needed by functions that write
// to the metadata store.
func Bootstrap(ctx context.Context, function string, withDB bool) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := utils.GetLogger().With(zap.String("function", function))

	provider, err := secrets.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create secrets provider: %w", err)
	}
	bundle, err := secrets.LoadBundle(ctx, provider, cfg, withDB)
	if err != nil {
		return nil, err
	}

	live, dev, err := loginOrgs(ctx, cfg, bundle, logger)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg}
	if withDB {
		rt.DB = database.New(cfg, bundle.SQLPassword)
	}

	rt.Deps = Deps{
		Sessions: crmsync.NewSessions(
			crmsync.Session{CRM: live, Database: cfg.LiveDatabase},
			crmsync.Session{CRM: dev, Database: cfg.DevDatabase},
			cfg.LiveHostnames,
		),
		Reporter: newReporter(ctx, cfg, function, logger),
	}

	if cfg.ArchiveBucket != "" {
		archiver, err := s3service.NewService(ctx, cfg.AWSRegion, cfg.ArchiveBucket)
		if err != nil {
			logger.Warn("Payload archiving disabled", zap.Error(err))
		} else {
			rt.Deps.Archiver = archiver
		}
	}

	logger.Info("Runtime ready",
		zap.String("liveInstance", live.InstanceURL()),
		zap.String("devInstance", dev.InstanceURL()),
		zap.Bool("database", rt.DB != nil),
		zap.Bool("archive", rt.Deps.Archiver != nil),
	)
	return rt, nil
}

// NewReconciler builds the signup reconciler from the runtime configuration.
func (rt *Runtime) NewReconciler() (*crmsync.Reconciler, error) {
	if rt.DB == nil {
		return nil, fmt.Errorf("signup reconciliation needs a database")
	}
	policy, err := crmsync.ParseAccountMatchPolicy(rt.Config.AccountMatchPolicy)
	if err != nil {
		return nil, err
	}
	meta := database.NewUserMetaRepository(rt.DB, rt.Config.UserMetaTable)
	return crmsync.NewReconciler(rt.Deps.Reporter, meta, crmsync.Options{
		RecordTypeID:   rt.Config.OpportunityRecordTypeID,
		MatchPolicy:    policy,
		CloseAfterDays: rt.Config.OpportunityCloseDays,
	}), nil
}

// loginOrgs authenticates against both orgs. A failed dev login routes dev
// traffic to the live org rather than failing the cold start.
func loginOrgs(ctx context.Context, cfg *config.Config, bundle *secrets.Bundle, logger *zap.Logger) (*salesforce.Client, *salesforce.Client, error) {
	live, err := salesforce.Login(ctx, string(crmsync.TenantLive), salesforce.Credentials{
		LoginURL:      cfg.SFLoginURL,
		ClientID:      cfg.SFClientID,
		ClientSecret:  cfg.SFClientSec,
		Username:      cfg.SFUsername,
		Password:      bundle.SalesforcePassword,
		SecurityToken: bundle.SalesforceToken,
		APIVersion:    cfg.SFAPIVersion,
	})
	if err != nil {
		return nil, nil, err
	}

	dev, err := salesforce.Login(ctx, string(crmsync.TenantDev), salesforce.Credentials{
		LoginURL:      cfg.SFDevLoginURL,
		ClientID:      cfg.SFClientID,
		ClientSecret:  cfg.SFClientSec,
		Username:      cfg.SFUsernameDev,
		Password:      bundle.SalesforcePassword,
		SecurityToken: bundle.SalesforceDevToken,
		APIVersion:    cfg.SFAPIVersion,
	})
	if err != nil {
		logger.Warn("Dev org login failed, dev traffic will use the live org", zap.Error(err))
		dev = live
	}
	return live, dev, nil
}

func newReporter(ctx context.Context, cfg *config.Config, function string, logger *zap.Logger) reporting.Reporter {
	reporters := reporting.Multi{reporting.LogReporter{}}
	if !cfg.AlertsEnabled() {
		return reporters
	}

	sender, err := sesservice.NewService(ctx, cfg.AWSRegion, cfg.AlertEmailFrom)
	if err != nil {
		logger.Warn("Alert emails disabled", zap.Error(err))
		return reporters
	}
	return append(reporters, reporting.EmailReporter{
		Sender:   sender,
		To:       splitAddresses(cfg.AlertEmailTo),
		Function: function,
	})
}

func splitAddresses(s string) []string {
	var out []string
	for _, addr := range strings.Split(s, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// NewHealthHandler builds a health handler over the runtime's orgs and,
// when one was opened, its database.
func (rt *Runtime) NewHealthHandler() *HealthHandler {
	if rt.DB == nil {
		return NewHealthHandler(rt.Deps.Sessions, nil)
	}
	return NewHealthHandler(rt.Deps.Sessions, rt.DB)
}
