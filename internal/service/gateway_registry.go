package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/internal/utils"
)

// ConfigLister returns every gateway config regardless of status.
type ConfigLister interface {
	List(ctx context.Context) ([]*models.PaymentGatewayConfig, error)
}

// RegistryOptions controls adapter construction at startup.
type RegistryOptions struct {
	// Defaults are environment credentials, overlaid by database credentials.
	Defaults map[models.GatewayType]models.Credentials
	Adapter  AdapterOptions
	// BaseURLs overrides the provider endpoint per gateway.
	BaseURLs map[models.GatewayType]string
}

// BuildRegistry registers one adapter per gateway that has usable credentials.
// Gateways without credentials are skipped with a warning; any other
// construction error is fatal. It returns the registered gateway types.
//
// The sandbox choice is fixed here: a config later moved between active and
// testing is skipped by ProcessPayment until the next restart.
func BuildRegistry(ctx context.Context, pg *PaymentGateway, lister ConfigLister, opts RegistryOptions) ([]models.GatewayType, error) {
	configs := make(map[models.GatewayType]*models.PaymentGatewayConfig)
	if lister != nil {
		list, err := lister.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list gateway configs: %w", err)
		}
		for _, cfg := range list {
			configs[cfg.GatewayType] = cfg
		}
	}

	var registered []models.GatewayType
	for _, t := range models.GatewayFallbackOrder {
		creds := opts.Defaults[t]
		adapterOpts := opts.Adapter
		adapterOpts.BaseURL = opts.BaseURLs[t]

		if cfg, ok := configs[t]; ok {
			creds = creds.Merge(cfg.Credentials)
			adapterOpts.Sandbox = adapterOpts.Sandbox || cfg.IsSandbox()
		}

		adapter, err := NewGatewayAdapter(t, creds, adapterOpts)
		if err != nil {
			if errors.Is(err, utils.ErrMissingCredentials) {
				log.Warn().Str("gateway", string(t)).Msg("Gateway not registered: credentials missing")
				continue
			}
			return nil, fmt.Errorf("failed to build %s adapter: %w", t, err)
		}

		pg.RegisterAdapter(adapter)
		pg.SetAdapterEnvironment(t, adapterOpts.Sandbox, opts.Adapter.Sandbox)
		registered = append(registered, t)
		log.Info().
			Str("gateway", string(t)).
			Bool("sandbox", adapterOpts.Sandbox).
			Msg("Gateway adapter registered")
	}

	if len(registered) == 0 {
		log.Warn().Msg("No gateway adapters registered")
	}
	return registered, nil
}
