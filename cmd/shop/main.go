package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"storefront/config"
	"storefront/internal/apiclient"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/history"
	"storefront/internal/localstore"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	a := &app{cfg: config.Load()}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the state one CLI invocation works on.
type app struct {
	cfg     *config.Config
	store   localstore.Store
	closer  io.Closer
	client  *apiclient.Client
	catalog *catalog.Snapshot
	ledger  *cart.Ledger
	history *history.Log
	lang    string
	verbose bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "shop",
		Short:         "Browse the storefront catalog, keep a cart and place orders",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := util.InitCLILogger(a.verbose); err != nil {
				return err
			}
			return a.open()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.lang, "lang", "", "display language (ar or en)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newBrowseCmd(a),
		newCartCmd(a),
		newCheckoutCmd(a),
		newHistoryCmd(a),
		newLangCmd(a),
	)
	return root
}

func (a *app) open() error {
	if a.store == nil {
		ps, err := localstore.NewPebbleStore(a.cfg.Shop.StateDir)
		if err != nil {
			return fmt.Errorf("open local state in %s: %w", a.cfg.Shop.StateDir, err)
		}
		a.store, a.closer = ps, ps
	}
	if a.client == nil {
		a.client = apiclient.New(a.cfg.Shop.APIURL, a.cfg.Shop.HTTPTimeout)
	}

	a.catalog = catalog.NewSnapshot()
	a.ledger = cart.NewLedger(a.store)
	a.history = history.NewLog(a.store)

	if a.lang == "" {
		a.lang = a.savedLang()
	}
	if !models.ValidLang(a.lang) {
		return models.Invalidf("unknown language %q", a.lang)
	}
	return nil
}

func (a *app) close() error {
	util.SyncLogger()
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer, a.store = nil, nil
	return err
}

func (a *app) savedLang() string {
	raw, err := a.store.Get(localstore.KeyLanguage)
	if err != nil || !models.ValidLang(string(raw)) {
		return a.cfg.Shop.Lang
	}
	return string(raw)
}

// loadCatalog refreshes the snapshot from the server and keeps a copy
// locally. When the server is unreachable the last saved copy is used.
func (a *app) loadCatalog(ctx context.Context) error {
	logger := util.GetLogger()

	_, err := a.client.Refresh(ctx, a.catalog)
	if err == nil {
		raw, marshalErr := json.Marshal(a.catalog.Products())
		if marshalErr == nil {
			if setErr := a.store.Set(localstore.KeyCatalog, raw); setErr != nil {
				logger.Warn("Failed to cache catalog locally", zap.Error(setErr))
			}
		}
		return nil
	}

	raw, getErr := a.store.Get(localstore.KeyCatalog)
	if getErr != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	var products []models.Product
	if jsonErr := json.Unmarshal(raw, &products); jsonErr != nil {
		logger.Warn("Discarding unreadable cached catalog", zap.Error(errors.Wrap(models.ErrCorruptLocalState, jsonErr.Error())))
		return fmt.Errorf("load catalog: %w", err)
	}

	logger.Warn("Catalog server unreachable, using saved copy", zap.Error(err))
	a.catalog.Apply(a.catalog.Begin(), products)
	return nil
}
