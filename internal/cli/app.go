package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/2beens/rapidfit/internal/rapidtree"
	"github.com/2beens/rapidfit/internal/usersync"
	"github.com/2beens/rapidfit/pkg"

	"github.com/spf13/cobra"
)

const tokenKey = "auth/token"

// app is the state shared by one command run.
type app struct {
	out     io.Writer
	store   *usersync.BadgerStore
	client  *usersync.APIClient
	session *usersync.Session
	catalog *rapidtree.Catalog
}

func openApp(cmd *cobra.Command) (*app, error) {
	dataDir, err := resolveDataDir(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}
	if _, err := pkg.PathExists(dataDir, true); err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}

	store, err := usersync.OpenBadgerStore(dataDir)
	if err != nil {
		return nil, err
	}

	catalog, err := rapidtree.DefaultCatalog()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load rapid tree catalog: %w", err)
	}

	client := usersync.NewAPIClient(resolveAPIURL(cmd))
	token, err := store.Load(cmd.Context(), tokenKey)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load auth token: %w", err)
	}
	client.SetToken(string(token))

	return &app{
		out:     cmd.OutOrStdout(),
		store:   store,
		client:  client,
		session: usersync.NewSession(store, client),
		catalog: catalog,
	}, nil
}

func (a *app) close() error {
	return a.store.Close()
}

func (a *app) saveToken(ctx context.Context, token string) error {
	if token == "" {
		return a.store.Delete(ctx, tokenKey)
	}
	return a.store.Save(ctx, tokenKey, []byte(token))
}

// load merges the server copy into the local one, reporting a degraded sync.
func (a *app) load(ctx context.Context) (usersync.SyncReport, error) {
	report, err := a.session.Load(ctx)
	if err != nil {
		return report, err
	}
	for _, localErr := range report.LocalErrs {
		fmt.Fprintf(a.out, "warning: ignoring unreadable local data: %s\n", localErr)
	}
	if report.RemoteErr != nil {
		fmt.Fprintf(a.out, "warning: working offline: %s\n", report.RemoteErr)
	}
	return report, nil
}

// warnOffline turns a failed push into a warning, the local write is already done.
func (a *app) warnOffline(err error) error {
	if errors.Is(err, usersync.ErrRemoteUnavailable) {
		fmt.Fprintf(a.out, "warning: saved locally only: %s\n", err)
		return nil
	}
	return err
}

// withApp opens the app for the command and closes it afterwards.
func withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := a.close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		return run(cmd, args, a)
	}
}
