package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/synqlikk/internal/client/client"
	"github.com/dmitrijs2005/synqlikk/internal/client/services"
	"github.com/dmitrijs2005/synqlikk/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type signInFunc func(ctx context.Context, username, password string) (*services.Session, error)

// Register creates an account and pulls everything the authority has.
func (a *App) Register(ctx context.Context) error {
	return a.signIn(ctx, a.auth.Register, services.TriggerRegister)
}

// Login signs in and replaces the local view with a full resync.
func (a *App) Login(ctx context.Context) error {
	return a.signIn(ctx, a.auth.Login, services.TriggerLogin)
}

func (a *App) signIn(ctx context.Context, fn signInFunc, trigger services.Trigger) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := fn(ctx, username, string(password))
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ModeOffline)
			return errors.New("server unavailable, try again when online")
		}
		return err
	}
	a.setSession(sess)
	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Signed in as %s\n", sess.Username)

	report, err := a.runSync(ctx, services.ModeForceFull, trigger)
	if err != nil {
		fmt.Fprintln(a.out, "Initial sync failed, records will sync later:", err)
		return nil
	}
	printReport(a, report)
	return nil
}

// Logout forgets the session. Local records stay on disk.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.setSession(nil)
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	if sess := a.currentSession(); sess != nil {
		fmt.Fprintf(a.out, "User:      %s (%s)\n", sess.Username, sess.UserID)
	} else {
		fmt.Fprintln(a.out, "User:      not signed in")
	}
	fmt.Fprintf(a.out, "Mode:      %s\n", a.currentMode())
	fmt.Fprintf(a.out, "Sync:      %s\n", a.syncer.State())

	last := "never (this session)"
	if ts := a.lastSyncTime(); !ts.IsZero() {
		last = ts.String()
	}
	fmt.Fprintf(a.out, "Last sync: %s\n", last)
	return nil
}
