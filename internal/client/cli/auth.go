package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/notex/internal/client/client"
	"github.com/dmitrijs2005/notex/internal/client/models"
)

// getSimpleText, getMultiline, getPassword and getConfirmation are
// indirections over the input helpers so tests can script answers.
var (
	getSimpleText   = GetSimpleText
	getMultiline    = GetMultiline
	getPassword     = GetPassword
	getConfirmation = GetConfirmation
)

// Signup prompts for a name, username and password and creates an account.
func (a *App) Signup(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	u, err := a.gateway.Signup(ctx, models.Credentials{Name: name, Username: username, Password: string(password)})
	if err != nil {
		return a.fail(err)
	}

	a.setUser(u)
	fmt.Fprintf(a.out, "Welcome, %s!\n", u.Name)
	return nil
}

// Login prompts for credentials and signs in. It needs a connection.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	u, err := a.gateway.Login(ctx, username, string(password))
	if err != nil {
		return a.fail(err)
	}

	a.setUser(u)
	fmt.Fprintf(a.out, "Logged in as %s\n", u.Username)
	return nil
}

// Logout forgets the signed-in user. Cached notes and queued changes stay.
func (a *App) Logout(ctx context.Context) error {
	a.gateway.Logout(ctx)
	a.setUser(nil)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// WhoAmI prints the signed-in user, asking the server when reachable.
func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.gateway.CurrentUser(ctx)
	if err != nil {
		return a.fail(err)
	}

	a.setUser(u)
	fmt.Fprintf(a.out, "%s (@%s) id=%s\n", u.Name, u.Username, u.Id)
	return nil
}

func (a *App) requireUser() (*models.User, error) {
	u := a.currentUser()
	if u == nil {
		return nil, a.fail(client.ErrNotAuthenticated)
	}
	return u, nil
}
