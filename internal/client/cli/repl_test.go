package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) call(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Signup(context.Context) error { return f.call("signup") }
func (f *fakeExec) Login(context.Context) error { f.loggedIn = true; return f.call("login") }
func (f *fakeExec) Logout(context.Context) error { f.loggedIn = false; return f.call("logout") }
func (f *fakeExec) WhoAmI(context.Context) error { return f.call("whoami") }
func (f *fakeExec) List(context.Context) error { return f.call("list") }
func (f *fakeExec) Show(context.Context) error { return f.call("show") }
func (f *fakeExec) New(context.Context) error { return f.call("new") }
func (f *fakeExec) Edit(context.Context) error { return f.call("edit") }
func (f *fakeExec) Lock(context.Context) error { return f.call("lock") }
func (f *fakeExec) Delete(context.Context) error { return f.call("delete") }
func (f *fakeExec) Share(context.Context) error { return f.call("share") }
func (f *fakeExec) Search(context.Context) error { return f.call("search") }
func (f *fakeExec) Profile(context.Context) error { return f.call("profile") }
func (f *fakeExec) Status(context.Context) error { return f.call("status") }
func (f *fakeExec) Sync(context.Context) error { return f.call("sync") }

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := capturePrintln(t)

	input := strings.Join([]string{
		"help",
		"login",
		"help",
		"",
		"l",
		"new",
		"edit",
		"lock",
		"show",
		"rm",
		"share",
		"search",
		"profile",
		"whoami",
		"status",
		"sync",
		"foobar",
		"logout",
		"exit",
		"list",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(status)" }, rdr(input))

	assert.Equal(t, []string{
		"login", "list", "new", "edit", "lock", "show", "delete", "share",
		"search", "profile", "whoami", "status", "sync", "logout",
	}, exec.calls, "commands after exit are not read")

	assert.Contains(t, *out, helpLoggedOut)
	assert.Contains(t, *out, helpLoggedIn)
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "notex (status)>")
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRunREPL_StopsAtEOF(t *testing.T) {
	capturePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("signup\nregister"))

	assert.Equal(t, []string{"signup", "signup"}, exec.calls)
}

func TestRunREPL_StopsWhenContextCancelled(t *testing.T) {
	capturePrintln(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, rdr("list\nlist\n"))

	assert.Equal(t, []string{"list"}, exec.calls)
}
