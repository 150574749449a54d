package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context) error
	New(ctx context.Context) error
	Edit(ctx context.Context) error
	Lock(ctx context.Context) error
	Delete(ctx context.Context) error
	Share(ctx context.Context) error
	Search(ctx context.Context) error
	Profile(ctx context.Context) error
	Status(ctx context.Context) error
	Sync(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: signup, login, status, exit"
	helpLoggedIn  = "Available commands: (l)ist, show, new, edit, lock, delete, share, search, profile, whoami, status, sync, logout, exit"
)

// runREPL reads commands from reader and dispatches them to a until EOF or
// "exit"/"quit". The prompt shows statusFn's value. Command errors are
// reported by the handlers themselves and do not stop the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("notex %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "signup", "register":
			_ = a.Signup(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "show":
			_ = a.Show(ctx)

		case "new":
			_ = a.New(ctx)

		case "edit":
			_ = a.Edit(ctx)

		case "lock":
			_ = a.Lock(ctx)

		case "delete", "rm":
			_ = a.Delete(ctx)

		case "share":
			_ = a.Share(ctx)

		case "search":
			_ = a.Search(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "status":
			_ = a.Status(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if ctx.Err() != nil {
			return
		}
	}
}
