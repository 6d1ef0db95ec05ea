package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/synqlikk/internal/models"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	ListTasks(ctx context.Context, args []string) error
	AddTask(ctx context.Context) error
	EditTask(ctx context.Context, id string) error
	ListNotes(ctx context.Context, args []string) error
	AddNote(ctx context.Context) error
	EditNote(ctx context.Context, id string) error
	ListExpenses(ctx context.Context, args []string) error
	AddExpense(ctx context.Context) error
	EditExpense(ctx context.Context, id string) error
	Delete(ctx context.Context, kind models.Kind, id string) error
	Sync(ctx context.Context, args []string) error
}

const (
	helpSignedOut = "Available commands: register, login, status, exit"
	helpSignedIn  = "Available commands:\n" +
		"  tasks [status=.. priority=.. due=YYYY-MM-DD text], addtask, edittask <id>, deltask <id>\n" +
		"  notes [text], addnote, editnote <id>, delnote <id>\n" +
		"  expenses [category], addexpense, editexpense <id>, delexpense <id>\n" +
		"  sync [full], status, login, logout, exit"
)

// runREPL reads commands from reader until EOF, "exit" or "quit".
// Handler errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("sq %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}

var errUsage = errors.New("usage")

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpSignedIn)
		} else {
			printlnFn(helpSignedOut)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "status":
		return a.Status(ctx)
	}

	withID := func(fn func(string) error) error {
		if len(args) != 1 {
			return fmt.Errorf("%w: %s <id>", errUsage, cmd)
		}
		return fn(args[0])
	}
	del := func(kind models.Kind) func(string) error {
		return func(id string) error { return a.Delete(ctx, kind, id) }
	}
	edit := func(fn func(context.Context, string) error) func(string) error {
		return func(id string) error { return fn(ctx, id) }
	}

	var handler func() error
	switch cmd {
	case "logout":
		handler = func() error { return a.Logout(ctx) }
	case "tasks":
		handler = func() error { return a.ListTasks(ctx, args) }
	case "addtask":
		handler = func() error { return a.AddTask(ctx) }
	case "edittask":
		handler = func() error { return withID(edit(a.EditTask)) }
	case "deltask":
		handler = func() error { return withID(del(models.KindTask)) }
	case "notes":
		handler = func() error { return a.ListNotes(ctx, args) }
	case "addnote":
		handler = func() error { return a.AddNote(ctx) }
	case "editnote":
		handler = func() error { return withID(edit(a.EditNote)) }
	case "delnote":
		handler = func() error { return withID(del(models.KindNote)) }
	case "expenses":
		handler = func() error { return a.ListExpenses(ctx, args) }
	case "addexpense":
		handler = func() error { return a.AddExpense(ctx) }
	case "editexpense":
		handler = func() error { return withID(edit(a.EditExpense)) }
	case "delexpense":
		handler = func() error { return withID(del(models.KindExpense)) }
	case "sync":
		handler = func() error { return a.Sync(ctx, args) }
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}

	if !a.isLoggedIn() {
		printlnFn("Please register or login first")
		return nil
	}
	return handler()
}
