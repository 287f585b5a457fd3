// Command demo is a terminal client that runs the phone login flow and the
// chat history pager in-process, against the mock services.
package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/delordemm1/go-otp-chat/internal/kv"
	"github.com/delordemm1/go-otp-chat/internal/modules/chat"
	"github.com/delordemm1/go-otp-chat/internal/modules/country"
	"github.com/delordemm1/go-otp-chat/internal/modules/otp"
	"github.com/delordemm1/go-otp-chat/internal/modules/user"
	"golang.org/x/term"
)

// Options for the CLI.
type Options struct {
	Store     string `help:"File the session and accounts are persisted to" default:".data/demo.json"`
	Countries string `help:"Country directory URL, empty for the built-in list" default:"https://restcountries.com/v3.1/all?fields=name,cca2,idd,flag"`
	Fast      bool   `help:"Skip the simulated network delays"`
	Verbose   bool   `help:"Log service activity to stderr" short:"v"`
}

// terminalSize is a test seam for term.GetSize.
var terminalSize = term.GetSize

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		hooks.OnStart(func() {
			logOut := io.Discard
			if options.Verbose {
				logOut = os.Stderr
			}
			logger := slog.New(slog.NewTextHandler(logOut, nil))

			store, err := kv.NewFile(options.Store)
			if err != nil {
				printlnFn("Error: cannot open", options.Store+":", err)
				os.Exit(1)
			}

			var countries country.Provider = country.DefaultStatic
			if options.Countries != "" {
				countries = country.WithFallback(country.NewHTTPProvider(options.Countries, 10*time.Second), country.DefaultStatic)
			}

			users := user.NewKVRepository(store, "users:")
			ledger := otp.NewMemoryLedger(otp.Options{})
			history := chat.NewMockHistory(clock.Real{}, 0)
			if !options.Fast {
				users = user.WithLatency(users, user.Latency{Exists: 500 * time.Millisecond, Create: time.Second, Find: 500 * time.Millisecond})
				ledger = otp.WithLatency(ledger, otp.Latency{Send: 1500 * time.Millisecond, Verify: time.Second})
				history = chat.NewMockHistory(clock.Real{}, time.Second)
			}

			width, height, err := terminalSize(int(os.Stdout.Fd()))
			if err != nil {
				width, height = 80, 24
			}

			ctx := context.Background()
			a, err := newApp(ctx, appDeps{
				Out:       os.Stdout,
				Logger:    logger,
				Store:     store,
				Users:     user.NewService(&user.Config{Repo: users, Logger: logger}),
				OTP:       ledger,
				Countries: countries,
				History:   history,
				Width:     width,
				// Leave room for the prompt and the status line.
				Height: max(height-4, 5),
			})
			if err != nil {
				printlnFn("Error:", err)
				os.Exit(1)
			}
			defer a.Close()

			printlnFn("Type help for commands.")
			runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
		})
	})
	cli.Run()
}
