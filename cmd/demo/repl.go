package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Start(ctx context.Context, mode string) error
	Phone(ctx context.Context, countryCode, number string) error
	OTP(ctx context.Context, code string) error
	Resend(ctx context.Context) error
	Back(ctx context.Context) error
	Profile(ctx context.Context, first, last, email string) error
	Rooms(ctx context.Context, search string) error
	Open(ctx context.Context, roomID string) error
	Older(ctx context.Context) error
	Send(ctx context.Context, text string) error
	Scroll(ctx context.Context, offset int) error
	View(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Logout(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: login, signup, phone <cc> <number>, otp <code>, resend, back, profile <first> <last> [email], whoami, exit"
	helpLoggedIn  = "Available commands: rooms [search], open <roomId>, older, send <text>, scroll <offset>, view, whoami, logout, exit"
)

// runREPL reads one command per line and dispatches it to a. Errors are
// printed and the loop continues. It returns on EOF or "exit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("chat> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "login", "signup":
			err = a.Start(ctx, cmd)

		case "phone":
			if len(args) != 2 {
				printlnFn("Usage: phone <countryCode> <number>")
				continue
			}
			err = a.Phone(ctx, args[0], args[1])

		case "otp":
			if len(args) != 1 {
				printlnFn("Usage: otp <code>")
				continue
			}
			err = a.OTP(ctx, args[0])

		case "resend":
			err = a.Resend(ctx)

		case "back":
			err = a.Back(ctx)

		case "profile":
			if len(args) < 2 || len(args) > 3 {
				printlnFn("Usage: profile <first> <last> [email]")
				continue
			}
			email := ""
			if len(args) == 3 {
				email = args[2]
			}
			err = a.Profile(ctx, args[0], args[1], email)

		case "rooms":
			err = a.Rooms(ctx, strings.Join(args, " "))

		case "open":
			if len(args) != 1 {
				printlnFn("Usage: open <roomId>")
				continue
			}
			err = a.Open(ctx, args[0])

		case "older":
			err = a.Older(ctx)

		case "send":
			err = a.Send(ctx, strings.Join(args, " "))

		case "scroll":
			var offset int
			if len(args) != 1 {
				printlnFn("Usage: scroll <offset>")
				continue
			}
			if _, serr := fmt.Sscanf(args[0], "%d", &offset); serr != nil {
				printlnFn("Usage: scroll <offset>")
				continue
			}
			err = a.Scroll(ctx, offset)

		case "view":
			err = a.View(ctx)

		case "whoami":
			err = a.WhoAmI(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
