package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chatline/client"
	"chatline/runtime/workers"
	"chatline/wire"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const (
	minUsernameLength = 3
	minPasswordLength = 8

	workerRestartInterval = time.Second
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Connection
	conn, err := net.Dial("tcp", config.Address())
	if err != nil {
		return exitRuntime, fmt.Errorf("cannot reach chat server at %s: %w", config.Address(), err)
	}
	defer conn.Close()

	writer := wire.NewWriter(conn)
	reader := wire.NewReader(conn)
	stdin := bufio.NewScanner(os.Stdin)

	// 3. Interactive authentication. The auth dialog is strictly
	// request/response, so reading replies inline here is safe; the
	// receiver takes over as sole reader only once login succeeded.
	username, err := authenticate(stdin, writer, reader)
	if err != nil {
		return exitRuntime, err
	}
	color.Green.Printf("Logged in as %s. Type a message and press Enter.\n", username)

	// 4. Background workers. cancel doubles as the shared stop signal:
	// whichever of the receiver or poller notices the connection dying
	// cancels the rest.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watermark := client.NewWatermark()
	renderer := client.NewConsoleRenderer(os.Stdout)

	sup := workers.NewSupervisor(logger, workerRestartInterval)
	sup.Add(
		client.NewReceiver(reader, watermark, renderer, username, cancel, logger),
		client.NewPoller(writer, watermark, config.PollInterval, cancel, logger),
	)

	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 5. Input loop. Runs in its own goroutine because Scan blocks on the
	// terminal; a dead connection is surfaced through cancel instead.
	go func() {
		defer cancel()
		fmt.Print("> ")
		for stdin.Scan() {
			content := strings.TrimSpace(stdin.Text())
			if content == "" {
				fmt.Print("> ")
				continue
			}
			err := writer.WriteFrame(wire.Request{
				Action:  wire.ActionSend,
				Content: content,
			})
			if err != nil {
				return
			}
			fmt.Print("> ")
		}
	}()

	<-ctx.Done()
	fmt.Println("\nLeaving the chat...")

	// Closing the connection unblocks the receiver's pending read.
	_ = conn.Close()
	<-supDone

	return exitOK, nil
}

// authenticate drives the register/login dialog until a login succeeds, and
// returns the logged-in username.
func authenticate(stdin *bufio.Scanner, writer *wire.Writer, reader *wire.Reader) (string, error) {
	for {
		choice := prompt(stdin, "Type 'login' or 'register': ")
		if choice != wire.ActionLogin && choice != wire.ActionRegister {
			color.Yellow.Println("Unknown choice.")
			continue
		}

		username := prompt(stdin, "Username: ")
		if len(username) < minUsernameLength {
			color.Yellow.Printf("Username must be at least %d characters.\n", minUsernameLength)
			continue
		}
		password := prompt(stdin, "Password: ")
		if len(password) < minPasswordLength {
			color.Yellow.Printf("Password must be at least %d characters.\n", minPasswordLength)
			continue
		}

		err := writer.WriteFrame(wire.Request{
			Action:   choice,
			Username: username,
			Password: password,
		})
		if err != nil {
			return "", fmt.Errorf("connection lost during authentication: %w", err)
		}

		reply, err := readReply(reader, choice)
		if err != nil {
			return "", err
		}

		switch {
		case choice == wire.ActionLogin && reply.Success:
			return username, nil
		case choice == wire.ActionRegister && reply.Success:
			color.Green.Println(reply.Info)
			color.Green.Println("Now log in with your new account.")
		case reply.Info != "":
			color.Red.Println(reply.Info)
		default:
			color.Red.Println("Authentication failed, try again.")
		}
	}
}

// readReply waits for the server's answer to an auth request, skipping frames
// of other kinds (a broadcast can already be in flight on a shared line).
func readReply(reader *wire.Reader, expected string) (wire.Envelope, error) {
	for {
		line, err := reader.Next()
		if err != nil {
			return wire.Envelope{}, fmt.Errorf("connection lost during authentication: %w", err)
		}
		var env wire.Envelope
		if err := wire.Decode(line, &env); err != nil {
			continue
		}
		if env.Response == expected || env.Response == wire.ResponseError {
			return env, nil
		}
	}
}

func prompt(stdin *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !stdin.Scan() {
		return ""
	}
	return strings.TrimSpace(stdin.Text())
}
