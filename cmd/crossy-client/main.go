// Command crossy-client is a text-driven game client: it joins a match
// and reads single-key-style lines from stdin, without any rendering
// layer of its own.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crossy/crossy-go/internal/client"
	"github.com/crossy/crossy-go/internal/input"
	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/telemetry"
)

// Version is set at build time.
var Version = "dev"

var (
	flagConnect string
	flagGameId  uint32
	flagName    string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "crossy-client",
	Short: "Crossy text-driven game client",
	Long: `crossy-client joins a crossing-game match over HTTP/WebSocket and
drives it from stdin: w/a/s/d move, q quits. The r key is recognised
but sends nothing; there is no lobby-ready toggle.

Examples:
  crossy-client --connect localhost:7777 --name Alice
  crossy-client --connect localhost:7777 --game-id 1234 --name Bob`,
	RunE: runClient,
}

func init() {
	rootCmd.Flags().StringVar(&flagConnect, "connect", "localhost:7777", "server address (host:port)")
	rootCmd.Flags().Uint32Var(&flagGameId, "game-id", 0, "join an existing game instead of creating one")
	rootCmd.Flags().StringVar(&flagName, "name", "Player", "player name")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
}

func runClient(cmd *cobra.Command, args []string) error {
	log := telemetry.NewLogger(flagVerbose)

	c := client.New(client.Config{
		ServerAddr: flagConnect,
		GameId:     flagGameId,
		PlayerName: flagName,
	}, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	fmt.Printf("joined game %d as player %v\n", c.GameId(), firstOrZero(c.PlayerId()))

	keys := input.NewHandler()
	go readStdin(c, keys)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	select {
	case <-ctx.Done():
		c.Disconnect()
		return nil
	case <-c.Done():
		fmt.Println("game ended")
		return nil
	case err := <-errCh:
		return err
	}
}

func readStdin(c *client.Client, keys *input.Handler) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if line == "" {
			continue
		}
		for _, r := range line {
			if r == 'q' {
				c.Disconnect()
				return
			}
			keys.OnKeyPress(r)
		}
		if in := keys.State().ToInput(); in != protocol.InputNone {
			c.SetInput(in)
		}
		keys.Clear()
	}
}

func firstOrZero[T any](v T, _ bool) T { return v }

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
