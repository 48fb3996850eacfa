package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"mt5bridge/pkg/mt5bridge"
)

const version = "0.1.0"

func main() {
	server := flag.String("server", envOr("MT5BRIDGE_URL", "http://127.0.0.1:8000"), "bridge server base URL")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mt5bridge-cli [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version                      Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  health                       Show bridge and terminal status\n")
		fmt.Fprintf(os.Stderr, "  tick <symbol>                Show the latest quote\n")
		fmt.Fprintf(os.Stderr, "  rates <symbol> <tf> [count]  Show recent bars (M1..MN1)\n")
		fmt.Fprintf(os.Stderr, "  positions                    List open positions\n")
		fmt.Fprintf(os.Stderr, "  close <ticket>               Close an open position\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	client := mt5bridge.NewClient(*server)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch flag.Arg(0) {
	case "version":
		fmt.Printf("mt5bridge-cli %s\n", version)

	case "health":
		health, err := client.Health(ctx)
		exitOn(err)
		printJSON(health)

	case "tick":
		if flag.NArg() < 2 {
			fail("tick requires a symbol")
		}
		tick, err := client.Tick(ctx, flag.Arg(1))
		exitOn(err)
		printJSON(tick)

	case "rates":
		if flag.NArg() < 3 {
			fail("rates requires a symbol and a timeframe")
		}
		count := 10
		if flag.NArg() > 3 {
			n, err := strconv.Atoi(flag.Arg(3))
			if err != nil || n <= 0 {
				fail("count must be a positive integer")
			}
			count = n
		}
		bars, err := client.Rates(ctx, flag.Arg(1), flag.Arg(2), count)
		exitOn(err)
		printJSON(bars)

	case "positions":
		positions, err := client.Positions(ctx)
		exitOn(err)
		printJSON(positions)

	case "close":
		if flag.NArg() < 2 {
			fail("close requires a ticket")
		}
		ticket, err := strconv.ParseUint(flag.Arg(1), 10, 64)
		if err != nil {
			fail("ticket must be a positive integer")
		}
		exitOn(client.ClosePosition(ctx, ticket))
		fmt.Printf("position %d closed\n", ticket)

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func fail(msg string) {
	fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
