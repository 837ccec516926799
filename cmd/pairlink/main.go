package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pairlink/internal/client"
	"pairlink/internal/config"
	"pairlink/internal/constants"
)

func main() {
	flag.Usage = func() {
		fmt.Println()
		fmt.Printf("  %s%spairlink%s %sv%s%s\n", constants.ColorBold, constants.ColorCyan, constants.ColorReset, constants.ColorBold, constants.Version, constants.ColorReset)
		fmt.Println()
		fmt.Printf("  %sUsage:%s\n", constants.ColorBold, constants.ColorReset)
		fmt.Printf("    pairlink                    # connect to the configured hub\n")
		fmt.Println()
		fmt.Printf("  %sFlags:%s\n", constants.ColorBold, constants.ColorReset)
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    -%-12s %s\n", f.Name, f.Usage)
		})
		fmt.Println()
		fmt.Printf("  %sEnvironment:%s\n", constants.ColorBold, constants.ColorReset)
		fmt.Printf("    %-24s direct hub addresses, comma separated\n", constants.EnvDirectAddrs)
		fmt.Printf("    %-24s relay service base URL\n", constants.EnvRelayURL)
		fmt.Printf("    %-24s relay room code (the hub identity)\n", constants.EnvRelayCode)
		fmt.Printf("    %-24s session store path\n", constants.EnvStorePath)
		fmt.Printf("    %-24s passphrase for at-rest store sealing\n", constants.EnvStoreKey)
		fmt.Println()
	}

	versionFlag := flag.Bool("version", false, "show version")
	statusFlag := flag.Bool("status", false, "list stored sessions")
	logoutFlag := flag.String("logout", "", "drop the stored session for a hub identity")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("  %s%spairlink%s %sv%s%s\n", constants.ColorBold, constants.ColorCyan, constants.ColorReset, constants.ColorBold, constants.Version, constants.ColorReset)
		fmt.Printf("  %sPair once, stay trusted everywhere%s\n", constants.ColorDim, constants.ColorReset)
		os.Exit(0)
	}

	cfg := config.Load()
	runner, err := client.NewRunner(cfg)
	if err != nil {
		fmt.Printf("%sError: %v%s\n", constants.ColorRed, err, constants.ColorReset)
		os.Exit(1)
	}
	defer runner.Log.Close()

	if *statusFlag {
		for _, line := range strings.Split(cfg.DisplayMasked(), "\n") {
			fmt.Printf("  %s%s%s\n", constants.ColorDim, line, constants.ColorReset)
		}
		fmt.Println()
		runner.Status()
		os.Exit(0)
	}

	if *logoutFlag != "" {
		if err := runner.Logout(*logoutFlag); err != nil {
			fmt.Printf("%sError: %v%s\n", constants.ColorRed, err, constants.ColorReset)
			os.Exit(1)
		}
		os.Exit(0)
	}

	client.PrintBanner()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = runner.Run(ctx)
	if errors.Is(ctx.Err(), context.Canceled) {
		fmt.Println()
		fmt.Printf("  %s● shutting down...%s\n", constants.ColorYellow, constants.ColorReset)
		fmt.Printf("  %s● done%s\n\n", constants.ColorGreen, constants.ColorReset)
		return
	}
	if err != nil {
		os.Exit(1)
	}
}
