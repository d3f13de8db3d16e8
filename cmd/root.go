package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fusion-swap",
	Short: "A CLI for intent swaps using the 1inch Fusion API",
	Long: `fusion-swap is a command-line tool for gasless token swaps through the
1inch Fusion Dutch-auction order system. You sign an intent, resolvers
compete to fill it.

Examples:
  fusion-swap swap 1.5 WETH to USDC
  fusion-swap quote 1000 USDC to WETH --preset fast
  fusion-swap status 0x1234...abcd --watch
  fusion-swap solswap 0.5 SOL to EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v
  fusion-swap tokens --symbol USDC`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

// debugLogger returns a console logger when verbose is set, a no-op
// logger otherwise
func debugLogger(verbose bool) zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	out := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(zerolog.DebugLevel)
}
