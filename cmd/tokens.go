package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/1inch/sdks-examples/config"
	"github.com/1inch/sdks-examples/pkg/fusion"
)

var (
	tokensChain  uint64
	tokensSymbol string
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List tokens known on a chain",
	Long: `List tokens known to the 1inch token API for a chain.

Examples:
  fusion-swap list-tokens
  fusion-swap list-tokens --chain 137
  fusion-swap list-tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().Uint64Var(&tokensChain, "chain", 0, "Chain id to query (defaults to the configured EVM chain)")
	tokensCmd.Flags().StringVar(&tokensSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chainID := cfg.EVM.ChainID
	if tokensChain != 0 {
		chainID = tokensChain
	}

	apiClient := fusion.NewClient(cfg.APIURL, cfg.APIKey, fusion.WithLogger(debugLogger(verbose)))

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching token list..."
		s.Start()
	}

	tokens, err := apiClient.Tokens(cmd.Context(), chainID)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	filtered := make([]fusion.Token, 0, len(tokens))
	for _, token := range tokens {
		if tokensSymbol != "" && !strings.Contains(strings.ToUpper(token.Symbol), strings.ToUpper(tokensSymbol)) {
			continue
		}
		filtered = append(filtered, token)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Symbol < filtered[j].Symbol
	})

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTokens(filtered, chainID)
}

func displayTokens(tokens []fusion.Token, chainID uint64) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            KNOWN TOKENS")
	fmt.Println(strings.Repeat("=", 90))
	color.Cyan("\nCHAIN %d", chainID)
	fmt.Println(strings.Repeat("-", 90))

	for _, token := range tokens {
		address := token.Address

		// Truncate address if too long
		if len(address) > 44 {
			address = address[:41] + "..."
		}

		fmt.Printf("  %-10s  %2d decimals  %s\n",
			color.YellowString(token.Symbol),
			token.Decimals,
			color.HiBlackString(address))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens\n\n", len(tokens))
}
