package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/1inch/sdks-examples/config"
	"github.com/1inch/sdks-examples/pkg/fusion"
	"github.com/1inch/sdks-examples/pkg/parser"
	"github.com/1inch/sdks-examples/pkg/types"
)

var quotePreset string

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token>",
	Short: "Fetch a quote with auction presets without swapping",
	Long: `Fetch a Fusion quote and display its Dutch auction presets.
No order is created and no funds move.

Examples:
  fusion-swap quote 1.5 WETH to USDC
  fusion-swap quote 1000 USDC to WETH --preset fast`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quotePreset, "preset", "", "Highlight one preset: fast, medium or slow")
}

func runQuote(cmd *cobra.Command, args []string) {
	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if quotePreset != "" {
		preset, err := fusion.ParsePreset(quotePreset)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		swapReq.Preset = string(preset)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient := fusion.NewClient(cfg.APIURL, cfg.APIKey, fusion.WithLogger(debugLogger(verbose)))
	ctx := cmd.Context()
	chainID := cfg.EVM.ChainID

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	quote, srcToken, dstToken, err := fetchQuote(ctx, apiClient, chainID, swapReq)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(quote, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayQuotePresets(quote, swapReq, srcToken, dstToken)
}

func fetchQuote(ctx context.Context, apiClient *fusion.Client, chainID uint64, swapReq *types.SwapRequest) (*fusion.Quote, *fusion.Token, *fusion.Token, error) {
	srcToken, err := apiClient.ResolveToken(ctx, chainID, swapReq.SourceToken)
	if err != nil {
		return nil, nil, nil, err
	}

	dstToken, err := apiClient.ResolveToken(ctx, chainID, swapReq.DestToken)
	if err != nil {
		return nil, nil, nil, err
	}

	amount, err := types.ToBaseUnits(swapReq.Amount, srcToken.Decimals)
	if err != nil {
		return nil, nil, nil, err
	}

	// Quote-only requests still need a wallet address; a burn address
	// works when no key is configured.
	quote, err := apiClient.GetQuote(ctx, &fusion.QuoteRequest{
		ChainID:       chainID,
		FromToken:     srcToken.Address,
		ToToken:       dstToken.Address,
		Amount:        amount.String(),
		WalletAddress: "0x0000000000000000000000000000000000000001",
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return quote, srcToken, dstToken, nil
}

func displayQuotePresets(quote *fusion.Quote, swapReq *types.SwapRequest, srcToken, dstToken *fusion.Token) {
	amountOut, _ := types.FromBaseUnitsString(quote.ToTokenAmount, dstToken.Decimals)

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        FUSION QUOTE")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  From:        %s %s\n", swapReq.Amount, color.YellowString(srcToken.Symbol))
	fmt.Printf("  To:          ~%s %s\n", amountOut, color.YellowString(dstToken.Symbol))
	fmt.Printf("  Recommended: %s\n", quote.RecommendedPreset)

	for _, name := range []fusion.PresetName{fusion.PresetFast, fusion.PresetMedium, fusion.PresetSlow} {
		preset, ok := quote.Presets[name]
		if !ok {
			continue
		}

		marker := "  "
		if string(name) == swapReq.Preset || (swapReq.Preset == "" && name == quote.RecommendedPreset) {
			marker = "> "
		}

		startOut, _ := types.FromBaseUnitsString(preset.AuctionStartAmount, dstToken.Decimals)
		endOut, _ := types.FromBaseUnitsString(preset.AuctionEndAmount, dstToken.Decimals)

		color.Cyan("\n%s%s", marker, strings.ToUpper(string(name)))
		fmt.Printf("    Duration:      %ds (starts in %ds)\n", preset.AuctionDuration, preset.StartAuctionIn)
		fmt.Printf("    Start Amount:  %s %s\n", startOut, dstToken.Symbol)
		fmt.Printf("    End Amount:    %s %s\n", endOut, dstToken.Symbol)
		fmt.Printf("    Curve Points:  %d\n", len(preset.Points))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
