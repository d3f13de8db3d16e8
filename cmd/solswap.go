package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/1inch/sdks-examples/config"
	"github.com/1inch/sdks-examples/pkg/fusion"
	"github.com/1inch/sdks-examples/pkg/parser"
	"github.com/1inch/sdks-examples/pkg/solfusion"
	"github.com/1inch/sdks-examples/pkg/track"
	"github.com/1inch/sdks-examples/pkg/types"
)

var (
	solPreset   string
	solReceiver string
	solYes      bool
)

var solswapCmd = &cobra.Command{
	Use:   "solswap <amount> <source-mint> to <dest-mint>",
	Short: "Swap tokens on Solana through a Fusion escrow order",
	Long: `Swap tokens on Solana by funding a Fusion escrow order.

Token operands are SPL mint addresses; SOL is accepted as shorthand for
the wrapped SOL mint.

Examples:
  fusion-swap solswap 0.5 SOL to EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v
  fusion-swap solswap 100 EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v to SOL --preset fast`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSolSwap,
}

func init() {
	rootCmd.AddCommand(solswapCmd)

	solswapCmd.Flags().StringVar(&solPreset, "preset", "", "Auction preset: fast, medium or slow")
	solswapCmd.Flags().StringVar(&solReceiver, "receiver", "", "Receive funds at this address instead of the maker")
	solswapCmd.Flags().BoolVarP(&solYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runSolSwap(cmd *cobra.Command, args []string) {
	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if solPreset != "" {
		preset, err := fusion.ParsePreset(solPreset)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		swapReq.Preset = string(preset)
	}
	swapReq.Receiver = solReceiver

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	swapper, err := solfusion.New(cfg.Solana)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient := fusion.NewClient(cfg.APIURL, cfg.APIKey, fusion.WithLogger(debugLogger(verbose)))

	if err := executeSolSwap(cmd.Context(), cfg, apiClient, swapper, swapReq, jsonOutput); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func executeSolSwap(ctx context.Context, cfg *config.Config, apiClient *fusion.Client, swapper *solfusion.Swapper, swapReq *types.SwapRequest, jsonOutput bool) error {
	srcMint, err := resolveMint(swapReq.SourceToken)
	if err != nil {
		return err
	}
	dstMint, err := resolveMint(swapReq.DestToken)
	if err != nil {
		return err
	}
	if srcMint == dstMint {
		return fmt.Errorf("source and destination mints are the same")
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	startSpinner := func(suffix string) {
		if !jsonOutput {
			s.Suffix = suffix
			s.Start()
		}
	}
	stopSpinner := func() {
		if !jsonOutput {
			s.Stop()
		}
	}

	startSpinner(" Reading mint decimals...")
	decimals, err := swapper.TokenDecimals(ctx, srcMint)
	stopSpinner()
	if err != nil {
		return err
	}

	amount, err := types.ToBaseUnits(swapReq.Amount, int(decimals))
	if err != nil {
		return err
	}
	if !amount.IsUint64() {
		return fmt.Errorf("amount %s exceeds the maximum lamport value", swapReq.Amount)
	}
	srcAmount := amount.Uint64()

	startSpinner(" Checking balance...")
	err = swapper.EnsureBalance(ctx, srcMint, srcAmount)
	stopSpinner()
	if err != nil {
		return err
	}

	startSpinner(" Fetching quote...")
	quote, err := apiClient.GetQuote(ctx, &fusion.QuoteRequest{
		ChainID:       solfusion.ChainID,
		FromToken:     srcMint,
		ToToken:       dstMint,
		Amount:        amount.String(),
		WalletAddress: swapper.PublicKey().String(),
		Receiver:      swapReq.Receiver,
	})
	stopSpinner()
	if err != nil {
		return err
	}

	preset, err := quote.Preset(fusion.PresetName(swapReq.Preset))
	if err != nil {
		return err
	}
	minDst, err := strconv.ParseUint(preset.AuctionEndAmount, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid auction end amount %q: %w", preset.AuctionEndAmount, err)
	}

	if !jsonOutput {
		displaySolQuote(swapReq, quote, minDst, srcMint, dstMint)
		if !solYes && !cfg.AutoConfirm {
			if !confirmPrompt("\nFund the escrow order? (y/N): ") {
				return fmt.Errorf("swap cancelled by user")
			}
		}
	}

	orderID, err := solfusion.NewOrderID()
	if err != nil {
		return err
	}

	startSpinner(" Submitting escrow transaction...")
	sig, err := swapper.SendOrder(ctx, &solfusion.OrderParams{
		OrderID:      orderID,
		SrcMint:      srcMint,
		DstMint:      dstMint,
		SrcAmount:    srcAmount,
		MinDstAmount: minDst,
		Receiver:     swapReq.Receiver,
	})
	stopSpinner()
	if err != nil {
		return err
	}

	if !jsonOutput {
		fmt.Printf("\nEscrow transaction sent: %s\n", color.CyanString(sig.String()))
	}

	presetName := swapReq.Preset
	if presetName == "" {
		presetName = string(quote.RecommendedPreset)
	}
	recordSolOrder(sig.String(), presetName, swapReq, amount.String(), quote.ToTokenAmount)

	confirmCtx, cancel := context.WithTimeout(ctx, cfg.PollTimeout)
	defer cancel()

	startSpinner(" Waiting for confirmation...")
	err = swapper.ConfirmSignature(confirmCtx, sig, cfg.PollInterval)
	stopSpinner()
	if err != nil {
		updateSolRecord(sig.String(), "failed")
		return err
	}

	// The escrow funding is confirmed; the Fusion order itself settles
	// on-chain afterwards, so this is not a fill
	updateSolRecord(sig.String(), "confirmed")

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]interface{}{
			"signature": sig.String(),
			"orderId":   orderID,
			"status":    "confirmed",
		}, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		color.Green("\nEscrow order funded. Resolvers will now fill it on-chain.\n")
	}
	return nil
}

// resolveMint accepts a mint address or the SOL shorthand
func resolveMint(token string) (string, error) {
	if strings.EqualFold(token, "SOL") {
		return solfusion.WrappedSOL, nil
	}
	if !parser.IsAddress(token) {
		return "", fmt.Errorf("unknown token %q: solana swaps need SPL mint addresses", token)
	}
	return token, nil
}

func displaySolQuote(swapReq *types.SwapRequest, quote *fusion.Quote, minDst uint64, srcMint, dstMint string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                    SOLANA FUSION SWAP")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("\n  From:          %s (%s)\n", swapReq.Amount, color.HiBlackString(srcMint))
	fmt.Printf("  To:            %s\n", color.HiBlackString(dstMint))
	fmt.Printf("  Expected Out:  %s base units\n", quote.ToTokenAmount)
	fmt.Printf("  Min Out:       %d base units\n", minDst)
	fmt.Printf("  Preset:        %s\n", quote.RecommendedPreset)
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func recordSolOrder(sig, preset string, swapReq *types.SwapRequest, amountIn, amountOut string) {
	storage, err := track.NewStorage("")
	if err != nil {
		return
	}
	now := time.Now()
	_ = storage.Create(&track.OrderRecord{
		OrderHash:   sig,
		ChainID:     solfusion.ChainID,
		Chain:       "solana",
		SourceToken: swapReq.SourceToken,
		DestToken:   swapReq.DestToken,
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		Preset:      preset,
		Status:      "submitted",
		Created:     now,
		LastUpdated: now,
	})
}

func updateSolRecord(sig, status string) {
	storage, err := track.NewStorage("")
	if err != nil {
		return
	}
	_ = storage.UpdateStatus(sig, status, "")
}
