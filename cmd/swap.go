package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/1inch/sdks-examples/config"
	"github.com/1inch/sdks-examples/pkg/evm"
	"github.com/1inch/sdks-examples/pkg/fusion"
	"github.com/1inch/sdks-examples/pkg/parser"
	"github.com/1inch/sdks-examples/pkg/track"
	"github.com/1inch/sdks-examples/pkg/types"
)

var (
	swapPreset    string
	swapReceiver  string
	approveMax    bool
	useSubscribe  bool
	clientBackend string
	noConfirm     bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Perform a gasless intent swap on an EVM chain",
	Long: `Swap tokens through the Fusion Dutch-auction order system.

The command checks your balance and allowance, fetches a quote with
auction presets, signs the order and submits it, then waits until a
resolver fills it (or the order reaches another terminal state).

Examples:
  fusion-swap swap 1.5 WETH to USDC
  fusion-swap swap 1000 USDC to WETH --preset fast --yes
  fusion-swap swap 1 WETH to USDC --subscribe
  fusion-swap swap 1 WETH to USDC --client jsonrpc`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&swapPreset, "preset", "", "Auction preset: fast, medium or slow (default: recommended)")
	swapCmd.Flags().StringVar(&swapReceiver, "receiver", "", "Receiver address (default: your wallet)")
	swapCmd.Flags().BoolVar(&approveMax, "approve-max", false, "Approve unlimited allowance instead of the exact amount")
	swapCmd.Flags().BoolVar(&useSubscribe, "subscribe", false, "Wait for fill via the WebSocket event feed instead of polling")
	swapCmd.Flags().StringVar(&clientBackend, "client", "", "EVM client backend: geth or jsonrpc (default: from config)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	swapReq.Receiver = swapReceiver

	if swapPreset != "" {
		preset, err := fusion.ParsePreset(swapPreset)
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
	if clientBackend != "" {
		cfg.EVM.Client = strings.ToLower(clientBackend)
	}

	log := debugLogger(verbose)
	apiClient := fusion.NewClient(cfg.APIURL, cfg.APIKey,
		fusion.WithLogger(log), fusion.WithWSURL(cfg.WSURL))

	wallet, err := evm.New(cfg.EVM)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer wallet.Close()

	result, err := executeSwap(cmd.Context(), cfg, apiClient, wallet, swapReq, jsonOutput)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(jsonData))
	}

	if result.Status != string(fusion.StateFilled) {
		if !jsonOutput {
			color.Red("\nSwap did not complete: %s\n", getColoredStatus(result.Status))
		}
		os.Exit(1)
	}

	if !jsonOutput {
		color.Green("\n✓ Swap filled!")
		fmt.Printf("  Order Hash:  %s\n", color.CyanString(result.OrderHash))
		if result.FillTxHash != "" {
			fmt.Printf("  Fill Tx:     %s\n", color.HiBlackString(result.FillTxHash))
		}
	}
}

func executeSwap(ctx context.Context, cfg *config.Config, apiClient *fusion.Client, wallet evm.Wallet, swapReq *types.SwapRequest, jsonOutput bool) (*types.SwapResult, error) {
	chainID := cfg.EVM.ChainID

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Resolving tokens..."
		s.Start()
	}

	srcToken, srcErr := apiClient.ResolveToken(ctx, chainID, swapReq.SourceToken)
	var dstToken *fusion.Token
	var dstErr error
	if srcErr == nil {
		dstToken, dstErr = apiClient.ResolveToken(ctx, chainID, swapReq.DestToken)
	}
	if !jsonOutput {
		s.Stop()
	}
	if srcErr != nil {
		return nil, fmt.Errorf("source token error: %w", srcErr)
	}
	if dstErr != nil {
		return nil, fmt.Errorf("destination token error: %w", dstErr)
	}

	return performSwap(ctx, cfg, apiClient, wallet, swapReq, srcToken, dstToken, jsonOutput, s)
}

func performSwap(ctx context.Context, cfg *config.Config, apiClient *fusion.Client, wallet evm.Wallet, swapReq *types.SwapRequest, srcToken, dstToken *fusion.Token, jsonOutput bool, s *spinner.Spinner) (*types.SwapResult, error) {
	chainID := cfg.EVM.ChainID

	if strings.EqualFold(srcToken.Address, fusion.NativeToken) {
		return nil, fmt.Errorf("native token swaps are not supported: wrap to W%s first", srcToken.Symbol)
	}

	amount, err := types.ToBaseUnits(swapReq.Amount, srcToken.Decimals)
	if err != nil {
		return nil, err
	}

	// Balance check before anything that could move funds
	balance, err := wallet.TokenBalance(ctx, common.HexToAddress(srcToken.Address))
	if err != nil {
		return nil, fmt.Errorf("failed to get token balance: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return nil, fmt.Errorf("insufficient %s balance: have %s, need %s",
			srcToken.Symbol, types.FromBaseUnits(balance, srcToken.Decimals), swapReq.Amount)
	}

	// Get quote
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}
	quote, err := apiClient.GetQuote(ctx, &fusion.QuoteRequest{
		ChainID:       chainID,
		FromToken:     srcToken.Address,
		ToToken:       dstToken.Address,
		Amount:        amount.String(),
		WalletAddress: wallet.Address().Hex(),
		Receiver:      swapReq.Receiver,
	})
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		return nil, err
	}

	preset, err := quote.Preset(fusion.PresetName(swapReq.Preset))
	if err != nil {
		return nil, err
	}

	if !jsonOutput {
		displayQuote(quote, preset, swapReq, srcToken, dstToken)
	}

	if !noConfirm && !cfg.AutoConfirm && !jsonOutput {
		if !confirmPrompt("\nProceed with swap? (y/N): ") {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	// Allowance check against the settlement contract
	if !common.IsHexAddress(quote.SettlementAddress) {
		return nil, fmt.Errorf("quote returned invalid settlement address: %s", quote.SettlementAddress)
	}
	settlement := common.HexToAddress(quote.SettlementAddress)

	if err := ensureAllowance(ctx, wallet, common.HexToAddress(srcToken.Address), settlement, amount, jsonOutput, s); err != nil {
		return nil, err
	}

	// Sign and submit the order
	signer, err := fusion.NewSigner(cfg.EVM.PrivateKey, chainID, quote.SettlementAddress)
	if err != nil {
		return nil, err
	}

	order, err := fusion.BuildOrder(quote, &fusion.OrderParams{
		Maker:     wallet.Address().Hex(),
		Receiver:  swapReq.Receiver,
		FromToken: srcToken.Address,
		ToToken:   dstToken.Address,
		Amount:    amount.String(),
		Preset:    fusion.PresetName(swapReq.Preset),
	})
	if err != nil {
		return nil, err
	}

	signedOrder, err := signer.SignOrder(order, quote.QuoteID)
	if err != nil {
		return nil, err
	}

	orderHash, err := signer.OrderHash(order)
	if err != nil {
		return nil, err
	}

	// The event feed has no replay; subscribing after submit can miss
	// a fast fill entirely
	var stream *fusion.EventStream
	if useSubscribe {
		stream, err = apiClient.Subscribe(ctx, chainID)
		if err != nil {
			return nil, err
		}
		defer stream.Close()
	}

	if !jsonOutput {
		s.Suffix = " Submitting order..."
		s.Start()
	}
	err = apiClient.SubmitOrder(ctx, chainID, signedOrder)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		return nil, err
	}

	if !jsonOutput {
		color.Green("\n✓ Order submitted!")
		fmt.Printf("  Order Hash: %s\n", color.CyanString(orderHash.Hex()))
	}

	recordOrder(&track.OrderRecord{
		OrderHash:   orderHash.Hex(),
		ChainID:     chainID,
		Chain:       "evm",
		SourceToken: srcToken.Symbol,
		DestToken:   dstToken.Symbol,
		AmountIn:    swapReq.Amount,
		Preset:      swapReq.Preset,
		Status:      string(fusion.StatePending),
	})

	// Wait for a terminal state
	if !jsonOutput {
		s.Suffix = " Waiting for a resolver to fill the order..."
		s.Start()
	}

	var status *fusion.OrderStatus
	if useSubscribe {
		status, err = apiClient.WaitOrderSettled(ctx, stream, chainID, orderHash.Hex(), cfg.PollTimeout)
	} else {
		waitCtx, cancel := context.WithTimeout(ctx, cfg.PollTimeout)
		defer cancel()
		status, err = apiClient.WaitForTerminal(waitCtx, chainID, orderHash.Hex(), cfg.PollInterval, func(st *fusion.OrderStatus) {
			updateOrderStatus(orderHash.Hex(), string(st.Status), st.FillTxHash())
		})
	}
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		return nil, err
	}

	updateOrderStatus(orderHash.Hex(), string(status.Status), status.FillTxHash())

	amountOut, _ := types.FromBaseUnitsString(quote.ToTokenAmount, dstToken.Decimals)
	return &types.SwapResult{
		OrderHash:  orderHash.Hex(),
		Status:     string(status.Status),
		FillTxHash: status.FillTxHash(),
		AmountIn:   swapReq.Amount,
		AmountOut:  amountOut,
	}, nil
}

func ensureAllowance(ctx context.Context, wallet evm.Wallet, token, spender common.Address, amount *big.Int, jsonOutput bool, s *spinner.Spinner) error {
	allowance, err := wallet.Allowance(ctx, token, spender)
	if err != nil {
		return fmt.Errorf("failed to get allowance: %w", err)
	}
	if allowance.Cmp(amount) >= 0 {
		return nil
	}

	approveAmount := amount
	if approveMax {
		approveAmount = evm.MaxUint256()
	}

	if !jsonOutput {
		s.Suffix = " Approving token spend..."
		s.Start()
	}
	txHash, err := wallet.Approve(ctx, token, spender, approveAmount)
	if err != nil {
		if !jsonOutput {
			s.Stop()
		}
		return fmt.Errorf("failed to approve: %w", err)
	}

	if !jsonOutput {
		s.Suffix = " Waiting for approval confirmation..."
	}
	err = wallet.WaitMined(ctx, txHash)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		return fmt.Errorf("approval not confirmed: %w", err)
	}

	if !jsonOutput {
		color.Green("✓ Approval confirmed: %s", txHash)
	}
	return nil
}

func recordOrder(record *track.OrderRecord) {
	storage, err := track.NewStorage("")
	if err != nil {
		return // tracking is best-effort
	}
	_ = storage.Create(record)
}

func updateOrderStatus(orderHash, status, fillTxHash string) {
	storage, err := track.NewStorage("")
	if err != nil {
		return
	}
	_ = storage.UpdateStatus(orderHash, status, fillTxHash)
}

func displayQuote(quote *fusion.Quote, preset *fusion.Preset, swapReq *types.SwapRequest, srcToken, dstToken *fusion.Token) {
	amountOut, _ := types.FromBaseUnitsString(quote.ToTokenAmount, dstToken.Decimals)
	minOut, _ := types.FromBaseUnitsString(preset.AuctionEndAmount, dstToken.Decimals)

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s %s\n", swapReq.Amount, color.YellowString(srcToken.Symbol))
	fmt.Printf("  To:                ~%s %s\n", amountOut, color.YellowString(dstToken.Symbol))
	fmt.Printf("  Minimum Received:  %s %s\n", minOut, dstToken.Symbol)

	presetName := fusion.PresetName(swapReq.Preset)
	if presetName == "" {
		presetName = quote.RecommendedPreset
	}
	fmt.Printf("  Preset:            %s\n", presetName)
	fmt.Printf("  Auction Duration:  %ds (starts in %ds)\n", preset.AuctionDuration, preset.StartAuctionIn)
	fmt.Printf("  Auction Curve:     %d points\n", len(preset.Points))

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirmPrompt(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
