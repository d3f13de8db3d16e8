package cmd

import (
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
)

var (
	watchStatus   bool
	watchInterval int
	statusChainID uint64
	exitCode      bool
)

var statusCmd = &cobra.Command{
	Use:   "status <order-hash>",
	Short: "Check the status of a Fusion order",
	Long: `Check the execution status of an order by its hash.

Examples:
  fusion-swap status 0x1234...abcd
  fusion-swap status 0x1234...abcd --watch
  fusion-swap status 0x1234...abcd --watch --interval 10
  fusion-swap status 0x1234...abcd --exit-code`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates until the order is terminal")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
	statusCmd.Flags().Uint64Var(&statusChainID, "chain", 0, "Chain id (default: from config)")
	statusCmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit 1 unless the order is filled")
}

func runStatus(cmd *cobra.Command, args []string) {
	orderHash := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chainID := cfg.EVM.ChainID
	if statusChainID != 0 {
		chainID = statusChainID
	}

	apiClient := fusion.NewClient(cfg.APIURL, cfg.APIKey, fusion.WithLogger(debugLogger(verbose)))

	if watchStatus {
		watchOrderStatus(cmd, apiClient, chainID, orderHash, jsonOutput)
	} else {
		checkOrderStatus(cmd, apiClient, chainID, orderHash, jsonOutput)
	}
}

func checkOrderStatus(cmd *cobra.Command, apiClient *fusion.Client, chainID uint64, orderHash string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking order status..."
		s.Start()
	}

	status, err := apiClient.OrderStatus(cmd.Context(), chainID, orderHash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayStatus(status)
	}

	if exitCode && !status.Status.Successful() {
		os.Exit(1)
	}
}

func watchOrderStatus(cmd *cobra.Command, apiClient *fusion.Client, chainID uint64, orderHash string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching order %s\n", color.CyanString(orderHash))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n", watchInterval)

	interval := time.Duration(watchInterval) * time.Second
	final, err := apiClient.WaitForTerminal(cmd.Context(), chainID, orderHash, interval, func(st *fusion.OrderStatus) {
		displayStatus(st)
		updateOrderStatus(orderHash, string(st.Status), st.FillTxHash())
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	updateOrderStatus(orderHash, string(final.Status), final.FillTxHash())
	if !final.Status.Successful() {
		os.Exit(1)
	}
}

func displayStatus(status *fusion.OrderStatus) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        ORDER STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Order Hash:  %s\n", color.CyanString(status.OrderHash))
	fmt.Printf("  Status:      %s\n", getColoredStatus(string(status.Status)))
	if status.CreatedAt != "" {
		fmt.Printf("  Created:     %s\n", status.CreatedAt)
	}

	for _, fill := range status.Fills {
		if fill.TxHash != "" {
			fmt.Printf("  Fill Tx:     %s\n", color.HiBlackString(fill.TxHash))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	switch fusion.OrderState(strings.ToLower(status)) {
	case fusion.StateFilled:
		return color.GreenString(status)
	case fusion.StatePending, fusion.StatePartiallyFilled:
		return color.YellowString(status)
	case fusion.StateCancelled, fusion.StateExpired, fusion.StateRefunded,
		fusion.StateInvalidSignature, fusion.StateInvalidPermit, fusion.StateWrongPermit:
		return color.RedString(status)
	case fusion.StateNotEnoughBalance, fusion.StateFalsePredicate:
		return color.MagentaString(status)
	default:
		return status
	}
}
