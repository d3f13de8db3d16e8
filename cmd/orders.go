package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/1inch/sdks-examples/config"
	"github.com/1inch/sdks-examples/pkg/fusion"
	"github.com/1inch/sdks-examples/pkg/track"
)

var (
	ordersLocal   bool
	ordersRefresh bool
	ordersChain   uint64
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List Fusion orders for the configured wallet",
	Long: `List active Fusion orders for the configured wallet, or locally
recorded orders submitted from this machine.

Examples:
  fusion-swap orders
  fusion-swap orders --local
  fusion-swap orders --local --refresh`,
	Run: runOrders,
}

func init() {
	rootCmd.AddCommand(ordersCmd)

	ordersCmd.Flags().BoolVar(&ordersLocal, "local", false, "List orders recorded locally instead of querying the API")
	ordersCmd.Flags().BoolVar(&ordersRefresh, "refresh", false, "With --local, refresh pending statuses from the API")
	ordersCmd.Flags().Uint64Var(&ordersChain, "chain", 0, "Chain id to query (defaults to the configured EVM chain)")
}

func runOrders(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chainID := cfg.EVM.ChainID
	if ordersChain != 0 {
		chainID = ordersChain
	}

	if ordersLocal {
		runLocalOrders(cmd, cfg, jsonOutput, verbose)
		return
	}

	if cfg.EVM.PrivateKey == "" {
		printError(fmt.Errorf("evm private key is required to list orders by maker"))
		os.Exit(1)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.EVM.PrivateKey, "0x"))
	if err != nil {
		printError(fmt.Errorf("invalid private key: %w", err))
		os.Exit(1)
	}
	maker := crypto.PubkeyToAddress(key.PublicKey)

	apiClient := fusion.NewClient(cfg.APIURL, cfg.APIKey, fusion.WithLogger(debugLogger(verbose)))

	orders, err := apiClient.OrdersByMaker(cmd.Context(), chainID, maker.Hex())
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(orders, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(orders) == 0 {
		fmt.Printf("\nNo active orders for %s on chain %d\n\n", maker.Hex(), chainID)
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                    ACTIVE FUSION ORDERS")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("\n  Maker: %s\n  Chain: %d\n", maker.Hex(), chainID)

	for _, order := range orders {
		fmt.Printf("\n  %s\n", color.CyanString(order.OrderHash))
		fmt.Printf("    Making:    %s of %s\n", order.Order.MakingAmount, order.Order.MakerAsset)
		fmt.Printf("    Taking:    %s of %s\n", order.Order.TakingAmount, order.Order.TakerAsset)
		if order.RemainingMaker != "" {
			fmt.Printf("    Remaining: %s\n", order.RemainingMaker)
		}
		if order.Deadline != "" {
			fmt.Printf("    Deadline:  %s\n", order.Deadline)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func runLocalOrders(cmd *cobra.Command, cfg *config.Config, jsonOutput, verbose bool) {
	storage, err := track.NewStorage("")
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	records := storage.List()

	if ordersRefresh {
		apiClient := fusion.NewClient(cfg.APIURL, cfg.APIKey, fusion.WithLogger(debugLogger(verbose)))
		for _, record := range records {
			if record.Chain != "evm" {
				continue
			}
			if fusion.OrderState(record.Status).Terminal() {
				continue
			}
			status, err := apiClient.OrderStatus(cmd.Context(), record.ChainID, record.OrderHash)
			if err != nil {
				continue
			}
			if err := storage.UpdateStatus(record.OrderHash, string(status.Status), status.FillTxHash()); err == nil {
				record.Status = string(status.Status)
				record.FillTxHash = status.FillTxHash()
			}
		}
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(records) == 0 {
		fmt.Printf("\nNo orders recorded in %s\n\n", storage.GetFilePath())
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     RECORDED ORDERS")
	fmt.Println(strings.Repeat("=", 70))

	for _, record := range records {
		fmt.Printf("\n  %s\n", color.CyanString(record.OrderHash))
		fmt.Printf("    Swap:    %s %s to %s\n", record.AmountIn, record.SourceToken, record.DestToken)
		fmt.Printf("    Chain:   %s (%d)\n", record.Chain, record.ChainID)
		fmt.Printf("    Status:  %s\n", getColoredStatus(record.Status))
		if record.FillTxHash != "" {
			fmt.Printf("    Fill Tx: %s\n", record.FillTxHash)
		}
		fmt.Printf("    Created: %s\n", record.Created.Format(time.RFC3339))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
