package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/okx/boomerang/cycle"
	"github.com/okx/boomerang/utils"
)

const FlagConfigFile = "config-file"

var configPath string

func main() {
	log.SetDefault(log.NewLogger(log.NewTerminalHandler(os.Stderr, true)))

	rootCmd := &cobra.Command{
		Use:   "boomerang",
		Short: "Fund ephemeral accounts and cycle the funds back",
		Long: `Boomerang creates batches of ephemeral accounts, funds each one from a
single source account, waits for confirmations, and sends a configured
fraction of the funds back, producing a structured success/failure report.`,
	}

	rootCmd.AddCommand(
		runCmd(),
		checkCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <count> <amount>",
		Short: "Run the fund-and-return cycle for <count> accounts",
		Long: `Run the full cycle: fund <count> fresh accounts with <amount> each,
then return the configured fraction from every funded account.

Amount format: Must end with 'ETH' suffix, e.g., '1ETH', '0.001ETH'

Example:
  boomerang run 100 0.001ETH -f ./testdata/config.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, count, amount, err := setup(args)
			if err != nil {
				return err
			}

			report, err := runner.Run(context.Background(), count, amount)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			report.Log(log.Root())
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, FlagConfigFile, "f", "", "Path to the configuration file")

	return cmd
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <count> <amount>",
		Short: "Pre-flight only: verify the source balance covers the run",
		Long: `Check whether the source account can fund <count> accounts with <amount>
each, including the per-account gas reserve, without submitting anything.

Example:
  boomerang check 100 0.001ETH -f ./testdata/config.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, count, amount, err := setup(args)
			if err != nil {
				return err
			}

			required, available, err := runner.Preflight(context.Background(), count, amount)
			if err != nil {
				return err
			}

			log.Info("pre-flight passed", "requiredWei", required, "availableWei", available)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, FlagConfigFile, "f", "", "Path to the configuration file")

	return cmd
}

// setup loads the config, dials the endpoint and parses the shared
// <count> <amount> arguments.
func setup(args []string) (*cycle.Runner, int, *big.Int, error) {
	if configPath == "" {
		return nil, 0, nil, fmt.Errorf("config file (-f) is required")
	}

	cfg, err := utils.LoadConfig(configPath)
	if err != nil {
		return nil, 0, nil, err
	}

	count, err := strconv.Atoi(args[0])
	if err != nil || count <= 0 {
		return nil, 0, nil, fmt.Errorf("invalid account count %q", args[0])
	}

	amount, err := utils.ParseAmountWithETH(args[1])
	if err != nil {
		return nil, 0, nil, err
	}

	source, err := utils.AccountFromHexKey(cfg.SourcePrivateKey)
	if err != nil {
		return nil, 0, nil, err
	}

	client, err := utils.NewEthClient(cfg.Rpc)
	if err != nil {
		return nil, 0, nil, err
	}

	return cycle.NewRunner(client, source, cfg, log.Root()), count, amount, nil
}
