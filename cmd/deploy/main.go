package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/joshua-takyi/eventnest/internal/chain"
	"github.com/joshua-takyi/eventnest/internal/config"
	"github.com/joshua-takyi/eventnest/internal/connect"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env.local")

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := newRootCmd(logger).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	cfg, err := config.LoadChainConfig()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var (
		artifactPath string
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:          "deploy",
		Short:        "Deploy the ticket contract",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return deploy(ctx, logger, cfg, artifactPath, cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&artifactPath, "artifact", "", "compiled contract JSON with abi and bytecode")
	flags.StringVar(&cfg.ChainRPC, "rpc", cfg.ChainRPC, "chain RPC endpoint")
	flags.Int64Var(&cfg.ChainID, "chain-id", cfg.ChainID, "expected chain id")
	flags.StringVar(&cfg.DeployerKey, "key", cfg.DeployerKey, "deployer private key (hex)")
	flags.StringVar(&cfg.ExplorerURL, "explorer", cfg.ExplorerURL, "block explorer base URL")
	flags.DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for the deployment")
	_ = cmd.MarkFlagRequired("artifact")

	return cmd
}

func deploy(ctx context.Context, logger *slog.Logger, cfg *config.ChainConfig, artifactPath string, cmd *cobra.Command) error {
	if cfg.DeployerKey == "" {
		return errors.New("DEPLOYER_PRIVATE_KEY or --key is required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.DeployerKey, "0x"))
	if err != nil {
		return fmt.Errorf("invalid deployer key: %w", err)
	}
	deployer := crypto.PubkeyToAddress(key.PublicKey)

	artifact, err := chain.LoadArtifact(artifactPath)
	if err != nil {
		return err
	}

	client, err := connect.EthereumConnect(ctx, cfg.ChainRPC, cfg.ChainID)
	if err != nil {
		return err
	}
	defer client.Close()

	balance, err := client.BalanceAt(ctx, deployer, nil)
	if err != nil {
		return fmt.Errorf("failed to read deployer balance: %w", err)
	}
	if balance.Sign() <= 0 {
		return fmt.Errorf("deployer %s has no funds on chain %d", deployer.Hex(), cfg.ChainID)
	}
	logger.Info("Deploying ticket contract",
		"deployer", deployer.Hex(),
		"balance", chain.FromWei(balance).String(),
		"chain_id", cfg.ChainID,
	)

	d, err := chain.Deploy(ctx, client, key, cfg.ChainID, artifact)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Contract: %s\n", d.Address.Hex())
	fmt.Fprintf(out, "Tx:       %s\n", d.TxHash.Hex())
	if cfg.ExplorerURL != "" {
		fmt.Fprintf(out, "Explorer: %s/address/%s\n", strings.TrimRight(cfg.ExplorerURL, "/"), d.Address.Hex())
	}
	fmt.Fprintf(out, "Set TICKET_CONTRACT_ADDRESS=%s\n", d.Address.Hex())
	return nil
}
