package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dchesque/SolanaBuilder-sub000/chain"
	"github.com/dchesque/SolanaBuilder-sub000/mintflow"
	"github.com/dchesque/SolanaBuilder-sub000/wallet"
)

var (
	rpcURL        string
	wsURL         string
	network       string
	keypairPath   string
	serviceWallet string
	feeSOL        float64
	autoYes       bool
)

func main() {
	root := &cobra.Command{
		Use:   "mint",
		Short: "issue a fungible token through the SolanaMint workflow",
	}

	root.PersistentFlags().StringVar(&rpcURL, "rpc", "https://api.devnet.solana.com", "Solana RPC URL")
	root.PersistentFlags().StringVar(&wsURL, "ws", "", "Solana websocket URL (optional)")
	root.PersistentFlags().StringVar(&network, "network", "devnet", "network: mainnet, devnet, testnet")
	root.PersistentFlags().StringVar(&keypairPath, "keypair", defaultKeypairPath(), "path to solana-keygen keypair file")

	root.AddCommand(createCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultKeypairPath() string {
	home, _ := os.UserHomeDir()
	return home + "/.config/solana/id.json"
}

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name> <symbol> <supply>",
		Short: "run the full fee / mint / metadata workflow",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			var supply uint64
			if _, err := fmt.Sscanf(args[2], "%d", &supply); err != nil {
				die(fmt.Errorf("invalid supply: %w", err))
			}

			signer, err := wallet.LocalSignerFromFile(keypairPath)
			if err != nil {
				die(err)
			}

			ctx := context.Background()
			log := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
			client, err := chain.New(ctx, chain.Config{
				RPCURL:  rpcURL,
				WSURL:   wsURL,
				Network: network,
			}, log)
			if err != nil {
				die(err)
			}
			defer client.Close()

			var confirmer mintflow.Confirmer = promptConfirmer{}
			if autoYes {
				confirmer = mintflow.AutoConfirm{}
			}

			wf, err := mintflow.New(client, signer, mintflow.ServiceFeeConfig{
				ServiceWallet: serviceWallet,
				FeeSOL:        feeSOL,
			}, mintflow.WithConfirmer(confirmer), mintflow.WithLogger(log))
			if err != nil {
				die(err)
			}

			req := mintflow.IssuanceRequest{Name: args[0], Symbol: args[1], Supply: supply}

			start := time.Now()
			fmt.Printf("wallet: %s\n", signer.PublicKey())
			if err := wf.Run(ctx, req); err != nil {
				state := wf.State()
				fmt.Fprintf(os.Stderr, "workflow stopped at %s: %s\n", state.Step, state.Message)
				os.Exit(1)
			}

			state := wf.State()
			tok := state.CreatedToken
			fmt.Printf("✓ done (%s)\n", time.Since(start).Round(time.Millisecond))
			fmt.Printf("mint:     %s\n", tok.MintAddress)
			fmt.Printf("supply:   %d (decimals %d)\n", tok.Supply, tok.Decimals)
			fmt.Printf("explorer: %s\n", client.ExplorerAddressURL(tok.MintAddress))
		},
	}

	cmd.Flags().StringVar(&serviceWallet, "service-wallet", "", "service fee destination address")
	cmd.Flags().Float64Var(&feeSOL, "fee", 0.001, "service fee in SOL")
	cmd.Flags().BoolVarP(&autoYes, "yes", "y", false, "approve the fee payment without prompting")
	cmd.MarkFlagRequired("service-wallet")

	return cmd
}

type promptConfirmer struct{}

func (promptConfirmer) Confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func die(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
