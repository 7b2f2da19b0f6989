package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/mean-org/meanfi-txcore/lifecycle"
	"github.com/mean-org/meanfi-txcore/programs/transfer"
	"github.com/mean-org/meanfi-txcore/session"
	"github.com/mean-org/meanfi-txcore/txcache"
)

func main() {
	// .env is optional; env vars win either way
	_ = godotenv.Load()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	var (
		recipient = flag.String("to", "", "recipient address (base58)")
		lamports  = flag.Uint64("lamports", 0, "amount to transfer in lamports")
	)
	flag.Parse()
	if *recipient == "" || *lamports == 0 {
		log.Fatal("usage: transfer -to <address> -lamports <amount>")
	}

	rpcURL := os.Getenv("SOLANA_RPC_URL")
	if rpcURL == "" {
		rpcURL = rpc.DevNet_RPC
	}
	keypairPath := os.Getenv("WALLET_KEYPAIR")
	if keypairPath == "" {
		log.Fatal("WALLET_KEYPAIR must point to a solana-keygen keypair file")
	}

	wallet, err := lifecycle.LoadKeypairWallet(keypairPath)
	if err != nil {
		log.Fatalf("failed to load wallet: %v", err)
	}
	to, err := solana.PublicKeyFromBase58(*recipient)
	if err != nil {
		log.Fatalf("invalid recipient: %v", err)
	}

	conn := rpc.New(rpcURL)

	sess := session.New(session.Opts{
		Conn:   conn,
		Logger: logger,
		RefreshAccounts: func() {
			logger.Info("balances refreshed")
		},
	})

	sub := sess.OnConfirmSuccess(func(info *txcache.TxConfirmationInfo) {
		logger.Info("transaction confirmed", "signature", info.Signature)
	})
	defer sess.Events.Off(sub)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	builder := transfer.NewClient(conn)
	controller := sess.NewController(wallet)

	result := controller.Run(ctx, lifecycle.Request{
		Build: func(ctx context.Context) (*solana.Transaction, error) {
			return builder.BuildTransfer(ctx, *wallet.PublicKey(), to, *lamports)
		},
		OperationType: txcache.OpTransfer,
		Display: lifecycle.Display{
			LoadingTitle:     "Sending transfer",
			LoadingMessage:   "Waiting for network confirmation",
			CompletedTitle:   "Transfer sent",
			CompletedMessage: "Your transfer has been confirmed",
		},
		Finality:    rpc.CommitmentConfirmed,
		FeeLamports: lifecycle.DefaultFeeLamports,
	})
	if result.Err != nil {
		logger.Error("transfer failed", "phase", string(result.Phase), "err", result.Err)
		os.Exit(1)
	}

	logger.Info("transfer submitted", "signature", result.Signature, "phase", string(result.Phase))

	// An interrupt stops the watch early instead of waiting out the
	// confirmation timeout.
	go func() {
		<-ctx.Done()
		sess.Watcher.Stop()
	}()
	sess.Watcher.Wait()
}
