package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/mean-org/meanfi-txcore/session"
	"github.com/mean-org/meanfi-txcore/txcache"
)

// watchtx enqueues an already-submitted signature for confirmation watching
// and reports the outcome.
func main() {
	_ = godotenv.Load()

	logger := slog.New(tint.NewHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var (
		signature = flag.String("sig", "", "transaction signature (base58)")
		finality  = flag.String("finality", "confirmed", "commitment to wait for: processed, confirmed or finalized")
		timeout   = flag.Duration("timeout", time.Minute, "how long to keep polling")
	)
	flag.Parse()
	if *signature == "" {
		log.Fatal("usage: watchtx -sig <signature> [-finality confirmed] [-timeout 1m]")
	}

	rpcURL := os.Getenv("SOLANA_RPC_URL")
	if rpcURL == "" {
		rpcURL = rpc.DevNet_RPC
	}

	sess := session.New(session.Opts{
		Conn:    rpc.New(rpcURL),
		Logger:  logger,
		Timeout: *timeout,
	})

	done := make(chan bool, 1)
	sess.OnConfirmSuccess(func(info *txcache.TxConfirmationInfo) { done <- true })
	sess.OnConfirmTimeout(func(info *txcache.TxConfirmationInfo) { done <- false })

	sess.Watcher.Enqueue(&txcache.TxConfirmationInfo{
		Signature:      *signature,
		Finality:       rpc.CommitmentType(*finality),
		LoadingTitle:   "Watching transaction",
		CompletedTitle: "Transaction confirmed",
	})

	if confirmed := <-done; !confirmed {
		logger.Warn("transaction was not confirmed before the timeout; it may still complete")
		os.Exit(1)
	}
	logger.Info("transaction confirmed", "signature", *signature)
}
