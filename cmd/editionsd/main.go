package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rarible/eclipse-program-library/config"
	"github.com/rarible/eclipse-program-library/core/state"
	"github.com/rarible/eclipse-program-library/crypto"
	"github.com/rarible/eclipse-program-library/native/editions"
	"github.com/rarible/eclipse-program-library/native/editionscontrols"
	"github.com/rarible/eclipse-program-library/observability/logging"
	"github.com/rarible/eclipse-program-library/rpc"
	"github.com/rarible/eclipse-program-library/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genKey := flag.Bool("genkey", false, "Generate a wallet key, print its address and private key, and exit")
	flag.Parse()

	if *genKey {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate key: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Address:     %s\n", key.PubKey().Address())
		fmt.Printf("Private key: %x\n", key.Bytes())
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.Setup("editionsd", cfg.NetworkName)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.String("path", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)

	ledger := editions.NewEngine()
	ledger.SetState(manager)

	controls := editionscontrols.NewEngine()
	controls.SetState(manager)
	controls.SetLedger(ledger)
	if cfg.TruncationPolicy == config.TruncationTreasury {
		controls.SetTruncationPolicy(editionscontrols.TruncationRemainderToTreasury)
	}

	logger.Info("Starting editions daemon",
		slog.String("rpc", cfg.RPCAddress),
		slog.String("data_dir", cfg.DataDir),
		slog.String("truncation", cfg.TruncationPolicy),
	)

	server := rpc.NewServer(controls, ledger)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server terminated", slog.Any("error", err))
		os.Exit(1)
	}
}
