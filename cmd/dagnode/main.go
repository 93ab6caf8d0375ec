// Command dagnode runs the gossip-driven DAG consensus engine.
// Grounded on mcastellin-golang-mastery/remote-procedure-call's cobra
// usage for subcommand structure, and on the teacher's
// cmd/server/main.go for the signal-handling shutdown sequence.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dagnode/internal/config"
	"dagnode/internal/engine"
	"dagnode/internal/event"
	"dagnode/internal/logging"
	"dagnode/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:   "dagnode",
		Short: "node-local gossip DAG consensus engine",
	}
	root.AddCommand(runCmd())
	root.AddCommand(genKeyCmd())
	root.AddCommand(inspectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var configPath string
	var dev bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "construct the engine and run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(dev)
			if err != nil {
				return fmt.Errorf("logging setup: %w", err)
			}
			defer log.Sync()

			e, err := engine.New(cfg, log)
			if err != nil {
				return fmt.Errorf("engine construction failed: %w", err)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			log.Infow("engine running", "creator", cfg.Creator, "request_addr", cfg.RequestAddr, "reply_addr", cfg.ReplyAddr)
			<-sigCh
			log.Infow("shutdown signal received")

			e.Shutdown()
			if err := e.Wait(); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			log.Infow("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the engine configuration file")
	cmd.Flags().BoolVar(&dev, "dev", false, "use a human-readable development logger")
	return cmd
}

func genKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genkey",
		Short: "generate an ed25519 key pair for a new peer",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := event.GenerateKeyPair()
			if err != nil {
				return err
			}
			fmt.Printf("public_key: %s\n", hex.EncodeToString(pub))
			fmt.Printf("secret_key: %s\n", hex.EncodeToString(priv))
			return nil
		},
	}
}

func inspectCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "open the configured store and print the local creator's event count",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			var st store.Store
			switch cfg.StoreType {
			case "", "leveldb":
				st, err = store.NewLevelDBStore(cfg.Creator, cfg.DataDir)
			case "memory":
				st = store.NewMemStore()
			default:
				return fmt.Errorf("unsupported store_type %q", cfg.StoreType)
			}
			if err != nil {
				return err
			}
			defer st.Close()

			height := uint64(0)
			for {
				if _, err := st.GetByCreatorHeight(cfg.Creator, height); err != nil {
					break
				}
				height++
			}
			if height == 0 {
				fmt.Printf("creator %s: no events (genesis not bootstrapped)\n", cfg.Creator)
				return nil
			}
			fmt.Printf("creator %s: %d events (heights 0..%d)\n", cfg.Creator, height, height-1)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the engine configuration file")
	return cmd
}
