package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yangwenmai/storeforge/internal/model"
	"github.com/yangwenmai/storeforge/internal/worker"
)

var (
	enqueueName  string
	enqueueStyle string
	enqueueUser  string
	enqueueRun   bool
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <product-url>",
	Short: "Create a store from a product URL and queue it for generation",
	Long: `Creates a store record in the generating state. A running "serve" process
picks it up. With --run the queue is drained in this process until the new
store reaches a terminal state.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnqueue,
}

var statusCmd = &cobra.Command{
	Use:   "status <store-id>",
	Short: "Show generation progress of a store",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var publishCmd = &cobra.Command{
	Use:   "publish <store-id>",
	Short: "Push a completed store to the commerce platform",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublish,
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueName, "name", "My Store", "store name")
	enqueueCmd.Flags().StringVar(&enqueueStyle, "style", string(model.StyleModern), "theme style (modern, luxury, minimal, professional)")
	enqueueCmd.Flags().StringVar(&enqueueUser, "user", "cli", "owner user id")
	enqueueCmd.Flags().BoolVar(&enqueueRun, "run", false, "process the queue in this process until the store finishes")
	rootCmd.AddCommand(enqueueCmd, statusCmd, publishCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	st := model.NewStore(uuid.NewString(), enqueueUser, enqueueName, args[0],
		model.ThemeStyle(enqueueStyle), nil, true)
	if err := a.store.CreateStore(ctx, st); err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	cmd.Printf("Queued store %s (%s)\n", st.ID, st.SourcePlatform)
	if !enqueueRun {
		return nil
	}

	w := worker.New(a.store, a.pipeline, a.lock, cfg.WorkerInterval)
	for {
		if !w.RunOnce(ctx) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.WorkerInterval):
			}
		}
		got, err := a.store.GetStore(ctx, st.ID)
		if err != nil {
			return err
		}
		if got.IsTerminal() {
			return printProgress(cmd, got.Progress())
		}
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	db, s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := s.GetProgress(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printProgress(cmd, *p)
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	if a.publisher == nil {
		return errors.New("publishing needs SHOPIFY_SHOP_DOMAIN and SHOPIFY_ACCESS_TOKEN")
	}

	res, err := a.publisher.Publish(ctx, args[0])
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	cmd.Printf("Published to %s (product %s, %d created, %d updated)\n",
		res.StoreURL, res.ProductID, res.Created, res.Updated)
	return nil
}

func printProgress(cmd *cobra.Command, p model.Progress) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(b))
	return nil
}
