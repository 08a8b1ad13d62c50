package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"opscore/internal/adapters/export"
	"opscore/internal/blob"
	"opscore/internal/session"
	"opscore/internal/views"
	"opscore/pkg/domain"
)

func newSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark overdue parcels delayed and print new notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			svc := a.newService(store)
			notifications, _, err := svc.SweepDelayedParcels(cmd.Context(), time.Now().UTC())
			if err != nil {
				return err
			}
			if len(notifications) == 0 {
				cmd.Println("no newly delayed parcels")
				return nil
			}
			for _, n := range notifications {
				cmd.Println(n.Message)
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		collection string
		formats    []string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a collection to CSV/JSON artifacts in the blob store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			artifacts, err := blob.Open(cmd.Context(), a.cfg.Blob)
			if err != nil {
				return err
			}
			worker := export.NewWorker(store, artifacts, a.logger)
			worker.Start()
			defer func() { _ = worker.Stop(cmd.Context()) }()

			input := export.Input{Collection: collection}
			for _, f := range formats {
				input.Formats = append(input.Formats, export.Format(f))
			}
			ctx := session.WithUser(cmd.Context(), session.User{Name: "cli", Admin: true})
			record, err := worker.Enqueue(ctx, input)
			if err != nil {
				return err
			}

			deadline := time.Now().Add(timeout)
			for {
				current, ok := worker.Get(record.ID)
				if !ok {
					return fmt.Errorf("export %s disappeared", record.ID)
				}
				if current.Status == export.StatusSucceeded {
					for _, artifact := range current.Artifacts {
						cmd.Printf("%s\t%d rows\t%d bytes\n", artifact.Key, artifact.Rows, artifact.SizeBytes)
					}
					return nil
				}
				if current.Status == export.StatusFailed {
					return fmt.Errorf("export failed: %s", current.Error)
				}
				if time.Now().After(deadline) {
					return fmt.Errorf("export %s timed out", record.ID)
				}
				time.Sleep(50 * time.Millisecond)
			}
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "", "collection to export (e.g. customers)")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "artifact formats (csv, json; default both)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for the render")
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print collection counts and revenue aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}

			cmd.Printf("todos: %d\n", len(store.ListTodos()))
			cmd.Printf("products: %d\n", len(store.ListProducts()))
			cmd.Printf("customers: %d\n", len(store.ListCustomers()))
			cmd.Printf("leads: %d\n", len(store.ListLeads()))
			cmd.Printf("clients: %d\n", len(store.ListClients()))
			cmd.Printf("parcels: %d\n", len(store.ListParcels()))

			transactions := store.ListTransactions()
			total := views.Sum(transactions, func(t domain.Transaction) int64 { return t.AmountCents })
			average := views.Average(transactions, func(t domain.Transaction) int64 { return t.AmountCents })
			cmd.Printf("revenue: $%.2f across %d purchases (avg $%.2f)\n",
				float64(total)/100, len(transactions), average/100)

			byStatus := views.CountBy(store.ListLeads(), func(l domain.Lead) string { return string(l.Status) })
			for status, count := range byStatus {
				cmd.Printf("leads/%s: %d\n", status, count)
			}

			buckets := views.DailyBuckets(transactions,
				func(t domain.Transaction) time.Time { return t.OccurredAt }, days, time.Now())
			for _, bucket := range buckets {
				cmd.Printf("%s: %d purchases\n", bucket.Label, bucket.Count)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "trailing purchase window to chart")
	return cmd
}
