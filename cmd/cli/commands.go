package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/ledgerimport/internal/adapter/http/dto"
	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/infrastructure/auth"
	"github.com/iho/ledgerimport/internal/infrastructure/config"
	"github.com/iho/ledgerimport/internal/infrastructure/logger"
	"github.com/iho/ledgerimport/internal/infrastructure/postgres"
	"github.com/iho/ledgerimport/internal/usecase"
)

func importCmd() *cobra.Command {
	var (
		numberFormat   string
		idempotencyKey string
		pollInterval   time.Duration
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "import <project-id> <file>",
		Short: "Upload a sales export and print the import report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read export: %w", err)
			}

			client := newAPIClient()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			watchCtx, stopWatch := context.WithCancel(ctx)
			watchDone := make(chan struct{})
			go func() {
				defer close(watchDone)
				watchProgress(watchCtx, client, args[0], pollInterval, cmd.ErrOrStderr())
			}()

			report, err := client.upload(ctx, uploadRequest{
				ProjectID:      args[0],
				FileName:       args[1],
				Content:        content,
				NumberFormat:   numberFormat,
				IdempotencyKey: idempotencyKey,
			})
			stopWatch()
			<-watchDone
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(out, report)
			}
			printReport(out, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&numberFormat, "number-format", "", "Number format of the export (br or us); server default when empty")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key; retries with the same key replay the first report")
	cmd.Flags().DurationVar(&pollInterval, "poll", time.Second, "Progress polling interval (0 disables)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")

	return cmd
}

// watchProgress prints each new progress event of the project's running
// import until ctx is cancelled.
func watchProgress(ctx context.Context, client *apiClient, projectID string, interval time.Duration, w io.Writer) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last dto.ProgressResponse
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p, ok, err := client.projectProgress(ctx, projectID)
			if err != nil || !ok || *p == last {
				continue
			}
			last = *p
			fmt.Fprintf(w, "batch %d/%d: %s\n", p.BatchIndex, p.TotalBatches, p.Message)
		}
	}
}

func printReport(w io.Writer, r *dto.ImportReportResponse) {
	fmt.Fprintf(w, "Import %s\n", r.BatchID)
	if r.Cancelled {
		fmt.Fprintln(w, "Status: CANCELLED (partial results kept)")
	}
	fmt.Fprintf(w, "Rows: %d total, %d imported, %d skipped, %d errored\n", r.TotalRows, r.Imported, r.Skipped, r.Errored)
	fmt.Fprintf(w, "Reconciliation: %d reconciled, %d divergent, %d new\n", r.Reconciled, r.Divergent, r.NewTransactions)
	fmt.Fprintf(w, "Net: %s  Gross: %s\n", r.Totals.Net.StringFixed(2), r.Totals.Gross.StringFixed(2))

	for _, d := range r.Divergences {
		fmt.Fprintf(w, "  %-24s csv=%s webhook=%s diff=%s (%s)\n",
			truncate(d.TransactionID, 24), d.CSVNet.StringFixed(2), d.WebhookNet.StringFixed(2), d.Difference.StringFixed(2), d.Severity)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
}

func batchesCmd() *cobra.Command {
	batchesCmd := &cobra.Command{
		Use:   "batches",
		Short: "Inspect import batches",
	}

	var limit, offset int

	listCmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's imports, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batches, err := newAPIClient().listBatches(cmd.Context(), args[0], limit, offset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, b := range batches {
				fmt.Fprintf(out, "%s  %-10s %-30s rows=%d reconciled=%d divergent=%d new=%d  %s\n",
					b.ID, b.Status, truncate(b.SourceFileName, 30), b.TotalRows,
					b.ReconciledCount, b.DivergentCount, b.NewCount, b.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", domain.DefaultPageSize, "Maximum number of batches")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Number of batches to skip")

	var divergences bool

	showCmd := &cobra.Command{
		Use:   "show <batch-id>",
		Short: "Show an import batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient()
			batch, err := client.getBatch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !divergences {
				return printJSON(out, batch)
			}

			rows, err := client.listDivergences(cmd.Context(), args[0], limit, offset)
			if err != nil {
				return err
			}
			return printJSON(out, struct {
				Batch       *dto.ImportBatchResponse   `json:"batch"`
				Divergences []dto.DivergentRowResponse `json:"divergences"`
			}{batch, rows})
		},
	}
	showCmd.Flags().BoolVar(&divergences, "divergences", false, "Include the divergent rows")
	showCmd.Flags().IntVar(&limit, "limit", domain.DefaultPageSize, "Maximum number of divergent rows")
	showCmd.Flags().IntVar(&offset, "offset", 0, "Number of divergent rows to skip")

	batchesCmd.AddCommand(listCmd, showCmd)
	return batchesCmd
}

func diagnoseCmd() *cobra.Command {
	diagnoseCmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Offline data integrity reports",
	}

	var funnelsPath, offersPath string

	offersCmd := &cobra.Command{
		Use:   "offers",
		Short: "Check offer mappings against funnels",
		RunE: func(cmd *cobra.Command, args []string) error {
			funnels, err := os.ReadFile(funnelsPath)
			if err != nil {
				return fmt.Errorf("read funnels export: %w", err)
			}
			offers, err := os.ReadFile(offersPath)
			if err != nil {
				return fmt.Errorf("read offers export: %w", err)
			}

			report, err := usecase.NewOfferDiagnosticUseCase().Diagnose(usecase.DiagnoseInput{
				FunnelsFileName: funnelsPath,
				Funnels:         funnels,
				OffersFileName:  offersPath,
				Offers:          offers,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	offersCmd.Flags().StringVar(&funnelsPath, "funnels", "", "Funnels export (CSV or XLSX)")
	offersCmd.Flags().StringVar(&offersPath, "offers", "", "Offer mappings export (CSV or XLSX)")
	_ = offersCmd.MarkFlagRequired("funnels")
	_ = offersCmd.MarkFlagRequired("offers")

	diagnoseCmd.AddCommand(offersCmd)
	return diagnoseCmd
}

func migrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations (reads DATABASE_URL and MIGRATIONS_PATH)",
	}

	run := func(apply func(cmd *cobra.Command, cfg *config.Config) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return apply(cmd, cfg)
		}
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: run(func(cmd *cobra.Command, cfg *config.Config) error {
			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Service: "ledgerctl", Output: cmd.ErrOrStderr()})
			return postgres.RunMigrations(log, cfg.DatabaseURL, cfg.MigrationsPath)
		}),
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: run(func(cmd *cobra.Command, cfg *config.Config) error {
			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Service: "ledgerctl", Output: cmd.ErrOrStderr()})
			return postgres.RunMigrationsDown(log, cfg.DatabaseURL, cfg.MigrationsPath)
		}),
	}

	migrateCmd.AddCommand(upCmd, downCmd)
	return migrateCmd
}

func tokenCmd() *cobra.Command {
	var (
		email    string
		role     string
		secret   string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("a signing secret is required (--secret or JWT_SECRET)")
			}

			token, err := auth.NewJWTManager(secret, duration).Generate(args[0], email, domain.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleOperator), "Role: admin, operator or viewer")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret (defaults to $JWT_SECRET)")
	cmd.Flags().DurationVar(&duration, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}
