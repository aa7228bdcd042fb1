package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bcgov/mmti-sync/internal/config"
	"github.com/bcgov/mmti-sync/internal/utils"
	"github.com/bcgov/mmti-sync/pkg/batch"
	"github.com/bcgov/mmti-sync/pkg/codemap"
	"github.com/bcgov/mmti-sync/pkg/metrics"
	"github.com/bcgov/mmti-sync/pkg/reconcile"
	"github.com/bcgov/mmti-sync/pkg/sources/mem"
	"github.com/bcgov/mmti-sync/pkg/transform"
	"github.com/bcgov/mmti-sync/pkg/whttp"
)

// syncCmd implements: mmti-sync sync [username password host database [sessionId [projectCode]]]
var syncCmd = &cobra.Command{
	Use:   "sync [username password host database [sessionId [projectCode]]]",
	Short: "Refresh MEM authorizations, inspections and other documents of every project",
	Long: `Fetches each project's collections from the MEM API and replaces the
project's MEM records with them.

With fewer than four arguments the local store is used and the arguments
are read as [sessionId [projectCode]].`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveSyncConfig(cmd, args)
		if err != nil {
			return err
		}
		return runSync(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	addSyncFlags(syncCmd)

	viper.BindPFlag("source.sessionid", syncCmd.Flags().Lookup("session"))
	viper.BindPFlag("metrics.textfile", syncCmd.Flags().Lookup("metrics-file"))
	viper.BindPFlag("codemap.file", syncCmd.Flags().Lookup("code-map"))
}

func addSyncFlags(c *cobra.Command) {
	c.Flags().String("session", "", "MEM session id (overrides the positional argument)")
	c.Flags().String("project", "", "Only reconcile the project with this code")
	c.Flags().Int("concurrency", 0, "Maximum number of projects processed at once (0 = unbounded)")
	c.Flags().Bool("dry-run", false, "Fetch and transform, but do not touch the store")
	c.Flags().Duration("timeout", 0, "Abort the whole run after this long (0 = no limit)")
	c.Flags().Bool("fail-on-error", false, "Exit non-zero when any project fails")
	c.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile when done")
	c.Flags().String("code-map", "", "YAML file with extra local-to-MEM project code mappings")
}

// resolveSyncConfig merges, lowest precedence first: defaults, config file
// and environment, positional arguments, explicit flags.
func resolveSyncConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	pos, err := config.FromArgs(args)
	if err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	cfg.SourceBaseURL = viper.GetString("source.baseurl")
	cfg.SessionID = viper.GetString("source.sessionid")
	cfg.UserAgent = viper.GetString("source.useragent")
	cfg.HTTPTimeout = viper.GetDuration("source.timeout")
	cfg.Retries = viper.GetInt("source.retries")
	cfg.CodeMapFile = viper.GetString("codemap.file")
	cfg.MetricsFile = viper.GetString("metrics.textfile")
	if uri := viper.GetString("store.uri"); uri != "" {
		cfg.StoreURI = uri
	}

	// The short positional form only names the session and project; it must
	// not reset a configured store to the default.
	if len(args) < 4 {
		pos.StoreURI = ""
	}
	if cmd.Flags().Changed("session") {
		pos.SessionID = ""
	}
	if cmd.Flags().Changed("project") {
		pos.ProjectCode = ""
	}
	if cmd.Flags().Changed("store") {
		pos.StoreURI = ""
	}
	cfg.Apply(pos)

	if cmd.Flags().Changed("project") {
		cfg.ProjectCode, _ = cmd.Flags().GetString("project")
	}
	cfg.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	cfg.DryRun, _ = cmd.Flags().GetBool("dry-run")
	cfg.RunTimeout, _ = cmd.Flags().GetDuration("timeout")
	cfg.FailOnError, _ = cmd.Flags().GetBool("fail-on-error")

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.SessionID == "" {
		utils.Log.Warn("No MEM session id given; the API will most likely reject every request")
	}
	return cfg, nil
}

func runSync(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	runID := uuid.NewString()
	log := utils.Log.WithField("run", runID)

	codes := codemap.New(nil)
	if cfg.CodeMapFile != "" {
		var err error
		if codes, err = codemap.LoadFile(cfg.CodeMapFile); err != nil {
			return err
		}
	}

	lock := utils.NewRunLock("", cfg.StoreURI)
	if err := lock.Lock(ctx, true); err != nil {
		return err
	}
	defer lock.Unlock()

	store, err := openStore(ctx, cfg.StoreURI)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	source := mem.NewClient(mem.Options{
		BaseURL:   cfg.SourceBaseURL,
		SessionID: cfg.SessionID,
		UserAgent: cfg.UserAgent,
		Codes:     codes,
		HTTP: whttp.NewClient(whttp.ClientOptions{
			Timeout:  cfg.HTTPTimeout,
			RetryMax: cfg.Retries,
			Logger:   utils.HTTPLogger{L: log},
		}),
		Log: log,
	})

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
	}

	start := time.Now()
	res, err := batch.Run(ctx, batch.Config{
		Store: store,
		Reconciler: &reconcile.Reconciler{
			Source:      source,
			Store:       store,
			Transformer: transform.MEM{DocumentBase: source.DocumentBase()},
			Log:         log,
			DryRun:      cfg.DryRun,
		},
		ProjectCode: cfg.ProjectCode,
		Concurrency: cfg.Concurrency,
		RunID:       runID,
		Log:         log,
		Metrics:     recorder,
		OnProjectDone: func(o batch.ProjectOutcome) {
			if o.Err != nil {
				return
			}
			log.Infof("%s: %d authorization(s), %d inspection(s), %d other document(s)",
				o.Project.Code, o.Result.Authorizations, o.Result.Inspections, o.Result.OtherDocuments)
		},
	})
	if err != nil {
		return err
	}
	log.Infof("Done in %s", time.Since(start).Round(time.Millisecond))

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Errorf("Could not write metrics to %s: %v", cfg.MetricsFile, err)
		}
	}

	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	if cfg.FailOnError && res.Failed > 0 {
		return fmt.Errorf("%d of %d project(s) failed", res.Failed, len(res.Outcomes))
	}
	return nil
}
