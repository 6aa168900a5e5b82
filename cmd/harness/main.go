package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"grid-harness/config"
	"grid-harness/core/executor"
	"grid-harness/core/logging"
	"grid-harness/core/models"
	"grid-harness/core/monitoring"
	"grid-harness/core/registry"
	"grid-harness/core/repository"
	"grid-harness/core/resource_manager"
	"grid-harness/core/spec"
	"grid-harness/providers/aws"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger := logging.New(&logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer logger.Sync()

	scenario, err := selectScenario(os.Args[1:], cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage: harness <gbm|dl|scenario.yaml> [tls-config.yaml]\n%v\n", err)
		os.Exit(2)
	}

	if err := run(cfg, logger, scenario); err != nil {
		logger.Error("cluster could not be formed", zap.Error(err))
		os.Exit(1)
	}

	// job-level failures are reported above, not via the exit code: the
	// surrounding test framework judges them
	os.Exit(0)
}

// selectScenario maps the argument surface to a scenario: one argument picks
// a built-in over plaintext transport, a second argument is the TLS config
// path. A .yaml first argument loads a full scenario spec instead.
func selectScenario(args []string, cfg *config.Config) (*spec.Scenario, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("expected 1 or 2 arguments, got %d", len(args))
	}

	if strings.HasSuffix(args[0], ".yaml") || strings.HasSuffix(args[0], ".yml") {
		if len(args) != 1 {
			return nil, fmt.Errorf("scenario spec files carry their own transport config")
		}
		return spec.LoadScenario(args[0])
	}

	tlsRef := ""
	if len(args) == 2 {
		tlsRef = args[1]
	}
	return spec.Builtin(args[0], cfg, tlsRef)
}

// run drives one scenario: form the cluster, run the job under the lifecycle
// guard, tear everything down, report. Only formation failure is returned;
// job outcomes are part of the report.
func run(cfg *config.Config, logger *zap.Logger, scenario *spec.Scenario) error {
	ctx := context.Background()
	ledger := repository.NewLedger(cfg.DatabaseURL, logger)

	var provider resource_manager.HostProvider
	var pricer monitoring.Pricer
	if cfg.NodeProvider == "aws" {
		awsClient, err := aws.NewClient(ctx, cfg.AWSRegion, cfg.AWSInstanceType, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize aws host provider: %w", err)
		}
		provider = awsClient
		pricer = awsClient
	}

	former := resource_manager.NewFormer(provider, logger, cfg.FormationTimeout, cfg.PollInterval)
	estimator := monitoring.NewCostEstimator(pricer, scenario.Cluster.Nodes)

	ledger.Begin(scenario.Name, scenario.Cluster.Transport, scenario.Cluster.Nodes)

	c, err := former.Form(ctx, scenario.Cluster)
	if err != nil {
		ledger.Finish(models.JobResult{Status: models.JobStatusFailed, Error: err.Error()}, 0)
		return err
	}
	ledger.Event("formation", fmt.Sprintf("%d nodes over %s", scenario.Cluster.Nodes, scenario.Cluster.Transport))

	reg := registry.NewRegistry(c, logger)
	runner := executor.NewRunner(reg, logger, cfg.PollInterval)

	clusterStart := time.Now()
	var result models.JobResult

	runErr := registry.Guard(ctx, reg, func() error {
		dataset, err := os.Open(scenario.DatasetPath)
		if err != nil {
			return fmt.Errorf("failed to open dataset: %w", err)
		}
		defer dataset.Close()

		handle, err := runner.StageDataset(ctx, c, dataset)
		if err != nil {
			return err
		}
		ledger.Event("staging", scenario.DatasetPath)

		def := models.JobDefinition{
			Algorithm:       scenario.Algorithm,
			TrainingHandle:  handle,
			Hyperparameters: scenario.Hyperparameters,
			TargetColumn:    scenario.TargetColumn,
			Score:           scenario.Score,
		}
		if scenario.Validate {
			def.ValidationHandle = &handle
		}

		jobCtx, cancel := context.WithTimeout(ctx, cfg.JobTimeout)
		defer cancel()
		result, err = runner.Run(jobCtx, c, def)
		ledger.Event("training", string(result.Status))
		return err
	})
	ledger.Event("teardown", "handles released")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.Shutdown(shutdownCtx); err != nil {
		logger.Warn("cluster shutdown reported errors", zap.Error(err))
	}

	result = finalResult(result, runErr)
	cost := estimator.Estimate(ctx, time.Since(clusterStart))
	ledger.Finish(result, cost)

	report := monitoring.RunReport{
		Scenario: scenario.Name,
		Spec:     scenario.Cluster,
		Result:   result,
		CostUSD:  cost,
	}
	logger.Info("run complete", report.Fields()...)

	if runErr != nil {
		logger.Error("scenario finished with errors", zap.Error(runErr))
	}
	return nil
}

// finalResult resolves the outcome the ledger and report record. A run that
// failed before any job reached a terminal state (dataset missing, staging
// rejected) still records a failed outcome instead of an empty status.
func finalResult(result models.JobResult, runErr error) models.JobResult {
	if result.Status != "" {
		return result
	}
	failed := models.JobResult{Status: models.JobStatusFailed}
	if runErr != nil {
		failed.Error = runErr.Error()
	}
	return failed
}
