// Mastokube — оркестратор развёртывания Mastodon в Kubernetes.
//
// Использование:
//
//	mastokube [--config FILE] [--kubeconfig FILE] [--json] <command>
//
// Команды:
//
//	plan      Валидация конфигурации и вывод плана
//	apply     Выполнение плана целиком или одной стадии
//	status    Живое состояние кластера по стадиям
//	rollback  Удаление ресурсов упавшей стадии
//	destroy   Удаление всех ресурсов плана
//	watch     Периодическая сверка по расписанию
//	history   Прошлые rollouts из хранилища истории
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Mastokube/internal/cli"
	"github.com/shaiso/Mastokube/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := telemetry.SetupLogger()

	f := &cli.Factory{Logger: logger}

	rootCmd := &cobra.Command{
		Use:           "mastokube",
		Short:         "Mastokube — Mastodon deployment orchestrator for Kubernetes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&f.ConfigPath, "config", "mastokube.yaml", "Environment config file")
	rootCmd.PersistentFlags().StringVar(&f.Kubeconfig, "kubeconfig", "", "Path to kubeconfig (default: in-cluster, then ~/.kube/config)")
	rootCmd.PersistentFlags().BoolVar(&f.JSON, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		cli.NewPlanCmd(f),
		cli.NewApplyCmd(f),
		cli.NewStatusCmd(f),
		cli.NewRollbackCmd(f),
		cli.NewDestroyCmd(f),
		cli.NewWatchCmd(f),
		cli.NewHistoryCmd(f),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
