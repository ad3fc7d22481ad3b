// Package main — herdctl, локальная утилита для игры без Telegram.
// Сохранения лежат в SQLite-файле, мини-игры проходит автопилот.
package main

import (
	"context"
	"database/sql"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/config"
	"serotonyl.ru/herd-bot/internal/db/sqlite"
	"serotonyl.ru/herd-bot/internal/features/day"
	"serotonyl.ru/herd-bot/internal/features/events"
	"serotonyl.ru/herd-bot/internal/features/herd"
	"serotonyl.ru/herd-bot/internal/features/minigame"
	"serotonyl.ru/herd-bot/internal/features/plan"
	"serotonyl.ru/herd-bot/internal/features/rewards"
	"serotonyl.ru/herd-bot/internal/minigame/autoplay"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		stop()
		os.Exit(1)
	}
}

// env — общие зависимости команд. Заполняется в PersistentPreRunE.
type env struct {
	dbPath    string
	saveID    string
	seed      int64
	stepDelay time.Duration
	verbose   bool

	db      *sql.DB
	service *day.Service
}

func (e *env) close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			log.WithError(err).Warn("Ошибка закрытия базы")
		}
		e.db = nil
	}
}

// run собирает дерево команд и выполняет его. База закрывается при любом исходе.
func run(ctx context.Context, args []string, out io.Writer) error {
	e := &env{}
	defer e.close()

	root := newRootCmd(e)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.ExecuteContext(ctx)
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:          "herdctl",
		Short:        "Local herd day runner",
		Long:         "Plays herd days locally: SQLite saves, autoplayed mini-games.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&e.dbPath, "db", "herd.db", "path to the SQLite save file")
	flags.StringVar(&e.saveID, "save", "local", "save id")
	flags.Int64Var(&e.seed, "seed", 0, "RNG seed (0 = DAY_PLAN_SEED or time-based)")
	flags.DurationVar(&e.stepDelay, "step-delay", 0, "autoplay pause between rounds (default DAY_AUTOPLAY_STEP_DELAY)")
	flags.BoolVarP(&e.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newInitCmd(e),
		newPreviewCmd(e),
		newPlayCmd(e),
		newHerdCmd(e),
		newHistoryCmd(e),
		newFamilyCmd(e),
	)
	return root
}

// setup читает настройки дня, открывает базу и собирает сервис.
func (e *env) setup(cmd *cobra.Command) error {
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(log.WarnLevel)
	if e.verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.LoadDay()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		cfg.PlanSeed = e.seed
	}
	if cmd.Flags().Changed("step-delay") {
		cfg.AutoplayStepDelay = e.stepDelay
	}

	catalog, err := events.Default()
	if err != nil {
		return err
	}
	themes, err := rewards.Default()
	if err != nil {
		return err
	}

	db, err := sqlite.Open(cmd.Context(), e.dbPath)
	if err != nil {
		return err
	}
	e.db = db

	seeds := common.DeriveSeeds(cfg.PlanSeed)
	registry := minigame.NewRegistry()
	autoplay.Register(registry, seeds.Autoplay, cfg.AutoplayStepDelay)

	builder := plan.NewBuilder(catalog, registry.Kinds(), cfg.FestivalLookaheadDays, common.NewRNG(seeds.Plan))
	runner := minigame.NewRunner(registry, *cfg, common.NewRNG(seeds.Runner))
	e.service = day.NewService(herd.NewSQLiteStore(db), builder, runner, rewards.NewResolver(themes), *cfg, false)
	return nil
}
