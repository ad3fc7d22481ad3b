package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"serotonyl.ru/herd-bot/internal/features/day"
	"serotonyl.ru/herd-bot/internal/features/family"
	"serotonyl.ru/herd-bot/internal/features/minigame"
	"serotonyl.ru/herd-bot/internal/features/plan"
)

// consolePresenter печатает ход дня в терминал.
type consolePresenter struct {
	out     io.Writer
	verbose bool
}

func (c *consolePresenter) ShowPreview(_ context.Context, p *plan.DayPlan, assignments []family.Assignment) {
	fmt.Fprintln(c.out, day.FormatPreview(p, assignments))
	fmt.Fprintln(c.out)
}

func (c *consolePresenter) ShowStep(_ context.Context, st minigame.StepInfo) {
	fmt.Fprintln(c.out, day.FormatStep(st))
}

func (c *consolePresenter) ShowInstruction(_ context.Context, text string) {
	fmt.Fprintln(c.out, "  💬 "+text)
}

// ShowTimer печатает таймер только с --verbose.
func (c *consolePresenter) ShowTimer(_ context.Context, left time.Duration) {
	if c.verbose {
		fmt.Fprintf(c.out, "  ⏱ %s\n", left.Round(time.Second))
	}
}

func (c *consolePresenter) ShowSummary(_ context.Context, s *day.Summary) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, day.FormatSummary(s))
}
