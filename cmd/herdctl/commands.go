package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"serotonyl.ru/herd-bot/internal/features/day"
)

func newInitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new herd",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			save, err := e.service.CreateSave(cmd.Context(), e.saveID, 0)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), day.FormatHerd(save))
			return nil
		},
	}
}

func newPreviewCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Show today's plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, p, assignments, err := e.service.Preview(cmd.Context(), e.saveID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), day.FormatPreview(p, assignments))
			return nil
		},
	}
}

func newPlayCmd(e *env) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the day with autoplayed mini-games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ui := &consolePresenter{out: cmd.OutOrStdout(), verbose: e.verbose}
			for range max(days, 1) {
				if _, err := e.service.RunDay(cmd.Context(), e.saveID, ui); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&days, "days", "n", 1, "how many days to play in a row")
	return cmd
}

func newHerdCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "herd",
		Short: "Show the herd and unlocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			save, err := e.service.Load(cmd.Context(), e.saveID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), day.FormatHerd(save))
			return nil
		},
	}
}

func newHistoryCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			save, err := e.service.Load(cmd.Context(), e.saveID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), day.FormatHistory(save, limit))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "how many days to show")
	return cmd
}

func newFamilyCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "family [on|off]",
		Short:     "Show or toggle the family challenge",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				save, err := e.service.Load(cmd.Context(), e.saveID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), day.FormatFamily(save))
				return nil
			}

			var on bool
			switch args[0] {
			case "on":
				on = true
			case "off":
			default:
				return fmt.Errorf("ожидается on или off, получено %q", args[0])
			}
			save, err := e.service.SetFamily(cmd.Context(), e.saveID, on)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), day.FormatFamily(save))
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "join <name>",
			Short: "Add a participant",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := e.service.Join(cmd.Context(), e.saveID, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "👋 %s в игре!\n", p.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "leave <name>",
			Short: "Remove a participant",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name := strings.Join(args, " ")
				if err := e.service.Leave(cmd.Context(), e.saveID, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "👋 %s больше не участвует\n", name)
				return nil
			},
		},
	)
	return cmd
}
