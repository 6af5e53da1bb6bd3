package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/stationbook/adapter/cli"
	"github.com/felixgeelhaar/stationbook/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var (
	ruleStation string
	ruleKind    string
	ruleWeekday string
	ruleStart   string
	ruleEnd     string
	ruleFrom    string
	ruleTo      string
)

// RuleCmd is the parent command for business hour rules.
var RuleCmd = &cobra.Command{
	Use:     "rule",
	Short:   "Manage business hour rules",
	Aliases: []string{"rules"},
}

var ruleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a business hour rule",
	Long: `Add a regular, special or blocked rule. Without --station the rule is
global and applies to stations on the generic schedule.

Examples:
  stationbook rule add --station 6f1c... --kind regular --weekday monday --start 08:00 --end 18:00
  stationbook rule add --kind special --from 2026-12-24 --to 2026-12-24 --start 08:00 --end 12:00
  stationbook rule add --station 6f1c... --kind blocked --from 2026-12-25 --to 2026-12-26`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		command, err := buildAddRuleCommand()
		if err != nil {
			return err
		}

		id, err := app.AddRuleHandler.Handle(cmd.Context(), command)
		if err != nil {
			return fmt.Errorf("failed to add rule: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Rule added: %s\n", id)
		return nil
	},
}

var ruleRemoveCmd = &cobra.Command{
	Use:     "remove <rule-id>",
	Short:   "Remove a business hour rule",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		ruleID, err := cli.ParseID("rule", args[0])
		if err != nil {
			return err
		}
		if err := app.AddRuleHandler.RemoveRule(cmd.Context(), ruleID); err != nil {
			return fmt.Errorf("failed to remove rule: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Rule removed: %s\n", ruleID)
		return nil
	},
}

func buildAddRuleCommand() (commands.AddRuleCommand, error) {
	var command commands.AddRuleCommand

	stationID, err := cli.ParseOptionalID("station", ruleStation)
	if err != nil {
		return command, err
	}
	command.StationID = stationID

	kind, err := domain.ParseRuleKind(strings.ToLower(ruleKind))
	if err != nil {
		return command, fmt.Errorf("invalid kind %q, use regular, special or blocked", ruleKind)
	}
	command.Kind = kind

	if ruleWeekday != "" {
		weekday, err := parseWeekday(ruleWeekday)
		if err != nil {
			return command, err
		}
		command.Weekday = &weekday
	}

	if kind != domain.RuleBlocked {
		if command.Start, err = domain.ParseTimeOfDay(ruleStart); err != nil {
			return command, fmt.Errorf("invalid start time: %w", err)
		}
		if command.End, err = domain.ParseTimeOfDay(ruleEnd); err != nil {
			return command, fmt.Errorf("invalid end time: %w", err)
		}
	}

	if ruleFrom != "" {
		from, err := domain.ParseDate(ruleFrom)
		if err != nil {
			return command, fmt.Errorf("invalid --from date: %w", err)
		}
		command.ValidFrom = &from
	}
	if ruleTo != "" {
		to, err := domain.ParseDate(ruleTo)
		if err != nil {
			return command, fmt.Errorf("invalid --to date: %w", err)
		}
		command.ValidTo = &to
	}
	return command, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || s == name[:3] {
			return wd, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", s)
}

func init() {
	ruleAddCmd.Flags().StringVar(&ruleStation, "station", "", "station ID (empty adds a global rule)")
	ruleAddCmd.Flags().StringVar(&ruleKind, "kind", "regular", "rule kind: regular, special, blocked")
	ruleAddCmd.Flags().StringVar(&ruleWeekday, "weekday", "", "weekday of a regular rule")
	ruleAddCmd.Flags().StringVar(&ruleStart, "start", "08:00", "opening time (HH:MM)")
	ruleAddCmd.Flags().StringVar(&ruleEnd, "end", "18:00", "closing time (HH:MM)")
	ruleAddCmd.Flags().StringVar(&ruleFrom, "from", "", "first date of a special or blocked rule (YYYY-MM-DD)")
	ruleAddCmd.Flags().StringVar(&ruleTo, "to", "", "last date of a special or blocked rule (YYYY-MM-DD)")

	RuleCmd.AddCommand(ruleAddCmd)
	RuleCmd.AddCommand(ruleRemoveCmd)
}
