package main

import (
	"errors"

	"github.com/kass/geowithin/pkg/ruleset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkRules string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a rule file and print it in canonical form",
	Long:  `Load a YAML rule file with the configured validation and write the parsed rules back as YAML.`,
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkRules, "rules", "f", "", "Rule file (default from config rules.file)")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	file := checkRules
	strict := true
	if cfg != nil {
		if file == "" {
			file = cfg.Rules.File
		}
		strict = cfg.Validation.Strict
	}
	if file == "" {
		return errors.New("no rule file: pass --rules or set rules.file")
	}

	set, err := ruleset.LoadFile(file, ruleset.WithStrictValidation(strict))
	if err != nil {
		return err
	}
	zap.L().Debug("checked rule file", zap.String("file", file), zap.Int("rules", set.Len()), zap.Int("indexed", set.Indexed()))

	return set.Save(cmd.OutOrStdout())
}
