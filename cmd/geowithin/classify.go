package main

import (
	"errors"
	"fmt"

	"github.com/kass/geowithin/pkg/ruleset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	classifyRules   string
	classifySubject string
	classifyFirst   bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "List the rules in a rule file that a coordinate satisfies",
	Long:  `Load a YAML rule file and print the name of every rule matched by --subject, in file order.`,
	Args:  cobra.NoArgs,
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyRules, "rules", "f", "", "Rule file (default from config rules.file)")
	classifyCmd.Flags().StringVarP(&classifySubject, "subject", "s", "", "Subject point as lat,lon")
	classifyCmd.Flags().BoolVar(&classifyFirst, "first", false, "Print only the first matching rule")
	_ = classifyCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	file := classifyRules
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

	subject, err := parseInput("subject", classifySubject)
	if err != nil {
		return err
	}

	set, err := ruleset.LoadFile(file, ruleset.WithStrictValidation(strict))
	if err != nil {
		return err
	}
	zap.L().Debug("loaded rule file", zap.String("file", file), zap.Int("rules", set.Len()))

	out := cmd.OutOrStdout()
	if classifyFirst {
		name, ok := set.First(subject)
		if !ok {
			fmt.Fprintln(out, render(out, dimStyle, "no match"))
			return nil
		}
		fmt.Fprintln(out, render(out, matchStyle, name))
		return nil
	}

	matched := set.Classify(subject)
	if len(matched) == 0 {
		fmt.Fprintln(out, render(out, dimStyle, "no match"))
		return nil
	}
	for _, name := range matched {
		fmt.Fprintln(out, render(out, matchStyle, name))
	}
	return nil
}
