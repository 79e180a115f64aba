package main

import (
	"fmt"
	"strings"

	"github.com/kass/geowithin/pkg/geodist"
	"github.com/kass/geowithin/pkg/rules"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	evalRule      string
	evalThreshold float64
	evalReference string
	evalSubject   string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate one distance rule against a coordinate",
	Long:  `Evaluate a Within or NotWithin rule with threshold --threshold km around --ref for --subject and print the result.`,
	Args:  cobra.NoArgs,
	RunE:  runEval,
}

func init() {
	evalCmd.Flags().StringVarP(&evalRule, "rule", "r", "Within", "Rule type: "+kindNames())
	evalCmd.Flags().Float64VarP(&evalThreshold, "threshold", "d", 0, "Distance threshold in km")
	evalCmd.Flags().StringVarP(&evalReference, "ref", "p", "", "Reference point as lat,lon")
	evalCmd.Flags().StringVarP(&evalSubject, "subject", "s", "", "Subject point as lat,lon")
	_ = evalCmd.MarkFlagRequired("threshold")
	_ = evalCmd.MarkFlagRequired("ref")
	_ = evalCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	kind, err := rules.ParseKind(evalRule)
	if err != nil {
		return fmt.Errorf("--rule: %w", err)
	}
	reference, err := parseInput("ref", evalReference)
	if err != nil {
		return err
	}
	subject, err := parseInput("subject", evalSubject)
	if err != nil {
		return err
	}

	rule := rules.Rule{Kind: kind, Threshold: evalThreshold, Reference: reference}
	if cfg != nil && cfg.Validation.Strict {
		if err := rule.Validate(); err != nil {
			return err
		}
	}

	result := rule.Evaluate(subject)
	zap.L().Debug("evaluated rule",
		zap.Stringer("rule", rule),
		zap.Stringer("subject", subject),
		zap.Float64("distance_km", geodist.Distance(reference, subject)),
		zap.Bool("result", result),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s: %s\n", subject, rule.Describe(), renderResult(out, result))
	return nil
}

func kindNames() string {
	var names []string
	for _, k := range rules.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ", ")
}
