package main

import (
	"fmt"

	"github.com/kass/geowithin/pkg/geodist"
	"github.com/spf13/cobra"
)

var distanceFrom, distanceTo string

var distanceCmd = &cobra.Command{
	Use:   "distance",
	Short: "Print the great-circle distance between two points",
	Long:  `Compute the Haversine distance in kilometers between --from and --to.`,
	Args:  cobra.NoArgs,
	RunE:  runDistance,
}

func init() {
	distanceCmd.Flags().StringVar(&distanceFrom, "from", "", "Start point as lat,lon")
	distanceCmd.Flags().StringVar(&distanceTo, "to", "", "End point as lat,lon")
	_ = distanceCmd.MarkFlagRequired("from")
	_ = distanceCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(distanceCmd)
}

func runDistance(cmd *cobra.Command, args []string) error {
	from, err := parseInput("from", distanceFrom)
	if err != nil {
		return err
	}
	to, err := parseInput("to", distanceTo)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%.3f km\n", geodist.Distance(from, to))
	return nil
}
