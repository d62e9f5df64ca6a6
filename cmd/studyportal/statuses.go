package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"studyportal/internal/status"
	"studyportal/pkg/types"

	"github.com/urfave/cli/v2"
)

var statusesCommand = &cli.Command{
	Name:  "statuses",
	Usage: "Print the application status table with edit and review rules",
	Action: func(cCtx *cli.Context) error {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tLABEL\tEDITABLE\tSUBMITTABLE\tREVIEW TO")

		printRow := func(code string, c *types.ApplicationStatus) {
			var targets []string
			for _, t := range status.ReviewTargets(c) {
				targets = append(targets, status.Label(t.Ptr()))
			}
			fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%v\n",
				code, status.Label(c), status.CanEdit(c), status.CanSubmit(c), targets)
		}

		printRow("-", nil)
		for _, c := range status.All() {
			printRow(fmt.Sprint(int(c)), c.Ptr())
		}

		return tw.Flush()
	},
}
