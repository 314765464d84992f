package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"go.viam.com/chartscene/chart"
)

// maxSummaryIDs caps how many group ids a summary row lists.
const maxSummaryIDs = 5

// summary prints a table of the data groups of every registered type.
func summary(scene *chart.Chart) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Type", "Groups", "IDs"})
	for i, dataType := range scene.DataTypes() {
		groups := scene.DataGroups(dataType)
		ids := make([]string, 0, maxSummaryIDs)
		for _, g := range groups {
			if len(ids) == maxSummaryIDs {
				ids = append(ids, "...")
				break
			}
			ids = append(ids, g.UserData().ID)
		}
		t.AppendRow(table.Row{fmt.Sprintf("%d", i+1), dataType, len(groups), strings.Join(ids, ", ")})
	}
	return t.Render()
}
