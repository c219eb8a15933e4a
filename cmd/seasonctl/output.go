package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	httpadapter "github.com/neomorfeo/cropseason/internal/adapter/http"
	"github.com/neomorfeo/cropseason/internal/domain"
)

var seasonHeader = []string{"ID", "Name", "Plot", "Crop", "Status", "Start", "End", "Plants", "Yield (kg)"}

func (c *cli) printSeason(cmd *cobra.Command, s domain.Season) error {
	if c.output == "json" {
		return writeJSON(cmd.OutOrStdout(), httpadapter.ToSeasonResponse(s))
	}
	return c.printSeasons(cmd, []domain.Season{s})
}

func (c *cli) printSeasons(cmd *cobra.Command, seasons []domain.Season) error {
	if c.output == "json" {
		resp := make([]httpadapter.SeasonResponse, len(seasons))
		for i, s := range seasons {
			resp[i] = httpadapter.ToSeasonResponse(s)
		}
		return writeJSON(cmd.OutOrStdout(), resp)
	}

	table := newTable(cmd.OutOrStdout(), seasonHeader)
	for _, s := range seasons {
		r := httpadapter.ToSeasonResponse(s)
		table.Append([]string{
			strconv.FormatInt(r.ID, 10),
			r.SeasonName,
			strconv.FormatInt(r.PlotID, 10),
			strconv.FormatInt(r.CropID, 10),
			r.Status,
			r.StartDate,
			r.EndDate,
			plants(s),
			yield(s),
		})
	}
	table.Render()
	return nil
}

func (c *cli) printHistory(cmd *cobra.Command, changes []httpadapter.StatusChangeResponse) error {
	if c.output == "json" {
		return writeJSON(cmd.OutOrStdout(), changes)
	}

	table := newTable(cmd.OutOrStdout(), []string{"Changed At", "From", "To", "Details"})
	for _, ch := range changes {
		table.Append([]string{ch.ChangedAt, ch.From, ch.To, details(ch.Data)})
	}
	table.Render()
	return nil
}

func (c *cli) printValidation(cmd *cobra.Command, result domain.ValidationResult) error {
	if c.output == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}

	out := cmd.OutOrStdout()
	if result.Valid {
		fmt.Fprintln(out, "form is valid")
		return nil
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "- %s\n", e)
	}
	return nil
}

func printActions(w io.Writer, actions []domain.Action) {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	if len(names) == 0 {
		names = append(names, "none")
	}
	fmt.Fprintf(w, "\nnext actions: %s\n", strings.Join(names, ", "))
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	return table
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// plants shows the current count once the season tracks one.
func plants(s domain.Season) string {
	if s.CurrentPlantCount != nil {
		return strconv.Itoa(*s.CurrentPlantCount)
	}
	return strconv.Itoa(s.InitialPlantCount)
}

func yield(s domain.Season) string {
	switch {
	case s.ActualYieldKg != nil:
		return strconv.FormatFloat(*s.ActualYieldKg, 'f', -1, 64)
	case s.ExpectedYieldKg != nil:
		return strconv.FormatFloat(*s.ExpectedYieldKg, 'f', -1, 64) + " (exp)"
	default:
		return ""
	}
}

func details(d domain.ActionData) string {
	var parts []string
	if d.ActualStartDate != "" {
		parts = append(parts, "started "+d.ActualStartDate)
	}
	if d.EndDate != "" {
		parts = append(parts, "ended "+d.EndDate)
	}
	if d.ActualYieldKg != nil {
		parts = append(parts, "yield "+strconv.FormatFloat(*d.ActualYieldKg, 'f', -1, 64))
	}
	if d.Reason != "" {
		parts = append(parts, "reason "+strconv.Quote(d.Reason))
	}
	if d.ForceComplete || d.ForceCancel {
		parts = append(parts, "forced")
	}
	return strings.Join(parts, ", ")
}
