package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/cropseason/internal/adapter/xlsx"
	"github.com/neomorfeo/cropseason/internal/app"
	"github.com/neomorfeo/cropseason/internal/domain"
)

// errAborted is returned when the operator declines a confirmation.
var errAborted = errors.New("aborted")

// formFlags collects the season form from command flags.
type formFlags struct {
	name           string
	plot           int64
	crop           int64
	variety        int64
	start          string
	plannedHarvest string
	end            string
	plants         int
	expectedYield  float64
	notes          string
}

func (f *formFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "season name")
	flags.Int64Var(&f.plot, "plot", 0, "plot ID")
	flags.Int64Var(&f.crop, "crop", 0, "crop ID")
	flags.Int64Var(&f.variety, "variety", 0, "variety ID")
	flags.StringVar(&f.start, "start", "", "start date (YYYY-MM-DD)")
	flags.StringVar(&f.plannedHarvest, "planned-harvest", "", "planned harvest date (YYYY-MM-DD)")
	flags.StringVar(&f.end, "end", "", "end date (YYYY-MM-DD)")
	flags.IntVar(&f.plants, "plants", 0, "initial plant count")
	flags.Float64Var(&f.expectedYield, "expected-yield", 0, "expected yield in kg")
	flags.StringVar(&f.notes, "notes", "", "free text notes")
}

// form builds the season form. Optional numbers are only set when their
// flag was given, so an explicit 0 still reaches the validator.
func (f *formFlags) form(cmd *cobra.Command) domain.SeasonForm {
	form := domain.SeasonForm{
		SeasonName:         f.name,
		PlotID:             f.plot,
		CropID:             f.crop,
		StartDate:          f.start,
		PlannedHarvestDate: f.plannedHarvest,
		EndDate:            f.end,
		Notes:              f.notes,
	}
	flags := cmd.Flags()
	if flags.Changed("variety") {
		form.VarietyID = &f.variety
	}
	if flags.Changed("plants") {
		form.InitialPlantCount = &f.plants
	}
	if flags.Changed("expected-yield") {
		form.ExpectedYieldKg = &f.expectedYield
	}
	return form
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			season, err := c.svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := c.printSeason(cmd, season); err != nil {
				return err
			}
			if c.output == "table" {
				printActions(cmd.OutOrStdout(), c.validator.Actions(season.Status))
			}
			return nil
		},
	}
}

// listFlags collects a list filter from command flags.
type listFlags struct {
	plot   int64
	status string
	limit  int
	offset int
}

func (f *listFlags) register(cmd *cobra.Command, defaultLimit int) {
	f.registerFilters(cmd)
	flags := cmd.Flags()
	flags.IntVar(&f.limit, "limit", defaultLimit, "max results")
	flags.IntVar(&f.offset, "offset", 0, "pagination offset")
}

func (f *listFlags) registerFilters(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int64Var(&f.plot, "plot", 0, "only seasons on this plot")
	flags.StringVar(&f.status, "status", "", "only seasons in this status")
}

func (f *listFlags) filter() (domain.ListFilter, error) {
	filter := domain.ListFilter{Limit: f.limit, Offset: f.offset}
	if f.plot != 0 {
		filter.PlotID = &f.plot
	}
	if f.status != "" {
		status, err := domain.ParseStatus(f.status)
		if err != nil {
			return domain.ListFilter{}, err
		}
		filter.Status = &status
	}
	return filter, nil
}

func (c *cli) listCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List seasons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := lf.filter()
			if err != nil {
				return err
			}
			seasons, err := c.svc.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return c.printSeasons(cmd, seasons)
		},
	}
	lf.register(cmd, 50)
	return cmd
}

func (c *cli) createCmd() *cobra.Command {
	var ff formFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a planned season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			season, err := c.svc.Create(cmd.Context(), ff.form(cmd))
			if err != nil {
				return err
			}
			return c.printSeason(cmd, season)
		},
	}
	ff.register(cmd)
	return cmd
}

func (c *cli) updateCmd() *cobra.Command {
	var ff formFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace a season's form fields",
		Long:  "Replace a season's form fields. The full form is validated, so every mandatory flag must be given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			season, err := c.svc.Update(cmd.Context(), id, ff.form(cmd))
			if err != nil {
				return err
			}
			return c.printSeason(cmd, season)
		},
	}
	ff.register(cmd)
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a season in any status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Delete season %d?", id)) {
				return errAborted
			}
			if err := c.svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "season %d deleted\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) startCmd() *cobra.Command {
	var (
		date   string
		plants int
	)
	cmd := &cobra.Command{
		Use:   "start ID",
		Short: "Start a planned season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in := app.StartInput{ActualStartDate: date}
			if cmd.Flags().Changed("plants") {
				in.CurrentPlantCount = &plants
			}
			season, err := c.svc.Start(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return c.printSeason(cmd, season)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "actual start date (YYYY-MM-DD), defaults to the planned start date")
	cmd.Flags().IntVar(&plants, "plants", 0, "current plant count")
	return cmd
}

func (c *cli) completeCmd() *cobra.Command {
	var (
		endDate string
		yield   float64
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "complete ID",
		Short: "Complete an active season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in := app.CompleteInput{EndDate: endDate, ForceComplete: force}
			if cmd.Flags().Changed("yield") {
				in.ActualYieldKg = &yield
			}
			season, err := c.svc.Complete(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return c.printSeason(cmd, season)
		},
	}
	cmd.Flags().StringVar(&endDate, "end-date", "", "end date (YYYY-MM-DD), required")
	cmd.Flags().Float64Var(&yield, "yield", 0, "actual yield in kg")
	cmd.Flags().BoolVar(&force, "force", false, "complete despite pending tasks")
	return cmd
}

func (c *cli) cancelCmd() *cobra.Command {
	var (
		reason string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a planned or active season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			season, err := c.svc.Cancel(cmd.Context(), id, app.CancelInput{Reason: reason, ForceCancel: force})
			if err != nil {
				return err
			}
			return c.printSeason(cmd, season)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why the season is cancelled")
	cmd.Flags().BoolVar(&force, "force", false, "cancel despite harvest records")
	return cmd
}

func (c *cli) archiveCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "archive ID",
		Short: "Archive a completed or cancelled season",
		Long:  "Archive a completed or cancelled season. Archived seasons can no longer change status.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Archive season %d? This cannot be undone.", id)) {
				return errAborted
			}
			season, err := c.svc.Archive(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printSeason(cmd, season)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "Show a season's status changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			changes, err := c.client.History(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printHistory(cmd, changes)
		},
	}
}

func (c *cli) validateCmd() *cobra.Command {
	var ff formFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a season form locally without saving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result := c.svc.Validate(ff.form(cmd))
			if err := c.printValidation(cmd, result); err != nil {
				return err
			}
			return result.Err()
		},
	}
	ff.register(cmd)
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var (
		lf       listFlags
		path     string
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export seasons to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pageSize < 1 || pageSize > 500 {
				return fmt.Errorf("page size %d out of range [1, 500]", pageSize)
			}
			filter, err := lf.filter()
			if err != nil {
				return err
			}
			seasons, err := c.listAll(cmd.Context(), filter, pageSize)
			if err != nil {
				return err
			}
			if err := xlsx.WriteFile(path, seasons); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d seasons to %s\n", len(seasons), path)
			return nil
		},
	}
	lf.registerFilters(cmd)
	cmd.Flags().StringVar(&path, "file", "seasons.xlsx", "output workbook path")
	cmd.Flags().IntVar(&pageSize, "page-size", 500, "seasons fetched per request")
	return cmd
}

// listAll pages through every season matching filter until the server
// returns an empty page.
func (c *cli) listAll(ctx context.Context, filter domain.ListFilter, pageSize int) ([]domain.Season, error) {
	var all []domain.Season
	filter.Limit = pageSize
	for {
		page, err := c.svc.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("listing seasons from offset %d: %w", filter.Offset, err)
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
		filter.Offset += len(page)
	}
}
