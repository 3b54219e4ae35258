package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/jobcrawl/internal/store"
)

type DBCmd struct {
	Migrate DBMigrateCmd `cmd:"" help:"Create the schema if it does not exist."`
	Jobs    DBJobsCmd    `cmd:"" help:"List saved jobs."`
}

type DatabaseOptions struct {
	DatabaseURL string `name:"database-url" help:"PostgreSQL connection string." env:"JOBCRAWL_DATABASE_URL"`
}

type DBMigrateCmd struct {
	DatabaseOptions
}

type DBJobsCmd struct {
	DatabaseOptions
	Limit  int `help:"Maximum rows." default:"50"`
	Offset int `help:"Rows to skip."`
}

func (c *DBMigrateCmd) Run(ctx *Context) error {
	runCtx := context.Background()
	st, err := openStore(runCtx, ctx, c.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(runCtx); err != nil {
		return err
	}
	ctx.UI.Successf("Schema is up to date")
	return nil
}

func (c *DBJobsCmd) Run(ctx *Context) error {
	runCtx := context.Background()
	st, err := openStore(runCtx, ctx, c.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	jobs, err := st.ListJobs(runCtx, c.Limit, c.Offset)
	if err != nil {
		return err
	}
	return writeStoredJobs(ctx, jobs)
}

func openStore(runCtx context.Context, ctx *Context, flagValue string) (*store.Store, error) {
	dsn := firstNonEmpty(flagValue, ctx.Config.DatabaseURL)
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("no database configured: set --database-url or JOBCRAWL_DATABASE_URL")
	}
	return store.Open(runCtx, dsn)
}

func writeStoredJobs(ctx *Context, jobs []store.Job) error {
	if ctx.JSONOutput {
		if jobs == nil {
			jobs = []store.Job{}
		}
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	}

	if ctx.PlainText {
		for _, job := range jobs {
			line := []string{fmt.Sprintf("%d", job.ID), job.Site, job.JobSiteID, job.Title, job.URL}
			fmt.Fprintln(ctx.Out, strings.Join(line, "\t"))
		}
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tsite\tjob_site_id\ttitle\tremote\turl")
	for _, job := range jobs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n", job.ID, job.Site, job.JobSiteID, job.Title, job.Remote, job.URL)
	}
	return tw.Flush()
}
