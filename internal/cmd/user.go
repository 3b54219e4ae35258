package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jimezsa/jobcrawl/internal/store"
)

type UserCmd struct {
	Add     UserAddCmd     `cmd:"" help:"Create a user."`
	Visited UserVisitedCmd `cmd:"" help:"Mark a saved job as visited by a user."`
	Applied UserAppliedCmd `cmd:"" help:"Mark a saved job as applied to by a user."`
}

type UserAddCmd struct {
	DatabaseOptions
	Email        string `required:"" help:"User email."`
	PasswordHash string `name:"password-hash" required:"" help:"Password hash to store."`
	Resume       string `help:"Path to a plain-text resume."`
}

type UserMarkCmd struct {
	DatabaseOptions
	UserID int `name:"user-id" required:"" help:"User id."`
	JobID  int `name:"job-id" required:"" help:"Saved job id."`
}

type UserVisitedCmd struct {
	UserMarkCmd
}

type UserAppliedCmd struct {
	UserMarkCmd
}

func (c *UserAddCmd) Run(ctx *Context) error {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return fmt.Errorf("--email is required")
	}

	resume := ""
	if strings.TrimSpace(c.Resume) != "" {
		data, err := os.ReadFile(c.Resume)
		if err != nil {
			return fmt.Errorf("read --resume: %w", err)
		}
		resume = string(data)
	}

	runCtx := context.Background()
	st, err := openStore(runCtx, ctx, c.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	user, err := st.CreateUser(runCtx, email, c.PasswordHash, resume)
	if err != nil {
		return err
	}

	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(user)
	}
	_, err = fmt.Fprintln(ctx.Out, user.ID)
	return err
}

func (c *UserVisitedCmd) Run(ctx *Context) error {
	return c.mark(ctx, (*store.Store).MarkVisited)
}

func (c *UserAppliedCmd) Run(ctx *Context) error {
	return c.mark(ctx, (*store.Store).MarkApplied)
}

func (c UserMarkCmd) mark(ctx *Context, apply func(*store.Store, context.Context, int, int) error) error {
	runCtx := context.Background()
	st, err := openStore(runCtx, ctx, c.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := apply(st, runCtx, c.UserID, c.JobID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("job %d is not linked to user %d", c.JobID, c.UserID)
		}
		return err
	}
	ctx.UI.Successf("Updated job %d for user %d", c.JobID, c.UserID)
	return nil
}
