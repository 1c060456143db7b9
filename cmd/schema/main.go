package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"articlehub/db"
	"articlehub/internal/config"
	"articlehub/internal/logger"
	"articlehub/internal/model"
	"articlehub/internal/repository"

	"github.com/alecthomas/kong"
)

type app struct {
	ctx      context.Context
	postgres *db.Postgres
	repo     *repository.ArticleRepository
	out      io.Writer
}

type ensureCmd struct{}

func (c *ensureCmd) Run(a *app) error {
	if err := a.repo.EnsureTable(a.ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "articles table is present")
	return nil
}

type resetCmd struct {
	Yes bool `short:"y" help:"Confirm that every existing article should be deleted."`
}

func (c *resetCmd) Run(a *app) error {
	if !c.Yes {
		return errors.New("reset drops the articles table and all of its rows; re-run with --yes")
	}

	ok, err := a.repo.ResetTable(a.ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("articles table could not be verified after reset")
	}

	fmt.Fprintln(a.out, "articles table recreated")
	return nil
}

type describeCmd struct{}

func (c *describeCmd) Run(a *app) error {
	columns, err := a.repo.TableStructure(a.ctx)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return errors.New("articles table not found")
	}

	return writeColumns(a.out, columns)
}

type checkCmd struct{}

func (c *checkCmd) Run(a *app) error {
	if !a.postgres.TestConnection(a.ctx) {
		return errors.New("database disconnected")
	}

	exists, err := a.repo.TableExists(a.ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "database: connected\ntable_exists: %t\n", exists)
	if !exists {
		return errors.New("articles table is missing")
	}
	return nil
}

type cli struct {
	LogLevel string        `env:"LOG_LEVEL" default:"warn" help:"Log level (debug, info, warn, error)."`
	Timeout  time.Duration `default:"30s" help:"Deadline for the whole command."`

	Ensure   ensureCmd   `cmd:"" help:"Create the articles table and indexes if missing."`
	Reset    resetCmd    `cmd:"" help:"Drop and recreate the articles table, discarding all rows."`
	Describe describeCmd `cmd:"" help:"Print the columns of the articles table."`
	Check    checkCmd    `cmd:"" help:"Check the connection and that the table exists."`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("schema"),
		kong.Description("Manage the articles table."),
		kong.UsageOnError(),
	)

	logger.Setup(os.Stderr, c.LogLevel)

	cfg, err := config.LoadDatabase()
	kctx.FatalIfErrorf(err)

	postgres, err := db.Connect(*cfg)
	kctx.FatalIfErrorf(err)
	defer postgres.Close()

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	err = kctx.Run(&app{
		ctx:      ctx,
		postgres: postgres,
		repo:     repository.NewArticleRepository(postgres),
		out:      os.Stdout,
	})
	if err != nil {
		postgres.Close()
		kctx.FatalIfErrorf(err)
	}
}

func writeColumns(w io.Writer, columns []model.Column) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tMAX LENGTH\tNULLABLE\tDEFAULT")

	for _, col := range columns {
		maxLength := "-"
		if col.MaxLength != nil {
			maxLength = fmt.Sprint(*col.MaxLength)
		}
		def := "-"
		if col.Default != nil {
			def = *col.Default
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", col.Name, col.DataType, maxLength, col.Nullable, def)
	}

	return tw.Flush()
}
