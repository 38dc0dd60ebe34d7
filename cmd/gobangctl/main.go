// Command gobangctl runs maintenance tasks against the gobang database.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/icco/gobang"
	"github.com/icco/gobang/auth"
	"github.com/icco/gobang/store"
	"github.com/icco/gutil/logging"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

var (
	log           = logging.Must(logging.NewLogger(gobang.Service))
	out io.Writer = os.Stdout
)

// globalOptions apply to every command.
type globalOptions struct {
	DatabaseURL string `long:"database-url" env:"DATABASE_URL" default:"gobang.db" description:"postgres:// URL or sqlite file"`
	Quiet       bool   `short:"q" long:"quiet" description:"only log errors"`
}

var global globalOptions

func openStore() (*store.Store, error) {
	l := log
	if global.Quiet {
		l = zap.NewNop().Sugar()
	}
	return store.Open(global.DatabaseURL, store.Config{}, l)
}

type migrateCommand struct{}

func (c *migrateCommand) Execute([]string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Fprintln(out, "schema is up to date")
	return nil
}

type seedCommand struct {
	Owner string         `long:"owner" required:"true" description:"username that owns the built-in models"`
	Dir   flags.Filename `long:"dir" default:"models" description:"directory holding the model files"`
}

func (c *seedCommand) Execute([]string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	owner, err := st.GetUserByUsername(ctx, c.Owner)
	if err != nil {
		return err
	}
	n, err := st.SeedDefaultModels(ctx, owner.ID, string(c.Dir))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "seeded %d models for %s\n", n, owner.Username)
	return nil
}

type cleanRoomsCommand struct {
	Idle time.Duration `long:"idle" default:"5m" description:"waiting rooms idle this long are closed"`
}

func (c *cleanRoomsCommand) Execute([]string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.CleanStaleRooms(context.Background(), c.Idle)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "closed %d rooms\n", n)
	return nil
}

type leaderboardCommand struct {
	Limit int `long:"limit" default:"10" description:"rows to show"`
}

func (c *leaderboardCommand) Execute([]string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	users, err := st.ListUsers(context.Background(), gobang.UserFilter{OrderByWins: true, Limit: c.Limit})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tUSER\tWIN\tLOSE\tDRAW")
	for i, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", i+1, u.Username, u.WinCount, u.LoseCount, u.DrawCount)
	}
	return tw.Flush()
}

type tokenCommand struct {
	Username string        `long:"username" required:"true" description:"user to log in as"`
	Password string        `long:"password" env:"GOBANG_PASSWORD" required:"true" description:"the user's password"`
	Secret   string        `long:"jwt-secret" env:"AUTH_JWT_SECRET" required:"true" description:"HMAC secret tokens are signed with"`
	TTL      time.Duration `long:"ttl" default:"24h" description:"how long the token stays valid"`
}

func (c *tokenCommand) Execute([]string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	u, err := st.CheckPassword(ctx, c.Username, c.Password)
	if err != nil {
		return err
	}
	if err := st.TouchLogin(ctx, u.ID); err != nil {
		return err
	}

	token, err := auth.Issue([]byte(c.Secret), u.ID, c.TTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func newParser() *flags.Parser {
	p := flags.NewParser(&global, flags.Default)
	p.SubcommandsOptional = false

	mustAdd := func(name, short, long string, data interface{}) {
		if _, err := p.AddCommand(name, short, long, data); err != nil {
			panic(err)
		}
	}
	mustAdd("migrate", "Create or update the schema", "Opens the database, which migrates every table.", &migrateCommand{})
	mustAdd("seed", "Install the built-in AI models", "Gives a user the built-in models unless they already have a default.", &seedCommand{})
	mustAdd("clean-rooms", "Close idle waiting rooms", "Ends rooms nobody joined within the idle timeout.", &cleanRoomsCommand{})
	mustAdd("leaderboard", "Print the leaderboard", "Lists users by wins, then fewest losses.", &leaderboardCommand{})
	mustAdd("token", "Issue a bearer token", "Checks a user's password and prints a signed API token.", &tokenCommand{})
	return p
}

func run(args []string) error {
	_, err := newParser().ParseArgs(args)
	return err
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		if _, ok := err.(*flags.Error); !ok {
			log.Errorw("command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}
