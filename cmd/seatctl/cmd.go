package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/iliyamo/classroom-seating/internal/seating"
	"github.com/iliyamo/classroom-seating/internal/syncclient"
	"github.com/iliyamo/classroom-seating/internal/utils"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *viper.Viper
	in   io.Reader
	out  io.Writer
	log  *zap.Logger
}

func newCommandLine(conf *viper.Viper, in io.Reader, out io.Writer, log *zap.Logger) *commandLine {
	return &commandLine{conf: conf, in: in, out: out, log: log}
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  show                               - print every seat\n")
	cli.printf("  layouts                            - list saved layouts\n")
	cli.printf("  save -name NAME | -select ID       - save the current seating as a layout\n")
	cli.printf("  load -id ID                        - apply a saved layout\n")
	cli.printf("  lock -user ID                      - toggle a seat's lock\n")
	cli.printf("  bulk-lock [-unlock]                - lock (or unlock) every seat\n")
	cli.printf("  adjust -user ID -delta N           - change a student's score\n")
	cli.printf("  move -user ID -x X -y Y            - move a seat\n")
	cli.printf("  reset                              - arrange unlocked seats in a grid\n")
	cli.printf("  token -user ID [-role R]           - mint an access token (needs -secret)\n")
	cli.printf("Common flags: -server URL -course ID -token JWT -yes\n")
}

// session is a chart opened from the service.
type session struct {
	chart *seating.Chart
	page  *syncclient.Bootstrap
}

// connFlags are the connection flags shared by chart subcommands.
type connFlags struct {
	server *string
	course *uint64
	token  *string
	yes    *bool
}

func (cli *commandLine) connFlags(fs *flag.FlagSet) connFlags {
	return connFlags{
		server: fs.String("server", cli.conf.GetString("server"), "seating service base URL"),
		course: fs.Uint64("course", cli.conf.GetUint64("course"), "course id"),
		token:  fs.String("token", cli.conf.GetString("token"), "access token"),
		yes:    fs.Bool("yes", false, "answer yes to confirmations"),
	}
}

// open fetches the chart page and builds a controller around it.
func (cli *commandLine) open(ctx context.Context, cf connFlags) (*session, error) {
	if *cf.course == 0 {
		return nil, errors.New("a course is required (-course or SEATCTL_COURSE)")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	hc := &http.Client{Jar: jar}
	opts := []syncclient.Option{syncclient.WithHTTPClient(hc), syncclient.WithLogger(cli.log)}
	if *cf.token != "" {
		opts = append(opts, syncclient.WithBearerToken(*cf.token))
	}

	page, err := syncclient.FetchBootstrap(ctx, *cf.server, *cf.course, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load chart")
	}
	client, err := syncclient.New(*cf.server, page.Config, append(opts, syncclient.WithCSRFToken(page.CSRFToken))...)
	if err != nil {
		return nil, err
	}
	board, err := seating.BoardFromBootstrap(page.Seats)
	if err != nil {
		return nil, err
	}
	chart := seating.NewChart(board, client,
		seating.WithLogger(cli.log),
		seating.WithPrompter(newTermPrompter(cli.in, cli.out, *cf.yes)),
		seating.WithSurface(seating.Surface{
			Width:  cli.conf.GetFloat64("width"),
			Height: cli.conf.GetFloat64("height"),
		}),
	)
	return &session{chart: chart, page: page}, nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()
	name, rest := args[1], args[2:]
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)

	switch name {
	case "show":
		cf := cli.connFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return errHelp
		}
		s, err := cli.open(ctx, cf)
		if err != nil {
			return err
		}
		return cli.show(s.chart)

	case "layouts":
		cf := cli.connFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return errHelp
		}
		s, err := cli.open(ctx, cf)
		if err != nil {
			return err
		}
		if err := s.chart.ListLayouts(ctx); err != nil {
			return err
		}
		return cli.printLayouts(s.chart)

	case "save":
		cf := cli.connFlags(fs)
		layoutName := fs.String("name", "", "layout name")
		selectID := fs.Uint64("select", 0, "existing layout to overwrite")
		if err := fs.Parse(rest); err != nil {
			return errHelp
		}
		s, err := cli.open(ctx, cf)
		if err != nil {
			return err
		}
		if err := s.chart.ListLayouts(ctx); err != nil {
			return err
		}
		if err := s.chart.SelectLayout(*selectID); err != nil {
			return err
		}
		s.chart.SetLayoutName(*layoutName)
		saved, err := s.chart.SaveLayout(ctx)
		if err != nil {
			return err
		}
		cli.printf("saved layout %d %q\n", saved.ID, saved.Name)
		return nil

	case "load":
		cf := cli.connFlags(fs)
		id := fs.Uint64("id", 0, "layout id")
		if err := fs.Parse(rest); err != nil {
			return errHelp
		}
		s, err := cli.open(ctx, cf)
		if err != nil {
			return err
		}
		if err := s.chart.ListLayouts(ctx); err != nil {
			return err
		}
		if err := s.chart.SelectLayout(*id); err != nil {
			return err
		}
		n, err := s.chart.LoadLayout(ctx)
		if err != nil {
			return err
		}
		cli.printf("loaded layout %d: %d seats updated\n", *id, n)
		return nil

	case "lock":
		cf := cli.connFlags(fs)
		user := fs.Uint64("user", 0, "student id")
		if err := fs.Parse(rest); err != nil || *user == 0 {
			fs.Usage()
			return errHelp
		}
		s, err := cli.open(ctx, cf)
		if err != nil {
			return err
		}
		locked, err := s.chart.ToggleLock(ctx, *user)
		if err != nil {
			return err
		}
		cli.printf("seat %d locked=%t\n", *user, locked)
		return nil

	case "bulk-lock":
		cf := cli.connFlags(fs)
		unlock := fs.Bool("unlock", false, "unlock every seat instead")
		if err := fs.Parse(rest); err != nil {
			return errHelp
		}
		s, err := cli.open(ctx, cf)
		if err != nil {
			return err
		}
		if err := s.chart.BulkLock(ctx, !*unlock); err != nil {
			return err
		}
		cli.printf("%d seats locked=%t\n", len(s.page.Seats), !*unlock)
		return nil

	case "adjust":
		cf := cli.connFlags(fs)
		user := fs.Uint64("user", 0, "student id")
		delta := fs.Int("delta", 0, "points to add (negative to remove)")
		if err := fs.Parse(rest); err != nil || *user == 0 || *delta == 0 {
			fs.Usage()
			return errHelp
		}
		s, err := cli.open(ctx, cf)
		if err != nil {
			return err
		}
		total, err := s.chart.AdjustScore(ctx, *user, *delta)
		if err != nil {
			return err
		}
		cli.printf("student %d total=%d\n", *user, total)
		return nil

	case "move":
		cf := cli.connFlags(fs)
		user := fs.Uint64("user", 0, "student id")
		x := fs.Float64("x", 0, "left offset")
		y := fs.Float64("y", 0, "top offset")
		if err := fs.Parse(rest); err != nil || *user == 0 {
			fs.Usage()
			return errHelp
		}
		s, err := cli.open(ctx, cf)
		if err != nil {
			return err
		}
		seat, err := s.chart.MoveSeat(ctx, *user, *x, *y)
		if err != nil {
			return err
		}
		cli.printf("seat %d at (%g, %g)\n", seat.UserID, seat.X, seat.Y)
		return nil

	case "reset":
		cf := cli.connFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return errHelp
		}
		s, err := cli.open(ctx, cf)
		if err != nil {
			return err
		}
		n := s.chart.ResetGrid(ctx)
		cli.printf("%d seats arranged\n", n)
		return cli.show(s.chart)

	case "token":
		user := fs.Uint64("user", 0, "user id")
		role := fs.String("role", cli.conf.GetString("role"), "role claim")
		secret := fs.String("secret", cli.conf.GetString("secret"), "JWT signing secret")
		ttl := fs.Duration("ttl", cli.conf.GetDuration("ttl"), "token lifetime")
		if err := fs.Parse(rest); err != nil || *user == 0 || *secret == "" {
			fs.Usage()
			return errHelp
		}
		tok, err := utils.NewAccessToken(*secret, *user, *role, int(ttl.Minutes()))
		if err != nil {
			return err
		}
		cli.printf("%s\n", tok.Token)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) show(chart *seating.Chart) error {
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tX\tY\tLOCKED\tSCORE")
	for _, s := range chart.Seats() {
		v := seating.Project(s)
		fmt.Fprintf(w, "%d\t%s\t%g\t%g\t%s\t%d (%s)\n", v.UserID, v.Name, v.Left, v.Top, v.LockIcon, v.Score, v.Class)
	}
	return w.Flush()
}

func (cli *commandLine) printLayouts(chart *seating.Chart) error {
	entries, _ := chart.Layouts()
	if len(entries) == 0 {
		cli.printf("no saved layouts\n")
		return nil
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\n", e.ID, e.Name, e.UpdatedAt)
	}
	return w.Flush()
}
