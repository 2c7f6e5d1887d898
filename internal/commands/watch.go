package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dennisdiepolder/workforce/internal/alerts"
	"github.com/dennisdiepolder/workforce/internal/board"
	"github.com/dennisdiepolder/workforce/internal/commands/options"
	"github.com/dennisdiepolder/workforce/internal/interaction"
	"github.com/dennisdiepolder/workforce/internal/query"
	"github.com/dennisdiepolder/workforce/internal/repository"
	"github.com/dennisdiepolder/workforce/internal/session"
	"github.com/dennisdiepolder/workforce/internal/syncclient"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const watchHelp = `commands:
  select <id>      select a call
  move <bucket>    move the selection to unscheduled, today, tomorrow, week or done
  add <name>       add a call
  /<text>          search, "/" alone clears
  view list|board  switch views
  filter <f>       all or a status: new, scheduled, in_progress, done
  1-4 s c d y      set status, advance, complete, delete, confirm
  q                quit`

func addWatch(topLevel *cobra.Command) {
	ro := &options.RemoteOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sign in to a server and work the shared board live.",
		Example: `
workforce watch --server https://dispatch.example.com --email ann@example.com --password ...
WORKFORCE_SERVER=http://localhost:8080 workforce watch --token "$TOKEN"
`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			if ro.Server == "" {
				ro.Server = cfg.Server
			}
			if ro.Server == "" {
				return errors.New("no server configured, pass --server or set WORKFORCE_SERVER")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return watch(ctx, cancel, cfg, ro)
		},
	}
	options.AddRemoteArgs(cmd, ro)

	topLevel.AddCommand(cmd)
}

func watch(ctx context.Context, cancel context.CancelFunc, cfg *Config, ro *options.RemoteOptions) error {
	mgr := session.NewManager(cfg.Issuer, cfg.ClientID, logger)
	s, err := mgr.SignIn(ctx, session.Credential{Email: ro.Email, Password: ro.Password, Token: ro.Token})
	if err != nil {
		return err
	}
	defer mgr.SignOut()

	client := syncclient.New(ro.Server, mgr, logger)
	repo := repository.New(client, repository.ModeSubscribed, logger)
	defer repo.Close()

	stop := mgr.OnChange(func(s *session.Session) {
		if s == nil {
			repo.Detach()
		}
	})
	defer stop()

	if _, err := repo.Attach(ctx, client); err != nil {
		return err
	}

	pp := printer()
	notice := color.New(color.FgYellow)
	render := func(f interaction.Frame) {
		_, _ = fmt.Fprintf(out, "\n-- %s --\n", time.Now().Format("15:04:05"))
		if f.View == interaction.ViewBoard {
			pp.Board(f.Board, alerts.CheckCallAlerts(repo.All(), time.Now()))
		} else {
			pp.List(f.List, f.Empty)
		}
		if f.Selected != "" {
			_, _ = fmt.Fprintf(out, "selected %s\n", shortOrFull(oo.ShowID, f.Selected))
		}
	}
	onEffect := func(e interaction.Effect) {
		switch e := e.(type) {
		case interaction.ErrorEffect:
			_, _ = color.New(color.FgRed).Fprintf(out, "error: %v\n", e.Err)
		case interaction.ConfirmEffect:
			_, _ = notice.Fprintf(out, "%s (y to confirm, Escape to cancel)\n", e.Prompt)
		case interaction.DialEffect:
			_, _ = fmt.Fprintln(out, e.URI)
		case interaction.EditEffect:
			_, _ = notice.Fprintln(out, "editing is not available while watching, use add or the edit command")
		case interaction.FocusSearchEffect:
			_, _ = notice.Fprintln(out, "type /<text> to search")
		}
	}

	ctrl := interaction.NewController(repo, render, logger, interaction.WithEffectHandler(onEffect))
	ctrl.Dispatch(interaction.SetView{View: interaction.ViewBoard})

	_, _ = fmt.Fprintf(out, "signed in as %s, type help for commands\n", s.Claims.Email)
	go func() {
		defer cancel()
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			cmd, quit, err := parseInput(scanner.Text(), repo.All(), ctrl.State())
			if quit {
				return
			}
			if err != nil {
				_, _ = color.New(color.FgRed).Fprintf(out, "%v\n", err)
				continue
			}
			if cmd != nil && !ctrl.Dispatch(cmd) {
				return
			}
		}
	}()

	ctrl.Run(ctx)
	return nil
}

// parseInput turns one line typed while watching into a controller command
func parseInput(line string, calls []types.Call, st interaction.State) (cmd interaction.Command, quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false, nil
	}
	if strings.HasPrefix(line, "/") {
		return interaction.SetQuery{Query: strings.TrimPrefix(line, "/")}, false, nil
	}

	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch verb {
	case "q", "quit", "exit":
		return nil, true, nil
	case "help", "?":
		_, _ = fmt.Fprintln(out, watchHelp)
		return nil, false, nil
	case "select":
		if arg == "" {
			return interaction.Select{}, false, nil
		}
		c, err := resolveIn(calls, arg)
		if err != nil {
			return nil, false, err
		}
		return interaction.Select{ID: c.ID}, false, nil
	case "move":
		if st.Selected == "" {
			return nil, false, errors.New("select a call first")
		}
		b, err := board.ParseBucket(arg)
		if err != nil {
			return nil, false, err
		}
		return interaction.Move{ID: st.Selected, Bucket: b}, false, nil
	case "add":
		if arg == "" {
			return nil, false, errors.New("add needs a name")
		}
		return interaction.Create{Fields: types.Fields{Name: arg}}, false, nil
	case "view":
		switch interaction.View(arg) {
		case interaction.ViewList, interaction.ViewBoard:
			return interaction.SetView{View: interaction.View(arg)}, false, nil
		}
		return nil, false, fmt.Errorf("unknown view %q", arg)
	case "filter":
		f, err := query.ParseFilter(arg)
		if err != nil {
			return nil, false, err
		}
		return interaction.SetFilter{Filter: f}, false, nil
	case "esc":
		return interaction.Hotkey{Key: "Escape"}, false, nil
	}
	if arg == "" {
		return interaction.Hotkey{Key: verb}, false, nil
	}
	return nil, false, fmt.Errorf("unknown command %q, type help", line)
}
