package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/snooze/internal/app"
	"github.com/abelbrown/snooze/internal/config"
	"github.com/abelbrown/snooze/internal/logging"
	"github.com/abelbrown/snooze/internal/otel"
	"github.com/abelbrown/snooze/internal/ui"
	"github.com/abelbrown/snooze/internal/view"
)

// runTUI hands the runtime to the Bubble Tea app. Every callback runs its
// work inside a tea.Cmd so the UI goroutine never blocks on the network.
func runTUI(ctx context.Context, cfg *config.Config, rt *app.Runtime, events *otel.Logger) error {
	history := otel.NewHistory(otel.DefaultHistorySize)
	events.Attach(history)

	model := ui.NewApp(ui.AppConfig{
		Bootstrap: func() tea.Cmd {
			return func() tea.Msg {
				if _, err := rt.Start(ctx); err != nil {
					return ui.BootstrapDone{Err: err}
				}
				return ui.BootstrapDone{Display: rt.Controller.Display()}
			}
		},
		Dispatch: func(a view.Action) tea.Cmd {
			return func() tea.Msg {
				d, err := rt.Controller.Dispatch(ctx, a)
				return ui.ActionDone{Action: a, Display: d, Err: err}
			}
		},
		Login: func(username, password string) tea.Cmd {
			return func() tea.Msg {
				d, err := rt.Controller.Login(ctx, username, password)
				return ui.AuthDone{Display: d, Err: err}
			}
		},
		Signup: func(username, password, name string) tea.Cmd {
			return func() tea.Msg {
				d, err := rt.Controller.Signup(ctx, username, password, name)
				return ui.AuthDone{Display: d, Err: err}
			}
		},
		Logout: func() tea.Cmd {
			return func() tea.Msg {
				d, err := rt.Controller.Logout()
				return ui.AuthDone{Logout: true, Display: d, Err: err}
			}
		},
		NoticeDuration: cfg.UI.NoticeDuration,
		Events:         events,
		History:        history,
	})

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(model, opts...)

	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil {
			logging.Info("interrupted")
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
