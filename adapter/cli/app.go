package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"

	internalApp "github.com/felixgeelhaar/choreboard/internal/app"
	"github.com/felixgeelhaar/choreboard/internal/board/application"
	"github.com/felixgeelhaar/choreboard/internal/board/application/commands"
	"github.com/felixgeelhaar/choreboard/internal/board/application/queries"
)

// ErrNotInitialized is returned by commands that need a wired application.
var ErrNotInitialized = errors.New("application not initialized")

// App holds the CLI application dependencies.
type App struct {
	Container *internalApp.Container
	Registry  *application.Registry

	// Command Handlers
	SaveBoardHandler       *commands.SaveBoardHandler
	RemoveDoneTasksHandler *commands.RemoveDoneTasksHandler
	WeeklyRefreshHandler   *commands.WeeklyRefreshHandler

	// Query Handlers
	GetBoardHandler        *queries.GetBoardHandler
	ListEntriesHandler     *queries.ListEntriesHandler
	PersonWeekStatsHandler *queries.PersonWeekStatsHandler
	NextTasksHandler       *queries.NextTasksHandler
}

// NewApp creates a new CLI application on top of a wired container.
func NewApp(container *internalApp.Container) *App {
	registry := container.Registry
	return &App{
		Container:              container,
		Registry:               registry,
		SaveBoardHandler:       commands.NewSaveBoardHandler(registry),
		RemoveDoneTasksHandler: commands.NewRemoveDoneTasksHandler(registry),
		WeeklyRefreshHandler:   commands.NewWeeklyRefreshHandler(registry),
		GetBoardHandler:        queries.NewGetBoardHandler(registry),
		ListEntriesHandler:     queries.NewListEntriesHandler(registry),
		PersonWeekStatsHandler: queries.NewPersonWeekStatsHandler(registry),
		NextTasksHandler:       queries.NewNextTasksHandler(registry),
	}
}

// ResolveEntry returns the household a command acts on. Without --entry the
// only configured household is used.
func (a *App) ResolveEntry(flag string) (string, error) {
	if flag != "" {
		if _, err := a.Registry.Get(flag); err != nil {
			return "", err
		}
		return flag, nil
	}
	entries := a.Registry.Entries()
	if len(entries) == 1 {
		return entries[0].EntryID, nil
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.EntryID)
	}
	return "", fmt.Errorf("--entry is required, choose one of: %s", strings.Join(ids, ", "))
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the application or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
