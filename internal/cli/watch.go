package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vizdeck/pkg/document"
	"github.com/matzehuels/vizdeck/pkg/engine"
)

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	output  string
	width   float64
	noCache bool
	plain   bool // disable the TUI, log renders instead
}

// watchCommand creates the watch command: re-render a document whenever
// its file changes. Edit bursts settle through the engine debouncer
// into a single render.
func (c *CLI) watchCommand() *cobra.Command {
	var opts watchOpts

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Re-render a document whenever the file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with .svg)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "canvas width in pixels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "plain log output instead of the status view")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, input string, opts *watchOpts) error {
	doc, err := document.Load(input)
	if err != nil {
		return err
	}

	eng, err := c.newEngine(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer eng.Close()

	width := opts.width
	if width <= 0 {
		width = doc.Width
	}
	if width <= 0 {
		width = c.Config.Width
	}

	outputPath := opts.output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
	}

	session := eng.NewSession(doc.Blocks, width)
	defer session.Close()

	events := make(chan watchEvent, 8)
	session.OnRender(func(result *engine.Result, err error) {
		ev := watchEvent{at: time.Now(), err: err}
		if err == nil {
			ev.blocks = len(result.Blocks)
			ev.errors = len(result.Errors)
			ev.err = writeOutput(outputPath, result.SVG)
		}
		events <- ev
	})

	// Watch the directory, not the file: most editors replace files on
	// save, which drops inode-level watches.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return err
	}

	go func() {
		target := filepath.Clean(input)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				fresh, err := document.Load(input)
				if err != nil {
					events <- watchEvent{at: time.Now(), err: err}
					continue
				}
				session.Update(fresh.Blocks)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.Logger.Warn("watch error", "error", err)
			}
		}
	}()

	// Initial render before the first change.
	result, err := session.Render(ctx)
	if err != nil {
		return err
	}
	if err := writeOutput(outputPath, result.SVG); err != nil {
		return err
	}

	if opts.plain {
		return c.watchPlain(ctx, input, outputPath, events)
	}
	return watchTUI(ctx, input, outputPath, len(result.Blocks), len(result.Errors), events)
}

// watchPlain logs render events until the context is cancelled.
func (c *CLI) watchPlain(ctx context.Context, input, output string, events <-chan watchEvent) error {
	printInfo("Watching %s", input)
	printFile(output)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if ev.err != nil {
				printError("render failed: %v", ev.err)
				continue
			}
			if ev.errors > 0 {
				printWarning("rendered %d blocks, %d failed", ev.blocks, ev.errors)
				continue
			}
			printSuccess("rendered %d blocks", ev.blocks)
		}
	}
}

// watchEvent is one settled re-render outcome.
type watchEvent struct {
	at     time.Time
	blocks int
	errors int
	err    error
}

// watchModel is the bubbletea model for the watch status view.
type watchModel struct {
	input  string
	output string
	last   watchEvent
	events <-chan watchEvent
	ctx    context.Context
}

func watchTUI(ctx context.Context, input, output string, blocks, errs int, events <-chan watchEvent) error {
	m := watchModel{
		input:  input,
		output: output,
		last:   watchEvent{at: time.Now(), blocks: blocks, errors: errs},
		events: events,
		ctx:    ctx,
	}
	_, err := tea.NewProgram(m).Run()
	return err
}

func (m watchModel) Init() tea.Cmd {
	return m.nextEvent()
}

// nextEvent blocks for the next render outcome or context end.
func (m watchModel) nextEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return quitMsg{}
		case ev := <-m.events:
			return ev
		}
	}
}

type quitMsg struct{}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case quitMsg:
		return m, tea.Quit
	case watchEvent:
		m.last = msg
		return m, m.nextEvent()
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("vizdeck watch"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n\n")

	b.WriteString(StyleDim.Render("document ") + StyleValue.Render(m.input) + "\n")
	b.WriteString(StyleDim.Render("output   ") + StyleValue.Render(m.output) + "\n\n")

	switch {
	case m.last.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + fmt.Sprintf("render failed: %v", m.last.err))
	case m.last.errors > 0:
		b.WriteString(styleIconWarning.Render(iconWarning) + " " +
			fmt.Sprintf("%d blocks, %d failed", m.last.blocks, m.last.errors))
	default:
		b.WriteString(styleIconSuccess.Render(iconSuccess) + " " +
			fmt.Sprintf("%d blocks rendered", m.last.blocks))
	}
	b.WriteString(StyleDim.Render(fmt.Sprintf("  at %s", m.last.at.Format("15:04:05"))))
	b.WriteString("\n")
	return b.String()
}
