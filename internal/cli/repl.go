package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	prompt "github.com/c-bata/go-prompt"

	"github.com/hession/slotmate/internal/config"
	"github.com/hession/slotmate/internal/plasmic"
	"github.com/hession/slotmate/internal/tools"
)

const (
	Version = "0.1.0"

	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

var errUsage = errors.New("usage: replace <component> <slot> <content>")

// Settings are the per-session defaults applied to every replace call
type Settings struct {
	Mode         plasmic.Mode
	Hydrate      bool
	EmbedHydrate bool
}

// DefaultSettings mirrors the tool's parameter defaults
func DefaultSettings() Settings {
	p := tools.DefaultReplaceSlotParams()
	return Settings{Mode: p.Mode, Hydrate: p.Hydrate, EmbedHydrate: p.EmbedHydrate}
}

// Shell is the interactive console
type Shell struct {
	ctx      context.Context
	registry *tools.Registry
	cfg      *config.Config
	out      io.Writer
	settings Settings
	exiting  bool
}

// NewShell creates a shell writing to out
func NewShell(ctx context.Context, registry *tools.Registry, cfg *config.Config, out io.Writer) *Shell {
	return &Shell{
		ctx:      ctx,
		registry: registry,
		cfg:      cfg,
		out:      out,
		settings: DefaultSettings(),
	}
}

// Settings returns the current session settings
func (s *Shell) Settings() Settings {
	return s.settings
}

// Run starts the prompt loop and returns when the user exits
func Run(ctx context.Context, registry *tools.Registry, cfg *config.Config) error {
	s := NewShell(ctx, registry, cfg, os.Stdout)
	s.printWelcome()

	p := prompt.New(
		func(line string) { s.Execute(line) },
		s.Complete,
		prompt.OptionTitle("slotmate"),
		prompt.OptionPrefix("slotmate> "),
		prompt.OptionLivePrefix(s.livePrefix),
		prompt.OptionPrefixTextColor(prompt.Green),
		prompt.OptionSetExitCheckerOnInput(func(string, bool) bool { return s.exiting }),
	)
	p.Run()
	return nil
}

func (s *Shell) livePrefix() (string, bool) {
	return fmt.Sprintf("slotmate [%s]> ", s.settings.Mode), true
}

// Execute handles one input line. It returns false once the user asked to exit.
func (s *Shell) Execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	if strings.HasPrefix(input, "/") {
		if !s.handleCommand(input) {
			s.exiting = true
			return false
		}
		return true
	}

	component, slot, content, err := ParseReplace(input)
	if err != nil {
		fmt.Fprintf(s.out, "%s❓ %v%s\n", colorYellow, err, colorReset)
		return true
	}
	s.replace(component, slot, content)
	return true
}

func (s *Shell) replace(component, slot, content string) {
	args := map[string]any{
		"component":    component,
		"slot":         slot,
		"content":      content,
		"mode":         string(s.settings.Mode),
		"hydrate":      s.settings.Hydrate,
		"embedHydrate": s.settings.EmbedHydrate,
	}

	fmt.Fprintln(s.out)
	res, err := s.registry.Execute(s.ctx, tools.ReplaceSlotContentName, args, NewConsoleSink(s.out))
	if err != nil {
		fmt.Fprintf(s.out, "%s❌ Error: %v%s\n\n", colorRed, err, colorReset)
		return
	}
	PrintResult(s.out, res)
	fmt.Fprintln(s.out)
}

// ParseReplace splits "replace <component> <slot> <content>". Content is the
// rest of the line, kept verbatim so markup and spaces survive.
func ParseReplace(input string) (component, slot, content string, err error) {
	rest := strings.TrimSpace(input)
	word, rest := nextField(rest)
	if word != "replace" {
		return "", "", "", errUsage
	}
	component, rest = nextField(rest)
	slot, rest = nextField(rest)
	if component == "" || slot == "" {
		return "", "", "", errUsage
	}
	return component, slot, rest, nil
}

func nextField(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}

// parseToggle accepts on/off style values
func parseToggle(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", v)
}

// handleCommand handles built-in commands, returns true to continue loop, false to exit
func (s *Shell) handleCommand(cmd string) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true
	}

	command := strings.ToLower(parts[0])

	switch command {
	case "/help":
		s.printHelp()

	case "/exit", "/quit", "/q":
		fmt.Fprintf(s.out, "%sGoodbye! 👋%s\n", colorCyan, colorReset)
		return false

	case "/config":
		if s.cfg != nil {
			fmt.Fprintln(s.out, s.cfg.String())
		}

	case "/tools":
		for _, t := range s.registry.List() {
			fmt.Fprintf(s.out, "  • %-22s %s%s%s\n", t.Name(), colorGray, t.Description(), colorReset)
		}

	case "/mode":
		if len(parts) < 2 {
			fmt.Fprintf(s.out, "mode: %s\n", s.settings.Mode)
			return true
		}
		mode := plasmic.Mode(strings.ToLower(parts[1]))
		if !mode.Valid() {
			fmt.Fprintf(s.out, "%s❌ mode must be preview or published%s\n", colorRed, colorReset)
			return true
		}
		s.settings.Mode = mode
		fmt.Fprintf(s.out, "%s✅ mode set to %s%s\n", colorGreen, mode, colorReset)

	case "/hydrate", "/embed":
		current := &s.settings.Hydrate
		if command == "/embed" {
			current = &s.settings.EmbedHydrate
		}
		if len(parts) < 2 {
			fmt.Fprintf(s.out, "%s: %s\n", strings.TrimPrefix(command, "/"), onOff(*current))
			return true
		}
		v, err := parseToggle(parts[1])
		if err != nil {
			fmt.Fprintf(s.out, "%s❌ %v%s\n", colorRed, err, colorReset)
			return true
		}
		*current = v
		fmt.Fprintf(s.out, "%s✅ %s %s%s\n", colorGreen, strings.TrimPrefix(command, "/"), onOff(v), colorReset)

	default:
		fmt.Fprintf(s.out, "%s❓ Unknown command: %s%s\n", colorYellow, cmd, colorReset)
		fmt.Fprintln(s.out, "Type /help for available commands")
	}
	return true
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

var commandSuggestions = []prompt.Suggest{
	{Text: "replace", Description: "replace <component> <slot> <content>"},
	{Text: "/mode", Description: "Show or set the render mode"},
	{Text: "/hydrate", Description: "Toggle hydration markup"},
	{Text: "/embed", Description: "Toggle the inline hydration script"},
	{Text: "/tools", Description: "List registered tools"},
	{Text: "/config", Description: "Show current configuration"},
	{Text: "/help", Description: "Show this help message"},
	{Text: "/exit", Description: "Exit program"},
}

// Complete suggests commands for the first word and values for toggles
func (s *Shell) Complete(d prompt.Document) []prompt.Suggest {
	before := d.TextBeforeCursor()
	word := d.GetWordBeforeCursor()
	fields := strings.Fields(before)

	if len(fields) <= 1 && !strings.HasSuffix(before, " ") {
		return prompt.FilterHasPrefix(commandSuggestions, word, true)
	}

	switch strings.ToLower(fields[0]) {
	case "/mode":
		return prompt.FilterHasPrefix([]prompt.Suggest{
			{Text: string(plasmic.ModePreview), Description: "Latest saved changes"},
			{Text: string(plasmic.ModePublished), Description: "Last published version"},
		}, word, true)
	case "/hydrate", "/embed":
		return prompt.FilterHasPrefix([]prompt.Suggest{{Text: "on"}, {Text: "off"}}, word, true)
	}
	return nil
}

func (s *Shell) printWelcome() {
	fmt.Fprintf(s.out, "\n%s🧩 slotmate v%s%s - Plasmic slot replacement console\n", colorCyan, Version, colorReset)
	if s.cfg != nil {
		fmt.Fprintf(s.out, "%sProject: %s%s\n", colorGray, s.cfg.Plasmic.ProjectID, colorReset)
	}
	fmt.Fprintf(s.out, "%sType /help for help, /exit to quit%s\n\n", colorGray, colorReset)
}

func (s *Shell) printHelp() {
	fmt.Fprintf(s.out, `
%s📚 slotmate Help%s

%sReplace:%s
  replace <component> <slot> <content>
      Render <component> with <slot> set to <content>.
      Content is the rest of the line and may contain spaces or markup.

%sBuilt-in Commands:%s
  /mode [preview|published]  - Show or set the render mode
  /hydrate [on|off]          - Show or toggle hydration markup
  /embed [on|off]            - Show or toggle the inline hydration script
  /tools                     - List registered tools
  /config                    - Show current configuration
  /help                      - Show this help message
  /exit                      - Exit program

%sExamples:%s
  replace Banner hero <h1>Spring sale</h1>
  /mode published

`, colorCyan, colorReset, colorYellow, colorReset, colorYellow, colorReset, colorYellow, colorReset)
}
