package main

import (
	"fmt"
	"io"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/c-bata/go-prompt"
)

// Console is a line oriented control surface for an Engine. Commands are
// plain Go funcs; arguments are parsed to the func's parameter types.
//
//	kick 0.8 120
//	hat(0.3, true)
//	start
type Console struct {
	eng  *Engine
	out  io.Writer
	cmds map[string]*Command

	quitting bool
}

type Command struct {
	Help string
	fn   reflect.Value
}

func MakeCommand(help string, fn any) *Command {
	return &Command{
		Help: help,
		fn:   reflect.ValueOf(fn),
	}
}

func (c *Command) Call(args []string) (any, error) {
	return callFunc(c.fn, args)
}

func NewConsole(eng *Engine, out io.Writer) *Console {
	c := &Console{
		eng:  eng,
		out:  out,
		cmds: make(map[string]*Command),
	}

	c.Set("resume", MakeCommand("resume audio output", func() error {
		return eng.EnsureAudio()
	}))

	c.Set("suspend", MakeCommand("suspend audio output", func() error {
		return eng.Context().Suspend()
	}))

	c.Set("start", MakeCommand("resume audio and start the loop", func() error {
		if err := eng.EnsureAudio(); err != nil {
			return err
		}
		eng.StartLoop()
		return nil
	}))

	c.Set("stop", MakeCommand("stop the loop", func() {
		eng.StopLoop()
	}))

	c.Set("kick", MakeCommand("kick [volume pitch decay punch]", func(args ...float64) error {
		opts := []func(float64) KickOption{KickVolume, KickPitch, KickDecay, KickPunch}
		if len(args) > len(opts) {
			return fmt.Errorf("kick takes at most %d args", len(opts))
		}
		var set []KickOption
		for i, v := range args {
			set = append(set, opts[i](v))
		}
		return eng.Synth().Kick(set...)
	}))

	c.Set("hat", MakeCommand("hat [volume open]", func(args ...string) error {
		opts, err := hatArgs(args)
		if err != nil {
			return err
		}
		return eng.Synth().HiHat(opts...)
	}))

	c.Set("open", MakeCommand("open hi-hat [volume]", func(args ...float64) error {
		opts := []HiHatOption{HiHatOpen(true)}
		if len(args) > 0 {
			opts = append(opts, HiHatVolume(args[0]))
		}
		return eng.Synth().HiHat(opts...)
	}))

	c.Set("snap", MakeCommand("snap [volume]", func(args ...float64) error {
		var opts []SnapOption
		if len(args) > 0 {
			opts = append(opts, SnapVolume(args[0]))
		}
		return eng.Synth().Snap(opts...)
	}))

	c.Set("status", MakeCommand("show audio and loop state", func() string {
		seq := eng.Sequencer()
		state := "stopped"
		if seq.Playing() {
			state = "playing"
		}
		ctx := eng.Context()
		return fmt.Sprintf("audio %s  t=%.3fs  loop %s  step %d  voices %d",
			ctx.State(), ctx.Now(), state, seq.Step(), ctx.Active())
	}))

	c.Set("pattern", MakeCommand("print the pattern", func() string {
		p := eng.Sequencer().Pattern()
		return strings.TrimRight(p.String(), "\n")
	}))

	c.Set("spectrum", MakeCommand("print the loudest bands of recent output", func() (string, error) {
		a := eng.Context().Analyser()
		if a == nil {
			return "", fmt.Errorf("no analyser on this context")
		}
		return spectrumSummary(a.Spectrum(2048), float64(eng.Context().SampleRate())/2048), nil
	}))

	c.Set("help", MakeCommand("list commands", func() string {
		var lines []string
		for _, name := range c.Names() {
			lines = append(lines, fmt.Sprintf("%-9s %s", name, c.cmds[name].Help))
		}
		return strings.Join(lines, "\n")
	}))

	c.Set("quit", MakeCommand("stop and exit", func() {
		eng.StopLoop()
		c.quitting = true
	}))

	return c
}

func hatArgs(args []string) ([]HiHatOption, error) {
	if len(args) > 2 {
		return nil, fmt.Errorf("hat takes at most 2 args")
	}
	var opts []HiHatOption
	if len(args) > 0 {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, fmt.Errorf("hat volume: %w", err)
		}
		opts = append(opts, HiHatVolume(v))
	}
	if len(args) > 1 {
		open, err := strconv.ParseBool(args[1])
		if err != nil {
			return nil, fmt.Errorf("hat open flag: %w", err)
		}
		opts = append(opts, HiHatOpen(open))
	}
	return opts, nil
}

// spectrumSummary lists the five strongest bins.
func spectrumSummary(mags []float64, binHz float64) string {
	idx := make([]int, len(mags))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return mags[idx[a]] > mags[idx[b]] })

	var parts []string
	for _, i := range idx[:min(5, len(idx))] {
		parts = append(parts, fmt.Sprintf("%.0fHz:%.4f", float64(i)*binHz, mags[i]))
	}
	return strings.Join(parts, "  ")
}

func (c *Console) Set(name string, cmd *Command) {
	c.cmds[name] = cmd
}

func (c *Console) Names() []string {
	var names []string
	for n := range c.cmds {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Exec runs one line and prints any result.
func (c *Console) Exec(line string) error {
	tokens, err := tokenize(line)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	cmd, ok := c.cmds[tokens[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", tokens[0])
	}

	args, err := parseArgs(tokens[1:])
	if err != nil {
		return fmt.Errorf("%s: %w", tokens[0], err)
	}

	res, err := cmd.Call(args)
	if err != nil {
		return fmt.Errorf("%s: %w", tokens[0], err)
	}
	if res != nil {
		fmt.Fprintln(c.out, res)
	}
	return nil
}

// Quitting reports whether quit has been run.
func (c *Console) Quitting() bool {
	return c.quitting
}

func (c *Console) execute(line string) {
	if err := c.Exec(line); err != nil {
		fmt.Fprintln(c.out, "error:", err)
	}
}

func (c *Console) complete(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	var s []prompt.Suggest
	for _, name := range c.Names() {
		s = append(s, prompt.Suggest{Text: name, Description: c.cmds[name].Help})
	}
	return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
}

// Run reads commands from the terminal until quit.
func (c *Console) Run() {
	p := prompt.New(c.execute, c.complete,
		prompt.OptionPrefix("drumloop> "),
		prompt.OptionTitle("drumloop"),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			return breakline && c.quitting
		}),
	)
	p.Run()
}

// parseArgs accepts either bare arguments or a parenthesised list:
// "0.5 120" and "(0.5, 120)" are the same.
func parseArgs(tokens []string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	if tokens[0] != "(" {
		for _, t := range tokens {
			if t == "(" || t == ")" || t == "," {
				return nil, fmt.Errorf("unexpected %q", t)
			}
		}
		return tokens, nil
	}

	if tokens[len(tokens)-1] != ")" {
		return nil, fmt.Errorf("missing close paren")
	}

	var out []string
	expectArg := true
	for _, t := range tokens[1 : len(tokens)-1] {
		switch {
		case t == ",":
			if expectArg {
				return nil, fmt.Errorf("empty argument at index %d", len(out))
			}
			expectArg = true
		case t == "(" || t == ")":
			return nil, fmt.Errorf("nested parens are not supported")
		default:
			if !expectArg {
				return nil, fmt.Errorf("missing comma before %q", t)
			}
			out = append(out, t)
			expectArg = false
		}
	}
	if expectArg && len(out) > 0 {
		return nil, fmt.Errorf("trailing comma")
	}
	return out, nil
}

func tokenize(s string) ([]string, error) {
	var out []string
	var wordstart int
	inword := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '+':
			if !inword {
				inword = true
				wordstart = i
			}
		case unicode.IsSpace(r):
			if inword {
				out = append(out, string(runes[wordstart:i]))
				inword = false
			}
		case r == ',', r == '(', r == ')':
			if inword {
				out = append(out, string(runes[wordstart:i]))
				inword = false
			}
			out = append(out, string(r))
		default:
			return nil, fmt.Errorf("invalid character at index %d: %q", i, r)
		}
	}
	if inword {
		out = append(out, string(runes[wordstart:]))
	}

	return out, nil
}

func callFunc(rfv reflect.Value, args []string) (any, error) {
	t := rfv.Type()
	nargs := t.NumIn()

	if t.IsVariadic() {
		if len(args) < nargs-1 {
			return nil, fmt.Errorf("expected at least %d args, got %d", nargs-1, len(args))
		}
	} else if len(args) != nargs {
		return nil, fmt.Errorf("expected %d args, got %d", nargs, len(args))
	}

	var inargs []reflect.Value
	for i, arg := range args {
		var in reflect.Type
		if t.IsVariadic() && i >= nargs-1 {
			in = t.In(nargs - 1).Elem()
		} else {
			in = t.In(i)
		}

		inval, err := argToType(arg, in)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		inargs = append(inargs, inval)
	}

	out := rfv.Call(inargs)

	// an error result is returned as the error, anything else is printed
	var res any
	for _, o := range out {
		if o.Type() == errorType {
			if !o.IsNil() {
				return nil, o.Interface().(error)
			}
			continue
		}
		res = o.Interface()
	}
	return res, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func argToType(arg string, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Float64:
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("not a number: %q", arg)
		}
		return reflect.ValueOf(v), nil
	case reflect.Int:
		v, err := strconv.Atoi(arg)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("not an integer: %q", arg)
		}
		return reflect.ValueOf(v), nil
	case reflect.Bool:
		v, err := strconv.ParseBool(arg)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("not a bool: %q", arg)
		}
		return reflect.ValueOf(v), nil
	case reflect.String:
		return reflect.ValueOf(arg), nil
	default:
		return reflect.Value{}, fmt.Errorf("requested type unknown: %s", t)
	}
}
