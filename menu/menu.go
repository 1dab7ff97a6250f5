// Package menu implements the interactive console selector: pick a
// scenario by number, then a subset of its methods, then run them.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/weiihann/evalbench/scenario"
)

const clearScreen = "\033[H\033[2J"

// RunFunc runs the selected methods of a scenario.
type RunFunc func(
	ctx context.Context,
	sc scenario.Scenario,
	methods []scenario.Method,
) error

// Selector reads selections from in and writes menus to out.
type Selector struct {
	in        *bufio.Reader
	out       io.Writer
	scenarios []scenario.Scenario
	run       RunFunc
	clear     bool

	lines chan string
}

// Abort marks err as fatal: Loop returns it instead of showing it and
// offering the menu again.
func Abort(err error) error {
	if err == nil {
		return nil
	}

	return abortError{err: err}
}

type abortError struct {
	err error
}

func (e abortError) Error() string {
	return e.err.Error()
}

func (e abortError) Unwrap() error {
	return e.err
}

// New creates a Selector over the given scenarios. The screen is cleared
// between menus only when out is a terminal.
func New(
	in io.Reader,
	out io.Writer,
	scenarios []scenario.Scenario,
	run RunFunc,
) *Selector {
	return &Selector{
		in:        bufio.NewReader(in),
		out:       out,
		scenarios: scenarios,
		run:       run,
		clear:     isTerminal(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

// Loop shows the scenario menu until the user enters anything that is not
// a number, or input ends. Errors returned by the run function are shown
// and the menu is offered again, unless they were wrapped with Abort.
// Loop returns ctx.Err() as soon as ctx is done, even while waiting for
// input.
func (s *Selector) Loop(ctx context.Context) error {
	quit := make(chan struct{})
	defer close(quit)

	s.lines = make(chan string)
	go s.readLines(s.lines, quit)

	err := s.loop(ctx)
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

func (s *Selector) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.clearScreen()

		for i, sc := range s.scenarios {
			fmt.Fprintf(s.out, "[%d]\t%s\n", i, sc.Name)
		}

		fmt.Fprintln(s.out, "[ ]\tExit")
		fmt.Fprint(s.out, "Selection: ")

		line, err := s.readLine(ctx)
		if err != nil {
			return err
		}

		idx, err := strconv.Atoi(line)
		if err != nil {
			return nil
		}

		if idx < 0 || idx >= len(s.scenarios) {
			fmt.Fprintln(s.out, "Invalid selection! Press enter to repeat ...")

			if _, err := s.readLine(ctx); err != nil {
				return err
			}

			continue
		}

		sc := s.scenarios[idx]

		methods, err := s.selectMethods(ctx, sc)
		if err != nil {
			return err
		}

		if len(methods) == 0 {
			fmt.Fprintln(s.out, "No valid methods selected!")
		} else if err := s.run(ctx, sc, methods); err != nil {
			var abort abortError
			if ctx.Err() != nil || errors.As(err, &abort) {
				return err
			}

			fmt.Fprintf(s.out, "Benchmark failed: %v\n", err)
		}

		fmt.Fprint(s.out, "Press enter to continue ...")

		if _, err := s.readLine(ctx); err != nil {
			return err
		}
	}
}

// selectMethods shows the method menu of sc. A blank line selects every
// method; otherwise the comma-separated indexes that are valid are kept in
// the order given.
func (s *Selector) selectMethods(
	ctx context.Context,
	sc scenario.Scenario,
) ([]scenario.Method, error) {
	s.clearScreen()

	for i, m := range sc.Methods {
		fmt.Fprintf(s.out, "[%d]\t%s\n", i, m.Name)
	}

	fmt.Fprintln(s.out, "[ ]\tAll")
	fmt.Fprint(s.out, "Selection: ")

	line, err := s.readLine(ctx)
	if err != nil {
		return nil, err
	}

	if line == "" {
		return sc.Methods, nil
	}

	return sc.Select(ParseIndexes(line)), nil
}

// ParseIndexes parses a comma-separated list of integers, dropping
// entries that are not numbers.
func ParseIndexes(line string) []int {
	var indexes []int

	for _, field := range strings.Split(line, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			continue
		}

		indexes = append(indexes, idx)
	}

	return indexes
}

// readLine returns the next trimmed input line. It returns io.EOF once
// input is exhausted and ctx.Err() when ctx is done first.
func (s *Selector) readLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}

		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// readLines feeds input lines to lines until input ends or quit is
// closed. A read blocked on in is left behind when quit closes.
func (s *Selector) readLines(lines chan<- string, quit <-chan struct{}) {
	defer close(lines)

	for {
		line, err := s.in.ReadString('\n')
		if err != nil && line == "" {
			return
		}

		select {
		case lines <- strings.TrimSpace(line):
		case <-quit:
			return
		}
	}
}

func (s *Selector) clearScreen() {
	if s.clear {
		fmt.Fprint(s.out, clearScreen)
	}
}
