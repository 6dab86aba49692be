// Package prompt asks the operator questions on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/usr-ein/learn-n-recognize/utils"
)

// ErrClosed is returned once the input has been closed.
var ErrClosed = errors.New("console input closed")

// Console reads the answers line by line. Questions are colored when the
// output is a terminal.
type Console struct {
	in    *bufio.Reader
	out   io.Writer
	color bool
}

// New creates a console reading from r and writing the questions to w.
func New(r io.Reader, w io.Writer) *Console {
	return &Console{in: bufio.NewReader(r), out: w, color: isTerminal(w)}
}

// Stdio returns a console bound to the process standard streams.
func Stdio() *Console {
	return New(os.Stdin, os.Stderr)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Confirm asks a yes or no question. Anything but an answer starting with
// 'y' or 'n' repeats the question.
func (c *Console) Confirm(question string) (bool, error) {
	for {
		c.print(question + " [y/n] ")
		answer, err := c.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// Ask returns the answer to the question, or def when the answer is empty.
func (c *Console) Ask(question, def string) (string, error) {
	if def != "" {
		question = fmt.Sprintf("%s (%s)", question, def)
	}
	c.print(question + ": ")
	answer, err := c.readLine()
	if err != nil {
		return def, err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (c *Console) print(s string) {
	if c.color {
		s = utils.DecorateText(s, utils.StatusMessage)
	}
	fmt.Fprint(c.out, s)
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", ErrClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
