package share

import (
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

// Copier puts text on the clipboard. It tries the platform clipboard tool
// first, then an OSC 52 escape sequence, and otherwise gives up quietly.
type Copier struct {
	// Terminal receives the OSC 52 sequence. Nil disables the fallback.
	Terminal io.Writer
	// Tools overrides the clipboard commands tried, in order.
	Tools [][]string
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// NewCopier returns a Copier that falls back to OSC 52 on stderr when stderr
// is a terminal.
func NewCopier() *Copier {
	c := &Copier{}
	if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		c.Terminal = os.Stderr
	}
	return c
}

func defaultTools() [][]string {
	switch runtime.GOOS {
	case "darwin":
		return [][]string{{"pbcopy"}}
	case "windows":
		return [][]string{{"clip"}}
	default:
		return [][]string{
			{"wl-copy"},
			{"xclip", "-selection", "clipboard"},
			{"xsel", "--clipboard", "--input"},
		}
	}
}

// Copy reports whether text reached a clipboard. A false result means the
// caller should show the text for manual copying.
func (c *Copier) Copy(text string) bool {
	tools := c.Tools
	if tools == nil {
		tools = defaultTools()
	}
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	for _, tool := range tools {
		path, err := lookPath(tool[0])
		if err != nil {
			continue
		}
		cmd := exec.Command(path, tool[1:]...)
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			return true
		}
	}

	if c.Terminal == nil {
		return false
	}
	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	} else if strings.HasPrefix(os.Getenv("TERM"), "screen") {
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(c.Terminal)
	return err == nil
}
