package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/tinylisp/internal/config"
	"github.com/unkn0wn-root/tinylisp/internal/history"
)

const (
	historyTargetWidth = 32
	historyResultWidth = 48
	historyTimeLayout  = "2006-01-02 15:04:05"
)

// History writes entries in the order given.
func History(w io.Writer, entries []history.Entry, format config.OutputFormat, st Styles) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []history.Entry{}
		}
		return enc.Encode(entries)
	case config.OutputYAML:
		data, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case config.OutputText, "":
		if len(entries) == 0 {
			_, err := fmt.Fprintln(w, st.Dim.Render("no runs recorded"))
			return err
		}
		for _, e := range entries {
			if _, err := fmt.Fprintln(w, historyLine(e, st)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func historyLine(e history.Entry, st Styles) string {
	target := e.FilePath
	if target == "" {
		target = oneLine(e.Source)
	}
	target = runewidth.FillRight(runewidth.Truncate(target, historyTargetWidth, "…"), historyTargetWidth)

	outcome := st.Value.Render(runewidth.Truncate(e.Result, historyResultWidth, "…"))
	if e.Failed() {
		msg := runewidth.Truncate(oneLine(e.Error), historyResultWidth, "…")
		outcome = st.Error.Render(e.ErrorKind + ": " + msg)
	}

	when := e.ExecutedAt.Local().Format(historyTimeLayout)
	return fmt.Sprintf(
		"%s  %-7s  %s  %s  %s",
		st.Dim.Render(when),
		e.Mode,
		target,
		outcome,
		st.Dim.Render(e.Duration.Round(time.Microsecond).String()),
	)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
