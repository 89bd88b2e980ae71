package render

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/tinylisp/internal/config"
	"github.com/unkn0wn-root/tinylisp/internal/lisp"
)

// Result is the structured form of a value for json and yaml output.
type Result struct {
	Type  string `json:"type"  yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

func ResultOf(v lisp.Value) Result {
	if v.K == lisp.VBool {
		return Result{Type: v.K.String(), Value: v.B}
	}
	return Result{Type: v.K.String(), Value: v.N}
}

// Value writes v followed by a newline in the requested format.
func Value(w io.Writer, v lisp.Value, format config.OutputFormat, st Styles) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		return enc.Encode(ResultOf(v))
	case config.OutputYAML:
		data, err := yaml.Marshal(ResultOf(v))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case config.OutputText, "":
		_, err := fmt.Fprintln(w, st.Value.Render(v.String()))
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
