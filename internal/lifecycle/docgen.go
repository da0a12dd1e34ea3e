package lifecycle

import (
	"fmt"
	"io"
	"strings"
)

// RenderReference writes the full hook contract table as Markdown: a
// summary table followed by one documented section per hook. `sitewright
// hooks docs` renders this for plugin authors.
func RenderReference(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "# Plugin hook reference"); err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Hook | Phase | Cardinality | Actions |")
	fmt.Fprintln(w, "|---|---|---|---|")
	for _, d := range Descriptors() {
		actions := "—"
		if len(d.Actions) > 0 {
			parts := make([]string, len(d.Actions))
			for i, a := range d.Actions {
				parts[i] = string(a)
			}
			actions = strings.Join(parts, ", ")
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n", d.Name, d.Phase, d.Cardinality, actions)
	}

	for _, d := range Descriptors() {
		fmt.Fprintf(w, "\n## %s\n\n", d.Name)
		fmt.Fprintf(w, "Phase: %s. Cardinality: %s.", d.Phase, d.Cardinality)
		if len(d.Inputs) > 0 {
			fmt.Fprintf(w, " Inputs: %s.", strings.Join(d.Inputs, ", "))
		}
		if d.Returns != "" {
			fmt.Fprintf(w, " Returns: %s.", d.Returns)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "\n%s\n", d.Doc)
	}
	return nil
}

// RenderDescriptor writes one hook's documentation as Markdown.
func RenderDescriptor(w io.Writer, name HookName) error {
	d, ok := Describe(name)
	if !ok {
		return &UnknownHookError{Name: name}
	}

	fmt.Fprintf(w, "# %s\n\n", d.Name)
	fmt.Fprintf(w, "- Phase: %s\n", d.Phase)
	fmt.Fprintf(w, "- Cardinality: %s\n", d.Cardinality)
	if len(d.Inputs) > 0 {
		fmt.Fprintf(w, "- Inputs: %s\n", strings.Join(d.Inputs, ", "))
	}
	if d.Returns != "" {
		fmt.Fprintf(w, "- Returns: %s\n", d.Returns)
	}
	if len(d.Actions) > 0 {
		parts := make([]string, len(d.Actions))
		for i, a := range d.Actions {
			parts[i] = string(a)
		}
		fmt.Fprintf(w, "- Actions: %s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(w, "\n%s\n", d.Doc)
	return nil
}
