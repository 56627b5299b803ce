// Package main generates a single markdown file documenting every bridgectl
// command, its flags, and its examples.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/bridgectl/bridgectl/cmd/bridgectl/cmd"
)

func main() {
	var outFile string
	flag.StringVar(&outFile, "out", "./docs/CLI.md", "output file for generated markdown")
	flag.Parse()

	if err := run(outFile); err != nil {
		log.Fatalf("error: %s", err)
	}
}

func run(outFile string) error {
	if err := os.MkdirAll(filepath.Dir(outFile), 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	file, err := os.Create(filepath.Clean(outFile))
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: error closing file: %v", closeErr)
		}
	}()

	root := cmd.RootCmd()
	root.DisableAutoGenTag = true

	fmt.Fprintln(file, "# bridgectl CLI Documentation")
	fmt.Fprintln(file, "\nEvery command, with its flags and examples. Generated from the command tree;")
	fmt.Fprintln(file, "do not edit by hand.")

	if err := writeCommand(file, root, 2); err != nil {
		return err
	}

	log.Printf("generated CLI documentation in %s", outFile)
	return nil
}

// writeCommand renders one command and recurses into its subcommands in name
// order.
func writeCommand(w io.Writer, c *cobra.Command, level int) error {
	if !c.IsAvailableCommand() || c.IsAdditionalHelpTopicCommand() {
		return nil
	}

	fmt.Fprintf(w, "%s %s\n\n", strings.Repeat("#", level), c.CommandPath())
	if c.Short != "" {
		fmt.Fprintf(w, "%s\n\n", c.Short)
	}
	if c.Long != "" && c.Long != c.Short {
		fmt.Fprintf(w, "%s\n\n", c.Long)
	}

	var buf bytes.Buffer
	if err := doc.GenMarkdown(c, &buf); err != nil {
		return fmt.Errorf("generating markdown for %s: %w", c.CommandPath(), err)
	}
	fmt.Fprint(w, optionsSection(buf.String()))
	fmt.Fprintln(w)

	subcommands := c.Commands()
	sort.Slice(subcommands, func(i, j int) bool {
		return subcommands[i].Name() < subcommands[j].Name()
	})
	for _, sub := range subcommands {
		if err := writeCommand(w, sub, level+1); err != nil {
			return err
		}
	}
	return nil
}

// optionsSection extracts the Options block from cobra's generated markdown,
// dropping the SEE ALSO trailer and the duplicated synopsis.
func optionsSection(markdown string) string {
	start := strings.Index(markdown, "### Options")
	if start < 0 {
		return ""
	}
	section := markdown[start:]

	for _, marker := range []string{"\n\n\n### ", "\n\n## ", "\n\n### SEE ALSO", "\n\n### See Also"} {
		if end := strings.Index(section, marker); end > 0 {
			section = section[:end]
			break
		}
	}
	return section + "\n"
}
