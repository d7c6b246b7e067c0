package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/delaneyj/formsignals/controls"
	"github.com/delaneyj/formsignals/report"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	fileKey  = "file"
	setKey   = "set"
	touchKey = "touch"
)

// document is the YAML input: the form's initial value and optional
// validation tags keyed by dotted path, e.g. "people.0.email".
type document struct {
	Value any               `yaml:"value"`
	Rules map[string]string `yaml:"rules"`
}

func main() {
	cmd := &cli.Command{
		Name:  "dump",
		Usage: "Build a control tree from a YAML document and print its state",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  fileKey,
				Usage: "YAML document to load, - for stdin",
				Value: "-",
			},
			&cli.StringSliceFlag{
				Name:  setKey,
				Usage: "path=value edit applied after loading, may be repeated",
			},
			&cli.BoolFlag{
				Name:  touchKey,
				Usage: "Mark every control as touched",
			},
		},
		Action: dump,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func dump(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	defer func() {
		log.Printf("dump finished in %v", time.Since(start))
	}()

	b, err := readInput(cmd.String(fileKey))
	if err != nil {
		return err
	}
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}

	root := controls.New(doc.Value)
	for path, tag := range doc.Rules {
		target, err := root.Lookup(parsePath(path)...)
		if err != nil {
			return fmt.Errorf("rule %q: %w", path, err)
		}
		attachTag(target, tag)
	}

	for _, edit := range cmd.StringSlice(setKey) {
		path, raw, ok := strings.Cut(edit, "=")
		if !ok {
			return fmt.Errorf("edit %q is not path=value", edit)
		}
		target, err := root.Lookup(parsePath(path)...)
		if err != nil {
			return fmt.Errorf("edit %q: %w", edit, err)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return fmt.Errorf("edit %q: %w", edit, err)
		}
		target.SetValue(v)
	}

	if cmd.Bool(touchKey) {
		root.SetTouched(true)
	}

	report.WriteTree(os.Stdout, report.Rows(root))
	return nil
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// parsePath splits "people.0.email" into lookup segments; numeric segments
// index arrays.
func parsePath(path string) []any {
	if path == "" || path == "$" {
		return nil
	}
	path = strings.TrimPrefix(path, "$.")
	parts := strings.Split(path, ".")
	segs := make([]any, 0, len(parts))
	for _, p := range parts {
		if i, err := strconv.Atoi(p); err == nil {
			segs = append(segs, i)
			continue
		}
		segs = append(segs, p)
	}
	return segs
}

func attachTag(c *controls.Control, tag string) {
	check := controls.TagValidator(tag)
	run := func(n *controls.Control, _ controls.ChangeFlags) {
		n.SetErrorKey("tag", check(n.Value()))
	}
	c.AddChangeListener(run, controls.FlagValue|controls.FlagValidate)
	run(c, controls.FlagValidate)
}
