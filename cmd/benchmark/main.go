package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/formsignals/controls"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	itersKey     = "iters"
	scenariosKey = "scenarios"
	profileKey   = "profile"
)

type scenario struct {
	Width   int  `yaml:"width"`
	Depth   int  `yaml:"depth"`
	Effects bool `yaml:"effects"`
}

var defaultScenarios = []scenario{
	{Width: 1, Depth: 1},
	{Width: 10, Depth: 10},
	{Width: 100, Depth: 10, Effects: true},
	{Width: 1_000, Depth: 1},
	{Width: 1_000, Depth: 10, Effects: true},
}

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure change propagation through control trees",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Mutations measured per scenario",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  scenariosKey,
				Usage: "YAML file with a list of {width, depth, effects} scenarios",
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this file",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	scenarios := defaultScenarios
	if path := cmd.String(scenariosKey); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		scenarios = nil
		if err := yaml.Unmarshal(b, &scenarios); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	iters := int(cmd.Uint(itersKey))
	log.Printf("warming up")
	benchmarkPropagate(scenarios, iters, false)
	benchmarkReconcile(scenarios, iters, false)

	benchmarkPropagate(scenarios, iters, true)
	benchmarkReconcile(scenarios, iters, true)
	return nil
}

// record builds a value nested depth groups deep around a single leaf.
func record(depth, value int) any {
	var v any = map[string]any{"value": value, "note": ""}
	for i := 0; i < depth; i++ {
		v = map[string]any{"child": v, "label": fmt.Sprintf("level %d", i)}
	}
	return v
}

func rows(width, depth, value int) []any {
	out := make([]any, width)
	for i := range out {
		out[i] = record(depth, value)
	}
	return out
}

func deepest(c *controls.Control, depth int) *controls.Control {
	for i := 0; i < depth; i++ {
		c = c.Field("child")
	}
	return c.Field("value")
}

func positive(v any) string {
	if n, _ := v.(int); n < 0 {
		return "must be positive"
	}
	return ""
}

func build(s scenario) (*controls.Control, []*controls.Computation) {
	elem := controls.Def(controls.WithFields(controls.Fields{
		"value": controls.Def(controls.WithValidator(positive)),
	}))
	for i := 0; i < s.Depth; i++ {
		elem = controls.Def(controls.WithFields(controls.Fields{"child": elem}))
	}
	list := controls.NewFrom(controls.Def(controls.WithElems(elem)), rows(s.Width, s.Depth, 1))

	var effects []*controls.Computation
	if s.Effects {
		for _, row := range list.Elements() {
			effects = append(effects, controls.Compute(func() {
				_ = row.Valid()
				_ = row.Dirty()
			}))
		}
	}
	return list, effects
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendCalc(tbl table.Writer, name string, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRows([]table.Row{
		{
			name,
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		},
	})
}

func scenarioName(kind string, s scenario) string {
	name := fmt.Sprintf("%s: %d * %d", kind, s.Width, s.Depth)
	if s.Effects {
		name += " +effects"
	}
	return name
}

// benchmarkPropagate times a single leaf write bubbling up to the root.
func benchmarkPropagate(scenarios []scenario, iters int, shouldRender bool) {
	tbl := newTable("Leaf propagation")
	for _, s := range scenarios {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		list, effects := build(s)
		target := deepest(list.Element(0), s.Depth)

		for i := 0; i < iters; i++ {
			// alternate validity so the valid flag travels too
			v := i
			if i%2 == 1 {
				v = -i
			}
			start := time.Now()
			target.SetValue(v)
			tach.AddTime(time.Since(start))
		}
		for _, e := range effects {
			e.Stop()
		}
		appendCalc(tbl, scenarioName("propagate", s), tach)
	}
	if shouldRender {
		tbl.Render()
	}
}

// benchmarkReconcile times whole array assignments that alternately grow and
// shrink the list.
func benchmarkReconcile(scenarios []scenario, iters int, shouldRender bool) {
	tbl := newTable("Array reconciliation")
	for _, s := range scenarios {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		list, effects := build(s)
		full := rows(s.Width, s.Depth, 2)
		half := rows(max(s.Width/2, 1), s.Depth, 3)

		for i := 0; i < iters; i++ {
			next := full
			if i%2 == 1 {
				next = half
			}
			start := time.Now()
			list.SetValue(next)
			tach.AddTime(time.Since(start))
		}
		for _, e := range effects {
			e.Stop()
		}
		appendCalc(tbl, scenarioName("reconcile", s), tach)
	}
	if shouldRender {
		tbl.Render()
	}
}
