package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pavanmanishd/region/slots"
)

// Plan is a sequence of slot reservations read from YAML:
//
//	limit: 8
//	reservations:
//	  - kind: texture
//	    count: 3
//	  - kind: shader_program
//	    count: 1
type Plan struct {
	Limit        int           `yaml:"limit"`
	Reservations []Reservation `yaml:"reservations"`
}

// Reservation asks for Count slots of Kind.
type Reservation struct {
	Kind  slots.Kind `yaml:"kind"`
	Count int        `yaml:"count"`
}

// LoadPlan reads and checks a plan file.
func LoadPlan(fs afero.Fs, path string) (Plan, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return Plan{}, errors.Wrap(err, "read plan")
	}
	var p Plan
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Plan{}, errors.Wrapf(err, "parse plan %q", path)
	}
	if p.Limit < 0 {
		return Plan{}, errors.Errorf("plan %q: negative limit %d", path, p.Limit)
	}
	for i, res := range p.Reservations {
		if res.Count <= 0 {
			return Plan{}, errors.Errorf("plan %q: reservation %d: count must be positive, got %d", path, i, res.Count)
		}
	}
	return p, nil
}

// fakeDriver issues increasing object names and records destroyed ones, in
// place of a graphics API.
type fakeDriver struct {
	next      slots.Handle
	destroyed map[slots.Kind]int
	logger    *zap.Logger
}

func newFakeDriver(logger *zap.Logger) *fakeDriver {
	return &fakeDriver{next: 1, destroyed: make(map[slots.Kind]int), logger: logger}
}

func (d *fakeDriver) generate(handles []slots.Handle) {
	for i := range handles {
		handles[i] = d.next
		d.next++
	}
}

func (d *fakeDriver) destroyers() slots.Destroyers {
	ds := make(slots.Destroyers)
	for _, k := range slots.Kinds() {
		ds[k] = func(handles []slots.Handle) error {
			d.destroyed[k] += len(handles)
			d.logger.Debug("destroyed handles",
				zap.Stringer("kind", k),
				zap.Uint32("first", uint32(handles[0])),
				zap.Int("count", len(handles)))
			return nil
		}
	}
	return ds
}

// slotsCommand applies a reservation plan to a slot table and cleans it up.
type slotsCommand struct {
	env  *env
	plan *string
	out  io.Writer
}

func (cmd *slotsCommand) run(*kingpin.ParseContext) (err error) {
	plan, err := LoadPlan(cmd.env.fs, *cmd.plan)
	if err != nil {
		return err
	}
	limit := cmd.env.cfg.SlotLimit
	if plan.Limit > 0 {
		limit = plan.Limit
	}

	r, metrics, err := cmd.env.newRegion()
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Invoke(func() error { return cmd.env.releaseRegion(r) }))

	tbl, err := slots.New(r, limit, slots.WithLogger(cmd.env.logger))
	if err != nil {
		return err
	}
	driver := newFakeDriver(cmd.env.logger)

	for _, res := range plan.Reservations {
		handles, err := tbl.Reserve(res.Count, res.Kind)
		if err != nil {
			fmt.Fprintf(cmd.out, "refused %d %s: %v\n", res.Count, res.Kind, err)
			continue
		}
		driver.generate(handles.Elems())
	}

	cmd.print(tbl)
	metrics.ObserveTable(tbl.Stats())
	metrics.ObserveRegion(r.Metrics())

	if err := tbl.Clean(driver.destroyers()); err != nil {
		return err
	}
	for _, k := range slots.Kinds() {
		if n := driver.destroyed[k]; n > 0 {
			fmt.Fprintf(cmd.out, "destroyed %d %s\n", n, k)
		}
	}
	return cmd.env.writeMetrics()
}

func (cmd *slotsCommand) print(tbl *slots.Table) {
	stats := tbl.Stats()
	color.New(color.Bold).Fprintf(cmd.out, "slots %d/%d used, first free %d\n", stats.Used, stats.Limit, tbl.FirstFree())

	w := tabwriter.NewWriter(cmd.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tKIND\tHANDLE")
	for i, s := range tbl.All() {
		fmt.Fprintf(w, "%d\t%s\t%d\n", i, s.Kind, s.Handle)
	}
	_ = w.Flush()
}

func addSlotsCommand(app *kingpin.Application, e *env) {
	cmd := &slotsCommand{env: e, out: os.Stdout}
	c := app.Command("slots", "Apply a reservation plan to a slot table.").Action(cmd.run)
	cmd.plan = c.Arg("plan", "YAML reservation plan.").Required().String()
}
