package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/pavanmanishd/region/fileio"
)

// loadCommand reads files into a scratch region one at a time.
type loadCommand struct {
	env   *env
	files *[]string
	out   io.Writer
}

func (cmd *loadCommand) run(*kingpin.ParseContext) (err error) {
	r, metrics, err := cmd.env.newRegion()
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Invoke(func() error { return cmd.env.releaseRegion(r) }))

	loader := fileio.NewLoader(cmd.env.fs, fileio.WithLogger(cmd.env.logger))
	bold := color.New(color.Bold)

	var errs error
	for _, name := range *cmd.files {
		mark := r.Offset()
		contents, err := loader.LoadFile(r, name, false)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		bold.Fprintf(cmd.out, "%s:", name)
		fmt.Fprintf(cmd.out, " %s, region %s of %s (%.1f%%)\n",
			humanize.IBytes(uint64(contents.Len())),
			humanize.IBytes(uint64(r.SizeInUse())),
			humanize.IBytes(uint64(r.Capacity())),
			r.Utilization()*100)
		metrics.ObserveRegion(r.Metrics())
		r.Rewind(mark)
	}

	m := r.Metrics()
	metrics.ObserveRegion(m)
	fmt.Fprintf(cmd.out, "high water %s, %d allocations, %d refused\n",
		humanize.IBytes(uint64(m.HighWater)), m.Allocs, m.FailedAllocs)
	return multierr.Append(errs, cmd.env.writeMetrics())
}

func addLoadCommand(app *kingpin.Application, e *env) {
	cmd := &loadCommand{env: e, out: os.Stdout}
	load := app.Command("load", "Load files into region memory and report their sizes.").Action(cmd.run)
	cmd.files = load.Arg("file", "Files to load.").Required().Strings()
}

// listCommand prints the entries of a directory enumerated into a region.
type listCommand struct {
	env *env
	dir *string
	ext *string
	out io.Writer
}

func (cmd *listCommand) run(*kingpin.ParseContext) (err error) {
	r, metrics, err := cmd.env.newRegion()
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Invoke(func() error { return cmd.env.releaseRegion(r) }))

	loader := fileio.NewLoader(cmd.env.fs, fileio.WithLogger(cmd.env.logger))
	names, err := loader.DirNames(r, *cmd.dir)
	if err != nil {
		return errors.Wrap(err, "list")
	}

	shown := 0
	for _, n := range names.View().All() {
		name := n.String()
		if *cmd.ext != "" && !fileio.HasExt(name, *cmd.ext) {
			continue
		}
		fmt.Fprintln(cmd.out, name)
		shown++
	}
	cmd.env.logger.Debug("listed directory",
		zap.String("dir", *cmd.dir),
		zap.Int("entries", names.Len()),
		zap.Int("shown", shown),
		zap.String("region_used", humanize.IBytes(uint64(r.SizeInUse()))))

	metrics.ObserveRegion(r.Metrics())
	return cmd.env.writeMetrics()
}

func addListCommand(app *kingpin.Application, e *env) {
	cmd := &listCommand{env: e, out: os.Stdout}
	ls := app.Command("ls", "List a directory through region memory.").Action(cmd.run)
	cmd.dir = ls.Arg("dir", "Directory to list.").Required().String()
	cmd.ext = ls.Flag("ext", "Only show names with this extension, dot included.").String()
}
