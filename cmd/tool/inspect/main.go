package inspect

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alpacahq/eventstore/block"
	"github.com/alpacahq/eventstore/datafile"
	"github.com/alpacahq/eventstore/executor"
	"github.com/alpacahq/eventstore/paths"
	"github.com/alpacahq/eventstore/utils"
	bio "github.com/alpacahq/eventstore/utils/io"
)

const (
	usage   = "inspect"
	short   = "Prints the block directory of a data file"
	long    = "This command prints every block of a data file with its object and timestamp ranges and fill level"
	example = "eventstore tool inspect --dir ./data --block-size 64KB --events"

	// Flag descriptions.
	configDesc    = "set the path for the eventstore YAML configuration file"
	dirDesc       = "set filesystem path of the data directory, overrides --config"
	blockSizeDesc = "set the block size of the data file when --dir is used"
	eventsDesc    = "also print every event with its decoded payload"

	defaultConfigFilePath = "./eventstore.yml"
)

var (
	// Available flags.
	configFilePath string
	dir            string
	blockSize      string
	showEvents     bool

	// Cmd is the inspect command.
	Cmd = &cobra.Command{
		Use:     usage,
		Short:   short,
		Long:    long,
		Aliases: []string{"dump"},
		Example: example,
		RunE:    executeInspect,
	}
)

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	Cmd.Flags().StringVarP(&configFilePath, "config", "c", defaultConfigFilePath, configDesc)
	Cmd.Flags().StringVarP(&dir, "dir", "d", "", dirDesc)
	Cmd.Flags().StringVar(&blockSize, "block-size", "", blockSizeDesc)
	Cmd.Flags().BoolVar(&showEvents, "events", false, eventsDesc)
}

func executeInspect(cmd *cobra.Command, _ []string) error {
	cfg, err := utils.LoadConfig(configFilePath, dir, blockSize)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	f, err := datafile.OpenExisting(cfg.DataFilePath(), cfg.BlockSize)
	if err != nil {
		return err
	}
	defer f.Close()
	return Inspect(cmd.OutOrStdout(), f, showEvents)
}

// Inspect writes one line per block of f to w, followed by a summary. With
// events set every path is listed below its block.
func Inspect(w io.Writer, f block.File, events bool) error {
	used, spanned := 0, 0
	for _, b := range f.Blocks() {
		size, err := block.Size(f, b)
		if err != nil {
			return err
		}
		used += size
		flag := ""
		if b.Spanned {
			spanned++
			flag = " spanned"
		}
		fmt.Fprintf(w, "block %6d  objects %d..%d  ts %d..%d  used %s/%s%s\n",
			b.Index, b.MinObjectID, b.MaxObjectID, b.MinTimestamp, b.MaxTimestamp,
			bio.FormatByteSize(size), bio.FormatByteSize(f.BlockSize()), flag)
		if events {
			if err := printPaths(w, f, b); err != nil {
				return err
			}
		}
	}
	total := f.BlockCount() * f.BlockSize()
	fmt.Fprintf(w, "%d blocks (%d spanned) of %s, %s used of %s\n",
		f.BlockCount(), spanned, bio.FormatByteSize(f.BlockSize()),
		bio.FormatByteSize(used), bio.FormatByteSize(total))
	return nil
}

func printPaths(w io.Writer, f block.File, b *block.Block) error {
	region, err := block.Region(f, b)
	if err != nil {
		return err
	}
	it, err := paths.NewIterator(region)
	if err != nil {
		return err
	}
	defer it.Close()

	for !it.EOF() {
		objectID, evs, err := paths.DecodeEvents(it.Path())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  object %d: %d events\n", objectID, len(evs))
		for _, ev := range evs {
			if p, err := executor.DecodePayload(ev.Payload); err == nil {
				fmt.Fprintf(w, "    %d %s %s\n", ev.Timestamp, p.Action, p.Data)
			} else {
				fmt.Fprintf(w, "    %d <%s raw>\n", ev.Timestamp, bio.FormatByteSize(len(ev.Payload)))
			}
		}
		if err := it.Next(); err != nil {
			return err
		}
	}
	return nil
}
