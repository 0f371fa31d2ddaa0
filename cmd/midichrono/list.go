package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/leandrodaf/midichrono/sdk/midi"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List MIDI output devices",
	Long:  `List the MIDI output devices midichrono can send to, with the index used by run.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := commonOptions()
		if err != nil {
			return err
		}
		transport, err := midi.NewTransport(opts...)
		if err != nil {
			return errors.Wrap(err, "creating MIDI transport")
		}
		defer transport.Stop()

		devices, err := transport.ListDevices()
		if err != nil {
			return errors.Wrap(err, "listing devices")
		}
		return printDevices(cmd.OutOrStdout(), devices)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func printDevices(w io.Writer, devices []contracts.DeviceInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tMANUFACTURER")
	for _, d := range devices {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", d.Index, d.Name, d.Manufacturer)
	}
	return tw.Flush()
}
