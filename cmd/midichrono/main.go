// Command midichrono drives MIDI clock and MIDI time code to output devices.
package main

import "github.com/spf13/cobra"

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
