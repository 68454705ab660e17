package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autosheeeew/ui-inspector/commands"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump operations with devices",
	Long:  `Perform dump operations like UI hierarchy extraction from devices.`,
}

var dumpUICmd = &cobra.Command{
	Use:   "ui",
	Short: "Dump the UI hierarchy from a device",
	Long:  `Fetches the current UI hierarchy tree from the specified device.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.DumpUIRequest{
			Serial: deviceSerial,
		}

		response := commands.DumpUICommand(cmd.Context(), apiClient(), req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var dumpOverlaysCmd = &cobra.Command{
	Use:   "overlays",
	Short: "Extract interactive-element overlays from a device",
	Long:  `Dumps the UI hierarchy and extracts the interactive-element overlay list, in paint order.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.OverlaysRequest{
			Serial: deviceSerial,
		}

		response := commands.OverlaysCommand(cmd.Context(), apiClient(), req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var dumpXMLCmd = &cobra.Command{
	Use:   "xml",
	Short: "Print the raw hierarchy XML cached by the backend",
	Long:  `Prints the raw hierarchy XML the backend cached on the last dump. Run 'dump ui' first to populate the cache.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.DumpXMLRequest{
			Serial: deviceSerial,
		}

		response := commands.DumpXMLCommand(cmd.Context(), apiClient(), req)
		if response.Status == "ok" {
			if xmlResp, ok := response.Data.(commands.DumpXMLResponse); ok {
				fmt.Println(xmlResp.XML)
				return nil
			}
		}

		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	// add dump subcommands
	dumpCmd.AddCommand(dumpUICmd)
	dumpCmd.AddCommand(dumpOverlaysCmd)
	dumpCmd.AddCommand(dumpXMLCmd)

	dumpUICmd.Flags().StringVar(&deviceSerial, "device", "", "serial of the device to dump from")
	dumpOverlaysCmd.Flags().StringVar(&deviceSerial, "device", "", "serial of the device to dump from")
	dumpXMLCmd.Flags().StringVar(&deviceSerial, "device", "", "serial of the device to dump from")
}
