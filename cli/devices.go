package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autosheeeew/ui-inspector/commands"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected devices",
	Long:  `List all devices known to the backend, both real devices and emulators.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.DevicesCommand(cmd.Context(), apiClient())
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var deviceInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device descriptor",
	Long:  `Fetches the device descriptor (model, platform, logical screen size) for a device.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.InfoCommand(cmd.Context(), apiClient(), deviceSerial)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(deviceInfoCmd)

	deviceInfoCmd.Flags().StringVar(&deviceSerial, "device", "", "serial of the device to inspect")
}
