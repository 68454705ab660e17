package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autosheeeew/ui-inspector/commands"
)

var elementCmd = &cobra.Command{
	Use:   "element",
	Short: "Element lookup operations",
	Long:  `Look up UI elements by coordinate, node path or XPath expression.`,
}

var elementAtCmd = &cobra.Command{
	Use:   "at [x,y]",
	Short: "Find the element at the given coordinates",
	Long:  `Finds the deepest interactive element under the given x,y coordinates. Coordinates should be provided as a single string "x,y".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coordsStr := args[0]
		parts := strings.Split(coordsStr, ",")
		if len(parts) != 2 {
			response := commands.NewErrorResponse(fmt.Errorf("invalid coordinate format. Expected 'x,y', got '%s'", coordsStr))
			printJson(response)
			return fmt.Errorf("%s", response.Error)
		}

		x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
		y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))

		if errX != nil || errY != nil {
			response := commands.NewErrorResponse(fmt.Errorf("invalid coordinate values. x and y must be integers. Got x='%s', y='%s'", parts[0], parts[1]))
			printJson(response)
			return fmt.Errorf("%s", response.Error)
		}

		req := commands.ElementAtRequest{
			Serial: deviceSerial,
			X:      x,
			Y:      y,
		}

		response := commands.ElementAtCommand(cmd.Context(), apiClient(), req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var elementInfoCmd = &cobra.Command{
	Use:   "info [path]",
	Short: "Fetch element details by node path",
	Long:  `Fetches element details for the node at the given path, where the path is a comma-separated list of child indices from the root, e.g. "0,2,1".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pathStr := args[0]
		parts := strings.Split(pathStr, ",")
		path := make([]int, 0, len(parts))
		for _, part := range parts {
			idx, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				response := commands.NewErrorResponse(fmt.Errorf("invalid node path. Expected comma-separated integers, got '%s'", pathStr))
				printJson(response)
				return fmt.Errorf("%s", response.Error)
			}
			path = append(path, idx)
		}

		req := commands.ElementInfoRequest{
			Serial:   deviceSerial,
			NodePath: path,
		}

		response := commands.ElementInfoCommand(cmd.Context(), apiClient(), req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var elementXPathCmd = &cobra.Command{
	Use:   "xpath [expression]",
	Short: "Query the hierarchy with an XPath expression",
	Long:  `Runs an XPath query against the device's cached UI hierarchy and returns the matching elements.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.XPathRequest{
			Serial: deviceSerial,
			XPath:  args[0],
		}

		response := commands.XPathCommand(cmd.Context(), apiClient(), req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(elementCmd)

	// add element subcommands
	elementCmd.AddCommand(elementAtCmd)
	elementCmd.AddCommand(elementInfoCmd)
	elementCmd.AddCommand(elementXPathCmd)

	// element command flags
	elementAtCmd.Flags().StringVar(&deviceSerial, "device", "", "serial of the device to query")
	elementInfoCmd.Flags().StringVar(&deviceSerial, "device", "", "serial of the device to query")
	elementXPathCmd.Flags().StringVar(&deviceSerial, "device", "", "serial of the device to query")
}
