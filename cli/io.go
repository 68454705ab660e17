package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autosheeeew/ui-inspector/commands"
)

var ioCmd = &cobra.Command{
	Use:   "io",
	Short: "Input operations with devices",
	Long:  `Perform input operations like tapping and swiping on devices.`,
}

var ioTapCmd = &cobra.Command{
	Use:   "tap [x,y]",
	Short: "Tap on a device screen at the given coordinates",
	Long:  `Sends a tap event to the specified device at the given x,y coordinates. Coordinates should be provided as a single string "x,y".`,
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

		req := commands.TapRequest{
			Serial: deviceSerial,
			X:      x,
			Y:      y,
		}

		response := commands.TapCommand(cmd.Context(), apiClient(), req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var ioSwipeCmd = &cobra.Command{
	Use:   "swipe [x1,y1,x2,y2]",
	Short: "Swipe on a device screen from one point to another",
	Long:  `Sends a swipe gesture to the specified device from coordinates x1,y1 to x2,y2. Coordinates should be provided as a single string "x1,y1,x2,y2".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coordsStr := args[0]
		parts := strings.Split(coordsStr, ",")
		if len(parts) != 4 {
			response := commands.NewErrorResponse(fmt.Errorf("invalid coordinate format. Expected 'x1,y1,x2,y2', got '%s'", coordsStr))
			printJson(response)
			return fmt.Errorf("%s", response.Error)
		}

		x1, errX1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		y1, errY1 := strconv.Atoi(strings.TrimSpace(parts[1]))
		x2, errX2 := strconv.Atoi(strings.TrimSpace(parts[2]))
		y2, errY2 := strconv.Atoi(strings.TrimSpace(parts[3]))

		if errX1 != nil || errY1 != nil || errX2 != nil || errY2 != nil {
			response := commands.NewErrorResponse(fmt.Errorf("invalid coordinate values. x1, y1, x2, y2 must be integers. Got x1='%s', y1='%s', x2='%s', y2='%s'", parts[0], parts[1], parts[2], parts[3]))
			printJson(response)
			return fmt.Errorf("%s", response.Error)
		}

		duration, _ := cmd.Flags().GetInt("duration")

		req := commands.SwipeRequest{
			Serial:   deviceSerial,
			X1:       x1,
			Y1:       y1,
			X2:       x2,
			Y2:       y2,
			Duration: duration,
		}

		response := commands.SwipeCommand(cmd.Context(), apiClient(), req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var streamStopCmd = &cobra.Command{
	Use:   "stream-stop",
	Short: "Ask the backend to stop streaming for a device",
	Long:  `Asks the backend to release screen streaming resources for the specified device.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.StreamStopRequest{
			Serial: deviceSerial,
		}

		response := commands.StreamStopCommand(cmd.Context(), apiClient(), req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ioCmd)
	rootCmd.AddCommand(streamStopCmd)

	// add io subcommands
	ioCmd.AddCommand(ioTapCmd)
	ioCmd.AddCommand(ioSwipeCmd)

	// io command flags
	ioTapCmd.Flags().StringVar(&deviceSerial, "device", "", "serial of the device to tap on")
	ioSwipeCmd.Flags().StringVar(&deviceSerial, "device", "", "serial of the device to swipe on")
	ioSwipeCmd.Flags().Int("duration", 0, "swipe duration in milliseconds")
	streamStopCmd.Flags().StringVar(&deviceSerial, "device", "", "serial of the device to stop streaming for")
}
