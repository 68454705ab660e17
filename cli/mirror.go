package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autosheeeew/ui-inspector/commands"
	"github.com/autosheeeew/ui-inspector/mirror"
	"github.com/autosheeeew/ui-inspector/utils"
)

// logEvents prints mirror session activity, for watching a stream without a
// browser attached.
type logEvents struct{}

func (logEvents) OnFrame(frame *mirror.Frame) {
	utils.Verbose("frame: %d bytes, %dx%d", len(frame.Bytes), frame.Width, frame.Height)
	frame.Release()
}

func (logEvents) OnScaleChanged(scale mirror.ScaleFactors) {
	utils.Info("scale: render=%.4f fitX=%.4f fitY=%.4f", scale.RenderScale, scale.FitX, scale.FitY)
}

func (logEvents) OnOverlays(overlays []mirror.OverlayDescriptor) {
	utils.Info("overlays: %d interactive elements", len(overlays))
}

func (logEvents) OnGestureResolved(gesture mirror.Gesture, err error) {
	if err != nil {
		utils.Warn("gesture %s failed: %v", gesture.Kind, err)
		return
	}
	utils.Info("gesture %s dispatched", gesture.Kind)
}

func (logEvents) OnSessionState(serial string, state mirror.SessionState) {
	utils.Info("session %s: %s", serial, state)
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Run a headless mirror session",
	Long:  `Opens a stream session for a device and logs frames, scale changes and session state until interrupted. Useful for verifying backend streaming without a browser.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		serial, err := commands.ResolveSerial(cmd.Context(), apiClient(), deviceSerial)
		if err != nil {
			return err
		}

		controller := mirror.NewController(apiClient(), logEvents{}, cfg.ReconnectDelay)
		defer controller.Close()

		controller.SetRenderSurface(mirrorSurfaceWidth, mirrorSurfaceHeight)
		controller.SetInteractive(mirrorInteractive)

		if err := controller.SelectDevice(cmd.Context(), serial); err != nil {
			return fmt.Errorf("failed to start mirror session: %w", err)
		}

		if err := controller.RefreshHierarchy(cmd.Context()); err != nil {
			utils.Warn("initial hierarchy refresh failed: %v", err)
		}

		<-cmd.Context().Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mirrorCmd)

	mirrorCmd.Flags().StringVar(&deviceSerial, "device", "", "serial of the device to mirror")
	mirrorCmd.Flags().Float64Var(&mirrorSurfaceWidth, "width", 360, "render surface width")
	mirrorCmd.Flags().Float64Var(&mirrorSurfaceHeight, "height", 800, "render surface height")
	mirrorCmd.Flags().BoolVar(&mirrorInteractive, "interactive", false, "enable gesture recognition")
}
