package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autosheeeew/ui-inspector/daemon"
	"github.com/autosheeeew/ui-inspector/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Gateway management commands",
	Long:  `Commands for managing the ui-inspector gateway.`,
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ui-inspector gateway",
	Long:  `Starts the gateway serving JSON-RPC and mirror WebSockets for browser hosts.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr := cmd.Flag("listen").Value.String()
		if listenAddr == "" {
			listenAddr = cfg.ServerAddress
		}

		// GetBool cannot fail for defined flags
		enableCORS, _ := cmd.Flags().GetBool("cors")
		isDaemon, _ := cmd.Flags().GetBool("daemon")

		if !cmd.Flags().Changed("cors") {
			enableCORS = cfg.EnableCORS
		}

		if isDaemon && !daemon.IsChild() {
			_, err := daemon.Daemonize()
			if err != nil {
				return fmt.Errorf("failed to start daemon: %w", err)
			}

			fmt.Printf("Gateway daemon spawned, attempting to listen on %s\n", listenAddr)
			return nil
		}

		srv := server.NewServer(cfg, enableCORS)
		return srv.ListenAndServe(listenAddr)
	},
}

var serverKillCmd = &cobra.Command{
	Use:   "kill",
	Short: "Stop the daemonized ui-inspector gateway",
	Long:  `Connects to the gateway and sends a shutdown command via JSON-RPC.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// GetString cannot fail for defined flags
		addr, _ := cmd.Flags().GetString("listen")
		if addr == "" {
			addr = cfg.ServerAddress
		}

		err := daemon.KillServer(addr)
		if err != nil {
			return err
		}

		fmt.Printf("Gateway shutdown command sent successfully\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// add server subcommands
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverKillCmd)

	// server start flags
	serverStartCmd.Flags().String("listen", "", "Address to listen on (e.g., 'localhost:12100' or '0.0.0.0:13000')")
	serverStartCmd.Flags().Bool("cors", false, "Enable CORS support")
	serverStartCmd.Flags().BoolP("daemon", "d", false, "Run gateway in daemon mode (background)")

	// server kill flags
	serverKillCmd.Flags().String("listen", "", "Address of gateway to kill")
}
