package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quakemap",
	Short: "Map recent earthquakes from the USGS feed",
	Long: `Fetches the USGS earthquake summary feed and renders it as a Leaflet map:
markers sized by magnitude and colored by depth, a depth legend, and
switchable street and topographic base layers.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, renderCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
