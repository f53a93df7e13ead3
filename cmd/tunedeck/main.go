package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/genricoloni/tunedeck/internal/config"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCommand builds the tunedeck command. Flags override the config file
// and TUNEDECK_* variables.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tunedeck [files or directories...]",
		Short: "A terminal music player with MPRIS controls",
		Long: "tunedeck plays the given audio files, or the built-in playlist when none are named.\n" +
			"Directories are searched recursively for mp3, wav and flac files.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper()
			if err != nil {
				return fmt.Errorf("failed to read configuration: %w", err)
			}
			bindFlags(cmd, v)
			return run(v, args)
		},
	}

	cmd.Flags().Float64("volume", 0.7, "initial volume between 0 and 1")
	cmd.Flags().Bool("shuffle", false, "start with shuffle enabled")
	cmd.Flags().Bool("repeat", false, "start with repeat enabled")
	cmd.Flags().Bool("no-autoplay", false, "stop after each track instead of advancing")
	cmd.Flags().Bool("no-mpris", false, "do not register on the D-Bus session bus")
	cmd.Flags().String("art-dir", "", "directory for the rendered now-playing artwork")
	return cmd
}

// bindFlags layers explicitly set flags over v
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.Flags()
	lo.Must0(v.BindPFlag(config.KeyVolume, flags.Lookup("volume")))
	lo.Must0(v.BindPFlag(config.KeyShuffle, flags.Lookup("shuffle")))
	lo.Must0(v.BindPFlag(config.KeyRepeat, flags.Lookup("repeat")))

	if flags.Changed("art-dir") {
		v.Set(config.KeyArtDir, lo.Must(flags.GetString("art-dir")))
	}
	if lo.Must(flags.GetBool("no-autoplay")) {
		v.Set(config.KeyAutoplay, false)
	}
	if lo.Must(flags.GetBool("no-mpris")) {
		v.Set(config.KeyMPRISEnabled, false)
	}
}

// run starts the player and blocks until a signal or the keyboard asks to quit
func run(v *viper.Viper, paths []string) error {
	app := fx.New(
		AppOptions,
		fx.Replace(v),
		fx.Replace(launchArgs{Paths: paths}),
	)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-app.Wait():
	}

	return app.Stop(context.Background())
}
