package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/y-ogi/photos2videos/internal/config"
	"github.com/y-ogi/photos2videos/internal/ffmpeg"
	"github.com/y-ogi/photos2videos/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "photos2videos",
	Short: "photos2videos - turn photo folders into 4K clips, album videos, and rough-cut timelines",
	Long: "photos2videos renders photo collections as held 4K clips, combines folders\n" +
		"into an album video with title cards and fades, and cuts source footage\n" +
		"into DaVinci Resolve timelines.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(combineCmd)
	rootCmd.AddCommand(timelineCmd)
}

func newExecutor(cfg *config.Config) (*ffmpeg.Executor, error) {
	return ffmpeg.New(log.Logger, cfg.FFmpeg.Threads)
}

func profileFromConfig(cfg *config.Config) ffmpeg.Profile {
	p := ffmpeg.DefaultProfile()
	p.Width = cfg.Encode.Width
	p.Height = cfg.Encode.Height
	p.FPS = cfg.Encode.FPS
	p.VideoBitrate = cfg.Encode.VideoBitrate
	p.Preset = cfg.Encode.Preset
	p.PixelFormat = cfg.Encode.PixelFormat
	return p
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
