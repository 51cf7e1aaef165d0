package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/y-ogi/photos2videos/internal/config"
	"github.com/y-ogi/photos2videos/internal/photos"
)

var (
	convertDuration float64
	convertJobs     int
)

var convertCmd = &cobra.Command{
	Use:   "convert [input dir] [output dir]",
	Short: "Convert every photo under a directory into a held 4K clip",
	Long: "Walks the input directory for JPEG photos and renders each one as an MP4\n" +
		"clip holding the frame for the given duration. Photos that do not match the\n" +
		"output aspect are composited over a blurred copy of themselves.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		duration := cfg.Convert.ClipSeconds
		if cmd.Flags().Changed("duration") {
			duration = convertDuration
		}
		jobs := cfg.Convert.Jobs
		if cmd.Flags().Changed("jobs") {
			jobs = convertJobs
		}

		conv := photos.NewConverter(log.Logger, exec, photos.Options{
			Duration: seconds(duration),
			Jobs:     jobs,
			Profile:  profileFromConfig(cfg),
			Progress: true,
		})

		results, err := conv.Run(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		converted := 0
		for _, r := range results {
			if r.Err == nil {
				converted++
			}
		}
		log.Info().
			Int("converted", converted).
			Int("failed", len(results)-converted).
			Msg("convert finished")

		return nil
	},
}

func init() {
	convertCmd.Flags().Float64VarP(&convertDuration, "duration", "d", 5, "seconds each photo is held on screen")
	convertCmd.Flags().IntVarP(&convertJobs, "jobs", "j", 1, "photos encoded in parallel")
}
