package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/y-ogi/photos2videos/internal/analysis"
	"github.com/y-ogi/photos2videos/internal/config"
	"github.com/y-ogi/photos2videos/internal/resolve"
	"github.com/y-ogi/photos2videos/internal/timeline"
)

var (
	timelineClipDuration  float64
	timelineTotalDuration float64
	timelineSmart         bool
	timelineDiversity     float64
	timelineSceneDetect   bool
	timelineMinSceneScore float64
	timelineSeed          int64
	timelineName          string
	timelineEDLPath       string
	timelineEnvFile       string
)

var timelineCmd = &cobra.Command{
	Use:   "timeline [input dir]",
	Short: "Cut source videos into a DaVinci Resolve timeline",
	Long: "Selects clips from the videos under the input directory, either uniformly\n" +
		"at random or scored by motion and color with a diversity penalty, and\n" +
		"builds two timelines in the running Resolve session: the cut itself and a\n" +
		"duplicate with markers at every clip boundary for manual transition work.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		// the scripting environment is a startup requirement; fail here
		// before any probing or selection work happens
		envFile := cfg.Resolve.EnvFile
		if cmd.Flags().Changed("env-file") {
			envFile = timelineEnvFile
		}
		if err := resolve.LoadEnv(envFile); err != nil {
			return err
		}

		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		sink, err := resolve.NewSink(log.Logger, resolve.Options{
			Python:    cfg.Resolve.Python,
			Timeout:   seconds(cfg.Resolve.TimeoutSeconds),
			BinPrefix: cfg.Resolve.BinPrefix,
		})
		if err != nil {
			return err
		}

		clipDuration := cfg.Timeline.ClipSeconds
		if cmd.Flags().Changed("clip-duration") {
			clipDuration = timelineClipDuration
		}
		totalDuration := cfg.Timeline.TotalSeconds
		if cmd.Flags().Changed("total-duration") {
			totalDuration = timelineTotalDuration
		}
		diversity := cfg.Timeline.Diversity
		if cmd.Flags().Changed("diversity") {
			diversity = timelineDiversity
		}
		minSceneScore := cfg.Timeline.MinSceneScore
		if cmd.Flags().Changed("min-scene-score") {
			minSceneScore = timelineMinSceneScore
		}

		an := analysis.NewAnalyzer(log.Logger, exec, analysis.Options{
			Interval:     seconds(cfg.Timeline.SampleSeconds),
			CutThreshold: minSceneScore,
		})

		gen := timeline.NewGenerator(log.Logger, exec, an, sink, timeline.Options{
			ClipDuration:  seconds(clipDuration),
			TotalDuration: seconds(totalDuration),
			Smart:         timelineSmart,
			Diversity:     diversity,
			SceneDetect:   timelineSceneDetect,
			MinSceneScore: minSceneScore,
			MaxPerFile:    cfg.Timeline.MaxPerFile,
			Seed:          timelineSeed,
			Name:          timelineName,
			Spec: timeline.Spec{
				Width:  cfg.Encode.Width,
				Height: cfg.Encode.Height,
				FPS:    cfg.Encode.FPS,
			},
		})

		plan, err := gen.Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if timelineEDLPath != "" {
			if err := writeEDLFile(plan, timelineEDLPath); err != nil {
				return err
			}
			log.Info().Str("edl", timelineEDLPath).Msg("edit decision list written")
		}

		log.Info().
			Str("timeline", plan.Name).
			Int("clips", len(plan.Clips)).
			Msg("timelines created")
		return nil
	},
}

func writeEDLFile(plan *timeline.Plan, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create EDL file: %w", err)
	}
	if err := plan.WriteEDL(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write EDL: %w", err)
	}
	return f.Close()
}

func init() {
	timelineCmd.Flags().Float64Var(&timelineClipDuration, "clip-duration", 5, "seconds per placed clip")
	timelineCmd.Flags().Float64Var(&timelineTotalDuration, "total-duration", 60, "target length of the whole timeline in seconds")
	timelineCmd.Flags().BoolVar(&timelineSmart, "smart", false, "score candidate windows instead of picking at random")
	timelineCmd.Flags().Float64Var(&timelineDiversity, "diversity", 0.5, "smart mode: penalty weight for near-duplicate picks, 0 to 1")
	timelineCmd.Flags().BoolVar(&timelineSceneDetect, "scene-detect", false, "smart mode: anchor candidate windows at detected scene cuts")
	timelineCmd.Flags().Float64Var(&timelineMinSceneScore, "min-scene-score", 0.3, "scene change threshold, 0 to 1")
	timelineCmd.Flags().Int64Var(&timelineSeed, "seed", 0, "random seed for reproducible cuts; 0 seeds from the clock")
	timelineCmd.Flags().StringVar(&timelineName, "name", "", "timeline name; empty picks a dated one")
	timelineCmd.Flags().StringVar(&timelineEDLPath, "edl", "", "also write the cut as a CMX3600 EDL to this path")
	timelineCmd.Flags().StringVar(&timelineEnvFile, "env-file", "", ".env file with the Resolve scripting variables")
}
