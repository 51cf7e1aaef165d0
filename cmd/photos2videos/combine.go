package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/y-ogi/photos2videos/internal/combine"
	"github.com/y-ogi/photos2videos/internal/config"
	"github.com/y-ogi/photos2videos/internal/photos"
)

var (
	combinePhotoDuration float64
	combineFolderOrder   []string
	combineOutputName    string
)

var combineCmd = &cobra.Command{
	Use:   "combine [input dir] [output dir]",
	Short: "Combine photo folders into one album video with title cards",
	Long: "Converts the photos under the input directory, then builds one video per\n" +
		"folder opened by a title card, joins the segments with fades, and\n" +
		"concatenates the folder videos into a single album video.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		photoDuration := cfg.Convert.ClipSeconds
		if cmd.Flags().Changed("photo-duration") {
			photoDuration = combinePhotoDuration
		}
		outputName := cfg.Combine.OutputName
		if cmd.Flags().Changed("output") {
			outputName = combineOutputName
		}

		profile := profileFromConfig(cfg)
		conv := photos.NewConverter(log.Logger, exec, photos.Options{
			Duration: seconds(photoDuration),
			Jobs:     cfg.Convert.Jobs,
			Profile:  profile,
			Progress: true,
		})

		comb := combine.NewCombiner(log.Logger, exec, conv, combine.Options{
			TitleDuration: seconds(cfg.Combine.TitleSeconds),
			TitleFade:     seconds(cfg.Combine.TitleFadeSeconds),
			Transition:    seconds(cfg.Combine.TransitionSeconds),
			FolderOrder:   combineFolderOrder,
			OutputName:    outputName,
			Profile:       profile,
		})

		final, err := comb.Run(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		log.Info().Str("output", final).Msg("album video ready")
		return nil
	},
}

func init() {
	combineCmd.Flags().Float64Var(&combinePhotoDuration, "photo-duration", 5, "seconds each photo is held on screen")
	combineCmd.Flags().StringSliceVar(&combineFolderOrder, "folder-order", nil, "folders to combine first, in order; unlisted folders follow lexically")
	combineCmd.Flags().StringVarP(&combineOutputName, "output", "o", "final.mp4", "file name of the album video")
}
