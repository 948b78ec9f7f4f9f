package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/parlance/core"
)

func addPreferenceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("language", "l", "es", "target language code")
	cmd.Flags().StringP("personality", "p", "", "persona id (default: registry default)")
	cmd.Flags().String("speed", string(core.SpeedNormal), "speaking speed: slow, normal, fast")
	cmd.Flags().String("level", string(core.LevelIntermediate), "level: beginner, intermediate, advanced, fluent")
	cmd.Flags().String("style", string(core.StyleCasual), "style: formal, casual, slang")
}

func preferencesFromFlags(cmd *cobra.Command) core.PreferenceSet {
	language, _ := cmd.Flags().GetString("language")
	persona, _ := cmd.Flags().GetString("personality")
	speed, _ := cmd.Flags().GetString("speed")
	level, _ := cmd.Flags().GetString("level")
	style, _ := cmd.Flags().GetString("style")
	return core.PreferenceSet{
		Language: language,
		Persona:  persona,
		Speed:    core.Speed(speed),
		Level:    core.Level(level),
		Style:    core.Style(style),
	}
}
