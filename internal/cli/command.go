package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/translore/internal"
)

// Runner executes the commands once flags and configuration are parsed.
type Runner interface {
	Serve(ctx context.Context, flags *Flags) error
	Translate(ctx context.Context, flags *Flags, text string) error
	History(ctx context.Context, flags *Flags) error
	Context(ctx context.Context, flags *Flags, language, topic string) error
	Batch(ctx context.Context, flags *Flags, file string) error
	Models(ctx context.Context, flags *Flags) error
	Archive(ctx context.Context, flags *Flags) error
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, r Runner) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "translore",
		Short: "Multilingual translator with cultural context",
		Long: `translore translates text into one or more languages using a hosted LLM,
optionally explaining cultural context and idiomatic expressions. It can
enrich translations with background material retrieved from Wikipedia.

Examples:
  translore                                      # Serve the web UI (default)
  translore translate "Good morning" -l French   # Translate from the command line
  translore translate --file letter.docx -l Tamil -l German
  translore context Japanese festivals           # Show cultural background
  translore batch phrases.txt -l Spanish         # Translate a file line by line`,
		Args:    cobra.NoArgs,
		Version: internal.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.Serve(cmd.Context(), flags)
		},
		SilenceUsage: true,
	}

	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newTranslateCommand(flags, r),
		newHistoryCommand(flags, r),
		newContextCommand(flags, r),
		newBatchCommand(flags, r),
		newModelsCommand(flags, r),
		newArchiveCommand(flags, r),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.translore.yaml)")
	cmd.PersistentFlags().StringVarP(&flags.User, "user", "u", "", "User whose preferences and history are used (default: server.user_id)")
	cmd.PersistentFlags().StringVar(&flags.LogMode, "log-mode", "", "Log mode: dev or prod")

	// Local flags
	cmd.Flags().StringVarP(&flags.Address, "address", "a", "", "Address the web UI listens on (default: server.address)")

	bindFlagsToViper(cmd)
}

func addTranslationFlags(cmd *cobra.Command, flags *Flags) {
	cmd.Flags().StringArrayVarP(&flags.Languages, "lang", "l", nil, "Target language (repeatable, default: preferred languages)")
	cmd.Flags().StringVarP(&flags.Style, "style", "s", "", "Translation style: formal, informal or mixed (default: preference)")
	cmd.Flags().BoolVar(&flags.NoContext, "no-context", false, "Do not ask for cultural context")
	cmd.Flags().BoolVar(&flags.NoIdioms, "no-idioms", false, "Do not ask for idiom explanations")
	cmd.Flags().BoolVar(&flags.Background, "background", false, "Fetch cultural background from Wikipedia per language")
	cmd.Flags().StringVar(&flags.Topic, "topic", "", "Narrow the Wikipedia background to a topic")
}

func newTranslateCommand(flags *Flags, r Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate text or a document",
		Long: `Translate text given as argument, read from --file (txt, docx, pdf) or
piped on stdin when the argument is "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) == 1 {
				text = args[0]
			}
			if text == "" && flags.File == "" {
				return fmt.Errorf("nothing to translate: pass text or --file")
			}
			return r.Translate(cmd.Context(), flags, text)
		},
	}
	addTranslationFlags(cmd, flags)
	cmd.Flags().StringVarP(&flags.File, "file", "f", "", "Translate the text of a txt, docx or pdf file")
	return cmd
}

func newHistoryCommand(flags *Flags, r Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show translation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(flags.Format) {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unknown format %q (want text, json or yaml)", flags.Format)
			}
			return r.History(cmd.Context(), flags)
		},
	}
	cmd.Flags().IntVarP(&flags.Limit, "limit", "n", flags.Limit, "Number of most recent entries (0 for all)")
	cmd.Flags().StringVar(&flags.Format, "format", flags.Format, "Output format: text, json or yaml")
	return cmd
}

func newContextCommand(flags *Flags, r Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "context <language> [topic]",
		Short: "Show cultural background for a language",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := ""
			if len(args) == 2 {
				topic = args[1]
			}
			return r.Context(cmd.Context(), flags, args[0], topic)
		},
	}
}

func newBatchCommand(flags *Flags, r Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Translate a file of texts, one per line",
		Long: `Translate every line of a file. A line may name its own target languages
after a '|', e.g. "Good morning | French, Tamil"; other lines use --lang.
Lines starting with '#' are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.Batch(cmd.Context(), flags, args[0])
		},
	}
	addTranslationFlags(cmd, flags)
	return cmd
}

func newModelsCommand(flags *Flags, r Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models of the configured LLM endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.Models(cmd.Context(), flags)
		},
	}
}

func newArchiveCommand(flags *Flags, r Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Move preferences and history to data/archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.Archive(cmd.Context(), flags)
		},
	}
}

func bindFlagsToViper(cmd *cobra.Command) {
	bindFlag("server.address", cmd.Flags().Lookup("address"))
	bindFlag("server.user_id", cmd.PersistentFlags().Lookup("user"))
	bindFlag("log.mode", cmd.PersistentFlags().Lookup("log-mode"))
}

func bindFlag(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	viper.BindPFlag(key, flag)
}
