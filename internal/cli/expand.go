package cli

import (
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	fhirexpander "github.com/gofhir/expander"
	"github.com/gofhir/expander/pkg/priority"
	"github.com/gofhir/expander/pkg/sink"
)

type expandConfig struct {
	input         string
	output        string
	filter        string
	externalBases []string
	noExamples    bool
	clean         bool
}

func newExpandCommand() *cobra.Command {
	cfg := expandConfig{}
	cmd := &cobra.Command{
		Use:   "expand <root-url>...",
		Short: "Expand one or more capability statements",
		Long: `Expand resolves every import and instantiation edge of the given root
capability statement URLs, collects all referenced conformance resources,
and writes a merged capability statement plus the self-contained resource
set to the output directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(cmd, cfg, args)
		},
	}

	cmd.Flags().StringVarP(&cfg.input, "input", "i", "", "Input directory with FHIR JSON files")
	cmd.Flags().StringVarP(&cfg.output, "output", "o", "", "Output directory for the expanded set")
	cmd.Flags().StringVar(&cfg.filter, "filter", "", "Minimum expectation level to traverse (SHALL, SHOULD, MAY)")
	cmd.Flags().StringArrayVar(&cfg.externalBases, "external-base", nil, "Additional external base URL prefix (repeatable)")
	cmd.Flags().BoolVar(&cfg.noExamples, "no-examples", false, "Skip the example-matching pass")
	cmd.Flags().BoolVar(&cfg.clean, "clean", false, "Empty the output directory first")
	_ = viper.BindPFlag("input", cmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("filter", cmd.Flags().Lookup("filter"))

	return cmd
}

func runExpand(cmd *cobra.Command, cfg expandConfig, rootURLs []string) error {
	input := viper.GetString("input")
	if input == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("input directory is required")
	}
	output := viper.GetString("output")
	if output == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}

	opts := []fhirexpander.Option{
		fhirexpander.WithInputDir(input),
		fhirexpander.WithExamples(!cfg.noExamples),
	}
	if filterName := viper.GetString("filter"); filterName != "" {
		level, ok := priority.Parse(filterName)
		if !ok || level == priority.ShouldNot {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid expectation filter %q", filterName))
		}
		opts = append(opts, fhirexpander.WithPriorityFilter(level))
	}
	if len(cfg.externalBases) > 0 {
		bases := append([]string{}, cfg.externalBases...)
		opts = append(opts, fhirexpander.WithExternalBases(bases...))
	}

	exp, err := fhirexpander.New(opts...)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to load input resources").
			WithCause(err)
	}

	result, err := exp.Expand(cmd.Context(), rootURLs)
	if err != nil {
		if errors.Is(err, fhirexpander.ErrMissingRoot) {
			return errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(err.Error())
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("expansion failed").
			WithCause(err)
	}

	report, err := sink.New(output, cfg.clean).Write(result)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write expansion").
			WithCause(err)
	}

	log.Info().
		Int("references", len(result.References)).
		Int("copied", report.Copied).
		Int("notFound", result.Stats.NotFound).
		Int("externalBase", result.Stats.SkippedExternalBase).
		Int("cycles", result.Stats.Cycles).
		Int("passes", result.Stats.Passes).
		Msg("expansion completed")
	return nil
}
