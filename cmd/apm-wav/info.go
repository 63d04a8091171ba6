package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tphakala/simd/cpu"

	apm "github.com/tphakala/go-audio-apm"
	"github.com/tphakala/go-audio-apm/internal/builtin"
	"github.com/tphakala/go-audio-apm/internal/filter"
)

// Frequencies at which the high-pass response is reported.
var responseFreqsHz = []float64{10, 20, 40, 60, 80, 100, 150, 200, 500, 1000, 4000}

func infoCommand(v *viper.Viper) *cobra.Command {
	var showResponse, showConfig bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show frame geometry, CPU features and the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			printInfo(w)

			if showConfig {
				cfg, err := buildConfig(v)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(w, "\nEffective configuration:")
				if err := apm.WriteConfig(w, cfg); err != nil {
					return err
				}
			}
			if showResponse {
				return printHighPassResponse(w)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showResponse, "response", false, "Print the reference high-pass filter response")
	cmd.Flags().BoolVar(&showConfig, "config-dump", false, "Print the configuration resolved from file, env and flags")

	return cmd
}

func printInfo(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Sample rate:       %d Hz\n", apm.SampleRate())
	_, _ = fmt.Fprintf(w, "Frame duration:    %d ms\n", apm.FrameMs)
	_, _ = fmt.Fprintf(w, "Samples per frame: %d per channel\n", apm.SamplesPerFrame())
	_, _ = fmt.Fprintf(w, "CPU features:      %s\n", cpu.Info())
}

func printHighPassResponse(w io.Writer) error {
	spec := builtin.HighPassSpec(apm.SampleRateHz)
	coeffs, err := filter.Design(spec)
	if err != nil {
		return fmt.Errorf("failed to design high-pass filter: %w", err)
	}

	_, _ = fmt.Fprintf(w, "\nHigh-pass filter: %d taps, cutoff %.0f Hz, %.0f dB stopband\n",
		len(coeffs), spec.CutoffHz, spec.AttenuationDb)
	for i, db := range filter.ResponseDB(coeffs, spec.SampleRateHz, responseFreqsHz) {
		_, _ = fmt.Fprintf(w, "  %6.0f Hz  %8.2f dB\n", responseFreqsHz[i], db)
	}
	return nil
}
