package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oetools/oequery/pkg/browser"
	"github.com/oetools/oequery/pkg/config"
)

const responseDelimiter = "=========================================="

func newAskCmd() *cobra.Command {
	var (
		question    string
		fast        bool
		turbo       bool
		saveImages  bool
		outputDir   string
		showBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Submit a question and print the answer with citations",
		Long: `Submits a question through the authenticated browser session, waits for
the answer to finish rendering, and prints it between explicit BEGIN/END
delimiters so scripts can extract the verbatim payload. Citations follow
in document order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fast && turbo {
				return fmt.Errorf("--fast and --turbo are mutually exclusive")
			}
			mode := browser.ModeNormal
			switch {
			case turbo:
				mode = browser.ModeTurbo
			case fast:
				mode = browser.ModeFast
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			req := browser.QueryRequest{
				Question:    question,
				Mode:        mode,
				WantImages:  saveImages,
				OutputDir:   outputDir,
				ShowBrowser: showBrowser,
				Debug:       flagDebug,
			}
			if err := req.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			bctx, err := a.mgr.AcquireContext(ctx, !showBrowser)
			if err != nil {
				return err
			}
			defer bctx.Close()

			driver := browser.NewDriver(a.cfg, a.reg, a.log)
			result, askErr := driver.Ask(ctx, browser.NewPlaywrightPage(bctx.Page()), req)

			// A timeout can still carry a partial answer; print what we got
			// before reporting the failure.
			if result != nil {
				printResult(cmd, result, askErr != nil)
			}
			return askErr
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "question to submit (required)")
	cmd.Flags().BoolVar(&fast, "fast", false, "reduced delays, keystroke typing (~5-8s)")
	cmd.Flags().BoolVar(&turbo, "turbo", false, "bulk text insertion, minimal delays (~3-5s, less reliable)")
	cmd.Flags().BoolVar(&saveImages, "save-images", false, "save a response screenshot and embedded figures")
	cmd.Flags().StringVar(&outputDir, "output-dir", "oe_images", "directory for saved images")
	cmd.Flags().BoolVar(&showBrowser, "show-browser", false, "run the browser visibly instead of headless")
	_ = cmd.MarkFlagRequired("question")

	return cmd
}

// printResult writes the framed payload and trailing metadata to stdout.
func printResult(cmd *cobra.Command, result *browser.QueryResult, partial bool) {
	printTo(cmd, responseDelimiter)
	if partial {
		printTo(cmd, "BEGIN OPENEVIDENCE RESPONSE (PARTIAL)")
	} else {
		printTo(cmd, "BEGIN OPENEVIDENCE RESPONSE")
	}
	printTo(cmd, responseDelimiter)
	printTo(cmd, "%s", result.AnswerText)
	printTo(cmd, responseDelimiter)
	printTo(cmd, "END OPENEVIDENCE RESPONSE")
	printTo(cmd, responseDelimiter)

	if len(result.Citations) > 0 {
		printTo(cmd, "")
		printTo(cmd, "Citations:")
		for i, c := range result.Citations {
			ref := c.Reference
			if ref == "" {
				ref = c.Label
			}
			printTo(cmd, "  [%d] %s", i+1, strings.TrimSpace(ref))
		}
	}
	if len(result.ImagePaths) > 0 {
		printTo(cmd, "")
		printTo(cmd, "Saved images:")
		for _, p := range result.ImagePaths {
			printTo(cmd, "  %s", p)
		}
	}
	printTo(cmd, "")
	printTo(cmd, "Source: %s (%s), %dms", result.SourceTag, config.BaseURL, result.ElapsedMs)
}
