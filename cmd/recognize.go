package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-recognizer/internal/config"
	"github.com/kozaktomas/face-recognizer/internal/database"
	"github.com/kozaktomas/face-recognizer/internal/recognition"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <file|dir>...",
	Short: "Detect and identify faces in images",
	Long: `Detect faces in the given images and match them against the known people.

Directories are expanded to the supported image files they contain. Detections
are cached by image content, so re-running over unchanged files only repeats
the matching step.

Examples:
  # Recognize a single photo
  face-recognizer recognize photo.jpg

  # Recognize a directory tree with 4 parallel detector calls
  face-recognizer recognize ~/Pictures --recursive --concurrency 4

  # Stricter matching, JSON output for scripting
  face-recognizer recognize ~/Pictures --match-threshold 0.75 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().BoolP("recursive", "r", false, "Walk directories recursively")
	recognizeCmd.Flags().Int("concurrency", 0, "Number of files recognized in parallel (overrides RECOGNITION_CONCURRENCY)")
	recognizeCmd.Flags().Bool("json", false, "Output as JSON instead of a table")
	recognizeCmd.Flags().Float64("min-confidence", 0, "Minimum detection confidence")
	recognizeCmd.Flags().Float64("match-threshold", 0, "Minimum cosine similarity for a match")
	recognizeCmd.Flags().Int("min-face-size", 0, "Minimum face size in pixels")
	recognizeCmd.Flags().Int("max-faces", 0, "Maximum faces per image (0 = unlimited)")
}

// RecognizeOutput is the JSON output of the recognize command
type RecognizeOutput struct {
	Results    []database.DetectionResult `json:"results"`
	Files      int                        `json:"files"`
	Faces      int                        `json:"faces"`
	Matched    int                        `json:"matched"`
	Failed     int                        `json:"failed"`
	Cancelled  bool                       `json:"cancelled,omitempty"`
	DurationMs int64                      `json:"duration_ms"`
}

// optionsFromFlags collects the option flags that were set explicitly.
func optionsFromFlags(cmd *cobra.Command) database.OptionsUpdate {
	var u database.OptionsUpdate
	if cmd.Flags().Changed("min-confidence") {
		v := mustGetFloat64(cmd, "min-confidence")
		u.DetectionConfidenceThreshold = &v
	}
	if cmd.Flags().Changed("match-threshold") {
		v := mustGetFloat64(cmd, "match-threshold")
		u.MatchConfidenceThreshold = &v
	}
	if cmd.Flags().Changed("min-face-size") {
		v := mustGetInt(cmd, "min-face-size")
		u.MinFaceSize = &v
	}
	if cmd.Flags().Changed("max-faces") {
		v := mustGetInt(cmd, "max-faces")
		u.MaxFacesPerImage = &v
	}
	return u
}

func runRecognize(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	startTime := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Load()
	if n := mustGetInt(cmd, "concurrency"); n > 0 {
		cfg.Concurrency = n
	}
	pipeline, cleanup, err := openPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := pipeline.Configure(optionsFromFlags(cmd)); err != nil {
		return err
	}

	paths, err := recognition.CollectImages(args, mustGetBool(cmd, "recursive"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		if jsonOutput {
			return outputJSON(RecognizeOutput{Results: []database.DetectionResult{}})
		}
		fmt.Println("No supported images found.")
		return nil
	}

	// Create progress bar (only for non-JSON output)
	var bar *progressbar.ProgressBar
	var onProgress recognition.ProgressFunc
	if !jsonOutput && len(paths) > 1 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("Recognizing faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
		onProgress = func(processed, _ int) { _ = bar.Set(processed) }
	}

	results, err := pipeline.RecognizeBatch(ctx, paths, onProgress)
	cancelled := errors.Is(err, context.Canceled)
	if err != nil && !cancelled {
		return err
	}
	if bar != nil {
		fmt.Println()
	}

	out := summarize(results)
	out.Files = len(paths)
	out.Cancelled = cancelled
	out.DurationMs = time.Since(startTime).Milliseconds()

	if jsonOutput {
		return outputJSON(out)
	}

	printResults(results)
	fmt.Printf("\nFiles: %d  Faces: %d  Matched: %d  Failed: %d  (%s)\n",
		len(results), out.Faces, out.Matched, out.Failed, formatDuration(time.Since(startTime)))
	if cancelled {
		fmt.Printf("Interrupted after %d of %d files\n", len(results), len(paths))
	}
	return nil
}

func summarize(results []database.DetectionResult) RecognizeOutput {
	out := RecognizeOutput{Results: results}
	for i := range results {
		if results[i].Failed() {
			out.Failed++
			continue
		}
		out.Faces += len(results[i].Faces)
		for _, f := range results[i].Faces {
			if f.PersonID != "" {
				out.Matched++
			}
		}
	}
	return out
}

func printResults(results []database.DetectionResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tFACE\tBBOX\tCONFIDENCE\tPERSON\tMATCH")
	fmt.Fprintln(w, "----\t----\t----\t----------\t------\t-----")

	for i := range results {
		r := &results[i]
		if r.Failed() {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%s: %s\t-\n", r.FilePath, r.ErrorKind, r.Error)
			continue
		}
		if len(r.Faces) == 0 {
			fmt.Fprintf(w, "%s\t-\t-\t-\tno faces\t-\n", r.FilePath)
			continue
		}
		for j, f := range r.Faces {
			person, match := "unknown", "-"
			if f.PersonID != "" {
				person = f.PersonName
				match = fmt.Sprintf("%.3f", f.MatchConfidence)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\t%s\t%s\n", r.FilePath, j+1, formatBBox(f.BBox), f.Confidence, person, match)
		}
	}

	w.Flush()
}

func formatBBox(bbox []float64) string {
	parts := make([]string, len(bbox))
	for i, v := range bbox {
		parts[i] = fmt.Sprintf("%.0f", v)
	}
	return strings.Join(parts, ",")
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
