package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-recognizer/internal/recognition"
)

var facesCmd = &cobra.Command{
	Use:   "faces",
	Short: "Manage the exemplar faces of people",
}

var facesAssignCmd = &cobra.Command{
	Use:   "assign <person-id> <image>",
	Short: "Add a face from an image as an exemplar of a person",
	Long: `Add a face from an image as an exemplar of a person.

The image is recognized (using the detection cache) and the detected face that
overlaps --bbox the most is added. A cropped sample of the face is stored next
to the people registry and the first sample becomes the person's thumbnail.

Examples:
  face-recognizer faces assign 3f2a... group.jpg --bbox 120,80,220,190`,
	Args: cobra.ExactArgs(2),
	RunE: runFacesAssign,
}

var facesUnassignCmd = &cobra.Command{
	Use:   "unassign <person-id> <face-id>",
	Short: "Remove an exemplar face from a person",
	Args:  cobra.ExactArgs(2),
	RunE:  runFacesUnassign,
}

func init() {
	rootCmd.AddCommand(facesCmd)
	facesCmd.AddCommand(facesAssignCmd, facesUnassignCmd)

	facesAssignCmd.Flags().Float64Slice("bbox", nil, "Face box as x1,y1,x2,y2 in pixels (required)")
	_ = facesAssignCmd.MarkFlagRequired("bbox")
}

func runFacesAssign(cmd *cobra.Command, args []string) error {
	bbox := mustGetFloat64Slice(cmd, "bbox")

	return withPipeline(func(ctx context.Context, p *recognition.Pipeline) error {
		person, err := p.AssignFace(ctx, args[0], args[1], bbox, nil)
		if err != nil {
			return err
		}
		ex := person.Exemplars[len(person.Exemplars)-1]
		fmt.Printf("Added face %s to %s (%d exemplars)\n", ex.FaceID, person.Name, len(person.Exemplars))
		if ex.SamplePath != "" {
			fmt.Printf("  Sample: %s\n", ex.SamplePath)
		}
		return nil
	})
}

func runFacesUnassign(cmd *cobra.Command, args []string) error {
	return withPipeline(func(ctx context.Context, p *recognition.Pipeline) error {
		person, err := p.UnassignFace(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s now has %d exemplars\n", person.Name, len(person.Exemplars))
		return nil
	})
}
