package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-recognizer/internal/config"
	"github.com/kozaktomas/face-recognizer/internal/database"
	"github.com/kozaktomas/face-recognizer/internal/recognition"
)

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "Manage the known people",
}

var peopleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known people",
	Args:  cobra.NoArgs,
	RunE:  runPeopleList,
}

var peopleShowCmd = &cobra.Command{
	Use:   "show <person-id>",
	Short: "Show a person with its exemplar faces",
	Args:  cobra.ExactArgs(1),
	RunE:  runPeopleShow,
}

var peopleAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a person, or update the one with the same name",
	Long: `Create a person, or update the one with the same name.
Names are compared case-insensitively after trimming whitespace.

Examples:
  face-recognizer people add "Alice Smith" --favorite
  face-recognizer people add alice --notes "Met at conference"`,
	Args: cobra.ExactArgs(1),
	RunE: runPeopleAdd,
}

var peopleRenameCmd = &cobra.Command{
	Use:   "rename <person-id> <name>",
	Short: "Change a person's display name",
	Args:  cobra.ExactArgs(2),
	RunE:  runPeopleRename,
}

var peopleDeleteCmd = &cobra.Command{
	Use:   "delete <person-id>",
	Short: "Delete a person and its stored face samples",
	Args:  cobra.ExactArgs(1),
	RunE:  runPeopleDelete,
}

func init() {
	rootCmd.AddCommand(peopleCmd)
	peopleCmd.AddCommand(peopleListCmd, peopleShowCmd, peopleAddCmd, peopleRenameCmd, peopleDeleteCmd)

	peopleListCmd.Flags().Bool("json", false, "Output as JSON")
	peopleListCmd.Flags().Bool("all", false, "Include hidden people")

	peopleAddCmd.Flags().String("notes", "", "Free-form notes")
	peopleAddCmd.Flags().Bool("favorite", false, "Mark as favorite")
	peopleAddCmd.Flags().Bool("hidden", false, "Hide from listings")
}

// withPipeline opens the pipeline for a short-lived registry command.
func withPipeline(fn func(ctx context.Context, p *recognition.Pipeline) error) error {
	ctx := context.Background()
	pipeline, cleanup, err := openPipeline(ctx, config.Load())
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, pipeline)
}

func runPeopleList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	all := mustGetBool(cmd, "all")

	return withPipeline(func(_ context.Context, p *recognition.Pipeline) error {
		people := p.ListPeople()
		if !all {
			visible := people[:0]
			for _, person := range people {
				if !person.Hidden {
					visible = append(visible, person)
				}
			}
			people = visible
		}

		if jsonOutput {
			return outputJSON(people)
		}
		if len(people) == 0 {
			fmt.Println("No people found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tFACES\tIMAGES\tMODIFIED")
		fmt.Fprintln(w, "--\t----\t-----\t------\t--------")
		for i := range people {
			name := people[i].Name
			if people[i].Favorite {
				name += " *"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", people[i].ID, name, len(people[i].Exemplars),
				people[i].ImageCount, people[i].ModifiedAt.Local().Format("2006-01-02 15:04"))
		}
		w.Flush()

		fmt.Printf("\nTotal: %d people\n", len(people))
		return nil
	})
}

func runPeopleShow(cmd *cobra.Command, args []string) error {
	return withPipeline(func(_ context.Context, p *recognition.Pipeline) error {
		person, ok := p.GetPerson(args[0])
		if !ok {
			return fmt.Errorf("person %s: %w", args[0], database.ErrNotFound)
		}
		return outputJSON(person)
	})
}

func runPeopleAdd(cmd *cobra.Command, args []string) error {
	var fields database.PersonFields
	if cmd.Flags().Changed("notes") {
		notes := mustGetString(cmd, "notes")
		fields.Notes = &notes
	}
	if cmd.Flags().Changed("favorite") {
		favorite := mustGetBool(cmd, "favorite")
		fields.Favorite = &favorite
	}
	if cmd.Flags().Changed("hidden") {
		hidden := mustGetBool(cmd, "hidden")
		fields.Hidden = &hidden
	}

	return withPipeline(func(ctx context.Context, p *recognition.Pipeline) error {
		person, err := p.CreateOrUpdatePerson(ctx, args[0], fields)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", person.ID, person.Name)
		return nil
	})
}

func runPeopleRename(cmd *cobra.Command, args []string) error {
	return withPipeline(func(ctx context.Context, p *recognition.Pipeline) error {
		person, err := p.RenamePerson(ctx, args[0], args[1])
		if errors.Is(err, database.ErrNameTaken) {
			return fmt.Errorf("another person is already called %q", args[1])
		}
		if err != nil {
			return err
		}
		fmt.Printf("Renamed %s to %s\n", person.ID, person.Name)
		return nil
	})
}

func runPeopleDelete(cmd *cobra.Command, args []string) error {
	return withPipeline(func(ctx context.Context, p *recognition.Pipeline) error {
		ok, err := p.DeletePerson(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("person %s: %w", args[0], database.ErrNotFound)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	})
}
