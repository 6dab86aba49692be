package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/usr-ein/learn-n-recognize/registry"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the enrolled subjects",
	Long:  `List the subjects stored in the registry. Use subcommands to enroll new ones.`,
	Args:  cobra.NoArgs,
	RunE:  runSubjectsList,
}

var subjectsAddCmd = &cobra.Command{
	Use:   "add [name...]",
	Short: "Enroll subjects without learning their faces",
	Long: `Enroll one or more subjects. Their faces can be learned later by picking
the subject id when learning starts.

Example:
  learnrec subjects add alice
  learnrec subjects add alice bob`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSubjectsAdd,
}

func init() {
	rootCmd.AddCommand(subjectsCmd)
	subjectsCmd.AddCommand(subjectsAddCmd)
}

func openRegistry(cmd *cobra.Command) (*registry.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return registry.Open(cmd.Context(), cfg.Registry.Driver, cfg.Registry.DSN)
}

func runSubjectsList(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()

	subjects, err := reg.Subjects(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list subjects: %w", err)
	}
	if len(subjects) == 0 {
		fmt.Println("No subject enrolled yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, s := range subjects {
		fmt.Fprintf(w, "%d\t%s\n", s.ID, s.Name)
	}
	return w.Flush()
}

func runSubjectsAdd(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()

	for _, name := range args {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		s, err := reg.Insert(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("failed to enroll %q: %w", name, err)
		}
		fmt.Printf("Enrolled %s\n", s)
	}
	return nil
}
