package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"showroom-workers/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func newRegistryCmd() *cobra.Command {
	var path string
	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Maintain the activity registry",
	}
	registryCmd.PersistentFlags().StringVar(&path, "path", defaultRegistryPath, "Path to registry file")

	registryCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			return runRegistryList(cmd.OutOrStdout(), reg)
		},
	})

	registryCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the registry file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	})

	var field, value string
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update one field of an activity",
		Example: `  showroomctl registry update search-cars --field status --value verified
  showroomctl registry update await-comparison --field timeout --value 4m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			if err := reg.SetField(args[0], field, value); err != nil {
				return err
			}
			if err := reg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", args[0], field, value)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&field, "field", "", "Field to update (status, version, displayName, description, category, taskType, timeout, retries)")
	updateCmd.Flags().StringVar(&value, "value", "", "New value for the field")
	_ = updateCmd.MarkFlagRequired("field")
	_ = updateCmd.MarkFlagRequired("value")

	var a registry.Activity
	addCmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a new activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if errors.Is(err, fs.ErrNotExist) {
				reg = &registry.ActivityRegistry{Version: "1.0.0"}
			} else if err != nil {
				return err
			}

			a.ID = args[0]
			if a.TaskType == "" {
				a.TaskType = a.ID
			}
			if err := reg.Add(a); err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			if err := reg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", a.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&a.DisplayName, "display-name", "", "Display name")
	addCmd.Flags().StringVar(&a.Description, "description", "", "Description")
	addCmd.Flags().StringVar(&a.Category, "category", "", "Category (e.g. comparison)")
	addCmd.Flags().StringVar(&a.TaskType, "task-type", "", "Zeebe task type (defaults to the id)")
	addCmd.Flags().StringVar(&a.Version, "version", "1.0.0", "Version")
	addCmd.Flags().StringVar(&a.ImplementationStatus, "status", "planned", "Implementation status (planned, in-progress, completed, verified)")
	addCmd.Flags().StringVar(&a.Timeout, "timeout", "10s", "Job timeout")
	_ = addCmd.MarkFlagRequired("display-name")
	_ = addCmd.MarkFlagRequired("category")

	registryCmd.AddCommand(updateCmd, addCmd)
	return registryCmd
}

func runRegistryList(out io.Writer, reg *registry.ActivityRegistry) error {
	if jsonOutput {
		return printJSON(out, reg.Activities)
	}

	t := newTable("TASK TYPE", "CATEGORY", "STATUS", "TIMEOUT", "RETRIES")
	for _, a := range reg.Activities {
		t.Row(a.TaskType, a.Category, a.ImplementationStatus, a.Timeout, fmt.Sprint(a.Retries))
	}

	fmt.Fprintln(out, t.String())
	fmt.Fprintf(out, "version %s, updated %s\n", reg.Version, reg.LastUpdated)
	return nil
}
