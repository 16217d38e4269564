package main

import (
	"github.com/spf13/cobra"

	"github.com/bazaar/storefront-gateway/internal/infrastructure/config"
)

func rolesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Print the effective role-domain table as YAML",
		Long: `Print the role-domain table the gateway would use. Without --file the
built-in table is printed, which is a starting point for ROLES_FILE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			roles, err := config.LoadRoles(file)
			if err != nil {
				return err
			}
			out, err := config.MarshalRoles(roles)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Role table to validate and print")

	return cmd
}
