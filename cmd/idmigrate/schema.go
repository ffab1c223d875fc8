package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/idmigrate/bootstrap"
	"github.com/kbukum/idmigrate/database/migration"
	"github.com/kbukum/idmigrate/store"
)

func newSchemaCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the destination schema",
	}

	cmd.AddCommand(
		schemaSubcommand(root, "up", "Apply all pending schema migrations", func(_ context.Context, rt *runtime, m *migration.Migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			return addSchemaVersion(rt, m)
		}),
		schemaSubcommand(root, "down", "Roll back every schema migration (destroys data)", func(_ context.Context, rt *runtime, m *migration.Migrator) error {
			if err := m.Down(); err != nil {
				return err
			}
			return addSchemaVersion(rt, m)
		}),
		schemaSubcommand(root, "version", "Print the applied schema version", func(_ context.Context, rt *runtime, m *migration.Migrator) error {
			return addSchemaVersion(rt, m)
		}),
	)
	return cmd
}

func schemaSubcommand(root *rootOptions, use, short string, action func(context.Context, *runtime, *migration.Migrator) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			rt, err := newRuntime(cfg, false, bootstrap.WithOutput(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			return rt.app.RunTask(cmd.Context(), func(ctx context.Context) error {
				m, err := store.NewSchemaMigrator(rt.db.DB())
				if err != nil {
					return err
				}
				return action(ctx, rt, m)
			})
		},
	}
}

func addSchemaVersion(rt *runtime, m *migration.Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	rt.app.Summary.AddResult("Schema version", v, !dirty)
	if dirty {
		rt.app.Summary.AddResult("Dirty", dirty, false)
	}
	return nil
}
