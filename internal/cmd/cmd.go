// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

const (
	loadCmdUsage = "load"
	loadCmdShort = "load the OULAD CSV files into the configured destination"
	loadCmdLong  = `Load the Open University Learning Analytics Dataset into a database.

	The six OULAD tables are read from the data directory and loaded one at a time,
	in a fixed order, appending their rows to the destination dataset:
	student_info, student_assessment, courses, vle, student_registration, assessments.

	The load stops at the first failing dataset: the datasets already loaded are kept
	and the remaining ones are not attempted.

	Destination credentials are read from environment variables; a .env file in the
	working directory is loaded when present.`

	loadCmdExample = `# Load the files mounted in the default directory into ClickHouse
	oulad-loader

	# Load a local copy of the dataset into PostgreSQL
	oulad-loader --data-dir ./data --destination postgres

	# Print the normalized rows instead of writing them
	oulad-loader --destination stdout --dev-mode`
)

// LoadCmd returns the Cobra command that loads the OULAD datasets.
func LoadCmd() *cobra.Command {
	flags := &flags{}
	cmd := &cobra.Command{
		Use:     loadCmdUsage,
		Short:   heredoc.Doc(loadCmdShort),
		Long:    heredoc.Doc(loadCmdLong),
		Example: heredoc.Doc(loadCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return handleError(cmd, err)
			}
			return nil
		},
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.toOptions()
			if err != nil {
				return handleError(cmd, err)
			}

			if err := opts.validate(); err != nil {
				return handleError(cmd, err)
			}

			if err := opts.execute(cmd.Context(), cmd.OutOrStdout()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}
