package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"showroom-workers/internal/common/database"
	"showroom-workers/internal/models"
	"showroom-workers/internal/survey"
)

func newSurveyCmd() *cobra.Command {
	surveyCmd := &cobra.Command{
		Use:   "survey",
		Short: "Work with stored survey responses",
	}

	surveyCmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List the survey categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), models.SurveyCategories)
			}
			for _, c := range models.SurveyCategories {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	})

	surveyCmd.AddCommand(&cobra.Command{
		Use:   "prompt <surveyId>",
		Short: "Print the chat prompt built from a stored survey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			defer pg.Close()

			repo := survey.NewRepository(pg.DB, nil, 0)
			return runSurveyPrompt(cmd.Context(), cmd.OutOrStdout(), repo, args[0])
		},
	})

	return surveyCmd
}

type surveyPrompt struct {
	SurveyID string `json:"surveyId"`
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
}

func runSurveyPrompt(ctx context.Context, out io.Writer, repo *survey.Repository, id string) error {
	resp, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	prompt := survey.BuildPrompt(*resp)
	if jsonOutput {
		return printJSON(out, surveyPrompt{SurveyID: resp.ID, Category: resp.Category, Prompt: prompt})
	}
	return markdown(out, prompt)
}
