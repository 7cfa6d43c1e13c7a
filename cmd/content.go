package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/madalingavanarescu/competeai/internal/model"
)

var contentType string

var contentCmd = &cobra.Command{
	Use:   "content <job-id>",
	Short: "Print the generated artifacts for a completed analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		contents, err := st.ListContent(ctx, args[0], model.ContentType(contentType))
		if err != nil {
			return eris.Wrap(err, "list content")
		}
		if len(contents) == 0 {
			return eris.New("no content found; the analysis may not be completed")
		}

		for i, c := range contents {
			if i > 0 {
				fmt.Println("\n---")
			}
			fmt.Printf("[%s]\n\n%s\n", c.ContentType, c.Content)
		}
		return nil
	},
}

func init() {
	contentCmd.Flags().StringVar(&contentType, "type", "", "artifact type (full_analysis|executive_summary|battle_card|insights)")
	rootCmd.AddCommand(contentCmd)
}
