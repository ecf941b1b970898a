package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bemfst/portal/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		baseURL    string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI specification",
		Long:  `Generate the OpenAPI 3.1 document describing the portal API without starting the server.`,
		Example: `  portal openapi                                  # print to stdout
  portal openapi --base-url https://api.bemfst.id -o openapi.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := openapi.Generate(baseURL, versionString())
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("encode openapi: %w", err)
			}
			data = append(data, '\n')

			if outputFile == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outputFile, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", outputFile, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "Server URL listed in the document")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout")

	return cmd
}
