package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/reqflow/agent"
	"github.com/c360studio/reqflow/notify"
	httpserver "github.com/c360studio/reqflow/server"
)

// submitCmd posts a requirement submission to a running reqflow service
// and prints the outcome.
func submitCmd() *cobra.Command {
	var (
		serverURL    string
		file         string
		need         string
		requirements string
		impact       string
		deliveryDate string
		campaignDate string
		contributors []string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a requirement to a running reqflow service",
		Long: `Submit reads a requirement from a JSON file (--file) or from flags
and posts it to the service. On success it prints the artifact links;
on validation failure it prints the feedback.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := buildInput(file, &agent.RequirementInput{
				BusinessNeed:   need,
				Requirements:   requirements,
				BusinessImpact: impact,
				DeliveryDate:   deliveryDate,
				CampaignDate:   campaignDate,
				Contributors:   contributors,
			})
			if err != nil {
				return err
			}
			return submit(cmd, serverURL, input)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Service base URL")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with the submission")
	cmd.Flags().StringVar(&need, "business-need", "", "Business need")
	cmd.Flags().StringVar(&requirements, "requirements", "", "Requirements text")
	cmd.Flags().StringVar(&impact, "business-impact", "", "Business impact")
	cmd.Flags().StringVar(&deliveryDate, "delivery-date", "", "Delivery date (MM/DD/YYYY)")
	cmd.Flags().StringVar(&campaignDate, "campaign-date", "", "Campaign date (MM/DD/YYYY)")
	cmd.Flags().StringSliceVar(&contributors, "contributor", nil, "Contributor (repeatable)")

	return cmd
}

func buildInput(file string, flags *agent.RequirementInput) (*agent.RequirementInput, error) {
	if file == "" {
		return flags, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read submission file: %w", err)
	}
	var input agent.RequirementInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse submission file: %w", err)
	}
	return &input, nil
}

func submit(cmd *cobra.Command, serverURL string, input *agent.RequirementInput) error {
	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Minute}
	url := strings.TrimSuffix(serverURL, "/") + "/api/requirements"
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("submit requirement: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var submitted httpserver.SubmitResponse
	if err := json.Unmarshal(body, &submitted); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Tracking ID: %s\n\n%s\n",
		submitted.ID, notify.FormatResult(submitted.Result))
	return nil
}
