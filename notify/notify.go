// Package notify publishes workflow outcomes back to the submitting chat
// surface over NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/reqflow/agent"
	"github.com/c360studio/reqflow/workflow"
)

// Response types presented to the chat surface.
const (
	ResponseTypeResult = "result"
	ResponseTypeError  = "error"
	ResponseTypeStatus = "status"
)

// UserResponse is the notification payload published per submission.
type UserResponse struct {
	ResponseID  string    `json:"response_id"`
	ChannelType string    `json:"channel_type"`
	ChannelID   string    `json:"channel_id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher is the transport seam, satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Notifier formats and publishes user notifications.
type Notifier struct {
	publisher Publisher
	logger    *slog.Logger
}

// New builds a Notifier. A nil publisher disables publishing.
func New(publisher Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{publisher: publisher, logger: logger}
}

// NotifyResult publishes the outcome of one execution to the submitter's
// channel. Submissions without channel coordinates are skipped.
func (n *Notifier) NotifyResult(ctx context.Context, input *agent.RequirementInput, result *workflow.Result) error {
	if n.publisher == nil || input == nil || input.ChannelType == "" || input.ChannelID == "" {
		return nil
	}

	responseType := ResponseTypeResult
	if !result.Success {
		responseType = ResponseTypeError
	}

	response := UserResponse{
		ResponseID:  uuid.New().String(),
		ChannelType: input.ChannelType,
		ChannelID:   input.ChannelID,
		UserID:      input.UserID,
		Type:        responseType,
		Content:     FormatResult(result),
		Timestamp:   time.Now(),
	}

	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	subject := fmt.Sprintf("user.response.%s.%s", input.ChannelType, input.ChannelID)
	if err := n.publisher.Publish(subject, data); err != nil {
		return fmt.Errorf("publish response: %w", err)
	}

	n.logger.Info("published user notification",
		"subject", subject,
		"type", responseType)
	return nil
}

// FormatResult renders a workflow result for chat presentation.
func FormatResult(result *workflow.Result) string {
	if result.Success {
		return formatSuccess(result)
	}
	if result.Validation != nil && !result.Validation.IsValid {
		return formatValidationFailure(result.Validation)
	}
	return fmt.Sprintf(`**Requirement Processing Failed**

Something went wrong while processing your submission: %s

Please try again, or contact the requirements team if the problem persists.`, result.Error)
}

func formatSuccess(result *workflow.Result) string {
	var b strings.Builder
	b.WriteString("**Requirement Processed**\n\n")

	link := func(name, url string) {
		if url != "" {
			fmt.Fprintf(&b, "- %s: %s\n", name, url)
		} else {
			fmt.Fprintf(&b, "- %s: creation failed, see status for details\n", name)
		}
	}
	link("PRD document", result.Links.DocumentURL)
	link("Tracking ticket", result.Links.TicketURL)
	link("Design page", result.Links.DesignURL)
	return b.String()
}

func formatValidationFailure(v *agent.ValidationResult) string {
	var b strings.Builder
	b.WriteString("**Submission Needs More Detail**\n\n")
	b.WriteString(v.Feedback)
	b.WriteString("\n")

	if len(v.MissingFields) > 0 {
		fmt.Fprintf(&b, "\nMissing or too brief: %s\n", strings.Join(v.MissingFields, ", "))
	}
	if len(v.UnclearFields) > 0 {
		fmt.Fprintf(&b, "Needs clarification: %s\n", strings.Join(v.UnclearFields, ", "))
	}
	if len(v.Examples) > 0 {
		b.WriteString("\nExamples of good input:\n")
		for _, field := range v.MissingFields {
			if example, ok := v.Examples[field]; ok {
				fmt.Fprintf(&b, "- %s: %s\n", field, example)
			}
		}
	}
	return b.String()
}
