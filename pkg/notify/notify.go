// Package notify delivers rendered change reports to external channels.
package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sw33tLie/shopwatch/pkg/report"
	"github.com/sw33tLie/shopwatch/pkg/whttp"
	"github.com/tidwall/sjson"
)

// Notifier delivers the reports of one cycle to a single channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, reports []string) error
}

// Slack posts a block payload to an incoming webhook.
type Slack struct {
	webhookURL string
	footer     report.Footer
	client     *retryablehttp.Client
}

func NewSlack(webhookURL string, footer report.Footer, client *retryablehttp.Client) *Slack {
	return &Slack{webhookURL: webhookURL, footer: footer, client: client}
}

func (s *Slack) Name() string { return "slack" }

// Notify posts one message per batch of reports, in order, and stops at the
// first rejected batch.
func (s *Slack) Notify(ctx context.Context, reports []string) error {
	payloads, err := SlackPayloads(reports, s.footer)
	if err != nil {
		return err
	}
	for i, payload := range payloads {
		err := post(ctx, s.client, s.webhookURL, []byte(payload), []whttp.WHTTPHeader{
			{Name: "Content-Type", Value: "application/json"},
		})
		if err != nil {
			return fmt.Errorf("message %d/%d: %w", i+1, len(payloads), err)
		}
	}
	return nil
}

// SlackPayloads splits the reports into messages that stay within Slack's
// block limits.
func SlackPayloads(reports []string, footer report.Footer) ([]string, error) {
	batches := report.Batch(reports, report.MaxReportsPerMessage)
	payloads := make([]string, 0, len(batches))
	for i, batch := range batches {
		f := footer
		f.Part, f.Parts = i+1, len(batches)
		payload, err := SlackPayload(batch, f)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

// SlackPayload builds the webhook body for a single message: a plain-text
// fallback plus blocks.
func SlackPayload(reports []string, footer report.Footer) (string, error) {
	truncated := make([]string, len(reports))
	for i, r := range reports {
		truncated[i] = report.Truncate(r, report.MaxSectionText)
	}
	payload, err := sjson.Set("", "text", report.PlainText(truncated, true))
	if err != nil {
		return "", err
	}
	return sjson.Set(payload, "blocks", report.Blocks(truncated, footer))
}

// Ntfy publishes the plain-text report to an ntfy topic URL.
type Ntfy struct {
	topicURL string
	title    string
	client   *retryablehttp.Client
}

// NewNtfy builds an ntfy notifier. site is shown in the notification title.
func NewNtfy(topicURL, site string, client *retryablehttp.Client) *Ntfy {
	title := report.Header
	if site != "" {
		title = "Changes detected at " + site
	}
	return &Ntfy{topicURL: topicURL, title: title, client: client}
}

func (n *Ntfy) Name() string { return "ntfy" }

func (n *Ntfy) Notify(ctx context.Context, reports []string) error {
	return post(ctx, n.client, n.topicURL, []byte(report.PlainText(reports, true)), []whttp.WHTTPHeader{
		{Name: "Content-Type", Value: "text/plain; charset=utf-8"},
		{Name: "Title", Value: n.title},
		{Name: "Tags", Value: "shopping_cart"},
		{Name: "Markdown", Value: "yes"},
	})
}

func post(ctx context.Context, client *retryablehttp.Client, url string, body []byte, headers []whttp.WHTTPHeader) error {
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method:  http.MethodPost,
		URL:     url,
		Body:    body,
		Headers: headers,
	}, client)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("webhook responded with status %d: %s", res.StatusCode, res.BodyString)
	}
	return nil
}
