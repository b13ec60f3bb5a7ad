package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/shopwatch/internal/utils"
	"github.com/sw33tLie/shopwatch/pkg/diff"
	"github.com/sw33tLie/shopwatch/pkg/notify"
	"github.com/sw33tLie/shopwatch/pkg/polling"
	"github.com/sw33tLie/shopwatch/pkg/pricing"
	"github.com/sw33tLie/shopwatch/pkg/report"
	"github.com/sw33tLie/shopwatch/pkg/shop"
	"github.com/sw33tLie/shopwatch/pkg/storage"
	"github.com/sw33tLie/shopwatch/pkg/whttp"
)

var ErrMissingConfig = errors.New("missing required configuration")

type settings struct {
	ShopURL         string
	SlackWebhookURL string
	NtfyURL         string
	SlackGroupID    string
}

func loadSettings(needDelivery bool) (*settings, error) {
	s := &settings{
		ShopURL:         viper.GetString("shop_url"),
		SlackWebhookURL: viper.GetString("slack_webhook_url"),
		NtfyURL:         viper.GetString("ntfy_url"),
		SlackGroupID:    viper.GetString("slack_group_id"),
	}

	var missing []string
	if s.ShopURL == "" {
		missing = append(missing, "shop_url")
	}
	if needDelivery {
		if s.SlackWebhookURL == "" {
			missing = append(missing, "slack_webhook_url")
		}
		if s.NtfyURL == "" {
			missing = append(missing, "ntfy_url")
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (set them in ~/.shopwatch.yaml or as upper-case env vars)", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return s, nil
}

// loadPrices combines the inline real_prices section with real_prices_file.
// Inline entries take precedence.
func loadPrices() (diff.PriceLookup, error) {
	inline := map[string]float64{}
	if err := viper.UnmarshalKey("real_prices", &inline); err != nil {
		return nil, fmt.Errorf("parsing real_prices: %w", err)
	}
	folded := pricing.Folded{}
	for id, v := range inline {
		if v < 0 {
			return nil, fmt.Errorf("real price for %s is negative: %v", id, v)
		}
		folded[strings.ToLower(id)] = v
	}

	chain := pricing.Chain{folded}
	if path := viper.GetString("real_prices_file"); path != "" {
		table, err := pricing.LoadFile(path)
		if err != nil {
			return nil, err
		}
		chain = append(chain, table)
	}
	utils.Log.Debugf("Loaded %d inline real prices", len(folded))
	return chain, nil
}

// cycleDeps owns the resources a runner needs; Close releases them.
type cycleDeps struct {
	Runner *polling.Runner
	DB     *storage.DB
}

func (d *cycleDeps) Close() error {
	return d.DB.Close()
}

func buildRunner(cmd *cobra.Command, dryRun bool) (*cycleDeps, error) {
	s, err := loadSettings(!dryRun)
	if err != nil {
		return nil, err
	}
	prices, err := loadPrices()
	if err != nil {
		return nil, err
	}

	proxy, _ := cmd.Flags().GetString("proxy")
	client, err := whttp.NewClient(proxy, utils.Log)
	if err != nil {
		return nil, err
	}

	fetcher, err := shop.NewClient(s.ShopURL, client)
	if err != nil {
		return nil, err
	}

	dbPath, _ := cmd.Flags().GetString("dbpath")
	dbPath = utils.ResolveDBPath(dbPath)
	lock, err := utils.NewDBLock(dbPath)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}

	runner := polling.NewRunner(polling.Config{
		Fetcher:   fetcher,
		Store:     db,
		Notifiers: buildNotifiers(s, client),
		Prices:    prices,
		Lock:      lock,
		Log:       utils.Log,
		DryRun:    dryRun,
	})
	return &cycleDeps{Runner: runner, DB: db}, nil
}

func buildNotifiers(s *settings, client *retryablehttp.Client) []notify.Notifier {
	var notifiers []notify.Notifier
	if s.SlackWebhookURL != "" {
		footer := report.Footer{Version: version, Group: s.SlackGroupID}
		notifiers = append(notifiers, notify.NewSlack(s.SlackWebhookURL, footer, client))
	}
	if s.NtfyURL != "" {
		notifiers = append(notifiers, notify.NewNtfy(s.NtfyURL, shop.SiteName(s.ShopURL), client))
	}
	return notifiers
}
