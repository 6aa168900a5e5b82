package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"go.uber.org/zap"
)

// fallbackPrices covers the instance types verification runs actually use,
// for when the Pricing API is unreachable or the account lacks access
var fallbackPrices = map[string]float64{
	"m5.large":   0.096,
	"m5.xlarge":  0.192,
	"m5.2xlarge": 0.384,
	"c5.xlarge":  0.17,
	"c5.2xlarge": 0.34,
}

// regionNames maps region codes to the location names the Pricing API wants
var regionNames = map[string]string{
	"us-east-1": "US East (N. Virginia)",
	"us-east-2": "US East (Ohio)",
	"us-west-1": "US West (N. California)",
	"us-west-2": "US West (Oregon)",
	"eu-west-1": "EU (Ireland)",
}

// OnDemandPrice returns the hourly on-demand USD price for the client's
// instance type, falling back to a static table when the API lookup fails
func (c *Client) OnDemandPrice(ctx context.Context) float64 {
	price, err := c.fetchOnDemandPrice(ctx)
	if err != nil {
		c.logger.Warn("pricing lookup failed, using fallback table",
			zap.String("instance_type", c.instanceType),
			zap.Error(err))
		return fallbackPrices[c.instanceType]
	}
	return price
}

func (c *Client) fetchOnDemandPrice(ctx context.Context) (float64, error) {
	location, ok := regionNames[c.region]
	if !ok {
		return 0, fmt.Errorf("no pricing location for region %s", c.region)
	}

	result, err := c.pricingClient.GetProducts(ctx, &pricing.GetProductsInput{
		ServiceCode: aws.String("AmazonEC2"),
		MaxResults:  aws.Int32(1),
		Filters: []pricingtypes.Filter{
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("instanceType"), Value: aws.String(c.instanceType)},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("location"), Value: aws.String(location)},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("operatingSystem"), Value: aws.String("Linux")},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("tenancy"), Value: aws.String("Shared")},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("preInstalledSw"), Value: aws.String("NA")},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("capacitystatus"), Value: aws.String("Used")},
		},
	})
	if err != nil {
		return 0, err
	}
	if len(result.PriceList) == 0 {
		return 0, fmt.Errorf("no price found for %s in %s", c.instanceType, c.region)
	}

	return parseOnDemandUSD([]byte(result.PriceList[0]))
}

// parseOnDemandUSD digs the USD-per-hour figure out of one price list entry
func parseOnDemandUSD(priceList []byte) (float64, error) {
	var entry struct {
		Terms struct {
			OnDemand map[string]struct {
				PriceDimensions map[string]struct {
					PricePerUnit struct {
						USD string `json:"USD"`
					} `json:"pricePerUnit"`
				} `json:"priceDimensions"`
			} `json:"OnDemand"`
		} `json:"terms"`
	}
	if err := json.Unmarshal(priceList, &entry); err != nil {
		return 0, fmt.Errorf("failed to parse price list entry: %w", err)
	}

	for _, term := range entry.Terms.OnDemand {
		for _, dim := range term.PriceDimensions {
			var usd float64
			if _, err := fmt.Sscanf(dim.PricePerUnit.USD, "%f", &usd); err != nil {
				continue
			}
			return usd, nil
		}
	}
	return 0, fmt.Errorf("price list entry has no on-demand USD dimension")
}
