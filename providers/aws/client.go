package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"go.uber.org/zap"
)

// agentPort is the port the node agent AMI serves the node API on
const agentPort = 7070

// Client provisions EC2 hosts that run the cluster node agent. It implements
// the host provider used by cluster formation when NODE_PROVIDER=aws.
type Client struct {
	ec2Client     *ec2.Client
	pricingClient *pricing.Client
	region        string
	instanceType  string
	logger        *zap.Logger

	launched []string // instance IDs to terminate at teardown
}

// NewClient creates a new AWS host provider client
func NewClient(ctx context.Context, region, instanceType string, logger *zap.Logger) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &Client{
		ec2Client:     ec2.NewFromConfig(cfg),
		pricingClient: pricing.NewFromConfig(cfg),
		region:        region,
		instanceType:  instanceType,
		logger:        logger,
	}, nil
}

// Provision launches count instances from the node agent AMI and returns
// their node API base addresses once every instance is running
func (c *Client) Provision(ctx context.Context, count int, tlsActive bool) ([]string, error) {
	amiID, err := c.findAgentAMI(ctx)
	if err != nil {
		return nil, err
	}

	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(amiID),
		InstanceType: types.InstanceType(c.instanceType),
		MinCount:     aws.Int32(int32(count)),
		MaxCount:     aws.Int32(int32(count)),
		TagSpecifications: []types.TagSpecification{
			{
				ResourceType: types.ResourceTypeInstance,
				Tags: []types.Tag{
					{Key: aws.String("Name"), Value: aws.String("grid-harness-node")},
					{Key: aws.String("ManagedBy"), Value: aws.String("grid-harness")},
				},
			},
		},
	}

	result, err := c.ec2Client.RunInstances(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to launch node hosts: %w", err)
	}

	for _, instance := range result.Instances {
		c.launched = append(c.launched, *instance.InstanceId)
	}
	c.logger.Info("launched node hosts",
		zap.Int("count", len(c.launched)),
		zap.String("instance_type", c.instanceType))

	ips, err := c.awaitRunning(ctx, c.launched)
	if err != nil {
		return nil, err
	}

	scheme := "http"
	if tlsActive {
		scheme = "https"
	}
	addrs := make([]string, len(ips))
	for i, ip := range ips {
		addrs[i] = fmt.Sprintf("%s://%s:%d", scheme, ip, agentPort)
	}
	return addrs, nil
}

// Terminate tears down every instance this client launched
func (c *Client) Terminate(ctx context.Context) error {
	if len(c.launched) == 0 {
		return nil
	}
	_, err := c.ec2Client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: c.launched,
	})
	if err != nil {
		return fmt.Errorf("failed to terminate node hosts: %w", err)
	}
	c.logger.Info("terminated node hosts", zap.Int("count", len(c.launched)))
	c.launched = nil
	return nil
}

// findAgentAMI locates the newest node agent AMI owned by this account
func (c *Client) findAgentAMI(ctx context.Context) (string, error) {
	result, err := c.ec2Client.DescribeImages(ctx, &ec2.DescribeImagesInput{
		Owners: []string{"self"},
		Filters: []types.Filter{
			{Name: aws.String("name"), Values: []string{"grid-harness-node-*"}},
			{Name: aws.String("state"), Values: []string{"available"}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to look up node agent ami: %w", err)
	}
	if len(result.Images) == 0 {
		return "", fmt.Errorf("no grid-harness-node ami available in %s", c.region)
	}

	newest := result.Images[0]
	for _, image := range result.Images[1:] {
		if aws.ToString(image.CreationDate) > aws.ToString(newest.CreationDate) {
			newest = image
		}
	}
	return aws.ToString(newest.ImageId), nil
}

// awaitRunning polls until every instance is running with a private IP
func (c *Client) awaitRunning(ctx context.Context, instanceIDs []string) ([]string, error) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		result, err := c.ec2Client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
			InstanceIds: instanceIDs,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to describe node hosts: %w", err)
		}

		var ips []string
		ready := true
		for _, reservation := range result.Reservations {
			for _, instance := range reservation.Instances {
				if instance.State.Name != types.InstanceStateNameRunning || instance.PrivateIpAddress == nil {
					ready = false
					continue
				}
				ips = append(ips, *instance.PrivateIpAddress)
			}
		}
		if ready && len(ips) == len(instanceIDs) {
			return ips, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("node hosts not running before deadline: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
