package commands

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/catherinevee/starfleet/internal/logging"
	"github.com/catherinevee/starfleet/internal/registry"
	"github.com/catherinevee/starfleet/internal/sfconfig"
)

func validateCmd() *cobra.Command {
	var checkCredentials bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate configuration and every discovered worker's configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := sfconfig.NewManager(configDir)
			if err != nil {
				return err
			}
			doc := manager.Get()

			reg, err := registry.Discover(doc, func() map[string]struct{} { return map[string]struct{}{} }, logging.Nop())
			if err != nil {
				return err
			}

			fmt.Printf("configuration OK: deployment region %s, template bucket %s, %d worker(s) enabled\n",
				doc.Starfleet.DeploymentRegion, doc.Starfleet.TemplateBucket, len(reg.All()))

			if checkCredentials {
				if err := checkAWSCredentials(cmd.Context(), doc.Starfleet.DeploymentRegion); err != nil {
					return fmt.Errorf("credential sanity check failed: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&checkCredentials, "check-credentials", false, "Also confirm AWS credentials resolve via STS GetCallerIdentity")
	return cmd
}

// checkAWSCredentials confirms the credential chain the core's AWS clients
// will use at runtime actually resolves to a usable identity, before an
// operator hands a configuration off to deployment.
func checkAWSCredentials(ctx context.Context, region string) error {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}

	client := sts.NewFromConfig(cfg)
	identity, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("calling GetCallerIdentity: %w", err)
	}

	fmt.Printf("AWS identity OK: account %s, arn %s\n", awsString(identity.Account), awsString(identity.Arn))
	return nil
}

func awsString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
