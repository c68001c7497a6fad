package main

import (
	"github.com/spf13/cobra"

	"github.com/BennettSmith/insurance-intake-api/internal/client"
	"github.com/BennettSmith/insurance-intake-api/internal/platform/config"
)

type rootOptions struct {
	apiURL string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "intakectl",
		Short:         "Manage and fill in insurance applications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "intake API base URL (overrides INTAKE_API_URL)")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newApplicationCmd(opts))
	cmd.AddCommand(newWizardCmd(opts))
	return cmd
}

// clientConfig loads the client settings and applies flag overrides.
func (o *rootOptions) clientConfig() (config.ClientConfig, error) {
	cfg, err := config.LoadClientConfigFromEnv()
	if err != nil {
		return config.ClientConfig{}, err
	}
	if o.apiURL != "" {
		cfg.APIURL = o.apiURL
	}
	return cfg, nil
}

func (o *rootOptions) newClient() (*client.Client, config.ClientConfig, error) {
	cfg, err := o.clientConfig()
	if err != nil {
		return nil, config.ClientConfig{}, err
	}
	return client.New(cfg.APIURL, nil, cfg.Timeout), cfg, nil
}
