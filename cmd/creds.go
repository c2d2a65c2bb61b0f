package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/tee-scheduler/internal/config"
	"github.com/example/tee-scheduler/internal/creds"
)

func newCredsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Manage booking-site credentials (sealed at rest)",
	}
	cmd.AddCommand(newCredsSetCmd())
	return cmd
}

func newCredsSetCmd() *cobra.Command {
	var username, password string

	c := &cobra.Command{
		Use:   "set",
		Short: "Seal and store the booking-site login",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			key, err := creds.DeriveKey(cfg.CredPassphrase, cfg.CredSalt)
			if err != nil {
				return fmt.Errorf("credential key: %w (set TEESCHED_CRED_PASSPHRASE and TEESCHED_CRED_SALT)", err)
			}
			sealer, err := creds.NewSealer(key)
			if err != nil {
				return err
			}
			sealed, err := sealer.Seal(creds.Credentials{Username: username, Password: password})
			if err != nil {
				return err
			}

			st, closeDB, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := st.SaveCredentials(cmd.Context(), "default", sealed); err != nil {
				return err
			}
			fmt.Println("credentials sealed and stored")
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "booking site username")
	c.Flags().StringVar(&password, "password", "", "booking site password")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}
