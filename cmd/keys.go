package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate a TEESCHED_CRED_SALT value (base64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			salt := make([]byte, 32)
			if _, err := rand.Read(salt); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "export TEESCHED_CRED_SALT=%s\n", base64.StdEncoding.EncodeToString(salt))
			return nil
		},
	}
}
