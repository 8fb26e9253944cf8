package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkeller/loregate/internal/core/auth"
	"github.com/pkeller/loregate/internal/core/config"
	"github.com/pkeller/loregate/internal/core/db"
)

var (
	keysName     string
	keysSecretID string
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Mint a new API key",
	Long: `Create generates an API key under a configured HMAC secret and stores
its hash. The plaintext key is printed exactly once and cannot be recovered.`,
	RunE: runKeysCreate,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysRevoke,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd)
	keysCmd.AddCommand(keysRevokeCmd)
	keysCreateCmd.Flags().StringVar(&keysName, "name", "", "human-readable key label (required)")
	keysCreateCmd.Flags().StringVar(&keysSecretID, "secret-id", "", "secret to sign with (defaults to the only configured secret)")
	keysCreateCmd.MarkFlagRequired("name")
}

// newAuthenticator wires config secrets and the key queries together for the
// key management commands.
func newAuthenticator() (*auth.Authenticator, map[string][]byte, func(), error) {
	secrets, err := config.HMACSecrets()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return nil, nil, nil, fmt.Errorf("no HMAC secrets configured (set LG_HMAC_SECRET environment variable)")
	}

	database, err := openDatabase()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}

	return auth.NewAuthenticator(secrets, queries), secrets, func() { database.Close() }, nil
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	authenticator, secrets, closeDB, err := newAuthenticator()
	if err != nil {
		return err
	}
	defer closeDB()

	if keysSecretID == "" {
		if len(secrets) > 1 {
			return fmt.Errorf("multiple secrets configured, pass --secret-id")
		}
		for id := range secrets {
			keysSecretID = id
		}
	}

	apiKey, keyID, err := authenticator.CreateKey(keysSecretID, keysName)
	if err != nil {
		return fmt.Errorf("failed to create key: %w", err)
	}

	fmt.Printf("key id:  %s\n", keyID)
	fmt.Printf("api key: %s\n", apiKey)
	fmt.Println("store the api key now; it is not recoverable")
	return nil
}

func runKeysRevoke(cmd *cobra.Command, args []string) error {
	authenticator, _, closeDB, err := newAuthenticator()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := authenticator.RevokeKey(args[0]); err != nil {
		return err
	}
	fmt.Printf("revoked %s\n", args[0])
	return nil
}
