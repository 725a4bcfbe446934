package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"ollgate-hq/ollgate/pkg/cli"
	"ollgate-hq/ollgate/pkg/security/auth"
)

var keysFlags struct {
	count   int
	salt    string
	keyFile string
	format  string
	append  bool
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
	Long: `Generate and inspect API keys for the proxy.

Key files are newline-delimited; each entry is either a plaintext key or a
salted SHA-256 hex digest. Storing digests keeps plaintext keys off disk:
clients keep the plaintext, the proxy only ever sees the digest form.

Subcommands:
  generate - Generate new random API keys
  hash     - Print the salted digest of existing keys
  list     - Summarize the entries of a key file

Examples:
  # Generate three keys and their digests
  ollgate keys generate --count 3 --salt "prod-salt"

  # Append the digests straight to the key file
  ollgate keys generate --salt "prod-salt" --key-file /api_keys.txt --append

  # Hash an existing key
  ollgate keys hash --salt "prod-salt" my-secret-key`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new API keys",
	Long: `Generate cryptographically random API keys.

The plaintext keys are printed once for distribution to clients. When a salt
is provided, the matching salted digests are printed alongside; with --append
the digests are appended to the key file so the plaintext never touches disk.`,
	RunE: generateKeys,
}

var keysHashCmd = &cobra.Command{
	Use:   "hash [keys...]",
	Short: "Print salted digests of keys",
	Long: `Print the salted SHA-256 digest for each given plaintext key.

The digest form is what belongs in the key file when storing plaintext keys
on disk is undesirable. The proxy must run with the same salt for the
digests to verify.`,
	Args: cobra.MinimumNArgs(1),
	RunE: hashKeys,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "Summarize a key file",
	Long:  `Summarize the entries of a key file without printing plaintext keys.`,
	RunE:  listKeys,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd, keysHashCmd, keysListCmd)

	keysCmd.PersistentFlags().StringVar(&keysFlags.salt, "salt", "", "salt used when hashing keys")
	keysCmd.PersistentFlags().StringVar(&keysFlags.keyFile, "key-file", "", "key file path")
	keysCmd.PersistentFlags().StringVar(&keysFlags.format, "format", "text", "output format: text, json")

	keysGenerateCmd.Flags().IntVarP(&keysFlags.count, "count", "n", 1, "number of keys to generate")
	keysGenerateCmd.Flags().BoolVar(&keysFlags.append, "append", false, "append digests to the key file")
}

// generatedKey pairs a plaintext key with its salted digest for output.
type generatedKey struct {
	Key    string `json:"key"`
	Digest string `json:"digest,omitempty"`
}

func generateKeys(cmd *cobra.Command, args []string) error {
	if keysFlags.count < 1 {
		return cli.NewConfigError("count", "must be at least 1")
	}
	if keysFlags.append && keysFlags.salt == "" {
		return cli.NewConfigError("salt", "required with --append, digests are salt-specific")
	}
	if keysFlags.append && keysFlags.keyFile == "" {
		return cli.NewConfigError("key-file", "required with --append")
	}

	generated := make([]generatedKey, 0, keysFlags.count)
	for i := 0; i < keysFlags.count; i++ {
		key, err := auth.NewRandomKey()
		if err != nil {
			return cli.NewCommandError("keys generate", err)
		}
		gk := generatedKey{Key: key}
		if keysFlags.salt != "" {
			gk.Digest = auth.SaltedDigest(key, keysFlags.salt)
		}
		generated = append(generated, gk)
	}

	formatter, err := cli.NewFormatter(cli.OutputFormat(keysFlags.format))
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	if err := formatter.FormatTo(os.Stdout, generated); err != nil {
		return cli.NewCommandError("keys generate", err)
	}

	if keysFlags.append {
		f, err := os.OpenFile(keysFlags.keyFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		if err != nil {
			return cli.NewCommandError("keys generate", err)
		}
		defer f.Close()
		for _, gk := range generated {
			if _, err := fmt.Fprintln(f, gk.Digest); err != nil {
				return cli.NewCommandError("keys generate", err)
			}
		}
		fmt.Fprintf(os.Stderr, "✓ Appended %d digest(s) to %s\n", len(generated), keysFlags.keyFile)
		fmt.Fprintln(os.Stderr, "⚠️  The plaintext keys above are not shown again; distribute them now")
	}

	return nil
}

func hashKeys(cmd *cobra.Command, args []string) error {
	if keysFlags.salt == "" {
		return cli.NewConfigError("salt", "required, digests are salt-specific")
	}

	hashed := make([]generatedKey, 0, len(args))
	for _, key := range args {
		hashed = append(hashed, generatedKey{
			Key:    key,
			Digest: auth.SaltedDigest(key, keysFlags.salt),
		})
	}

	formatter, err := cli.NewFormatter(cli.OutputFormat(keysFlags.format))
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	return formatter.FormatTo(os.Stdout, hashed)
}

// keyFileSummary is the list output: entry counts by form, never plaintext.
type keyFileSummary struct {
	Path      string `json:"path"`
	Entries   int    `json:"entries"`
	Digests   int    `json:"digests"`
	Plaintext int    `json:"plaintext"`
	Malformed int    `json:"malformed"`
}

func listKeys(cmd *cobra.Command, args []string) error {
	if keysFlags.keyFile == "" {
		return cli.NewConfigError("key-file", "required")
	}

	f, err := os.Open(keysFlags.keyFile)
	if err != nil {
		return cli.NewCommandError("keys list", err)
	}
	defer f.Close()

	summary := keyFileSummary{Path: keysFlags.keyFile}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		summary.Entries++
		switch {
		case strings.ContainsAny(line, " \t"):
			summary.Malformed++
		case auth.IsDigest(line):
			summary.Digests++
		default:
			summary.Plaintext++
		}
	}
	if err := scanner.Err(); err != nil {
		return cli.NewCommandError("keys list", err)
	}

	formatter, err := cli.NewFormatter(cli.OutputFormat(keysFlags.format))
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	return formatter.FormatTo(os.Stdout, summary)
}
