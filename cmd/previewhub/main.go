package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"previewhub/internal/app"
	"previewhub/internal/config"
	"previewhub/internal/hub"
	"previewhub/internal/model"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a PreviewApp for cmd. The caller must defer app.Close().
// The command path and the flags set on it are recorded in the history.
func newApp(cmd *cobra.Command, args ...string) (*app.PreviewApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewPreviewApp(cfg, app.Options{
		Operation:  strings.TrimPrefix(cmd.CommandPath(), rootCmd.Name()+" "),
		Parameters: describeInvocation(cmd, args),
		Verbose:    verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// describeInvocation renders the changed flags and positional args as "--k=v ... args".
func describeInvocation(cmd *cobra.Command, args []string) string {
	var parts []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == "verbose" {
			return
		}
		parts = append(parts, fmt.Sprintf("--%s=%s", f.Name, f.Value))
	})
	parts = append(parts, args...)
	return strings.Join(parts, " ")
}

// readPassphrase prompts on stderr and reads without echo from a terminal,
// or a single line when stdin is piped.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printPreview(p *model.Preview) {
	fmt.Printf("%s  %s  [%s]  updated %s\n", p.ClientSlug, p.ClientName, p.Status, p.UpdatedAt)
	if p.HasShareToken() {
		fmt.Printf("  share: /s/%s/\n", p.ShareToken)
	}
}

func printReport(r *hub.BuildReport) {
	fmt.Printf("Rebuilt %d client page(s), scaffolded %d item(s), kept %d, wrote %d redirect(s)\n",
		r.Clients, r.ItemsScaffolded, r.ItemsKept, r.Redirects)
}

var rootCmd = &cobra.Command{
	Use:          "previewhub",
	Short:        "Client preview registry and static site builder",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		siteRoot, _ := cmd.Flags().GetString("site-root")
		if siteRoot == "" {
			if siteRoot, err = os.Getwd(); err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
		}
		if siteRoot, err = filepath.Abs(siteRoot); err != nil {
			return fmt.Errorf("resolving site root: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"], siteRoot)
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Site Root: %s\n", cfg.SiteRoot)
		fmt.Printf("Base Dir:  %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Site Root:  %s\n", cfg.SiteRoot)
		fmt.Printf("Registry:   %s\n", cfg.RegistryPath)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Backups:    %s (keep %d)\n", cfg.Backup.Dir, cfg.Backup.Keep)
		for _, p := range cfg.Publishers {
			fmt.Printf("Publisher:  %s (%s)\n", p.Name, p.Type)
		}
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage backup encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the backup key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		pass, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return errors.New("passphrases do not match")
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetupKeys(pass); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}
		fmt.Println("Backup keys generated.")
		return nil
	},
}

var createClientCmd = &cobra.Command{
	Use:   "create-client",
	Short: "Register a client with a seed page",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		req := hub.CreateClientRequest{}
		req.Name, _ = f.GetString("name")
		req.Slug, _ = f.GetString("slug")
		req.Status, _ = f.GetString("status")
		req.Token, _ = f.GetString("token")
		req.Page, _ = f.GetString("page")
		req.Title, _ = f.GetString("title")
		req.Notes, _ = f.GetString("notes")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.CreateClient(req)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (%s)\n", p.ClientSlug, p.PreviewID)
		fmt.Printf("  /clients/%s/%s/\n", p.ClientSlug, p.Items[0].Slug)
		return nil
	},
}

var addClientCmd = &cobra.Command{
	Use:   "add-client",
	Short: "Register a client without any pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		req := hub.AddClientRequest{}
		req.Name, _ = f.GetString("name")
		req.Slug, _ = f.GetString("slug")
		req.Status, _ = f.GetString("status")
		req.Token, _ = f.GetString("token")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.AddClient(req)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (%s)\n", p.ClientSlug, p.PreviewID)
		return nil
	},
}

var addItemCmd = &cobra.Command{
	Use:   "add-item",
	Short: "Add a page variant to a client",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		req := hub.AddItemRequest{}
		req.Client, _ = f.GetString("client")
		req.Slug, _ = f.GetString("slug")
		req.Title, _ = f.GetString("title")
		req.Status, _ = f.GetString("status")
		req.Notes, _ = f.GetString("notes")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, it, err := a.AddItem(req)
		if err != nil {
			return err
		}
		fmt.Printf("Added /clients/%s/%s/\n", p.ClientSlug, it.Slug)
		return nil
	},
}

var setStatusCmd = &cobra.Command{
	Use:   "set-status",
	Short: "Change a client's status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := cmd.Flags().GetString("client")
		status, _ := cmd.Flags().GetString("status")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.SetStatus(client, status)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", p.ClientSlug, p.Status)
		return nil
	},
}

var setTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Assign a share token, generating one when --token is omitted",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := cmd.Flags().GetString("client")
		token, _ := cmd.Flags().GetString("token")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.SetToken(client, token)
		if err != nil {
			return err
		}
		fmt.Printf("Share link for %s: /s/%s/\n", p.ClientSlug, p.ShareToken)
		return nil
	},
}

var clearTokenCmd = &cobra.Command{
	Use:   "clear-token",
	Short: "Remove a client's share token",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := cmd.Flags().GetString("client")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.ClearToken(client)
		if err != nil {
			return err
		}
		fmt.Printf("Share token cleared for %s\n", p.ClientSlug)
		return nil
	},
}

var setShareHomeCmd = &cobra.Command{
	Use:   "set-share-home",
	Short: "Choose the page a bare share link opens; omit --item to clear",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := cmd.Flags().GetString("client")
		item, _ := cmd.Flags().GetString("item")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.SetShareHome(client, item)
		if err != nil {
			return err
		}
		if p.ShareHomeItemSlug == "" {
			fmt.Printf("Share home cleared for %s\n", p.ClientSlug)
		} else {
			fmt.Printf("Share home for %s: %s\n", p.ClientSlug, p.ShareHomeItemSlug)
		}
		return nil
	},
}

var archiveClientCmd = &cobra.Command{
	Use:   "archive-client",
	Short: "Mark a client Archived",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := cmd.Flags().GetString("client")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.ArchiveClient(client)
		if err != nil {
			return err
		}
		fmt.Printf("Archived %s\n", p.ClientSlug)
		return nil
	},
}

var removeClientCmd = &cobra.Command{
	Use:   "remove-client",
	Short: "Delete a client from the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := cmd.Flags().GetString("client")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.RemoveClient(client)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %s (generated pages under clients/%s/ were left in place)\n", removed, removed)
		return nil
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Regenerate the site from the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Rebuild(force)
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	},
}

var validateLinksCmd = &cobra.Command{
	Use:   "validate-links",
	Short: "Check every internal link of the generated site",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.ValidateLinks()
		if err != nil {
			return err
		}
		fmt.Printf("Link check passed (%d file(s) checked)\n", report.FilesChecked)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered clients, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		previews, err := a.ListPreviews()
		if err != nil {
			return err
		}
		if len(previews) == 0 {
			fmt.Println("No previews registered.")
			return nil
		}
		for _, p := range previews {
			printPreview(p)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View command history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("%s  %-15s  %s  %-8s  %-8s  %s\n",
				op.ID[:8],
				op.Name,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the generated site to a publisher",
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		name, count, err := a.Publish(cmd.Context(), to)
		if err != nil {
			return err
		}
		fmt.Printf("Published %d file(s) to %s\n", count, name)
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write an encrypted copy of the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := a.Backup()
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Backup written to %s\n", path)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore FILENAME",
	Short: "Replace the registry with a backup and rebuild",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pass, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		a, err := newApp(cmd, args...)
		if err != nil {
			return err
		}
		defer a.Close()

		reg, err := a.Restore(args[0], pass)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Restored %d preview(s) from %s\n", len(reg.Previews), args[0])
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("site-root", "", "Directory the site is generated into (default: current directory)")

	keysCmd.AddCommand(keysInitCmd)

	createClientCmd.Flags().String("name", "", "Client display name (required)")
	createClientCmd.Flags().String("slug", "", "Client slug (default: derived from --name)")
	createClientCmd.Flags().String("status", "", "Initial status (default: Draft)")
	createClientCmd.Flags().String("token", "", "Share token")
	createClientCmd.Flags().String("page", "", "Seed page slug (default: home-v1)")
	createClientCmd.Flags().String("title", "", "Seed page title (default: derived from --page)")
	createClientCmd.Flags().String("notes", "", "Seed page notes, separated by ';' or newlines")

	addClientCmd.Flags().String("name", "", "Client display name (required)")
	addClientCmd.Flags().String("slug", "", "Client slug (default: derived from --name)")
	addClientCmd.Flags().String("status", "", "Initial status (default: Draft)")
	addClientCmd.Flags().String("token", "", "Share token")

	addItemCmd.Flags().String("client", "", "Client slug (required)")
	addItemCmd.Flags().String("slug", "", "Page slug (required)")
	addItemCmd.Flags().String("title", "", "Page title (default: derived from --slug)")
	addItemCmd.Flags().String("status", "", "Page status (default: the client's status)")
	addItemCmd.Flags().String("notes", "", "Page notes, separated by ';' or newlines")

	setStatusCmd.Flags().String("client", "", "Client slug (required)")
	setStatusCmd.Flags().String("status", "", "New status (required)")
	setTokenCmd.Flags().String("client", "", "Client slug (required)")
	setTokenCmd.Flags().String("token", "", "Share token (default: generated)")
	clearTokenCmd.Flags().String("client", "", "Client slug (required)")
	setShareHomeCmd.Flags().String("client", "", "Client slug (required)")
	setShareHomeCmd.Flags().String("item", "", "Item slug (empty clears)")
	archiveClientCmd.Flags().String("client", "", "Client slug (required)")
	removeClientCmd.Flags().String("client", "", "Client slug (required)")

	rebuildCmd.Flags().Bool("force", false, "Overwrite item pages and shared assets")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of commands to show")
	publishCmd.Flags().String("to", "", "Publisher name (default: the only one configured)")

	rootCmd.AddCommand(
		configCmd,
		keysCmd,
		createClientCmd,
		addClientCmd,
		addItemCmd,
		setStatusCmd,
		setTokenCmd,
		clearTokenCmd,
		setShareHomeCmd,
		archiveClientCmd,
		removeClientCmd,
		rebuildCmd,
		validateLinksCmd,
		listCmd,
		historyCmd,
		publishCmd,
		backupCmd,
		restoreCmd,
	)
}
