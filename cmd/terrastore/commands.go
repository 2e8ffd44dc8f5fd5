package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/terrastore"
	"github.com/hupe1980/terrastore/datastore"
)

// cli holds the state shared by all commands of one invocation.
type cli struct {
	v          *viper.Viper
	configFile string
	verbose    bool

	store datastore.DataStore
	docs  *terrastore.Documents
}

func newRootCommand() *cobra.Command {
	c := &cli{v: terrastore.NewViper()}

	root := &cobra.Command{
		Use:          "terrastore",
		Short:        "Inspect and maintain the territory document store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "Config file (json, yaml or toml)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Log every store operation")
	flags.String("type", "", "Backend: local, memory or remote")
	flags.String("path", "", "Base directory of the local backend")
	flags.Int64("max-size", 0, "Capacity of the memory backend in bytes")
	flags.String("provider", "", "Remote provider: s3, minio, gcs, azure")
	flags.String("bucket", "", "Remote bucket or container")
	flags.String("folder", "", "Remote folder prefix")
	flags.String("endpoint", "", "Remote endpoint override")
	flags.String("region", "", "Remote region")

	for key, flag := range map[string]string{
		terrastore.KeyType:           "type",
		terrastore.KeyPath:           "path",
		terrastore.KeyMaxSize:        "max-size",
		terrastore.KeyRemoteProvider: "provider",
		terrastore.KeyBucket:         "bucket",
		terrastore.KeyFolder:         "folder",
		terrastore.KeyEndpoint:       "endpoint",
		terrastore.KeyRegion:         "region",
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		c.putCommand(),
		c.getCommand(),
		c.statCommand(),
		c.listCommand(),
		c.deleteCommand(),
		c.backupCommand(),
		c.backupsCommand(),
		c.restoreCommand(),
		c.scenariosCommand(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	if c.configFile != "" {
		c.v.SetConfigFile(c.configFile)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := terrastore.ConfigFromViper(c.v)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := terrastore.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	store, err := terrastore.New(cmd.Context(), cfg, terrastore.WithLogger(logger))
	if err != nil {
		return err
	}
	c.store = store
	c.docs = terrastore.NewDocuments(store, terrastore.WithLogger(logger))
	return nil
}

func (c *cli) close() error {
	if cl, ok := c.store.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func (c *cli) putCommand() *cobra.Command {
	var (
		meta        map[string]string
		contentType string
	)
	cmd := &cobra.Command{
		Use:   "put <key> [file]",
		Short: "Write a JSON document read from file or stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 2 && args[1] != "-" {
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			if !json.Valid(data) {
				return errors.New("input is not valid JSON")
			}

			res := c.store.Write(cmd.Context(), args[0], json.RawMessage(data),
				datastore.WithMetadata(meta),
				datastore.WithContentType(contentType),
			)
			if !res.Success {
				return errors.New(res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", res.Key, res.Size)
			return nil
		},
	}
	cmd.Flags().StringToStringVarP(&meta, "meta", "m", nil, "Metadata as key=value pairs")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Content type (default application/json)")
	return cmd
}

func (c *cli) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := c.store.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if raw == nil {
				return fmt.Errorf("%s: %w", args[0], datastore.ErrNotFound)
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
}

func (c *cli) statCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <key>",
		Short: "Print a document's size, content type and metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := c.store.GetMetadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if info == nil {
				return fmt.Errorf("%s: %w", args[0], datastore.ErrNotFound)
			}
			return printValue(cmd.OutOrStdout(), info)
		},
	}
}

func (c *cli) listCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ls [prefix]",
		Short: "List documents by key prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			list, err := c.store.List(cmd.Context(), prefix, limit)
			if err != nil {
				return err
			}
			for _, o := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.Format("2006-01-02T15:04:05Z07:00"))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", datastore.DefaultListLimit, "Maximum number of entries")
	return cmd
}

func (c *cli) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := c.store.Delete(cmd.Context(), args[0])
			if !res.Success {
				return errors.New(res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", res.Key)
			return nil
		},
	}
}

func (c *cli) backupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <location> <dataType>",
		Short: "Copy a location's live document to a timestamped backup",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.docs.CreateBackup(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if res.Write.Error != "" {
				return errors.New(res.Reason)
			}
			if !res.Created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.OriginalKey, res.Reason)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backed up %s to %s\n", res.OriginalKey, res.Key)
			return nil
		},
	}
}

func (c *cli) backupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backups <location> <dataType>",
		Short: "List backups, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			backups, err := c.docs.ListBackups(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			for _, b := range backups {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", b.Key, b.Size)
			}
			return nil
		},
	}
}

func (c *cli) restoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backupKey>",
		Short: "Write a backup back to its live key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.docs.RestoreBackup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", res.Key, args[0])
			return nil
		},
	}
}

func (c *cli) scenariosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios <location>",
		Short: "List a location's scenario ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := c.docs.ListScenarios(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func printJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func printValue(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
