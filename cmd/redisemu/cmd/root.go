package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/LavishGent/redisemu/pkg/redisemu"
)

const (
	flagConfig  = "config"
	flagBackend = "backend"
	flagVerbose = "verbose"
)

// NewRootCmd creates the redisemu command. With arguments it runs a single
// command; without, it reads commands from stdin until EOF or QUIT.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "redisemu [command [arg ...]]",
		Short: "Redis command emulator",
		Long: `redisemu runs Redis string and key commands against a pluggable backend
(memory, redis, bolt or null) without a Redis server.

Run a single command:

  redisemu SET greeting hello EX 60

or start an interactive session by giving no arguments.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	rootCmd.Flags().String(flagConfig, "", "path to a JSON or YAML config file")
	rootCmd.Flags().String(flagBackend, "", "backend type, overriding the config file (memory, redis, bolt, null)")
	rootCmd.Flags().Bool(flagVerbose, false, "log debug output to stderr")
	// Everything after the command name belongs to the command.
	rootCmd.Flags().SetInterspersed(false)

	return rootCmd
}

func run(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		return runOne(cmd, client, out, args)
	}
	return repl(cmd.Context(), client, cmd.InOrStdin(), out)
}

func newClient(cmd *cobra.Command) (*redisemu.Client, error) {
	path, _ := cmd.Flags().GetString(flagConfig)
	backendType, _ := cmd.Flags().GetString(flagBackend)
	verbose, _ := cmd.Flags().GetBool(flagVerbose)

	cfg, err := redisemu.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if backendType != "" {
		cfg.Backend.Type = backendType
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	client, err := redisemu.NewFromConfig(cfg, redisemu.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func runOne(cmd *cobra.Command, client *redisemu.Client, out io.Writer, args []string) error {
	reply, err := client.Do(cmd.Context(), args[0], args[1:]...)
	if err != nil {
		fmt.Fprintln(out, formatError(err))
		return err
	}
	fmt.Fprintln(out, formatReply(reply))
	return nil
}
