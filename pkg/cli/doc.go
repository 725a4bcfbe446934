/*
Package cli provides command-line interface utilities for ollgate.

The cli package includes output formatters and common CLI helpers used by
the ollgate command.

Output Formatting:

The cli package supports text and JSON output for displaying command
results:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stdout, data); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	// Use ctx for operations that should be cancelled on shutdown

Errors carry exit codes: configuration problems exit with cli.ExitConfig,
runtime failures with cli.ExitFailure.
*/
package cli
