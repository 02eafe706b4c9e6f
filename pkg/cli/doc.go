/*
Package cli provides helpers shared by the magicbox commands.

Output Formatting:

Commands print their results as text or indented JSON, selected with the
--format flag:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Errors and Exit Codes:

ConfigError marks problems with the configuration or schema file. ExitCode
maps them to exit status 2 and every other error to 1.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
