// Package output renders CLI results and maps failures to exit codes.
//
// A Printer writes either styled text for people or JSON for scripts,
// chosen by the --json flag:
//
//	printer := output.NewPrinter(cmd.OutOrStdout(), jsonFlag, output.IsTTY(cmd.OutOrStdout()))
//	printer.Table([]string{"ID", "Name"}, rows)
//	printer.Error(output.Classify(err))
//
// Styling uses lipgloss and turns off when output is not a terminal.
//
// # Exit Codes
//
//	output.ExitSuccess     // 0
//	output.ExitUserError   // 1: bad arguments or input that failed validation
//	output.ExitSystemError // 2: TimeCamp or network failure
//	output.ExitConflict    // 3: a timer is already running
//
// In JSON mode an error is written as {"error": "message", "code": N}.
package output
