package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/pkiexamples/crlkit/cmd"
	_ "github.com/pkiexamples/crlkit/cmd/crl-checker"
	_ "github.com/pkiexamples/crlkit/cmd/crl-dump"
)

const usage = `Usage: crlkit <subcommand> [flags]
       crlkit --list
       crlkit check-config <subcommand> <file>

  Each tool is a subcommand, and may also be run through a symlink with the
  subcommand's name. Use <subcommand> --help to see its flags.
`

// validateConfigFile checks filename against the config struct registered for
// sc. Subcommands without a config accept any file.
func validateConfigFile(sc cmd.Subcommand, filename string) error {
	cv := sc.ConfigValidator()
	if cv == nil {
		return nil
	}
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return cmd.ValidateYAMLConfig(cv, file)
}

// getConfigPath returns the value of the --config flag in args, or "".
func getConfigPath(args []string) string {
	for i, arg := range args {
		if arg == "--config" || arg == "-config" {
			if i+1 < len(args) {
				return args[i+1]
			}
			return ""
		}
		for _, prefix := range []string{"--config=", "-config="} {
			if after, ok := strings.CutPrefix(arg, prefix); ok {
				return after
			}
		}
	}
	return ""
}

// listSubcommands writes each subcommand's name and summary, marking those
// which take a config file.
func listSubcommands(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, sc := range cmd.Subcommands() {
		configured := ""
		if sc.Config != nil {
			configured = "(--config)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", sc.Name, sc.Summary, configured)
	}
	tw.Flush()
}

// checkConfig implements "crlkit check-config <subcommand> <file>".
func checkConfig(args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	sc, ok := cmd.Lookup(args[0])
	if !ok {
		fmt.Fprintf(stderr, "Unknown subcommand %q.\n", args[0])
		return 1
	}
	if sc.Config == nil {
		fmt.Fprintf(stderr, "Subcommand %q does not take a config file.\n", sc.Name)
		return 1
	}
	err := validateConfigFile(sc, args[1])
	if err != nil {
		fmt.Fprintf(stderr, "Config file %q is invalid for %q: %s\n", args[1], sc.Name, err)
		return 1
	}
	fmt.Fprintf(stdout, "Config file %q is valid for %q.\n", args[1], sc.Name)
	return 0
}

// resolve picks the subcommand that args invoke and returns it along with the
// argument list it should see. When ok is false crlkit has already handled
// args itself and should exit with code.
func resolve(args []string, stdout, stderr io.Writer) (sc cmd.Subcommand, subArgs []string, code int, ok bool) {
	name := path.Base(args[0])
	subArgs = args
	if name == "crlkit" {
		if len(args) < 2 {
			fmt.Fprint(stderr, usage)
			return sc, nil, 2, false
		}
		switch args[1] {
		case "--help", "-help", "-h":
			fmt.Fprint(stdout, usage)
			return sc, nil, 0, false
		case "--list", "-list":
			listSubcommands(stdout)
			return sc, nil, 0, false
		case "check-config":
			return sc, nil, checkConfig(args[2:], stdout, stderr), false
		}
		name = args[1]
		subArgs = args[1:]
	}

	sc, found := cmd.Lookup(name)
	if !found {
		fmt.Fprintf(stderr, "Unknown subcommand %q. Use --list to see the available subcommands.\n", name)
		return sc, nil, 1, false
	}

	config := getConfigPath(subArgs)
	if config != "" {
		err := validateConfigFile(sc, config)
		if err != nil {
			fmt.Fprintf(stderr, "Error validating config file %q for command %q: %s\n", config, sc.Name, err)
			return cmd.Subcommand{}, nil, 1, false
		}
	}
	return sc, subArgs, 0, true
}

func main() {
	defer cmd.AuditPanic()
	sc, args, code, ok := resolve(os.Args, os.Stdout, os.Stderr)
	if !ok {
		os.Exit(code)
	}
	// Subcommands parse os.Args with the flag package.
	os.Args = args
	sc.Run()
}
