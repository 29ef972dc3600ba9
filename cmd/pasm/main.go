// Command pasm prepares the photometric metallicity dataset: it documents
// and runs the survey extraction, cleans outliers, and shuffles the result
// into training and validation files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/stellar-metallicity/pasm/internal/config"
	"github.com/stellar-metallicity/pasm/internal/fsutil"
	"github.com/stellar-metallicity/pasm/internal/version"
)

type command struct {
	name    string
	summary string
	run     func(env *environment, args []string) error
}

// environment carries the dependencies shared by every subcommand.
type environment struct {
	fs     fsutil.FileSystem
	stdout io.Writer
}

var commands = []command{
	{"split", "shuffle a dataset and split it into train and validation files", runSplit},
	{"clean", "remove color outliers using an IQR window", runClean},
	{"describe", "print per-column summary statistics", runDescribe},
	{"report", "write an HTML scatter report of color vs [Fe/H]", runReport},
	{"extract", "run the extraction query against the local survey mirror", runExtract},
	{"query", "print the extraction query for the remote survey database", runQuery},
	{"migrate", "manage the survey mirror schema (up, down, status)", runMigrate},
	{"version", "print build information", runVersion},
}

func main() {
	log.SetFlags(log.LstdFlags)
	env := &environment{fs: fsutil.OSFileSystem{}, stdout: os.Stdout}

	if err := dispatch(env, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("pasm: %v", err)
	}
}

func dispatch(env *environment, args []string) error {
	if len(args) < 1 {
		printUsage(env.stdout)
		return flag.ErrHelp
	}

	name := args[0]
	for _, c := range commands {
		if c.name == name {
			return c.run(env, args[1:])
		}
	}

	if name == "help" || name == "-h" || name == "--help" {
		printUsage(env.stdout)
		return nil
	}

	printUsage(env.stdout)
	return fmt.Errorf("unknown command %q", name)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pasm <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pasm <command> -h' for command flags.")
}

// loadConfig returns the config at path, read through env.fs. With an empty
// path, the default file is used when present and the built-in defaults
// otherwise.
func loadConfig(env *environment, path string) (*config.PrepConfig, error) {
	if path == "" {
		if !env.fs.Exists(config.DefaultConfigPath) {
			return config.DefaultPrepConfig(), nil
		}
		path = config.DefaultConfigPath
	}
	cfg, err := config.LoadPrepConfigFS(env.fs, path)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded config from %s", path)
	return cfg, nil
}

// flagsSet returns the names of flags given explicitly on the command line.
func flagsSet(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func newFlagSet(name string, env *environment) *flag.FlagSet {
	fs := flag.NewFlagSet("pasm "+name, flag.ContinueOnError)
	fs.SetOutput(env.stdout)
	return fs
}

func runVersion(env *environment, args []string) error {
	fmt.Fprintln(env.stdout, version.String())
	return nil
}
