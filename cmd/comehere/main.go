// Command comehere rewrites JavaScript source files so COMEHERE debugging
// blocks execute deterministically, and $$-prefixed capture variables record
// their latest value and its source text for a debugger to inspect
// (SPEC_FULL.md §4.8).
//
// Grounded on the teacher's cmd/able/main.go: a manifest-first entry point
// (comehere.yml, falling back to direct file execution when none is found),
// dispatched with a plain os.Args switch rather than a flag-parsing library.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mikesamuel/comehere/pkg/diag"
	"github.com/mikesamuel/comehere/pkg/driver"
)

const cliToolVersion = "comehere-cli 0.0.0-dev"

var errManifestNotFound = errors.New("comehere.yml not found")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "transform":
		return runTransform(args[1:])
	default:
		return runTransform(args)
	}
}

// transformOptions is populated by scanning args for --target/--manifest/
// --since/--out flags, leaving whatever's left as direct file arguments.
type transformOptions struct {
	target   string
	manifest string
	sinceRev string
	out      string
	files    []string
}

func parseTransformArgs(args []string) (transformOptions, error) {
	var opts transformOptions
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--target":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--target requires a value")
			}
			i++
			opts.target = args[i]
		case "--manifest":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--manifest requires a value")
			}
			i++
			opts.manifest = args[i]
		case "--since":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--since requires a git revision")
			}
			i++
			opts.sinceRev = args[i]
		case "--out":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--out requires a value")
			}
			i++
			opts.out = args[i]
		default:
			if strings.HasPrefix(args[i], "-") {
				return opts, fmt.Errorf("unrecognized flag %q", args[i])
			}
			opts.files = append(opts.files, args[i])
		}
	}
	return opts, nil
}

func runTransform(args []string) int {
	opts, err := parseTransformArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	sink := diag.NewConsole()

	if opts.target != "" {
		return runTarget(opts, sink)
	}
	return runFiles(opts, sink)
}

// runTarget resolves a named manifest target's source globs (optionally
// narrowed by --since) and transforms every resolved file into the
// target's own output directory.
func runTarget(opts transformOptions, sink diag.Sink) int {
	manifestPath := opts.manifest
	if manifestPath == "" {
		found, err := findManifest(".")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to locate comehere.yml: %v\n", err)
			return 1
		}
		manifestPath = found
	}

	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read manifest: %v\n", err)
		return 1
	}

	target, ok := manifest.FindTarget(opts.target)
	if !ok {
		fmt.Fprintf(os.Stderr, "no target named %q in %s\n", opts.target, manifest.Path)
		return 1
	}

	sources, err := manifest.ResolvedSources(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve target sources: %v\n", err)
		return 1
	}

	if opts.sinceRev != "" {
		sources, err = filterSinceRev(sources, filepath.Dir(manifest.Path), opts.sinceRev)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to apply --since: %v\n", err)
			return 1
		}
	}

	if len(sources) == 0 {
		fmt.Fprintln(os.Stdout, "no source files to transform")
		return 0
	}

	root := filepath.Dir(manifest.Path)
	failures := 0
	for _, source := range sources {
		moduleID := driver.ModuleID(root, source)
		if err := driver.RunFile(source, moduleID, target.OutDir, sink); err != nil {
			sink.Error("%s: %v", source, err)
			failures++
			continue
		}
		fmt.Fprintf(os.Stdout, "transformed %s -> %s\n", source, target.OutDir)
	}
	if failures > 0 {
		return 1
	}
	return 0
}

// runFiles transforms the files named directly on the command line,
// falling back to a nearby manifest only to compute a stable ModuleID; the
// output directory defaults to a comehere-out directory beside each file.
func runFiles(opts transformOptions, sink diag.Sink) int {
	if len(opts.files) == 0 {
		fmt.Fprintln(os.Stderr, "comehere transform requires a target or one or more source files")
		return 1
	}

	if opts.sinceRev != "" {
		fmt.Fprintln(os.Stderr, "--since requires --target")
		return 1
	}

	root := "."
	if opts.manifest != "" {
		root = filepath.Dir(opts.manifest)
	} else if found, err := findManifest("."); err == nil {
		root = filepath.Dir(found)
	} else if !errors.Is(err, errManifestNotFound) {
		fmt.Fprintf(os.Stderr, "failed to locate comehere.yml: %v\n", err)
		return 1
	}

	failures := 0
	for _, file := range opts.files {
		outDir := opts.out
		if outDir == "" {
			// Never overwrite the source file in place; write beside it instead.
			outDir = filepath.Join(filepath.Dir(file), "comehere-out")
		}
		moduleID := driver.ModuleID(root, file)
		if err := driver.RunFile(file, moduleID, outDir, sink); err != nil {
			sink.Error("%s: %v", file, err)
			failures++
			continue
		}
		fmt.Fprintf(os.Stdout, "transformed %s -> %s\n", file, outDir)
	}
	if failures > 0 {
		return 1
	}
	return 0
}

func filterSinceRev(sources []string, repoRoot, sinceRev string) ([]string, error) {
	changed, err := driver.ChangedFiles(repoRoot, sinceRev)
	if err != nil {
		return nil, err
	}
	changedSet := make(map[string]struct{}, len(changed))
	for _, c := range changed {
		abs, err := filepath.Abs(filepath.Join(repoRoot, c))
		if err != nil {
			continue
		}
		changedSet[abs] = struct{}{}
	}

	var out []string
	for _, source := range sources {
		abs, err := filepath.Abs(source)
		if err != nil {
			continue
		}
		if _, ok := changedSet[abs]; ok {
			out = append(out, source)
		}
	}
	return out, nil
}

func findManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory %q: %w", start, err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	origin := dir
	for {
		candidate := filepath.Join(dir, "comehere.yml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no comehere.yml found from %s upwards: %w", origin, errManifestNotFound)
		}
		dir = parent
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  comehere transform <file.js> ...")
	fmt.Fprintln(os.Stderr, "  comehere transform --target <name> [--manifest comehere.yml] [--since <git-rev>]")
	fmt.Fprintln(os.Stderr, "  comehere --version")
}
