// Package plugins provides exec-based plugin support for gridstat.
// Plugins are separate binaries named gridstat-<command> that are discovered
// and executed when an unknown command is invoked.
//
// This follows the same pattern used by kubectl and git for plugins.
package plugins

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Prefix is prepended to a command name to form the plugin binary name.
const Prefix = "gridstat-"

// DirEnv overrides the per-user plugin directory (~/.gridstat/plugins).
const DirEnv = "GRIDSTAT_PLUGIN_DIR"

// BinEnv is set for plugin processes to the path of the gridstat binary,
// so a plugin can call back into it (e.g. gridstat analyze -o json).
const BinEnv = "GRIDSTAT_BIN"

// KnownPlugins lists plugins that have official implementations available.
// These get special error messages describing what they do.
var KnownPlugins = map[string]string{
	"plot": "Scatterplots of throughput against stream count per destination, read from a --parquet export.",
}

// ErrPluginNotFound is returned when no plugin binary can be located.
var ErrPluginNotFound = errors.New("plugin not found")

// userDir returns the per-user plugin directory.
func userDir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".gridstat", "plugins"), nil
}

// searchDirs returns the directories searched before PATH, in order.
func searchDirs() []string {
	var dirs []string
	if execPath, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(execPath))
	}
	if dir, err := userDir(); err == nil {
		dirs = append(dirs, dir)
	}
	return dirs
}

// FindPlugin searches for a plugin binary named gridstat-<command>.
// It searches in the following locations in order:
//  1. Same directory as the gridstat binary
//  2. ~/.gridstat/plugins/ (or $GRIDSTAT_PLUGIN_DIR)
//  3. Anywhere in PATH
//
// Returns the full path to the plugin binary if found.
func FindPlugin(command string) (string, error) {
	pluginName := Prefix + command

	for _, dir := range searchDirs() {
		candidate := filepath.Join(dir, pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(pluginName); err == nil {
		return path, nil
	}

	return "", ErrPluginNotFound
}

// List returns the command names of all plugins found in the search
// directories and PATH, sorted. The first location wins for duplicates.
func List() map[string]string {
	found := make(map[string]string)

	dirs := searchDirs()
	dirs = append(dirs, filepath.SplitList(os.Getenv("PATH"))...)

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasPrefix(name, Prefix) || len(name) == len(Prefix) {
				continue
			}
			command := strings.TrimPrefix(name, Prefix)
			if _, ok := found[command]; ok {
				continue
			}
			path := filepath.Join(dir, name)
			if isExecutable(path) {
				found[command] = path
			}
		}
	}

	return found
}

// Names returns the sorted keys of a List result.
func Names(found map[string]string) []string {
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs a plugin with the given arguments.
// It connects stdin, stdout, and stderr to the plugin process
// and returns the plugin's exit code.
func Execute(pluginPath string, args []string) int {
	cmd := exec.Command(pluginPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if self, err := os.Executable(); err == nil {
		cmd.Env = append(cmd.Env, BinEnv+"="+self)
	}

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing plugin: %v\n", err)
		return 1
	}

	return 0
}

// FormatNotFoundError returns a helpful error message when a plugin is not found.
// If the command is a known plugin, includes a description of it.
func FormatNotFoundError(command string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("unknown command %q for \"gridstat\"\n", command))

	if info, ok := KnownPlugins[command]; ok {
		sb.WriteString(fmt.Sprintf("\n%q is available as a plugin.\n", command))
		sb.WriteString(info)
		sb.WriteString("\n\nInstall the plugin binary as one of:\n")
	} else {
		sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")
	}

	sb.WriteString(fmt.Sprintf("  - %s%s in the same directory as gridstat\n", Prefix, command))
	sb.WriteString(fmt.Sprintf("  - ~/.gridstat/plugins/%s%s (or $%s)\n", Prefix, command, DirEnv))
	sb.WriteString(fmt.Sprintf("  - %s%s anywhere in your PATH\n", Prefix, command))

	sb.WriteString("\nRun 'gridstat --help' for usage.")

	return sb.String()
}

// isExecutable checks if a file exists and is executable.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	// Windows has no executable bit; only regular files with one count here.
	if info.Mode().IsRegular() {
		return info.Mode()&0111 != 0
	}

	return false
}
