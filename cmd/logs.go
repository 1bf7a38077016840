package cmd

import (
	"bufio"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/OptimiLabs/velocity-sub007/cli"
	"github.com/OptimiLabs/velocity-sub007/tui/theme"
)

// TailedLine is one log line attributed to the component that wrote it.
type TailedLine struct {
	Component string
	Line      string
}

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display and follow velocity component logs",
		Long: `Streams the per-component log files under .velocity/logs/. By default the
current day's files are shown once; use --follow to keep streaming.

Examples:
  # Follow all component logs
  velocity logs -f

  # Only the transport component
  velocity logs -f --component transport

  # Last 50 lines of everything
  velocity logs --tail 50
`,
		RunE: runLogsE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().Int("tail", -1, "Number of lines to show from the end of each file (default: all)")
	cmd.Flags().StringSlice("component", nil, "Filter by component names (comma-separated)")

	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	logger := cli.GetLogger(cmd)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	logsDir := filepath.Join(cwd, ".velocity", "logs")

	follow, _ := cmd.Flags().GetBool("follow")
	tailLines, _ := cmd.Flags().GetInt("tail")
	componentFilter, _ := cmd.Flags().GetStringSlice("component")

	files, err := findLogFiles(logsDir, componentFilter)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Info("No log files found.")
		return nil
	}

	lineChan := make(chan TailedLine, 100)
	var wg sync.WaitGroup

	for component, path := range files {
		wg.Add(1)
		if follow {
			go followFile(component, path, lineChan, &wg)
		} else {
			go dumpFile(component, path, lineChan, &wg, tailLines)
		}
	}

	go func() {
		wg.Wait()
		close(lineChan)
	}()

	t := theme.DefaultTheme
	for line := range lineChan {
		prefix := t.Section.Render(fmt.Sprintf("%-10s", line.Component)) + " | "
		fmt.Println(prefix + line.Line)
	}

	return nil
}

// findLogFiles maps component name to its newest log file. Log files are
// named <component>-<date>.log.
func findLogFiles(logsDir string, componentFilter []string) (map[string]string, error) {
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read logs directory: %w", err)
	}

	filter := make(map[string]bool)
	for _, c := range componentFilter {
		filter[c] = true
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".log") {
			names = append(names, entry.Name())
		}
	}
	// Lexicographic order puts the newest date last per component.
	sort.Strings(names)

	files := make(map[string]string)
	for _, name := range names {
		component := componentFromFilename(name)
		if component == "" {
			continue
		}
		if len(filter) > 0 && !filter[component] {
			continue
		}
		files[component] = filepath.Join(logsDir, name)
	}
	return files, nil
}

// componentFromFilename strips the trailing -YYYY-MM-DD.log suffix.
func componentFromFilename(name string) string {
	base := strings.TrimSuffix(name, ".log")
	// Component names may themselves contain dashes; the date is always the
	// last three dash-separated fields.
	parts := strings.Split(base, "-")
	if len(parts) < 4 {
		return ""
	}
	return strings.Join(parts[:len(parts)-3], "-")
}

func followFile(component, path string, lineChan chan<- TailedLine, wg *sync.WaitGroup) {
	defer wg.Done()

	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:   stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return
	}
	for line := range t.Lines {
		lineChan <- TailedLine{Component: component, Line: line.Text}
	}
}

func dumpFile(component, path string, lineChan chan<- TailedLine, wg *sync.WaitGroup, tailLines int) {
	defer wg.Done()

	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if tailLines >= 0 && len(lines) > tailLines {
		lines = lines[len(lines)-tailLines:]
	}
	for _, line := range lines {
		lineChan <- TailedLine{Component: component, Line: line}
	}
}
