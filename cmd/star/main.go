package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/siiky/star"
)

var (
	verbose      bool
	noProgress   bool
	noSort       bool
	sortedLookup bool
	extractJobs  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "star",
		Short: "Pack files into STAR archives and get them back out",
	}

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	createCmd := &cobra.Command{
		Use:   "create <ARCHIVE> <FILE>...",
		Short: "Pack the given files into a new archive",
		Args:  cobra.MinimumNArgs(2),
		Run:   runCreate,
	}
	createCmd.Flags().BoolVar(&noSort, "no-sort", false, "Keep the argument order instead of sorting by the length-first ordering")
	createCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bar")

	listCmd := &cobra.Command{
		Use:   "list <ARCHIVE>",
		Short: "List the entries of an archive",
		Args:  cobra.ExactArgs(1),
		Run:   runList,
	}

	extractCmd := &cobra.Command{
		Use:   "extract <ARCHIVE> [DEST]",
		Short: "Unpack every entry of an archive into a directory",
		Args:  cobra.RangeArgs(1, 2),
		Run:   runExtract,
	}
	extractCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bar")
	extractCmd.Flags().IntVar(&extractJobs, "jobs", runtime.NumCPU(), "Concurrent file writes")

	catCmd := &cobra.Command{
		Use:   "cat <ARCHIVE> <NAME>",
		Short: "Write one entry's bytes to stdout",
		Args:  cobra.ExactArgs(2),
		Run:   runCat,
	}
	catCmd.Flags().BoolVar(&sortedLookup, "sorted", false, "Assert the archive is sorted by the length-first ordering and use binary search")

	rootCmd.AddCommand(createCmd, listCmd, extractCmd, catCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func logger() *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newBar(n int, description string) *progressbar.ProgressBar {
	if noProgress {
		return progressbar.DefaultSilent(int64(n), description)
	}
	return progressbar.Default(int64(n), description)
}

// readArchive opens and fully reads an archive file.
func readArchive(path string) *star.Archive {
	f, err := os.Open(path)
	if err != nil {
		fatalf("%v", err)
	}
	defer f.Close()

	a, err := star.Read(bufio.NewReader(f), star.WithLogger(logger()))
	if err != nil {
		fatalf("reading %s: %v", path, err)
	}
	return a
}

func runCreate(cmd *cobra.Command, args []string) {
	archivePath := args[0]
	files := args[1:]

	// Shell expansion hands over "file10" before "file2"; the
	// length-first ordering puts them back in listing order and makes
	// the archive binary-searchable.
	if !noSort {
		slices.SortFunc(files, star.ComparePaths)
	}

	a, err := star.New(uint64(len(files)))
	if err != nil {
		fatalf("%v", err)
	}

	bar := newBar(len(files), "packing")
	for i, path := range files {
		if err := addFile(a, uint64(i), path); err != nil {
			fatalf("%v", err)
		}
		_ = bar.Add(1)
	}

	if err := a.ComputeOffsets(); err != nil {
		fatalf("%v", err)
	}

	out, err := os.Create(archivePath)
	if err != nil {
		fatalf("%v", err)
	}
	w := bufio.NewWriter(out)
	if _, err := a.WriteTo(w); err != nil {
		out.Close()
		os.Remove(archivePath)
		fatalf("writing %s: %v", archivePath, err)
	}
	if err := w.Flush(); err != nil {
		out.Close()
		os.Remove(archivePath)
		fatalf("writing %s: %v", archivePath, err)
	}
	if err := out.Close(); err != nil {
		fatalf("writing %s: %v", archivePath, err)
	}
}

// addFile stats path and installs its contents at slot idx.
func addFile(a *star.Archive, idx uint64, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}

	return a.AddFile(idx, filepath.ToSlash(path), uint64(info.Size()), bufio.NewReader(f))
}

func runList(cmd *cobra.Command, args []string) {
	a := readArchive(args[0])

	fmt.Printf("%s: %d entries\n", args[0], a.Len())
	for i, e := range a.Entries() {
		fmt.Printf("%d: %s (size: %d, offset: %d)\n", i, e.Name(), e.Size, e.Offset)
	}
}

func runExtract(cmd *cobra.Command, args []string) {
	dest := "."
	if len(args) == 2 {
		dest = args[1]
	}
	a := readArchive(args[0])

	bar := newBar(a.Len(), "extracting")
	g := new(errgroup.Group)
	g.SetLimit(max(extractJobs, 1))
	for i, e := range a.Entries() {
		data, ok := a.Data(i)
		if !ok {
			fatalf("entry %d has no data", i)
		}
		name := e.Name()
		g.Go(func() error {
			if err := writeEntry(dest, name, data); err != nil {
				return err
			}
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fatalf("%v", err)
	}
}

// writeEntry places one entry's bytes under dest, creating parent
// directories as needed. Entry names that would escape dest are
// refused.
func writeEntry(dest, name string, data []byte) error {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("refusing to extract non-local path %q", name)
	}

	target := filepath.Join(dest, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

func runCat(cmd *cobra.Command, args []string) {
	a := readArchive(args[0])
	name := args[1]

	var (
		idx int
		ok  bool
	)
	if sortedLookup {
		idx, ok = a.AssumeSorted().Search(name)
	} else {
		idx, ok = a.Search(name)
	}
	if !ok {
		fatalf("no entry named %q in %s", name, args[0])
	}

	data, _ := a.Data(idx)
	if _, err := os.Stdout.Write(data); err != nil {
		fatalf("%v", err)
	}
}
