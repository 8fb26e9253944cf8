package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pkeller/loregate/internal/core/db"
	"github.com/pkeller/loregate/internal/core/store"
	"github.com/pkeller/loregate/internal/lore"
)

var (
	bookImportName string
	bookExportOut  string
	bookListJSON   bool
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Manage stored lorebooks",
}

var bookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored lorebooks",
	RunE:  runBookList,
}

var bookImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a lorebook from a JSON or YAML file",
	Long: `Import stores a lorebook file under a name. The name defaults to the
file name without its extension. Files ending in .yaml or .yml are
converted before parsing; everything else is read as JSON.`,
	Example: `  loregate book import asteria.json
  loregate book import world.yaml --name asteria`,
	Args: cobra.ExactArgs(1),
	RunE: runBookImport,
}

var bookExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export a stored lorebook as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookExport,
}

var bookDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored lorebook",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookDelete,
}

func init() {
	rootCmd.AddCommand(bookCmd)
	bookCmd.AddCommand(bookListCmd)
	bookCmd.AddCommand(bookImportCmd)
	bookCmd.AddCommand(bookExportCmd)
	bookCmd.AddCommand(bookDeleteCmd)
	bookListCmd.Flags().BoolVar(&bookListJSON, "json", false, "output as JSON")
	bookImportCmd.Flags().StringVar(&bookImportName, "name", "", "name to store the book under")
	bookExportCmd.Flags().StringVar(&bookExportOut, "out", "", "write to file instead of stdout")
}

// openStore opens the configured database and loads the query set.
func openStore() (*store.Store, func(), error) {
	database, err := openDatabase()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return store.New(queries), func() { database.Close() }, nil
}

func runBookList(cmd *cobra.Command, args []string) error {
	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	books, err := st.ListBooks()
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	if bookListJSON {
		if books == nil {
			books = []store.BookInfo{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(books)
	}

	if len(books) == 0 {
		fmt.Println("no lorebooks stored")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENTRIES\tSCAN DEPTH\tUPDATED")
	for _, b := range books {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", b.Name, b.EntryCount, b.ScanDepth, b.UpdatedAt.Format(time.DateTime))
	}
	return w.Flush()
}

func runBookImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	book, err := parseBookFile(path, data)
	if err != nil {
		return err
	}

	name := bookImportName
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := st.SaveBook(name, book); err != nil {
		return fmt.Errorf("failed to save book: %w", err)
	}
	fmt.Printf("imported %q: %d entries\n", name, book.Len())
	return nil
}

// parseBookFile decodes a lorebook file. YAML files are converted to JSON
// first so both formats go through the same defaulting and validation.
func parseBookFile(path string, data []byte) (*lore.Book, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML: %w", err)
		}
		data = converted
	}
	book, err := lore.ParseBook(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lorebook: %w", err)
	}
	return book, nil
}

func runBookExport(cmd *cobra.Command, args []string) error {
	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	book, err := st.LoadBook(args[0])
	if err != nil {
		return err
	}
	data, err := book.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode book: %w", err)
	}

	if bookExportOut != "" {
		if err := os.WriteFile(bookExportOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", bookExportOut, err)
		}
		fmt.Printf("exported %q to %s\n", args[0], bookExportOut)
		return nil
	}
	fmt.Println(string(data))
	return nil
}

func runBookDelete(cmd *cobra.Command, args []string) error {
	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := st.DeleteBook(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %q\n", args[0])
	return nil
}
