package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pkeller/loregate/internal/bible"
	"github.com/pkeller/loregate/internal/core/db"
	"github.com/pkeller/loregate/internal/core/store"
	"github.com/pkeller/loregate/internal/lore"
	"github.com/pkeller/loregate/internal/prompt"
)

var (
	scanBookName  string
	scanFile      string
	scanBiblePath string
	scanMessages  []string
	scanNoAdvance bool
	scanJSON      bool
	scanCompose   bool
	scanNote      string
	scanNoteDepth int
)

var scanCmd = &cobra.Command{
	Use:   "scan [text]",
	Short: "Scan text against a lorebook",
	Long: `Scan runs one trigger pass over the given text (or stdin) and prints
the activated lore payload. Each --messages value replays as prior
history before the final text, so temporal gates like delay and
cooldown see the same turn sequence the story did.

With --compose the payload is spliced into a full generation context,
optionally drawing world and character sections from a story bible.`,
	Example: `  loregate scan --book asteria "The dragon circled the keep."
  cat chapter.txt | loregate scan --file lorebook.json --json
  loregate scan --bible story.json --compose --note "Focus on {{story.tone}}." "She drew her blade."`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanBookName, "book", "", "stored lorebook name")
	scanCmd.Flags().StringVar(&scanFile, "file", "", "lorebook JSON file")
	scanCmd.Flags().StringVar(&scanBiblePath, "bible", "", "story bible JSON file")
	scanCmd.Flags().StringArrayVar(&scanMessages, "messages", nil, "prior history message, repeatable, replayed in order")
	scanCmd.Flags().BoolVar(&scanNoAdvance, "no-advance", false, "preview scan, do not advance temporal state")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "output as JSON")
	scanCmd.Flags().BoolVar(&scanCompose, "compose", false, "assemble a full generation context")
	scanCmd.Flags().StringVar(&scanNote, "note", "", "author note template, rendered with bible variables")
	scanCmd.Flags().IntVar(&scanNoteDepth, "note-depth", 2, "author note depth in paragraphs from the end")
}

func runScan(cmd *cobra.Command, args []string) error {
	text, err := scanInput(args)
	if err != nil {
		return err
	}

	var storyBible *bible.Bible
	if scanBiblePath != "" {
		storyBible, err = bible.Load(scanBiblePath)
		if err != nil {
			return fmt.Errorf("failed to load bible: %w", err)
		}
	}

	book, err := resolveBook(storyBible)
	if err != nil {
		return err
	}

	scanner := lore.NewScanner(book, lore.NewState())
	for _, msg := range scanMessages {
		scanner.Scan(msg)
	}
	var activated []*lore.Entry
	if scanNoAdvance {
		activated = scanner.ScanNoAdvance(text)
	} else {
		activated = scanner.Scan(text)
	}
	payload := lore.FormatEntries(activated)

	var composed string
	if scanCompose {
		composed = composeContext(cmd, storyBible, text, activated)
	}

	if scanJSON {
		if activated == nil {
			activated = []*lore.Entry{}
		}
		out := struct {
			Activated []*lore.Entry `json:"activated"`
			Payload   string        `json:"payload"`
			Context   string        `json:"context,omitempty"`
		}{activated, payload, composed}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if scanCompose {
		fmt.Println(composed)
		return nil
	}
	if payload == "" {
		fmt.Fprintln(os.Stderr, "no entries activated")
		return nil
	}
	fmt.Println(payload)
	return nil
}

// scanInput takes the text from the argument or, when absent, from stdin.
func scanInput(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// resolveBook picks the lorebook to scan: an explicit file, a stored book,
// or the one embedded in the loaded bible.
func resolveBook(storyBible *bible.Bible) (*lore.Book, error) {
	switch {
	case scanFile != "" && scanBookName != "":
		return nil, fmt.Errorf("pass --book or --file, not both")
	case scanFile != "":
		data, err := os.ReadFile(scanFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read lorebook: %w", err)
		}
		book, err := lore.ParseBook(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse lorebook: %w", err)
		}
		return book, nil
	case scanBookName != "":
		database, err := openDatabase()
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()
		queries, err := db.LoadQueries(database)
		if err != nil {
			return nil, fmt.Errorf("failed to load queries: %w", err)
		}
		return store.New(queries).LoadBook(scanBookName)
	case storyBible != nil && storyBible.WorldInfo != nil:
		return storyBible.WorldInfo, nil
	default:
		return nil, fmt.Errorf("no lorebook: pass --book, --file, or --bible")
	}
}

// composeContext assembles the full generation context. Flags override the
// bible's stored author note settings only when explicitly set.
func composeContext(cmd *cobra.Command, storyBible *bible.Bible, text string, activated []*lore.Entry) string {
	in := prompt.AssembleInput{
		Recent:  text,
		Entries: activated,
	}
	ctx := prompt.NewContext()
	note := scanNote
	depth := scanNoteDepth
	if storyBible != nil {
		in.WorldContext = storyBible.World.ContextString()
		in.CharContext = storyBible.CharactersContext()
		ctx = prompt.BuildContext(storyBible, nil)
		if !cmd.Flags().Changed("note") && storyBible.AuthorNote != "" {
			note = storyBible.AuthorNote
		}
		if !cmd.Flags().Changed("note-depth") {
			depth = storyBible.AuthorNoteDepth
		}
	}
	if note != "" {
		in.AuthorNote = prompt.NewRenderer().Render(note, ctx)
	}
	in.AuthorNoteDepth = depth
	return prompt.Assemble(in)
}
