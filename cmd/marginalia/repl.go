package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/phroun/marginalia"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive session for anchoring and relocating comments",
	RunE: func(cmd *cobra.Command, args []string) error {
		runREPL()
		return nil
	},
}

// REPL holds the state of the interactive session
type REPL struct {
	engine   *marginalia.Engine
	doc      *marginalia.Document
	nav      *marginalia.Navigator
	scroll   *marginalia.ScrollState
	comments []marginalia.Comment
	author   string
	reader   *bufio.Reader
}

func runREPL() {
	fmt.Println(styles.Title.Render("Marginalia REPL - comment anchoring demo"))
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	repl := &REPL{
		engine: marginalia.NewEngine(state.engineOptions(marginalia.TimerScheduler{})),
		scroll: &marginalia.ScrollState{},
		author: "user",
		reader: bufio.NewReader(os.Stdin),
	}
	defer repl.engine.Stop()

	for {
		fmt.Print("marginalia> ")
		input, err := repl.reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !repl.handleCommand(input) {
			break
		}
	}

	if repl.doc != nil {
		repl.doc.Close()
	}
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		fmt.Println("Goodbye!")
		return false

	case "new":
		r.cmdNew(strings.TrimSpace(strings.TrimPrefix(input, parts[0])))

	case "open":
		r.cmdOpen(args)

	case "close":
		r.cmdClose()

	case "status":
		r.cmdStatus()

	case "dump":
		r.cmdDump()

	case "tree":
		r.cmdTree()

	case "insert":
		r.cmdInsert(args)

	case "delete":
		r.cmdDelete(args)

	case "author":
		r.cmdAuthor(args)

	case "comment":
		r.cmdComment(args)

	case "comments", "render":
		r.cmdRender()

	case "approve", "deny", "pending":
		r.cmdSetStatus(cmd, args)

	case "goto":
		r.cmdGoto(args)

	case "load":
		r.cmdLoad(args)

	case "save":
		r.cmdSave(args)

	default:
		fmt.Printf("Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	help := `
Available Commands:
-------------------

DOCUMENT:
  new <text>              Create a document; separate paragraphs with ' | '
  open <filepath>         Open an .html or plain text file
  close                   Close the current document
  status                  Show document and comment counts
  dump                    Show the document text
  tree                    Show the document tree, highlights included

EDITING:
  insert <offset> <text>  Insert text at a rune offset (\n and \t are expanded)
  delete <offset> <len>   Delete runes starting at an offset

COMMENTS:
  author <id>             Set the author used for new comments
  comment <start> <end>   Anchor a new comment to runes [start, end)
  comments, render        Resolve all comments and show the margin
  approve|deny|pending <id>
                          Change a comment's status (id prefixes work)
  goto <id>               Scroll to a comment's text and highlight it
  load <filepath>         Replace comments with a YAML comments file
  save <filepath>         Write comments to a YAML file

OTHER:
  help                    Show this help message
  quit, exit              Exit the REPL
`
	fmt.Println(help)
}

func (r *REPL) cmdNew(text string) {
	text = strings.ReplaceAll(text, "\\n", "\n")
	r.replaceDocument(marginalia.NewDocument(strings.Split(text, " | ")...))
	fmt.Printf("Created new document with %d runes\n", r.doc.RuneCount())
}

func (r *REPL) cmdOpen(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: open <filepath>")
		return
	}
	doc, err := loadDocument(args[0])
	if err != nil {
		fmt.Println(styles.Error.Render(fmt.Sprintf("Open error: %v", err)))
		return
	}
	r.replaceDocument(doc)
	fmt.Printf("Opened %s: %d runes\n", args[0], doc.RuneCount())
}

func (r *REPL) replaceDocument(doc *marginalia.Document) {
	if r.doc != nil {
		r.nav.Clear()
		r.doc.Close()
	}
	r.doc = doc
	r.nav = r.engine.Navigator(doc, r.scroll)
}

func (r *REPL) cmdClose() {
	if r.doc == nil {
		fmt.Println("No document is open")
		return
	}

	r.nav.Clear()
	r.doc.Close()
	r.doc = nil
	r.nav = nil
	fmt.Println("Document closed")
}

func (r *REPL) cmdStatus() {
	if r.doc == nil {
		fmt.Println("No document is open. Use 'new <text>' to create one.")
		return
	}

	fmt.Println("Document Status:")
	fmt.Printf("  Runes: %d\n", r.doc.RuneCount())
	fmt.Printf("  Comments: %d\n", len(r.comments))
	fmt.Printf("  Author: %s\n", authorStyle(r.engine.Color()(r.author)).Render(r.author))
	fmt.Printf("  Highlighted: %v, scroll: %.0f\n", r.nav.Highlighted(), r.scroll.Y())
}

func (r *REPL) cmdDump() {
	if !r.ensureDocument() {
		return
	}

	fmt.Println("Content:")
	fmt.Println("--------")
	fmt.Println(r.doc.Text())
	fmt.Println("--------")
	fmt.Printf("Total: %d runes\n", r.doc.RuneCount())
}

func (r *REPL) cmdTree() {
	if !r.ensureDocument() {
		return
	}

	for _, line := range strings.Split(strings.TrimRight(r.doc.OutlineString(), "\n"), "\n") {
		switch {
		case strings.Contains(line, "<mark active>"):
			line = styles.Mark.Render(line)
		case strings.Contains(line, "<mark fading>"):
			line = styles.Fading.Render(line)
		}
		fmt.Println(line)
	}
}

func (r *REPL) cmdInsert(args []string) {
	if !r.ensureDocument() {
		return
	}
	if len(args) < 2 {
		fmt.Println("Usage: insert <offset> <text>")
		return
	}

	offset, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Invalid offset: %v\n", err)
		return
	}

	text := strings.Join(args[1:], " ")
	text = strings.ReplaceAll(text, "\\n", "\n")
	text = strings.ReplaceAll(text, "\\t", "\t")

	if err := r.doc.InsertText(offset, text); err != nil {
		fmt.Println(styles.Error.Render(fmt.Sprintf("Insert error: %v", err)))
		return
	}
	fmt.Printf("Inserted %d runes at %d\n", len([]rune(text)), offset)
}

func (r *REPL) cmdDelete(args []string) {
	if !r.ensureDocument() {
		return
	}
	if len(args) < 2 {
		fmt.Println("Usage: delete <offset> <length>")
		return
	}

	offset, err1 := strconv.Atoi(args[0])
	length, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Println("Offset and length must be integers")
		return
	}

	if err := r.doc.DeleteText(offset, length); err != nil {
		fmt.Println(styles.Error.Render(fmt.Sprintf("Delete error: %v", err)))
		return
	}
	fmt.Printf("Deleted %d runes at %d\n", length, offset)
}

func (r *REPL) cmdAuthor(args []string) {
	if len(args) < 1 {
		fmt.Printf("Current author: %s\n", r.author)
		return
	}
	r.author = args[0]
	fmt.Printf("Author set to %s\n", authorStyle(r.engine.Color()(r.author)).Render(r.author))
}

func (r *REPL) cmdComment(args []string) {
	if !r.ensureDocument() {
		return
	}
	if len(args) < 2 {
		fmt.Println("Usage: comment <start> <end>")
		return
	}

	start, err1 := strconv.Atoi(args[0])
	end, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Println("Start and end must be integers")
		return
	}

	rec, err := marginalia.ExtractRange(r.doc, start, end, r.extractOptions())
	if err != nil {
		fmt.Println(styles.Error.Render(fmt.Sprintf("Cannot anchor: %v", err)))
		return
	}

	c := marginalia.Comment{
		ID:       uuid.NewString(),
		AuthorID: r.author,
		Anchor:   &rec,
	}
	r.comments = append(r.comments, c)
	fmt.Printf("Comment %s anchored to %q\n", authorStyle(r.engine.Color()(c.AuthorID)).Render(c.ID), rec.Text)
}

func (r *REPL) extractOptions() marginalia.ExtractOptions {
	return marginalia.ExtractOptions{ContextLength: state.config.Anchor.ContextLength}
}

func (r *REPL) cmdRender() {
	if !r.ensureDocument() {
		return
	}
	frame := r.engine.Render(r.doc, r.comments)
	printFrame(os.Stdout, r.comments, frame, r.engine.Color())
}

func (r *REPL) cmdSetStatus(cmd string, args []string) {
	if len(args) < 1 {
		fmt.Printf("Usage: %s <id>\n", cmd)
		return
	}
	i := r.findComment(args[0])
	if i < 0 {
		return
	}

	status, err := marginalia.ParseStatus(map[string]string{
		"approve": "approved",
		"deny":    "denied",
		"pending": "pending",
	}[cmd])
	if err != nil {
		fmt.Println(styles.Error.Render(err.Error()))
		return
	}
	r.comments[i].Status = status
	fmt.Printf("Comment %s is now %s\n", r.comments[i].ID, statusStyle(status).Render(status.String()))
}

func (r *REPL) cmdGoto(args []string) {
	if !r.ensureDocument() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: goto <id>")
		return
	}
	i := r.findComment(args[0])
	if i < 0 {
		return
	}

	c := r.comments[i]
	if c.Anchor == nil {
		fmt.Println("Comment has no anchor")
		return
	}
	rng, ok := r.engine.Resolver().Resolve(*c.Anchor, r.doc)
	if !ok {
		fmt.Println(styles.Error.Render("Comment is orphaned: its text is gone"))
		return
	}
	if !r.nav.NavigateTo(rng, marginalia.NavigateOptions{}) {
		fmt.Println(styles.Warning.Render("Could not highlight the comment's text"))
		return
	}
	fmt.Printf("Scrolled to %.0f, highlighting %q (%s). Use 'tree' to see it.\n",
		r.scroll.Y(), rng.Text, rng.Strategy)
}

func (r *REPL) cmdLoad(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: load <filepath>")
		return
	}
	comments, err := marginalia.LoadComments(args[0])
	if err != nil {
		fmt.Println(styles.Error.Render(fmt.Sprintf("Load error: %v", err)))
		return
	}
	r.comments = comments
	fmt.Printf("Loaded %d comments\n", len(comments))
}

func (r *REPL) cmdSave(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: save <filepath>")
		return
	}
	if err := marginalia.SaveComments(args[0], r.comments); err != nil {
		fmt.Println(styles.Error.Render(fmt.Sprintf("Save error: %v", err)))
		return
	}
	fmt.Printf("Saved %d comments to %s\n", len(r.comments), args[0])
}

// findComment returns the index of the only comment whose ID starts with prefix.
func (r *REPL) findComment(prefix string) int {
	found := -1
	for i, c := range r.comments {
		if strings.HasPrefix(c.ID, prefix) {
			if found >= 0 {
				fmt.Printf("Ambiguous comment id %q\n", prefix)
				return -1
			}
			found = i
		}
	}
	if found < 0 {
		fmt.Printf("No comment matches %q\n", prefix)
	}
	return found
}

func (r *REPL) ensureDocument() bool {
	if r.doc == nil {
		fmt.Println("No document is open. Use 'new <text>' to create one.")
		return false
	}
	return true
}
