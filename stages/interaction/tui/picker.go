package interactionui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"plumcave/tui/consts/pages"
	"plumcave/tui/stages/interaction"

	"github.com/docker/go-units"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	viewTree    = "tree"
	viewResults = "results"
	viewConfirm = "confirm"

	labelDescription = "Description:"
)

// Picker chooses the file for a new backup, from a lazy directory tree or a
// fuzzy search below the selected tree node.
type Picker struct {
	app     *tview.Application
	flex    *tview.Flex
	updater *Updater
	service *interaction.Service

	query   *tview.InputField
	views   *tview.Pages
	tree    *tview.TreeView
	results *tview.Table
	confirm *tview.Form

	root       string
	showHidden bool
	stopSearch context.CancelFunc
}

func newPicker(app *tview.Application, updater *Updater, service *interaction.Service) *Picker {
	return &Picker{
		app:     app,
		flex:    tview.NewFlex().SetDirection(tview.FlexRow),
		updater: updater,
		service: service,
	}
}

func (s *Picker) buildPicker() {
	s.cancelSearch()
	s.root = startDir()

	s.query = tview.NewInputField().
		SetPlaceholder(" type to search ").
		SetPlaceholderTextColor(tcell.ColorFloralWhite).
		SetFieldTextColor(tcell.ColorWhite)
	s.query.SetLabel(fmt.Sprintf(" In: %s%c ", s.root, filepath.Separator))

	s.buildTree()
	s.buildResults()
	s.confirm = tview.NewForm()
	s.confirm.SetBorder(true).SetTitle("New Backup").SetTitleAlign(tview.AlignLeft)

	s.views = tview.NewPages().
		AddPage(viewTree, s.tree, true, true).
		AddPage(viewResults, s.results, true, false).
		AddPage(viewConfirm, s.confirm, true, false)

	s.flex.Clear().
		AddItem(s.query, 2, 1, false).
		AddItem(s.views, 0, 1, true)
}

func startDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	if dir, err := os.Getwd(); err == nil {
		return dir
	}
	return string(filepath.Separator)
}

func (s *Picker) show(view string) {
	s.views.SwitchToPage(view)
	_, item := s.views.GetFrontPage()
	s.app.SetFocus(item)
}

func (s *Picker) buildTree() {
	rootNode := tview.NewTreeNode(s.root).
		SetColor(tcell.ColorRed).
		SetReference(s.root)
	s.tree = tview.NewTreeView().SetRoot(rootNode).SetCurrentNode(rootNode)
	s.expand(rootNode, s.root)

	s.tree.SetChangedFunc(func(node *tview.TreeNode) {
		if dir, ok := node.GetReference().(string); ok {
			s.query.SetLabel(fmt.Sprintf(" In: %s ", s.searchRoot(dir)))
		}
	})
	s.tree.SetSelectedFunc(func(node *tview.TreeNode) {
		path, ok := node.GetReference().(string)
		if !ok {
			return
		}
		if len(node.GetChildren()) > 0 {
			node.SetExpanded(!node.IsExpanded())
			return
		}
		s.expand(node, path)
	})

	s.tree.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Modifiers() == tcell.ModAlt:
			switch unicode.ToLower(event.Rune()) {
			case 'h':
				s.showHidden = !s.showHidden
				rootNode.ClearChildren()
				s.expand(rootNode, s.root)
				return nil
			case 'b':
				s.updater.switchPage(pages.Interaction.BACKUPS)
				return nil
			}
		case event.Key() == tcell.KeyRune && unicode.IsPrint(event.Rune()):
			s.search(s.query.GetText() + string(event.Rune()))
			return nil
		case event.Key() == tcell.KeyESC:
			for _, child := range rootNode.GetChildren() {
				child.CollapseAll()
			}
			return nil
		}
		return event
	})
}

// expand loads the children of a directory node, or confirms a file.
func (s *Picker) expand(node *tview.TreeNode, path string) {
	info, err := os.Stat(path)
	if err != nil {
		go s.updater.setError(fmt.Sprintf("Cannot open %s", filepath.Base(path)), 0)
		return
	}
	if !info.IsDir() {
		s.confirmFile(path)
		return
	}

	entries, err := listDir(path, s.showHidden)
	if err != nil {
		go s.updater.setError(fmt.Sprintf("Cannot read %s", filepath.Base(path)), 0)
		return
	}
	if len(entries) == 0 {
		node.AddChild(tview.NewTreeNode("(empty)").SetSelectable(false).SetColor(tcell.ColorGray))
		return
	}
	for _, e := range entries {
		child := tview.NewTreeNode(e.Name()).SetReference(filepath.Join(path, e.Name()))
		if e.IsDir() {
			child.SetColor(tcell.ColorGreen)
		}
		node.AddChild(child)
	}
}

// searchRoot is dir itself, or its parent when it names a file.
func (s *Picker) searchRoot(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}

func (s *Picker) buildResults() {
	s.results = tview.NewTable().
		SetSeparator(tview.Borders.Vertical).
		SetFixed(1, 0).
		SetSelectable(true, false).
		SetSelectedStyle(tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack))
	s.results.SetBorder(true).SetTitle("Matches").SetTitleAlign(tview.AlignLeft)

	s.results.SetSelectedFunc(func(row, _ int) {
		path, ok := s.results.GetCell(row, 0).GetReference().(string)
		if !ok {
			return
		}
		s.cancelSearch()
		s.query.SetText("")
		s.confirmFile(path)
	})

	s.results.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Modifiers() != 0 && event.Modifiers() != tcell.ModShift {
			return event
		}
		query := []rune(s.query.GetText())
		switch event.Key() {
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if len(query) > 0 {
				query = query[:len(query)-1]
			}
		case tcell.KeyESC:
			query = nil
		case tcell.KeyRune:
			if !unicode.IsPrint(event.Rune()) {
				return event
			}
			query = append(query, event.Rune())
		default:
			return event
		}

		if len(query) == 0 {
			s.backToTree()
		} else {
			s.search(string(query))
		}
		return nil
	})
}

func (s *Picker) resetResults() {
	s.results.Clear()
	for col, h := range []string{"#", "Name", "Size", "Modified"} {
		cell := tview.NewTableCell(h).SetSelectable(false).SetAttributes(tcell.AttrBold)
		if col == 1 {
			cell.SetExpansion(1)
		} else {
			cell.SetAlign(tview.AlignCenter)
		}
		s.results.SetCell(0, col, cell)
	}
	s.results.Select(1, 0)
}

func (s *Picker) cancelSearch() {
	if s.stopSearch != nil {
		s.stopSearch()
		s.stopSearch = nil
	}
}

func (s *Picker) backToTree() {
	s.cancelSearch()
	s.query.SetText("")
	s.show(viewTree)
}

// search restarts the walk for query under the selected tree node. Hits are
// streamed into the table until the next keystroke cancels the walk.
func (s *Picker) search(query string) {
	s.cancelSearch()
	ctx, cancel := context.WithCancel(context.Background())
	s.stopSearch = cancel

	s.query.SetText(query)
	s.resetResults()
	s.show(viewResults)

	root := s.root
	if node := s.tree.GetCurrentNode(); node != nil {
		if path, ok := node.GetReference().(string); ok {
			root = s.searchRoot(path)
		}
	}

	hits := make(chan fileHit, 100)
	go findFiles(ctx, root, query, s.showHidden, maxSearchResults, hits)
	go func() {
		for hit := range hits {
			s.app.QueueUpdateDraw(func() {
				if ctx.Err() == nil {
					s.addResult(hit)
				}
			})
		}
	}()
}

func (s *Picker) addResult(hit fileHit) {
	row := s.results.GetRowCount()
	s.results.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf(" %d ", row)).SetReference(hit.path))
	s.results.SetCell(row, 1, tview.NewTableCell(" "+hit.info.Name()).SetExpansion(1))
	s.results.SetCell(row, 2, tview.NewTableCell(" "+units.HumanSize(float64(hit.info.Size()))+" ").SetAlign(tview.AlignRight))
	s.results.SetCell(row, 3, tview.NewTableCell(" "+units.HumanDuration(time.Since(hit.info.ModTime()))+" ago ").SetAlign(tview.AlignRight))
}

func (s *Picker) confirmFile(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		go s.updater.setError("Only regular files can be backed up.", 0)
		return
	}

	s.confirm.Clear(true).
		AddTextView("File:", path, 0, 1, true, false).
		AddTextView("Size:", units.HumanSize(float64(info.Size())), 0, 1, true, false).
		AddInputField(labelDescription, "", 50, nil, nil).
		AddButton("Cancel", s.backToTree).
		AddButton("Next", func() {
			desc := s.confirm.GetFormItemByLabel(labelDescription).(*tview.InputField).GetText()
			s.updater.startBackup(path, strings.TrimSpace(desc))
		}).
		SetButtonsAlign(tview.AlignCenter).
		SetCancelFunc(s.backToTree)
	s.confirm.SetFocus(2)

	s.show(viewConfirm)
}
