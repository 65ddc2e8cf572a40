package auxiliaryui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

type Help struct {
	app  *tview.Application
	Flex *tview.Flex
	back func()

	help *tview.Form
}

func NewHelp(app *tview.Application, back func()) *Help {
	return &Help{
		app:  app,
		Flex: tview.NewFlex().SetDirection(tview.FlexRow),
		back: back,
	}
}

func (a *Help) Build() {
	a.Flex.Clear()
	defer a.setFlex()

	a.help = tview.NewForm().
		AddTextView("Help:", HelpContent, 0, 0, true, true).
		AddButton("Back", a.back)
	a.help.SetBorder(true).SetTitle("Help").SetTitleAlign(tview.AlignLeft)
	a.help.SetCancelFunc(a.back)
	a.help.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Modifiers() == tcell.ModAlt && (event.Rune() == 'B' || event.Rune() == 'b') {
			a.back()
			return nil
		}
		return event
	})
}

func (a *Help) setFlex() {
	a.Flex.AddItem(a.help, 0, 1, true)
}

const HelpContent string = `==============================
Plumcave - Help & Documentation
==============================

Plumcave keeps encrypted backups of your files in storage you choose:
an S3 bucket, an Azure Blob container or a plain document service.
Every key is made on this machine. The storage only ever sees
ciphertext chunks and random identifiers.

----------------------------------------------------------------------
1. Logging In
----------------------------------------------------------------------
There is no account to register. Your email and password are stretched
into a master key with Argon2id, and that key is your space. The same
pair always opens the same backups. A different pair opens an empty
space.

If you forget the password, nothing can recover the backups.

----------------------------------------------------------------------
2. Creating a Backup
----------------------------------------------------------------------
  1. Press Alt+N on the backups page.
  2. Pick a file from the tree, or start typing to search for one.
  3. Move the mouse around the entropy box. Each movement is hashed
     into a 4096 byte pool that becomes the backup's random key.
  4. Press Alt+U when the quality is high enough for you.

The file is sealed with Serpent and AES-GCM, split into chunks and
uploaded. The record holding the wrapped key goes up last.

----------------------------------------------------------------------
3. Sharing
----------------------------------------------------------------------
Alt+S shows a tag for the selected backup. Anyone holding the tag
can fetch that one backup from the entry menu, and nothing else. Treat
a tag like a password.

Type an email under "Send to" and press Send to drop the tag into that
user's inbox. It is sealed to their public key, only they can open it.
Alt+I on the backups page opens your own inbox, Alt+F fetches the
selected entry and Alt+X removes it.

----------------------------------------------------------------------
4. Key Bindings
----------------------------------------------------------------------
  - Arrow Up / Down  : Move between items or fields
  - Tab / Shift+Tab  : Switch focus between input fields
  - Enter            : Confirm a choice or activate a button
  - Esc              : Go back
  - Alt+<key>        : Shortcuts listed at the bottom of each page

----------------------------------------------------------------------
5. Troubleshooting
----------------------------------------------------------------------
  - "Backup is incomplete": a chunk is missing from storage. The backup
    cannot be restored.
  - "Backup failed its integrity check": the stored data was changed.
    Nothing is written to disk.
  - Storage errors: check the [storage] section of the config file,
    shown under Settings.
`
